// Package idscan provides the command-line interface for the idscan tool.
// It parses flags, merges them with local and global config files, runs the
// scan engine over one path, and renders the reports.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/redactyl/idscan/cmd/idscan"
//	func main() { idscan.Execute() }
package idscan
