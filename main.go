package main

import "github.com/redactyl/idscan/cmd/idscan"

func main() { idscan.Execute() }
