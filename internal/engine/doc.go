// Package engine contains the core scanning logic for idscan. It classifies
// a target path, extracts archives into scratch directories, decompresses
// and matches file content against compiled detectors, and returns one
// report per file with hits. This package is internal; external consumers
// should use the stable facade in pkg/core.
package engine
