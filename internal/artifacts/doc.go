// Package artifacts recognises tar and zip archives by their declared media
// type and extracts them into a scratch directory for scanning. The scratch
// directory lives only for one extract-and-scan cycle.
package artifacts
