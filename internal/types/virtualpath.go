package types

import "strings"

// VirtualPathSeparator joins an archive path with the path of a member
// inside it, e.g. "backup.zip::notes/secret.txt".
const VirtualPathSeparator = "::"

// BuildVirtualPath joins an archive subject and a member path.
func BuildVirtualPath(archive, member string) string {
	return archive + VirtualPathSeparator + strings.ReplaceAll(member, "\\", "/")
}

// Markers wrap a match inside its source line in verbose excerpts.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers are used when no highlighter is configured.
var DefaultMarkers = Markers{Start: ">>>", End: "<<<"}

// Wrap returns s enclosed in the markers.
func (m Markers) Wrap(s string) string { return m.Start + s + m.End }
