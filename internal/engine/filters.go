package engine

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// globFilter holds the include/exclude globs applied to file candidates.
type globFilter struct {
	includes []string
	excludes []string
}

func newGlobFilter(include, exclude string) globFilter {
	return globFilter{includes: parseGlobsList(include), excludes: parseGlobsList(exclude)}
}

// allowed returns true if relPath passes the filter. Include globs, if
// provided, act as a positive filter; exclude globs are subtracted last.
func (f globFilter) allowed(relPath string) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	if len(f.includes) > 0 && !matchAnyGlob(rp, f.includes) {
		return false
	}
	if len(f.excludes) > 0 && matchAnyGlob(rp, f.excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	base := filepath.Base(pathToMatch)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
