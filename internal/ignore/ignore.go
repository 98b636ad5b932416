// Package ignore reads .idscanignore files: one pattern per line, '#'
// comments, a trailing '/' to match a directory and everything below it.
// Patterns without a '/' match at any depth.
package ignore

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up at the root of a directory scan.
const FileName = ".idscanignore"

// Matcher reports whether a slash-separated relative path is ignored. The
// zero value ignores nothing.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	glob string
	dir  bool
}

// Load reads patterns from path. A missing file yields an empty matcher and
// no error.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Matcher{}, nil
	}
	if err != nil {
		return Matcher{}, err
	}
	defer f.Close()

	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pt := pattern{}
		if strings.HasSuffix(line, "/") {
			pt.dir = true
			line = strings.TrimRight(line, "/")
		}
		line = strings.TrimPrefix(line, "/")
		if !strings.Contains(line, "/") && !strings.HasPrefix(line, "**") {
			line = "**/" + line
		}
		if !doublestar.ValidatePattern(line) {
			continue
		}
		pt.glob = line
		m.patterns = append(m.patterns, pt)
	}
	return m, sc.Err()
}

// Empty reports whether the matcher has no patterns.
func (m Matcher) Empty() bool { return len(m.patterns) == 0 }

// Match reports whether rel, or one of its parent directories, is ignored.
func (m Matcher) Match(rel string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	rel = strings.Trim(strings.ReplaceAll(rel, "\\", "/"), "/")
	for _, pt := range m.patterns {
		if !pt.dir {
			if ok, _ := doublestar.Match(pt.glob, rel); ok {
				return true
			}
		}
		// a pattern also matches any parent directory of rel
		for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if ok, _ := doublestar.Match(pt.glob, dir); ok {
				return true
			}
		}
	}
	return false
}

// MatchDir reports whether the directory rel is ignored.
func (m Matcher) MatchDir(rel string) bool {
	rel = strings.Trim(strings.ReplaceAll(rel, "\\", "/"), "/")
	for _, pt := range m.patterns {
		if ok, _ := doublestar.Match(pt.glob, rel); ok {
			return true
		}
	}
	return m.Match(rel)
}
