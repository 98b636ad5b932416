package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/redactyl/idscan/internal/detectors"
	"github.com/redactyl/idscan/internal/lineindex"
	"github.com/redactyl/idscan/internal/types"
)

// Match runs every detector over data in the configured alphabet and
// returns the hits sorted by locator.
func (e *Engine) Match(data []byte) ([]types.Match, error) {
	var (
		out []types.Match
		err error
	)
	if e.cfg.Alphabet == types.Binary {
		out, err = e.matchBinary(data)
	} else {
		out, err = e.matchText(data)
	}
	if err != nil {
		return nil, err
	}
	types.SortMatches(out)
	return out, nil
}

func (e *Engine) matchText(data []byte) ([]types.Match, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8 text", ErrUnreadableFile)
	}
	buf := []rune(string(data))
	idx := lineindex.Build(buf)
	var out []types.Match
	for _, d := range e.detectors {
		if !d.MayMatch(data) {
			continue
		}
		spans, err := d.FindAll(buf)
		if err != nil {
			return nil, err
		}
		for _, sp := range spans {
			line := idx.Locate(sp.Index)
			excerpt := string(buf[sp.Index : sp.Index+sp.Length])
			if e.cfg.Verbose {
				excerpt = e.highlight(idx, buf, line, sp)
			}
			out = append(out, types.Match{Detector: d.Name, Alphabet: types.Text, Line: line, Excerpt: excerpt})
		}
	}
	return out, nil
}

// highlight returns the line holding sp with the matched part wrapped in
// markers. A match running past the end of its line is cut there.
func (e *Engine) highlight(idx lineindex.Index, buf []rune, line int, sp detectors.Span) string {
	text, start := lineindex.Line(idx, buf, line)
	from := min(sp.Index-start, len(text))
	to := min(from+sp.Length, len(text))
	return string(text[:from]) + e.cfg.Markers.Wrap(string(text[from:to])) + string(text[to:])
}

func (e *Engine) matchBinary(data []byte) ([]types.Match, error) {
	buf := detectors.BytesToRunes(data)
	var out []types.Match
	for _, d := range e.detectors {
		if !d.MayMatch(data) {
			continue
		}
		spans, err := d.FindAll(buf)
		if err != nil {
			return nil, err
		}
		for _, sp := range spans {
			raw := data[sp.Index : sp.Index+sp.Length]
			out = append(out, types.Match{
				Detector: d.Name,
				Alphabet: types.Binary,
				Offset:   int64(sp.Index),
				Excerpt:  strings.ToValidUTF8(string(raw), "\uFFFD"),
			})
		}
	}
	return out, nil
}
