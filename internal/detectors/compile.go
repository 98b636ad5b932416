package detectors

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudflare/ahocorasick"
	"github.com/dlclark/regexp2"
	"golang.org/x/text/encoding/charmap"

	"github.com/redactyl/idscan/internal/types"
)

// ErrMatchTimeout is returned when a pattern exceeds its match time budget.
var ErrMatchTimeout = errors.New("match timeout")

// CompileOptions tune compiled detectors.
type CompileOptions struct {
	// MatchTimeout bounds a single pattern evaluation; zero means no bound.
	MatchTimeout time.Duration
}

// Detector is a definition compiled for one alphabet. It is safe for
// concurrent use.
type Detector struct {
	Name     string
	Alphabet types.Alphabet

	re        *regexp2.Regexp
	prefilter *ahocorasick.Matcher
}

// Span is a match position in units of the scanned alphabet: runes for
// text, bytes for binary.
type Span struct {
	Index  int
	Length int
}

// Compile builds one detector per definition for the given alphabet. Every
// call compiles fresh objects, so text and binary detectors never share a
// compiled pattern.
func (r Registry) Compile(alphabet types.Alphabet, opts CompileOptions) ([]*Detector, error) {
	out := make([]*Detector, 0, len(r.defs))
	for _, def := range r.defs {
		d, err := compileDefinition(def, alphabet, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func compileDefinition(def Definition, alphabet types.Alphabet, opts CompileOptions) (*Detector, error) {
	src := def.Source
	if alphabet == types.Binary {
		src = ByteSource(src)
	}
	flags := regexp2.RegexOptions(regexp2.Multiline)
	if def.IgnoreCase {
		flags |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(src, flags)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", def.Name, err)
	}
	if opts.MatchTimeout > 0 {
		re.MatchTimeout = opts.MatchTimeout
	}
	d := &Detector{Name: def.Name, Alphabet: alphabet, re: re}
	if len(def.literals) > 0 {
		d.prefilter = ahocorasick.NewStringMatcher(def.literals)
	}
	return d, nil
}

// ByteSource reinterprets a pattern over the byte alphabet: the UTF-8 bytes
// of src are read back as Latin-1, so each byte becomes one rune in 0-255
// and a non-ASCII literal turns into the byte sequence that encodes it.
// The \d, \w and \s shorthands are narrowed to their ASCII members.
func ByteSource(src string) string {
	s, err := charmap.ISO8859_1.NewDecoder().String(src)
	if err != nil {
		// ISO 8859-1 maps every byte; the decoder does not fail.
		s = src
	}
	return asciiShorthands(s)
}

// Members of the ASCII shorthand classes, usable inside a character class.
var asciiClassBody = map[byte]string{
	'd': `0-9`,
	'w': `A-Za-z0-9_`,
	's': `\t\n\v\f\r `,
}

// asciiShorthands rewrites \d, \w and \s (and their negations outside a
// character class) so they never match bytes above 0x7f. Negated forms
// inside a class are left alone.
func asciiShorthands(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			next := src[i+1]
			i++
			lower := next | 0x20
			body, ok := asciiClassBody[lower]
			switch {
			case !ok:
				b.WriteByte(c)
				b.WriteByte(next)
			case inClass && next == lower:
				b.WriteString(body)
			case inClass:
				b.WriteByte(c)
				b.WriteByte(next)
			case next == lower:
				b.WriteString("[" + body + "]")
			default:
				b.WriteString("[^" + body + "]")
			}
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			// A leading ']' or '^]' is a literal member.
			if i+1 < len(src) && src[i+1] == '^' {
				b.WriteByte('^')
				i++
			}
			if i+1 < len(src) && src[i+1] == ']' {
				b.WriteByte(']')
				i++
			}
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// BytesToRunes maps each byte of b to the rune with the same value. The
// result indexes 1:1 with b, so rune offsets are byte offsets.
func BytesToRunes(b []byte) []rune {
	out := make([]rune, len(b))
	for i, c := range b {
		out[i] = charmap.ISO8859_1.DecodeByte(c)
	}
	return out
}

// MayMatch reports whether raw could contain a match. It is false only when
// a literal prefilter proves the pattern cannot match.
func (d *Detector) MayMatch(raw []byte) bool {
	if d.prefilter == nil {
		return true
	}
	return len(d.prefilter.MatchThreadSafe(bytes.ToLower(raw))) > 0
}

// FindAll returns every non-overlapping, non-empty match in buf in order.
// On a match error the spans found so far are returned with the error.
func (d *Detector) FindAll(buf []rune) ([]Span, error) {
	var out []Span
	m, err := d.re.FindRunesMatch(buf)
	for err == nil && m != nil {
		if m.Length > 0 {
			out = append(out, Span{Index: m.Index, Length: m.Length})
		}
		m, err = d.re.FindNextMatch(m)
	}
	if err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMatchTimeout, d.Name, err)
	}
	return out, nil
}
