package types

import (
	"fmt"
	"sort"
	"strconv"
)

// Alphabet selects whether matching runs over decoded text or raw bytes.
type Alphabet int

const (
	Text Alphabet = iota
	Binary
)

func (a Alphabet) String() string {
	if a == Binary {
		return "binary"
	}
	return "text"
}

// Match describes one detector hit. Text scans fill Line; binary scans fill
// Offset. A report never mixes the two.
type Match struct {
	Detector string   `json:"detector"`
	Alphabet Alphabet `json:"-"`
	Line     int      `json:"line,omitempty"`
	Offset   int64    `json:"offset,omitempty"`
	Excerpt  string   `json:"match"`
}

// Locator renders the position of the match: a decimal line number for text
// or a hex byte offset for binary content.
func (m Match) Locator() string {
	if m.Alphabet == Binary {
		return fmt.Sprintf("0x%x", m.Offset)
	}
	return strconv.Itoa(m.Line)
}

func (m Match) position() int64 {
	if m.Alphabet == Binary {
		return m.Offset
	}
	return int64(m.Line)
}

// Report groups the matches found in one scanned subject.
type Report struct {
	Subject  string   `json:"subject"`
	Alphabet Alphabet `json:"-"`
	Matches  []Match  `json:"matches"`
}

// SortMatches orders matches ascending by locator. Ties keep discovery order.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].position() < ms[j].position()
	})
}

// SortReports orders reports by subject so output is deterministic when
// files were scanned concurrently.
func SortReports(rs []Report) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Subject < rs[j].Subject
	})
}
