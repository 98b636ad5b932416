// Package lineindex maps buffer offsets to 1-based line numbers.
package lineindex

import "sort"

// Unit is an element of a scanned buffer: bytes for raw content, runes for
// decoded text.
type Unit interface {
	~byte | ~rune
}

// Index holds the offset just past every '\n' in a buffer. It is strictly
// increasing and has one entry per terminator.
type Index []int

// Build scans buf once for line terminators.
func Build[T Unit](buf []T) Index {
	var idx Index
	for i, c := range buf {
		if c == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// Locate returns the 1-based line containing offset: the number of
// terminators before offset, plus one. Offsets on an unterminated last line
// resolve to len(idx)+1.
func (idx Index) Locate(offset int) int {
	return sort.Search(len(idx), func(i int) bool { return idx[i] > offset }) + 1
}

// Bounds returns the half-open span [start, end) of line within a buffer of
// total units, excluding the terminator.
func (idx Index) Bounds(line, total int) (start, end int) {
	if line > 1 && line-2 < len(idx) {
		start = idx[line-2]
	}
	end = total
	if line-1 < len(idx) {
		end = idx[line-1] - 1
	}
	return start, end
}

// Line returns the content of the given line without its terminator or a
// trailing carriage return, and the offset at which it starts.
func Line[T Unit](idx Index, buf []T, line int) ([]T, int) {
	start, end := idx.Bounds(line, len(buf))
	if end > start && buf[end-1] == '\r' {
		end--
	}
	return buf[start:end], start
}
