package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchLocator(t *testing.T) {
	assert.Equal(t, "12", Match{Alphabet: Text, Line: 12}.Locator())
	assert.Equal(t, "0x1f", Match{Alphabet: Binary, Offset: 31}.Locator())
	assert.Equal(t, "0x0", Match{Alphabet: Binary}.Locator())
}

func TestSortMatches_StableOnTies(t *testing.T) {
	ms := []Match{
		{Detector: "b", Line: 3},
		{Detector: "a", Line: 1},
		{Detector: "c", Line: 3},
		{Detector: "d", Line: 2},
	}
	SortMatches(ms)
	var got []string
	for _, m := range ms {
		got = append(got, m.Detector)
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, got)
}

func TestSortReports(t *testing.T) {
	rs := []Report{{Subject: "z.txt"}, {Subject: "a.zip::x"}, {Subject: "m/n.txt"}}
	SortReports(rs)
	assert.Equal(t, "a.zip::x", rs[0].Subject)
	assert.Equal(t, "z.txt", rs[2].Subject)
}

func TestVirtualPath(t *testing.T) {
	vp := BuildVirtualPath("data/backup.zip", `docs\secret.txt`)
	assert.Equal(t, "data/backup.zip::docs/secret.txt", vp)
}

func TestMarkersWrap(t *testing.T) {
	assert.Equal(t, ">>>x<<<", DefaultMarkers.Wrap("x"))
	assert.Equal(t, "[x]", Markers{Start: "[", End: "]"}.Wrap("x"))
}
