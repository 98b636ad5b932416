package report

import (
	"strings"

	"github.com/fatih/color"

	"github.com/redactyl/idscan/internal/types"
)

// Highlighter returns the markers used to wrap matches in verbose
// excerpts. With colour enabled the markers switch the terminal to bold red
// and back instead of printing brackets.
func Highlighter(enabled bool) types.Markers {
	if !enabled {
		return types.DefaultMarkers
	}
	c := color.New(color.FgRed, color.Bold)
	c.EnableColor()
	const hole = "\x00"
	start, end, _ := strings.Cut(c.Sprint(hole), hole)
	return types.Markers{Start: start, End: end}
}
