package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/redactyl/idscan/internal/types"
)

// PrintOptions control the human-readable footer.
type PrintOptions struct {
	Duration     time.Duration
	FilesScanned int
	Skipped      int
}

// locatorHeader names the first column for the alphabet of a report.
func locatorHeader(a types.Alphabet) string {
	if a == types.Binary {
		return "Offset"
	}
	return "Line"
}

// PrintTable renders one report: a title line with the subject followed by
// a three-column table of locator, detector and matched text.
func PrintTable(w io.Writer, rep types.Report) error {
	if _, err := fmt.Fprintln(w, rep.Subject); err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header(locatorHeader(rep.Alphabet), "Search Term", "Match")
	for _, m := range rep.Matches {
		if err := table.Append([]string{m.Locator(), m.Detector, m.Excerpt}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintTables renders every report in order followed by a summary footer
// when stats are available.
func PrintTables(w io.Writer, reports []types.Report, opts PrintOptions) error {
	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := PrintTable(w, rep); err != nil {
			return err
		}
	}
	if len(reports) > 0 && (opts.Duration > 0 || opts.FilesScanned > 0) {
		fmt.Fprintln(w)
	}
	return PrintFooter(w, reports, opts)
}

// PrintFooter writes the scan summary. It is silent when no stats are set.
func PrintFooter(w io.Writer, reports []types.Report, opts PrintOptions) error {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return nil
	}
	fmt.Fprintf(w, "Matches: %d in %d file(s)\n", countMatches(reports), len(reports))
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.Skipped > 0 {
		fmt.Fprintf(w, "Skipped: %d\n", opts.Skipped)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	return nil
}

func countMatches(reports []types.Report) int {
	n := 0
	for _, r := range reports {
		n += len(r.Matches)
	}
	return n
}
