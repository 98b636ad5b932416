package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/redactyl/idscan/internal/types"
)

// WriteMarkdown writes one section per report with a match table, for
// pasting into tickets and pull requests.
func WriteMarkdown(w io.Writer, reports []types.Report, opts PrintOptions) error {
	md := markdown.NewMarkdown(w)
	md.H1("Scan Report")
	md.PlainText("")
	if len(reports) == 0 {
		md.PlainText("No matches found.")
	}
	for _, rep := range reports {
		md.H2(rep.Subject)
		md.PlainText("")
		rows := make([][]string, 0, len(rep.Matches))
		for _, m := range rep.Matches {
			rows = append(rows, []string{m.Locator(), m.Detector, "`" + escapeCell(m.Excerpt) + "`"})
		}
		md.Table(markdown.TableSet{
			Header: []string{locatorHeader(rep.Alphabet), "Search Term", "Match"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	if opts.FilesScanned > 0 {
		md.PlainText("Files scanned: " + strconv.Itoa(opts.FilesScanned) + ", matches: " + strconv.Itoa(countMatches(reports)))
	}
	return md.Build()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "`", "'")
}
