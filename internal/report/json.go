package report

import (
	"encoding/json"
	"io"

	"github.com/redactyl/idscan/internal/types"
)

type jsonMatch struct {
	Locator  string `json:"locator"`
	Line     int    `json:"line,omitempty"`
	Offset   *int64 `json:"offset,omitempty"`
	Detector string `json:"detector"`
	Match    string `json:"match"`
}

type jsonReport struct {
	Subject  string      `json:"subject"`
	Alphabet string      `json:"alphabet"`
	Matches  []jsonMatch `json:"matches"`
}

type jsonDocument struct {
	Reports      []jsonReport `json:"reports"`
	FilesScanned int          `json:"files_scanned,omitempty"`
	Skipped      int          `json:"skipped,omitempty"`
}

// WriteJSON writes all reports as one indented JSON document.
func WriteJSON(w io.Writer, reports []types.Report, opts PrintOptions) error {
	doc := jsonDocument{Reports: []jsonReport{}, FilesScanned: opts.FilesScanned, Skipped: opts.Skipped}
	for _, rep := range reports {
		jr := jsonReport{Subject: rep.Subject, Alphabet: rep.Alphabet.String(), Matches: make([]jsonMatch, 0, len(rep.Matches))}
		for _, m := range rep.Matches {
			jm := jsonMatch{Locator: m.Locator(), Detector: m.Detector, Match: m.Excerpt}
			if m.Alphabet == types.Binary {
				off := m.Offset
				jm.Offset = &off
			} else {
				jm.Line = m.Line
			}
			jr.Matches = append(jr.Matches, jm)
		}
		doc.Reports = append(doc.Reports, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
