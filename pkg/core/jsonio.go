package core

import (
	"io"

	"github.com/redactyl/idscan/internal/report"
)

// MarshalReports pretty-prints reports as JSON for humans or pipelines.
func MarshalReports(w io.Writer, reports []Report) error {
	return report.WriteJSON(w, reports, report.PrintOptions{})
}
