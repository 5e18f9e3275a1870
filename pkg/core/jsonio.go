package core

import (
	"io"

	"github.com/devguard/devguard/internal/report"
)

// MarshalReport pretty-prints a report as JSON for humans or pipelines.
func MarshalReport(w io.Writer, r Report) error {
	return report.WriteJSON(w, r)
}
