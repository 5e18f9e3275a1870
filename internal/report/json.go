package report

import (
	"encoding/json"
	"io"

	"github.com/devguard/devguard/internal/types"
)

// WriteJSON writes r as an indented JSON document.
func WriteJSON(w io.Writer, r types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteJSONLine writes r as a single line, for streaming one snapshot per
// line.
func WriteJSONLine(w io.Writer, r types.Report) error {
	return json.NewEncoder(w).Encode(r)
}
