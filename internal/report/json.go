package report

import (
	"encoding/json"
	"io"

	"github.com/darmiel/polsim/internal/core"
)

func WriteJSON(w io.Writer, report *core.ImpactReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
