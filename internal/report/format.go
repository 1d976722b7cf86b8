package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/darmiel/polsim/internal/core"
)

// Format selects how an impact report is rendered.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown report format '%s' (supported: text, table, json)", s)
}

// Write renders the report in the given format.
func Write(w io.Writer, format Format, report *core.ImpactReport) error {
	switch format {
	case FormatText, "":
		return WriteText(w, report)
	case FormatTable:
		return WriteTable(w, report)
	case FormatJSON:
		return WriteJSON(w, report)
	}
	return fmt.Errorf("unknown report format '%s'", format)
}
