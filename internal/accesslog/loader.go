package accesslog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/darmiel/polsim/internal/core"
)

const (
	DefaultIdentityColumn  = "user_id"
	fallbackIdentityColumn = "identity"
)

// Options control how a CSV access log is read.
type Options struct {
	// IdentityColumn names the column holding the identity. Defaults to "user_id",
	// falling back to "identity" if the header has no such column.
	IdentityColumn string

	// Filter drops entries for which it returns false. Optional.
	Filter *Filter
}

// LoadFile opens the CSV file at path and reads all entries.
func LoadFile(path string, opts Options) ([]core.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening access log: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	entries, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading access log '%s': %w", path, err)
	}
	return entries, nil
}

// Load reads a CSV access log with a header row.
// Columns missing from the header or from a short row leave the attribute absent.
func Load(r io.Reader, opts Options) ([]core.LogEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // malformed rows are reported per entry, not per file

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	identityCol, err := resolveIdentityColumn(columns, opts.IdentityColumn)
	if err != nil {
		return nil, err
	}

	var entries []core.LogEntry
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}

		entry := core.LogEntry{
			Line:     line,
			Identity: field(record, identityCol),
			Request:  buildRequest(record, columns),
		}

		if opts.Filter != nil {
			keep, err := opts.Filter.Match(entry)
			if err != nil {
				return nil, fmt.Errorf("filtering row %d: %w", line, err)
			}
			if !keep {
				continue
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func resolveIdentityColumn(columns map[string]int, name string) (int, error) {
	if name == "" {
		name = DefaultIdentityColumn
	}
	if idx, ok := columns[name]; ok {
		return idx, nil
	}
	if name == DefaultIdentityColumn {
		if idx, ok := columns[fallbackIdentityColumn]; ok {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("header has no identity column '%s'", name)
}

func buildRequest(record []string, columns map[string]int) core.AttributeSet {
	values := make(map[string]string, len(core.RecognizedAttributes))
	for _, attr := range core.RecognizedAttributes {
		idx, ok := columns[attr]
		if !ok || idx >= len(record) {
			continue
		}
		values[attr] = record[idx]
	}
	return core.NewAttributeSet(values)
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
