package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/darmiel/polsim/internal/core"
)

var _ core.RunRecorder = (*FileRecorder)(nil)

// FileRecorder appends run records to a file, one JSON object per line.
type FileRecorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

func NewFileRecorder(filePath string) (*FileRecorder, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening run history file: %w", err)
	}
	return &FileRecorder{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (f *FileRecorder) Log(record core.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(record); err != nil {
		return fmt.Errorf("writing run history entry: %w", err)
	}
	return nil
}

func (f *FileRecorder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

// ReadFile returns the last limit records of a history file written by FileRecorder.
// A missing file yields no records. A limit <= 0 returns all records.
func ReadFile(filePath string, limit int) ([]core.RunRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run history file: %w", err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	var records []core.RunRecord
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var record core.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("run history line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading run history file: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
