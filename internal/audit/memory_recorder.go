package audit

import (
	"sync"

	"github.com/darmiel/polsim/internal/core"
)

var _ core.RunRecorder = (*MemoryRecorder)(nil)

// MemoryRecorder keeps run records in memory, oldest first.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []core.RunRecord
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Log(record core.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)
	return nil
}

// Recent returns up to limit of the most recent records, oldest first.
func (m *MemoryRecorder) Recent(limit int) []core.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit = min(limit, len(m.records))
	out := make([]core.RunRecord, limit)
	copy(out, m.records[len(m.records)-limit:])
	return out
}

// Comparing returns the records of runs that compared exactly these two rule sets.
func (m *MemoryRecorder) Comparing(oldFingerprint, newFingerprint string) []core.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.RunRecord
	for _, r := range m.records {
		if r.OldFingerprint == oldFingerprint && r.NewFingerprint == newFingerprint {
			out = append(out, r)
		}
	}
	return out
}

func (m *MemoryRecorder) Close() error {
	return nil
}
