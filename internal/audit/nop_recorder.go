package audit

import "github.com/darmiel/polsim/internal/core"

var _ core.RunRecorder = NopRecorder{}

// NopRecorder drops run records. Used when no history file is configured.
type NopRecorder struct{}

func NewNopRecorder() NopRecorder {
	return NopRecorder{}
}

func (NopRecorder) Log(core.RunRecord) error { return nil }

func (NopRecorder) Close() error { return nil }
