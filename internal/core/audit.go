package core

import "time"

// RunRecord summarizes a single simulation run for the run history.
type RunRecord struct {
	// ID is the run ID of the impact report
	ID string `json:"id"`

	// Time is the timestamp the run finished
	Time time.Time `json:"time"`

	// OldPolicy and NewPolicy are the policy locations that were compared
	OldPolicy string `json:"old_policy"`
	NewPolicy string `json:"new_policy"`

	// OldFingerprint and NewFingerprint identify the rule sets independent of their location
	OldFingerprint string `json:"old_fingerprint"`
	NewFingerprint string `json:"new_fingerprint"`

	// LogFile is the replayed access log
	LogFile string `json:"log_file,omitempty"`

	Evaluated int `json:"evaluated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`

	// NewlyDenied and NewlyPermitted count transitions, not identities
	NewlyDenied    int `json:"newly_denied"`
	NewlyPermitted int `json:"newly_permitted"`

	// Metadata contains free-form details (e.g. the --where filter)
	Metadata map[string]any `json:"metadata,omitempty"`
}

type RunRecorder interface {
	Log(record RunRecord) error
	Close() error
}
