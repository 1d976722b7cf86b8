package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/darmiel/polsim/internal/accesslog"
	"github.com/darmiel/polsim/internal/audit"
	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/logging"
	"github.com/darmiel/polsim/internal/source"
)

// Factory builds the collaborators commands need from flags and settings.
type Factory struct {
	// PolicyPath is the policy location used by single-policy commands (why, debug).
	PolicyPath string

	// History replaces the recorder configured with --history if set.
	History core.RunRecorder
}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) sourceOptions() source.Options {
	return source.Options{
		GitHubToken:   viper.GetString(GitHubTokenKey),
		GitHubBaseURL: viper.GetString(GitHubBaseURLKey),
	}
}

// FetchPolicy loads and validates the policy at location (file path or github:// URL).
func (f *Factory) FetchPolicy(ctx context.Context, location string) (core.Policy, error) {
	fetcher, err := source.Parse(location, f.sourceOptions())
	if err != nil {
		return core.Policy{}, err
	}
	logger := logging.NewZLogger(log.Ctx(ctx).With().Str("policy", location).Logger())
	policy, err := fetcher.Fetch(ctx, logger)
	if err != nil {
		return core.Policy{}, fmt.Errorf("loading policy '%s': %w", location, err)
	}
	return policy, nil
}

// LoadPolicy loads the policy selected with --policy.
func (f *Factory) LoadPolicy(ctx context.Context) (core.Policy, error) {
	if f.PolicyPath == "" {
		return core.Policy{}, fmt.Errorf("policy file not specified (use --policy)")
	}
	return f.FetchPolicy(ctx, f.PolicyPath)
}

// LoadEntries reads the access log and applies the optional --where filter.
func (f *Factory) LoadEntries(path, identityColumn, where string) ([]core.LogEntry, error) {
	filter, err := accesslog.CompileFilter(where)
	if err != nil {
		return nil, err
	}
	return accesslog.LoadFile(path, accesslog.Options{
		IdentityColumn: identityColumn,
		Filter:         filter,
	})
}

// Recorder returns the run history configured with --history, or a no-op recorder.
func (f *Factory) Recorder() (core.RunRecorder, error) {
	if f.History != nil {
		return f.History, nil
	}
	path := viper.GetString(HistoryKey)
	if path == "" {
		return audit.NewNopRecorder(), nil
	}
	return audit.NewFileRecorder(path)
}
