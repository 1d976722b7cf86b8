package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/darmiel/polsim/internal/config"
	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/logging"
)

const githubScheme = "github://"

// Fetcher loads a policy from somewhere.
type Fetcher interface {
	Fetch(ctx context.Context, log logging.InternalLogger) (core.Policy, error)
}

// Options are passed to fetchers that need credentials or endpoints.
type Options struct {
	// GitHubToken authenticates GitHub API requests. Optional for public repositories.
	GitHubToken string

	// GitHubBaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	GitHubBaseURL string
}

// Parse returns the fetcher for a policy location.
// Locations starting with github:// are fetched from a repository
// (github://OWNER/REPO/PATH[@REF]); everything else is a local file path.
func Parse(location string, opts Options) (Fetcher, error) {
	if location == "" {
		return nil, fmt.Errorf("empty policy location")
	}
	if !strings.HasPrefix(location, githubScheme) {
		return &FileFetcher{Path: location}, nil
	}

	cfg, err := parseGitHubLocation(strings.TrimPrefix(location, githubScheme))
	if err != nil {
		return nil, fmt.Errorf("parsing '%s': %w", location, err)
	}
	cfg.Token = opts.GitHubToken
	cfg.BaseURL = opts.GitHubBaseURL
	return NewGitHubFetcher(cfg)
}

// FileFetcher reads a policy from the local filesystem.
type FileFetcher struct {
	Path string
}

func (f *FileFetcher) Fetch(_ context.Context, logger logging.InternalLogger) (core.Policy, error) {
	logger.Debug("Loading policy from file %s", f.Path)
	policy, err := config.LoadPolicy(f.Path, logger)
	if err != nil {
		return core.Policy{}, err
	}
	logger.Debug("Loaded %d rules from %s", len(policy.Rules), f.Path)
	return policy, nil
}
