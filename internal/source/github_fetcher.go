package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/darmiel/polsim/internal/config"
	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/logging"
)

type GitHubConfig struct {
	// Owner of the GitHub repository.
	Owner string

	// Repo is the name of the GitHub repository.
	Repo string

	// Path of the policy file within the repository.
	// For example, "policies/old_policy.json".
	Path string

	// Ref is the git reference to use (e.g. a branch, tag or commit).
	// Empty means the repository's default branch.
	Ref string

	// Token for authenticated requests. Optional.
	Token string

	// BaseURL is the API URL of a GitHub Enterprise server.
	// For GitHub.com, this can be left empty.
	BaseURL string
}

func (c *GitHubConfig) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if c.Repo == "" {
		return fmt.Errorf("repo is required")
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

func (c *GitHubConfig) String() string {
	s := githubScheme + c.Owner + "/" + c.Repo + "/" + c.Path
	if c.Ref != "" {
		s += "@" + c.Ref
	}
	return s
}

// parseGitHubLocation parses OWNER/REPO/PATH[@REF].
func parseGitHubLocation(location string) (GitHubConfig, error) {
	var cfg GitHubConfig
	if at := strings.LastIndex(location, "@"); at >= 0 {
		cfg.Ref = location[at+1:]
		location = location[:at]
		if cfg.Ref == "" {
			return cfg, fmt.Errorf("empty ref after '@'")
		}
	}
	parts := strings.SplitN(location, "/", 3)
	if len(parts) != 3 {
		return cfg, fmt.Errorf("expected OWNER/REPO/PATH")
	}
	cfg.Owner, cfg.Repo, cfg.Path = parts[0], parts[1], parts[2]
	return cfg, cfg.Validate()
}

// GitHubFetcher downloads a policy file through the GitHub contents API.
type GitHubFetcher struct {
	cfg    GitHubConfig
	client *github.Client
}

func NewGitHubFetcher(cfg GitHubConfig) (*GitHubFetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid GitHub source config: %w", err)
	}

	client := github.NewClient(nil)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("setting GitHub base URL: %w", err)
		}
	}

	return &GitHubFetcher{cfg: cfg, client: client}, nil
}

func (f *GitHubFetcher) Fetch(ctx context.Context, logger logging.InternalLogger) (core.Policy, error) {
	ref := f.cfg.Ref
	if ref == "" {
		ref = "(default branch)"
	}
	logger.Info("Fetching policy %s from %s/%s (ref: %s)", f.cfg.Path, f.cfg.Owner, f.cfg.Repo, ref)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.cfg.Owner, f.cfg.Repo, f.cfg.Path,
		&github.RepositoryContentGetOptions{
			Ref: f.cfg.Ref,
		})
	if err != nil {
		logger.Warn("Failed to download %s: %v", f.cfg.Path, err)
		return core.Policy{}, fmt.Errorf("download %s: %w", f.cfg.String(), err)
	}
	if fileContent == nil {
		return core.Policy{}, fmt.Errorf("%s is a directory, not a policy file", f.cfg.String())
	}

	content, err := fileContent.GetContent()
	if err != nil {
		logger.Warn("Failed to decode content of %s: %v", f.cfg.Path, err)
		return core.Policy{}, fmt.Errorf("decode content %s: %w", f.cfg.String(), err)
	}

	policy, err := config.ParsePolicy([]byte(content), f.cfg.String(), logger)
	if err != nil {
		logger.Error("Failed to parse %s: %v", f.cfg.Path, err)
		return core.Policy{}, err
	}

	logger.Debug("Loaded %s, found %d rules", f.cfg.Path, len(policy.Rules))
	return policy, nil
}
