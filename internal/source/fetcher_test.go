package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/logging"
	"github.com/darmiel/polsim/internal/validation"
)

const oldPolicy = `{
  "rules": [
    {
      "conditions": {"department": "finance", "resource": "payroll", "action": "export"},
      "decision": "denied",
      "reason": "finance may not export payroll"
    }
  ]
}`

func testLogger() logging.InternalLogger {
	return logging.NewZLogger(zerolog.Nop())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    any
		wantErr bool
	}{
		{
			name:  "Local File",
			input: "policies/old_policy.json",
			want:  &FileFetcher{Path: "policies/old_policy.json"},
		},
		{
			name:  "GitHub With Ref",
			input: "github://acme/policies/access/policy.yaml@v1.2.0",
			want: GitHubConfig{
				Owner: "acme", Repo: "policies", Path: "access/policy.yaml", Ref: "v1.2.0", Token: "tkn",
			},
		},
		{
			name:  "GitHub Without Ref",
			input: "github://acme/policies/policy.json",
			want:  GitHubConfig{Owner: "acme", Repo: "policies", Path: "policy.json", Token: "tkn"},
		},
		{name: "GitHub Missing Path", input: "github://acme/policies", wantErr: true},
		{name: "GitHub Empty Ref", input: "github://acme/policies/p.json@", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, Options{GitHubToken: "tkn"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			switch want := tt.want.(type) {
			case GitHubConfig:
				gh, ok := got.(*GitHubFetcher)
				require.True(t, ok, "expected *GitHubFetcher, got %T", got)
				assert.Equal(t, want, gh.cfg)
			default:
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old_policy.json")
	require.NoError(t, os.WriteFile(path, []byte(oldPolicy), 0o644))

	policy, err := (&FileFetcher{Path: path}).Fetch(context.Background(), testLogger())
	require.NoError(t, err)
	require.Len(t, policy.Rules, 1)
	assert.Equal(t, core.Denied, policy.Rules[0].Decision)
	assert.Equal(t, path, policy.Source)
}

func TestFileFetcher_ReportsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	body := "rules:\n  - decision: permitted\n    reason: open\n    priority: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	logger := logging.NewMemoryLogger()
	policy, err := (&FileFetcher{Path: path}).Fetch(context.Background(), logger)
	require.NoError(t, err)
	require.Len(t, policy.Rules, 1)

	warnings := logger.Messages(zerolog.WarnLevel)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "ignoring unknown field(s) priority")
}

func newGitHubServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/policies/contents/access/old_policy.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"name":     "old_policy.json",
			"path":     "access/old_policy.json",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(body)),
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubFetcher(t *testing.T) {
	srv := newGitHubServer(t, oldPolicy)

	fetcher, err := Parse("github://acme/policies/access/old_policy.json@main", Options{
		GitHubToken:   "secret",
		GitHubBaseURL: srv.URL,
	})
	require.NoError(t, err)

	policy, err := fetcher.Fetch(context.Background(), testLogger())
	require.NoError(t, err)
	require.Len(t, policy.Rules, 1)
	assert.Equal(t, "finance may not export payroll", policy.Rules[0].Reason)
	assert.Equal(t, "github://acme/policies/access/old_policy.json@main", policy.Source)
}

func TestGitHubFetcher_InvalidPolicy(t *testing.T) {
	srv := newGitHubServer(t, `{"rules": [{"decision": "denied"}]}`)

	fetcher, err := NewGitHubFetcher(GitHubConfig{
		Owner: "acme", Repo: "policies", Path: "access/old_policy.json", Ref: "main",
		Token: "secret", BaseURL: srv.URL,
	})
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), testLogger())
	require.Error(t, err)
	assert.True(t, validation.IsConfigError(err))
}

func TestGitHubFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	fetcher, err := NewGitHubFetcher(GitHubConfig{
		Owner: "acme", Repo: "policies", Path: "missing.json", BaseURL: srv.URL,
	})
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), testLogger())
	assert.ErrorContains(t, err, "download github://acme/policies/missing.json")
}
