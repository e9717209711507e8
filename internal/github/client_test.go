package github

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	c, err := NewClient(ctx, "test-token")
	require.NoError(t, err)
	assert.NotNil(t, c.Client)

	c, err = NewClient(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, c.Client, "unauthenticated client is still usable")

	_, err = NewClient(ctx, "", WithBaseURL("://bad"))
	assert.Error(t, err)
}

func TestNewClient_NilContextReturnsError(t *testing.T) {
	var nilCtx context.Context
	_, err := NewClient(nilCtx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctx is nil")
}

func TestNewClient_LogsAndAuthHeader(t *testing.T) {
	ctx := context.Background()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(server.Close)

	do := func(token string) string {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		c, err := NewClient(ctx, token, WithLogger(logger), WithBaseURL(server.URL))
		require.NoError(t, err)

		req, err := c.Client.NewRequest("GET", "rate_limit", nil)
		require.NoError(t, err)
		_, err = c.Client.Do(ctx, req, nil)
		require.NoError(t, err)
		return buf.String()
	}

	logs := do("")
	assert.Contains(t, logs, "github api request")
	assert.Contains(t, logs, "status=200")
	assert.Empty(t, gotAuth)

	gotAuth = ""
	do("test-token")
	assert.Contains(t, gotAuth, "test-token")
}

func TestRepoTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widgets" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "widgets",
			"language": "Go",
			"topics": ["policy", "cli"],
			"visibility": "public",
			"default_branch": "main",
			"archived": true
		}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(context.Background(), "", WithBaseURL(server.URL))
	require.NoError(t, err)

	tags, err := c.RepoTags(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		TagLanguage:      "go",
		TagTopics:        "cli,policy",
		TagVisibility:    "public",
		TagDefaultBranch: "main",
		TagArchived:      "true",
	}, tags)

	_, err = c.RepoTags(context.Background(), "acme", "missing")
	assert.Error(t, err)
}

func TestSplitRepository(t *testing.T) {
	tests := []struct {
		in      string
		owner   string
		repo    string
		wantErr bool
	}{
		{in: "acme/widgets", owner: "acme", repo: "widgets"},
		{in: " acme/widgets ", owner: "acme", repo: "widgets"},
		{in: "acme", wantErr: true},
		{in: "/widgets", wantErr: true},
		{in: "acme/", wantErr: true},
		{in: "acme/widgets/extra", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, repo, err := SplitRepository(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestMergeTags(t *testing.T) {
	got := MergeTags(
		map[string]string{"language": "go", "visibility": "public"},
		map[string]string{"language": "python", "team": "infra"},
	)
	assert.Equal(t, map[string]string{"language": "python", "visibility": "public", "team": "infra"}, got)
}
