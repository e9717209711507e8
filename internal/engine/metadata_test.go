package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopolicy/internal/config"
	"repopolicy/internal/facts"
	"repopolicy/internal/integration"
	"repopolicy/internal/output"
	"repopolicy/internal/report"
	"repopolicy/internal/rules"
	"repopolicy/internal/tool"
)

func gitStub(t *testing.T, body string) *tool.Invoker {
	t.Helper()
	bin := fakeTool(t, "git", body)
	return tool.NewInvoker(func(name string) (string, bool) {
		if name == "git" {
			return bin, true
		}
		return "", false
	}, nil)
}

func TestCommitHash(t *testing.T) {
	dir := t.TempDir()

	inv := gitStub(t, `echo 0123456789abcdef0123456789abcdef01234567`)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", CommitHash(context.Background(), inv, dir))

	inv = gitStub(t, `echo "fatal: not a git repository" >&2; exit 128`)
	assert.Empty(t, CommitHash(context.Background(), inv, dir))

	assert.Empty(t, CommitHash(context.Background(), tool.NewInvoker(noResolver, nil), dir))
}

func TestMetadataAndDocument(t *testing.T) {
	repo := t.TempDir()
	cfgPath := filepath.Join(repo, "repo-policy.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rules:\n  include: ['*']\n"), 0o644))
	cfg := config.New()
	require.NoError(t, config.Load(cfgPath, cfg))

	run := &Run{
		Report:   report.New([]rules.Result{rules.PassResult("readme-required", "ok", nil)}),
		Snapshot: &facts.Snapshot{Root: repo},
		Integrations: IntegrationResults{
			Analyzer: &integration.AnalyzerResult{Outcome: integration.Outcome{
				Tool: integration.AnalyzerTool, ToolVersion: "repo-analyzer 1.0.0", Success: true,
			}},
		},
	}

	meta := Metadata(context.Background(), cfg, run, gitStub(t, `echo abc123`), "v0.3.0")
	assert.Equal(t, output.Metadata{
		RepoPath:        repo,
		ConfigFile:      cfgPath,
		ConfigHash:      mustHash(t, cfg),
		CommitHash:      "abc123",
		ToolVersion:     "v0.3.0",
		AnalyzerVersion: "repo-analyzer 1.0.0",
	}, meta)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := run.Document(meta, now)
	assert.Equal(t, output.DocumentVersion, doc.Version)
	assert.Equal(t, now, doc.GeneratedAt)
	assert.True(t, doc.Passed)
	assert.Equal(t, "success", doc.Artifacts[integration.AnalyzerTool].Status)
	assert.NotContains(t, doc.Artifacts, integration.LicenseHeaderTool)
}

func mustHash(t *testing.T, cfg *config.Config) string {
	t.Helper()
	h, err := cfg.Hash()
	require.NoError(t, err)
	return h
}
