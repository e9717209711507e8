package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"repopolicy/internal/tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const argParser = `
if [ "$1" = "--version" ]; then echo "%s 1.0.0"; exit 0; fi
out=""
repo=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift ;;
    --path) repo="$2"; shift ;;
  esac
  shift
done
`

func fakeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	script := "#!/bin/sh\n" + strings.Replace(argParser, "%s", name, 1) + body + "\n"
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

func newRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "pkg", "a.go"), []byte("package pkg\n"), 0o644))
	return repo
}

func noResolver(string) (string, bool) { return "", false }

func workspaceLeftovers(t *testing.T, tmpRoot, prefix string) []string {
	t.Helper()
	entries, err := os.ReadDir(tmpRoot)
	require.NoError(t, err)
	var left []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			left = append(left, e.Name())
		}
	}
	return left
}

const analyzerWrites = `
[ -f "$repo/main.go" ] || { echo "main.go missing from $repo" >&2; exit 4; }
echo '{"root": "."}' > "$out/tree.json"
echo '{"deps": []}' > "$out/dependencies.json"
echo '{"files": 2, "languages": 1, "name": "demo"}' > "$out/summary.json"
`

func TestAnalyzer_DirectOutput(t *testing.T) {
	repo := newRepo(t)
	outDir := t.TempDir()
	bin := fakeTool(t, t.TempDir(), "repo-analyzer", analyzerWrites)

	r := &AnalyzerRunner{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{Binary: bin, Mode: DirectOutput, OutDir: outDir, KeepArtifacts: true},
	}
	res, err := r.Run(context.Background(), repo)
	require.NoError(t, err)

	assert.True(t, res.Available())
	assert.Equal(t, "repo-analyzer 1.0.0", res.ToolVersion)
	assert.True(t, res.HasOutput("tree"))
	assert.True(t, res.HasOutput("dependencies"))
	assert.False(t, res.HasOutput("metadata"))
	assert.Equal(t, map[string]int{"files": 2, "languages": 1}, res.SummaryCounts)
	assert.Equal(t, "demo", res.Summary["name"])
	assert.Equal(t, filepath.Join(outDir, "analyzer", "tree.json"), res.OutputFiles["tree"])
	assert.FileExists(t, res.OutputFiles["tree"])
	assert.True(t, res.ArtifactsRetained)
	assert.Equal(t, []string{bin, "--path", repo, "--output", filepath.Join(outDir, "analyzer")}, res.Invocation.Command)
}

func TestAnalyzer_ArtifactsRemovedUnlessKept(t *testing.T) {
	repo := newRepo(t)
	outDir := t.TempDir()
	bin := fakeTool(t, t.TempDir(), "repo-analyzer", analyzerWrites)

	r := &AnalyzerRunner{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{Binary: bin, Mode: DirectOutput, OutDir: outDir},
	}
	res, err := r.Run(context.Background(), repo)
	require.NoError(t, err)

	assert.True(t, res.Available())
	assert.False(t, res.ArtifactsRetained)
	assert.Empty(t, res.Artifacts())
	assert.NoDirExists(t, filepath.Join(outDir, "analyzer"))
}

func seedStaleOutputs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestAnalyzer_IgnoresOutputsOfEarlierRuns(t *testing.T) {
	for _, mode := range []WorkspaceMode{DirectOutput, TempWorkspace} {
		t.Run(string(mode), func(t *testing.T) {
			repo := newRepo(t)
			outDir := t.TempDir()
			t.Setenv("TMPDIR", t.TempDir())
			seedStaleOutputs(t, filepath.Join(outDir, "analyzer"), map[string]string{
				"tree.json":         `{"root": "old"}`,
				"dependencies.json": `{"deps": ["old"]}`,
			})
			bin := fakeTool(t, t.TempDir(), "repo-analyzer", `echo '{"files": 2}' > "$out/summary.json"`)

			r := &AnalyzerRunner{
				Invoker:  tool.NewInvoker(noResolver, nil),
				Settings: Settings{Binary: bin, Mode: mode, OutDir: outDir, KeepArtifacts: true},
			}
			res, err := r.Run(context.Background(), repo)
			require.NoError(t, err)

			assert.True(t, res.Available(), res.ErrorMessage)
			assert.True(t, res.HasOutput("summary"))
			assert.False(t, res.HasOutput("tree"))
			assert.False(t, res.HasOutput("dependencies"))
			assert.NoFileExists(t, filepath.Join(outDir, "analyzer", "tree.json"))
		})
	}
}

func TestAnalyzer_FailedRunKeepsArtifacts(t *testing.T) {
	repo := newRepo(t)
	outDir := t.TempDir()
	bin := fakeTool(t, t.TempDir(), "repo-analyzer", `echo '{"partial": true}' > "$out/tree.json"; echo "boom" >&2; exit 2`)

	r := &AnalyzerRunner{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{Binary: bin, Mode: DirectOutput, OutDir: outDir},
	}
	res, err := r.Run(context.Background(), repo)
	require.NoError(t, err)

	assert.False(t, res.Available())
	assert.False(t, res.ArtifactsRetained)
	assert.FileExists(t, filepath.Join(outDir, "analyzer", "tree.json"))
}

func TestAnalyzer_TempWorkspace(t *testing.T) {
	repo := newRepo(t)
	outDir := t.TempDir()
	bin := fakeTool(t, t.TempDir(), "repo-analyzer", analyzerWrites+`echo scribble > "$repo/main.go.new"`)
	tmpRoot := t.TempDir()
	t.Setenv("TMPDIR", tmpRoot)

	r := &AnalyzerRunner{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{Binary: bin, Mode: TempWorkspace, OutDir: outDir, KeepArtifacts: true},
	}
	res, err := r.Run(context.Background(), repo)
	require.NoError(t, err)

	assert.True(t, res.Available(), res.ErrorMessage)
	assert.FileExists(t, filepath.Join(outDir, "analyzer", "tree.json"))
	assert.FileExists(t, filepath.Join(outDir, "analyzer", "summary.json"))
	assert.NoFileExists(t, filepath.Join(repo, "main.go.new"), "tool ran against the copy")
	assert.Empty(t, workspaceLeftovers(t, tmpRoot, "repo-policy-"))
}

func TestAnalyzer_TempWorkspaceCleanupOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		wantMsg string
	}{
		{name: "tool failure", body: `echo "boom" >&2; exit 2`, wantMsg: "boom"},
		{name: "timeout", body: `sleep 30`, timeout: 300 * time.Millisecond, wantMsg: "timed out after 300ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(t)
			outDir := t.TempDir()
			bin := fakeTool(t, t.TempDir(), "repo-analyzer", tt.body)
			tmpRoot := t.TempDir()
			t.Setenv("TMPDIR", tmpRoot)

			r := &AnalyzerRunner{
				Invoker:  tool.NewInvoker(noResolver, nil),
				Settings: Settings{Binary: bin, Mode: TempWorkspace, OutDir: outDir, Timeout: tt.timeout, KeepArtifacts: true},
			}
			res, err := r.Run(context.Background(), repo)
			require.NoError(t, err)

			assert.False(t, res.Available())
			assert.Contains(t, res.ErrorMessage, tt.wantMsg)
			assert.Contains(t, res.UnavailableReason(), "repo-analyzer failed")
			assert.Empty(t, workspaceLeftovers(t, tmpRoot, "repo-policy-"))
			assert.NoFileExists(t, filepath.Join(outDir, "analyzer", "tree.json"))
		})
	}
}

func TestAnalyzer_NotFound(t *testing.T) {
	repo := newRepo(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	r := &AnalyzerRunner{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{Binary: missing, OutDir: t.TempDir()},
	}
	res, err := r.Run(context.Background(), repo)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.False(t, res.Available())
	assert.Contains(t, res.UnavailableReason(), "tool not found")

	r.Settings.Required = true
	_, err = r.Run(context.Background(), repo)
	assert.ErrorIs(t, err, tool.ErrNotFound)
}

func TestWithTempWorkspace_RemovesOnPanic(t *testing.T) {
	repo := newRepo(t)
	tmpRoot := t.TempDir()
	t.Setenv("TMPDIR", tmpRoot)

	var seen string
	func() {
		defer func() { _ = recover() }()
		_ = WithTempWorkspace(context.Background(), "repo-policy-test-", repo, nil, func(ws Workspace) error {
			seen = ws.Dir
			assert.FileExists(t, filepath.Join(ws.RepoDir, "pkg", "a.go"))
			assert.DirExists(t, ws.OutputDir)
			panic("copy-back exploded")
		})
	}()

	require.NotEmpty(t, seen)
	assert.NoDirExists(t, seen)
	assert.Empty(t, workspaceLeftovers(t, tmpRoot, "repo-policy-test-"))
}

func TestWithTempWorkspace_SkipsExcludedAndSymlinks(t *testing.T) {
	repo := newRepo(t)
	out := filepath.Join(repo, ".repo-policy-output")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "old.json"), []byte("{}"), 0o644))
	require.NoError(t, os.Symlink(repo, filepath.Join(repo, "loop")))

	err := WithTempWorkspace(context.Background(), "", repo, []string{out}, func(ws Workspace) error {
		assert.FileExists(t, filepath.Join(ws.RepoDir, "main.go"))
		assert.NoDirExists(t, filepath.Join(ws.RepoDir, ".repo-policy-output"))
		_, err := os.Lstat(filepath.Join(ws.RepoDir, "loop"))
		assert.True(t, os.IsNotExist(err))
		return nil
	})
	require.NoError(t, err)
}

const licenseReport3of10 = `
cat > "$out/license-header-check-report.json" <<'JSON'
{
  "summary": {"scanned": 12, "eligible": 10, "compliant": 7, "non_compliant": 3, "skipped": 2, "failed": 0},
  "files": {
    "compliant": ["a.go", "b.go", "c.go", "d.go", "e.go", "f.go", "g.go"],
    "non_compliant": ["h.go", "i.go", "j.go"],
    "skipped": ["README.md", "go.mod"],
    "failed": []
  }
}
JSON
exit 1
`

func TestLicenseHeader_NonCompliantFiles(t *testing.T) {
	repo := newRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "LICENSE_HEADER"), []byte("// SPDX-License-Identifier: MIT\n"), 0o644))
	bin := fakeTool(t, t.TempDir(), "license-header", licenseReport3of10)

	c := &LicenseHeaderChecker{
		Invoker:      tool.NewInvoker(noResolver, nil),
		Settings:     Settings{Binary: bin, OutDir: t.TempDir(), KeepArtifacts: true},
		IncludeGlobs: []string{"**/*.go", "src/**"},
		ExcludeGlobs: []string{"vendor/**"},
	}
	res, err := c.Check(context.Background(), repo)
	require.NoError(t, err)

	assert.True(t, res.Available())
	assert.False(t, res.AllCompliant)
	assert.Len(t, res.NonCompliant, 3)
	assert.Len(t, res.Compliant, 7)
	assert.Equal(t, 10, res.Eligible())
	assert.Equal(t, 1, res.Invocation.ExitCode)
	assert.Equal(t, filepath.Join(repo, "LICENSE_HEADER"), res.Template)

	cmd := res.Invocation.Command
	assert.Equal(t, "check", cmd[1])
	assert.Contains(t, strings.Join(cmd, " "), "--include-extension .go")
	assert.Contains(t, strings.Join(cmd, " "), "--exclude-path vendor/**")
	assert.NotContains(t, strings.Join(cmd, " "), "src/**")
}

func TestLicenseHeader_IgnoresReportOfEarlierRun(t *testing.T) {
	for _, mode := range []WorkspaceMode{DirectOutput, TempWorkspace} {
		t.Run(string(mode), func(t *testing.T) {
			repo := newRepo(t)
			require.NoError(t, os.WriteFile(filepath.Join(repo, "LICENSE_HEADER"), []byte("// header\n"), 0o644))
			outDir := t.TempDir()
			t.Setenv("TMPDIR", t.TempDir())
			seedStaleOutputs(t, filepath.Join(outDir, "license-headers"), map[string]string{
				"license-header-check-report.json": `{"summary": {"eligible": 2, "non_compliant": 2},
"files": {"compliant": [], "non_compliant": ["main.go", "pkg/a.go"]}}`,
			})
			bin := fakeTool(t, t.TempDir(), "license-header", `exit 0`)

			c := &LicenseHeaderChecker{
				Invoker:  tool.NewInvoker(noResolver, nil),
				Settings: Settings{Binary: bin, Mode: mode, OutDir: outDir, KeepArtifacts: true},
			}
			res, err := c.Check(context.Background(), repo)
			require.NoError(t, err)

			assert.True(t, res.Available(), res.ErrorMessage)
			assert.True(t, res.AllCompliant)
			assert.Empty(t, res.NonCompliant)
			assert.Empty(t, res.SummaryCounts)
			assert.Equal(t, 0, res.Eligible())
		})
	}
}

func TestLicenseHeader_ToolFailure(t *testing.T) {
	repo := newRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "LICENSE_HEADER.md"), []byte("header"), 0o644))
	bin := fakeTool(t, t.TempDir(), "license-header", `echo "bad config" >&2; exit 2`)

	c := &LicenseHeaderChecker{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{Binary: bin, OutDir: t.TempDir()},
	}
	res, err := c.Check(context.Background(), repo)
	require.NoError(t, err)

	assert.False(t, res.Available())
	assert.Equal(t, "bad config", res.ErrorMessage)
	assert.Equal(t, "license-header failed: bad config", res.UnavailableReason())
}

func TestLicenseHeader_MissingTemplate(t *testing.T) {
	repo := newRepo(t)
	bin := fakeTool(t, t.TempDir(), "license-header", `exit 0`)

	c := &LicenseHeaderChecker{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{Binary: bin, OutDir: t.TempDir()},
	}
	res, err := c.Check(context.Background(), repo)
	require.NoError(t, err)
	assert.False(t, res.Available())
	assert.Contains(t, res.ErrorMessage, "no header template found")

	c.HeaderTemplate = "headers/missing.txt"
	res, err = c.Check(context.Background(), repo)
	require.NoError(t, err)
	assert.Contains(t, res.ErrorMessage, "header template file not found")
}

func TestLicenseHeader_NotFound(t *testing.T) {
	c := &LicenseHeaderChecker{
		Invoker:  tool.NewInvoker(noResolver, nil),
		Settings: Settings{OutDir: t.TempDir()},
	}
	res, err := c.Check(context.Background(), newRepo(t))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "tool not found: license-header (tried license-header)", res.SkipReason)
}

func TestParseWorkspaceMode(t *testing.T) {
	m, err := ParseWorkspaceMode("")
	require.NoError(t, err)
	assert.Equal(t, DirectOutput, m)

	m, err = ParseWorkspaceMode("Temp_Workspace")
	require.NoError(t, err)
	assert.Equal(t, TempWorkspace, m)

	_, err = ParseWorkspaceMode("sandbox")
	assert.Error(t, err)
}
