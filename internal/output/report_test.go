package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"repopolicy/internal/integration"
	"repopolicy/internal/report"
	"repopolicy/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownReportContract(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), MarkdownReportFile)

	s, err := NewReportSink(reportPath)
	require.NoError(t, err)

	files := make([]string, 12)
	for i := range files {
		files[i] = "src/file" + string(rune('a'+i)) + ".py"
	}
	rep := report.New([]rules.Result{
		{RuleID: "readme-required", Severity: rules.SeverityError, Passed: true, Message: "README present"},
		{RuleID: "gitignore-required", Severity: rules.SeverityWarning, Message: "No .gitignore"},
		{RuleID: "license-header-required", Severity: rules.SeverityError, Message: "12 files lack a license header",
			Evidence:    map[string]any{"non_compliant_files": files, "eligible": 20, "counts": map[string]int{"b": 2, "a": 1}},
			Remediation: "Add the header from LICENSE_HEADER"},
		rules.SkippedResult("analyzer-outputs-present", "tool not found: repo-analyzer", nil),
	})
	meta := Metadata{RepoPath: "/srv/repo", ConfigFile: "repo-policy.yml", ConfigHash: strings.Repeat("ab", 32), CommitHash: "deadbeef"}
	analyzer := &integration.Outcome{Tool: integration.AnalyzerTool, Skipped: true, SkipReason: "tool not found: repo-analyzer"}

	require.NoError(t, s.Write(NewDocument(rep, meta, sampleDocument().GeneratedAt, analyzer)))
	require.NoError(t, s.Close())

	b, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	out := string(b)

	for _, want := range []string{
		"# Policy Check Report",
		"**Generated:** 2026-01-02 03:04:05 UTC",
		"## Overview",
		"- **Total Rules:** 4",
		"  - Errors: 1",
		"  - Warnings: 1",
		"**Status:** ❌ FAIL",
		"- **Config Hash:** `abababababab...`",
		"- **Commit Hash:** `deadbeef`",
		"## Failures",
		"### 🔴 license-header-required",
		"### ⚠️ gitignore-required",
		"- **non_compliant_files:** (12 items, showing first 10)",
		"  - _(... and 2 more)_",
		"- **eligible:** `20`",
		"  - a: `1`",
		"**Remediation:** Add the header from LICENSE_HEADER",
		"## Passed Rules",
		"- ✅ `readme-required`: README present",
		"## Skipped Rules",
		"- ⏭️ `analyzer-outputs-present`: tool not found: repo-analyzer",
		"## Artifacts",
		"### repo-analyzer",
		"**Status:** skipped",
		"## Command Guidance",
	} {
		assert.Contains(t, out, want)
	}

	// Errors are listed before warnings.
	assert.Less(t, strings.Index(out, "license-header-required"), strings.Index(out, "### ⚠️ gitignore-required"))
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, RenderMarkdown(doc), RenderMarkdown(doc))
	assert.Contains(t, RenderMarkdown(doc), "No integration artifacts were generated.")
}

func TestReportSink_NoDocumentLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), MarkdownReportFile)
	s, err := NewReportSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderMarkdown_RerunCommand(t *testing.T) {
	doc := sampleDocument()
	assert.Contains(t, RenderMarkdown(doc), "```bash\nrepo-policy check\n```")

	doc.Metadata.Command = "repo-policy check --path /srv/repo --rules-include 'license-*'"
	assert.Contains(t, RenderMarkdown(doc), "```bash\nrepo-policy check --path /srv/repo --rules-include 'license-*'\n```")
}
