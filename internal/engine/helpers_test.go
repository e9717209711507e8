package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"repopolicy/internal/data"
	"repopolicy/internal/facts"
	"repopolicy/internal/rules"
)

// stubRule is a Rule whose behavior is supplied by the test.
type stubRule struct {
	id   string
	sev  rules.Severity
	deps []data.DependencyKey
	eval func(ctx context.Context, pc data.PolicyContext) (rules.Result, error)

	calls int
}

func (r *stubRule) ID() string          { return r.id }
func (r *stubRule) Title() string       { return "Stub " + r.id }
func (r *stubRule) Description() string { return "Test-only rule" }
func (r *stubRule) Tags() []string      { return []string{"test"} }

func (r *stubRule) DefaultSeverity() rules.Severity {
	if r.sev == "" {
		return rules.SeverityWarning
	}
	return r.sev
}

func (r *stubRule) Dependencies() []data.DependencyKey { return r.deps }

func (r *stubRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	r.calls++
	if r.eval == nil {
		return rules.PassResult(r.id, "ok", nil), nil
	}
	return r.eval(ctx, pc)
}

func newEmptySnapshot(t *testing.T) *facts.Snapshot {
	t.Helper()
	return &facts.Snapshot{Root: t.TempDir()}
}

// toggleRule is a configurable stub with one boolean option.
type toggleRule struct {
	stubRule
	enabled    bool
	configured int
}

func (r *toggleRule) Options() []rules.Option {
	return []rules.Option{{Name: "enabled", Default: "false"}}
}

func (r *toggleRule) Configure(opts map[string]string) error {
	r.configured++
	r.enabled = opts["enabled"] == "true"
	return nil
}

func ids(rs []rules.Rule) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID())
	}
	return out
}

func resultIDs(rs []rules.Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.RuleID)
	}
	return out
}

func resultByID(t *testing.T, rs []rules.Result, id string) rules.Result {
	t.Helper()
	for _, r := range rs {
		if r.RuleID == id {
			return r
		}
	}
	t.Fatalf("no result for %s", id)
	return rules.Result{}
}

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

func fakeTool(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	script := "#!/bin/sh\n" + strings.Replace(argParser, "%s", name, 1) + body + "\n"
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

func noResolver(string) (string, bool) { return "", false }

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

const analyzerWrites = `
echo '{"root": "."}' > "$out/tree.json"
echo '{"deps": []}' > "$out/dependencies.json"
echo '{"files": 2}' > "$out/summary.json"
`

const licenseReport3of10 = `
cat > "$out/license-header-check-report.json" <<'JSON'
{
  "summary": {"eligible": 10, "compliant": 7, "non_compliant": 3},
  "files": {
    "compliant": ["a.go", "b.go", "c.go", "d.go", "e.go", "f.go", "g.go"],
    "non_compliant": ["h.go", "i.go", "j.go"],
    "skipped": [],
    "failed": []
  }
}
JSON
exit 1
`
