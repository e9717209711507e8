package checks

import (
	"context"
	"fmt"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/glob"
	"repopolicy/internal/rules"
)

// DefaultForbiddenPatterns are OS, editor and backup artifacts.
var DefaultForbiddenPatterns = []string{"**/.DS_Store", "**/Thumbs.db", "**/*.swp", "**/*.bak", "**/*~"}

type ForbiddenFilesRule struct {
	patterns glob.Set
	allow    rules.AllowList
}

func (r *ForbiddenFilesRule) ID() string {
	return "forbidden-files"
}

func (r *ForbiddenFilesRule) Title() string {
	return "No Forbidden Files"
}

func (r *ForbiddenFilesRule) Description() string {
	return "Reports committed files matching forbidden glob patterns (OS metadata, editor swap files, backups).\n\n" +
		"Options:\n" +
		"- patterns: comma-separated globs (default " + strings.Join(DefaultForbiddenPatterns, ", ") + ")\n" +
		"- allow.paths: comma-separated globs of paths exempt from the rule\n\n" +
		"Examples:\n" +
		"  repo-policy check --set forbidden-files.patterns='**/*.log,**/.env'\n" +
		"  repo-policy check --set forbidden-files.allow.paths='testdata/**'"
}

func (r *ForbiddenFilesRule) DefaultSeverity() rules.Severity { return rules.SeverityWarning }

func (r *ForbiddenFilesRule) Tags() []string { return []string{"hygiene", "cleanup"} }

func (r *ForbiddenFilesRule) Options() []rules.Option {
	return append([]rules.Option{
		{
			Name:        "patterns",
			Description: "Comma-separated glob patterns of files that must not be committed.",
			Default:     strings.Join(DefaultForbiddenPatterns, ","),
		},
	}, r.allow.Options()...)
}

func (r *ForbiddenFilesRule) Configure(opts map[string]string) error {
	patterns := DefaultForbiddenPatterns
	if v, ok := opts["patterns"]; ok {
		patterns = splitList(v)
	}
	set, err := glob.Compile(patterns)
	if err != nil {
		return fmt.Errorf("invalid value for patterns: %w", err)
	}
	r.patterns = set
	return r.allow.Configure(opts)
}

func (r *ForbiddenFilesRule) Dependencies() []data.DependencyKey { return nil }

func (r *ForbiddenFilesRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	var matched []string
	for _, f := range pc.Facts().Files {
		if r.patterns.Matches(f) {
			matched = append(matched, f)
		}
	}
	forbidden, allowed := r.allow.Filter(matched)

	evidence := map[string]any{
		"forbidden_count":  len(forbidden),
		"patterns_checked": r.patterns.Patterns(),
	}
	if len(allowed) > 0 {
		evidence["allowed_files"] = allowed
	}
	if len(forbidden) == 0 {
		return rules.PassResult(r.ID(), "No forbidden files found", evidence), nil
	}

	evidence["forbidden_files"] = forbidden
	return rules.FailResult(r.ID(), fmt.Sprintf("Found %d forbidden file(s)", len(forbidden)), evidence).
		WithRemediation("Remove the following files and add their patterns to .gitignore:\n" + limitList(forbidden, 20)), nil
}
