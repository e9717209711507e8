package checks

import (
	"context"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

type GitignoreRequiredRule struct{}

func (r *GitignoreRequiredRule) ID() string {
	return "gitignore-required"
}

func (r *GitignoreRequiredRule) Title() string {
	return ".gitignore Required"
}

func (r *GitignoreRequiredRule) Description() string {
	return "Verifies that a .gitignore exists at the repository root. Skipped when no language markers (go.mod, package.json, pyproject.toml, ...) are detected."
}

func (r *GitignoreRequiredRule) DefaultSeverity() rules.Severity { return rules.SeverityWarning }

func (r *GitignoreRequiredRule) Tags() []string { return []string{"hygiene", "vcs"} }

func (r *GitignoreRequiredRule) Dependencies() []data.DependencyKey { return nil }

func (r *GitignoreRequiredRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	snap := pc.Facts()
	langs := snap.Languages()
	if len(langs) == 0 {
		return rules.SkippedResult(r.ID(), "No programming languages detected (no language markers found)", map[string]any{
			"detected_languages": []string{},
		}), nil
	}

	if !snap.HasGitignore {
		return rules.FailResult(r.ID(), ".gitignore file is missing (detected languages: "+strings.Join(langs, ", ")+")", map[string]any{
			"has_gitignore":      false,
			"detected_languages": langs,
			"language_markers":   snap.LanguageMarkers,
		}).WithRemediation("Add a .gitignore file to the repository root. " +
			"Templates for common languages are available at https://github.com/github/gitignore"), nil
	}

	return rules.PassResult(r.ID(), ".gitignore file found", map[string]any{
		"has_gitignore":      true,
		"detected_languages": langs,
	}), nil
}
