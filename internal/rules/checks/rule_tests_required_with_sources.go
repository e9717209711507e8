package checks

import (
	"context"
	"fmt"
	"math"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

// testExemptRepoTypes are repo_type tags for which tests are not expected.
var testExemptRepoTypes = map[string]struct{}{
	"docs":          {},
	"documentation": {},
	"config":        {},
}

type TestsRequiredWithSourcesRule struct {
	enabled bool
}

func (r *TestsRequiredWithSourcesRule) ID() string {
	return "tests-required-with-sources"
}

func (r *TestsRequiredWithSourcesRule) Title() string {
	return "Tests Required When Sources Exist"
}

func (r *TestsRequiredWithSourcesRule) Description() string {
	return "Fails when the repository has source files but no test files, as classified by the configured source and test globs.\n\n" +
		"Skipped when disabled, when repo_type is docs, documentation or config, or when there are no source files.\n\n" +
		"Options:\n" +
		"- enabled: require tests when sources are present (default true)"
}

func (r *TestsRequiredWithSourcesRule) DefaultSeverity() rules.Severity { return rules.SeverityError }

func (r *TestsRequiredWithSourcesRule) Tags() []string { return []string{"tests", "quality"} }

func (r *TestsRequiredWithSourcesRule) Options() []rules.Option {
	return []rules.Option{
		{Name: "enabled", Description: "Require test files when source files are present.", Default: "true"},
	}
}

func (r *TestsRequiredWithSourcesRule) Configure(opts map[string]string) error {
	r.enabled = true
	if v, ok := opts["enabled"]; ok && strings.TrimSpace(v) != "" {
		b, err := parseBoolOption("enabled", v)
		if err != nil {
			return err
		}
		r.enabled = b
	}
	return nil
}

func (r *TestsRequiredWithSourcesRule) Dependencies() []data.DependencyKey { return nil }

func (r *TestsRequiredWithSourcesRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	if !r.enabled {
		return rules.SkippedResult(r.ID(), "Tests requirement disabled (tests_required_if_sources_present: false)", map[string]any{
			"tests_required": false,
		}), nil
	}

	snap := pc.Facts()
	repoType := strings.ToLower(snap.RepoTag("repo_type"))
	if _, exempt := testExemptRepoTypes[repoType]; exempt {
		return rules.SkippedResult(r.ID(), "Tests not required for repo_type: "+repoType, map[string]any{
			"repo_type":      repoType,
			"tests_required": false,
		}), nil
	}

	sources := len(snap.SourceFiles)
	if sources == 0 {
		return rules.SkippedResult(r.ID(), "No source files found (nothing to test)", map[string]any{
			"source_count": 0,
		}), nil
	}

	tests := len(snap.TestFiles)
	if tests == 0 {
		return rules.FailResult(r.ID(), fmt.Sprintf("No test files found despite %d source file(s)", sources), map[string]any{
			"source_count":       sources,
			"test_count":         0,
			"detected_languages": snap.Languages(),
		}).WithRemediation("Add tests for your source code, or set rules.tests_required_if_sources_present: false. " +
			"Repositories without code can set repo_tags.repo_type to docs or config."), nil
	}

	ratio := math.Round(float64(tests)/float64(sources)*100) / 100
	return rules.PassResult(r.ID(), fmt.Sprintf("Tests found: %d test file(s) for %d source file(s) (ratio: %.2f)", tests, sources, ratio), map[string]any{
		"source_count":       sources,
		"test_count":         tests,
		"test_ratio":         ratio,
		"detected_languages": snap.Languages(),
	}), nil
}
