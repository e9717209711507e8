package checks

import (
	"context"
	"fmt"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/facts"
	"repopolicy/internal/rules"
)

var defaultReadmeSections = []string{"Installation", "Usage", "License"}

type ReadmeRequiredRule struct {
	sections []string
}

func (r *ReadmeRequiredRule) ID() string {
	return "readme-required"
}

func (r *ReadmeRequiredRule) Title() string {
	return "README Required"
}

func (r *ReadmeRequiredRule) Description() string {
	return "Verifies that a README exists at the repository root and contains the required sections.\n\n" +
		"Accepted names: README.md, README.rst, README.txt, README, readme.md.\n" +
		"A section is present when a heading starts with its name or a line consists of it (case-insensitive).\n\n" +
		"Options:\n" +
		"- sections: comma-separated required section names; empty disables the section check\n\n" +
		"Examples:\n" +
		"  repo-policy check --set readme-required.sections=Installation,Usage\n" +
		"  repo-policy check --set readme-required.sections="
}

func (r *ReadmeRequiredRule) DefaultSeverity() rules.Severity { return rules.SeverityError }

func (r *ReadmeRequiredRule) Tags() []string { return []string{"docs", "documentation"} }

func (r *ReadmeRequiredRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "sections",
			Description: "Comma-separated README sections that must be present. Empty disables the check.",
			Default:     strings.Join(defaultReadmeSections, ","),
		},
	}
}

func (r *ReadmeRequiredRule) Configure(opts map[string]string) error {
	r.sections = append([]string(nil), defaultReadmeSections...)
	if v, ok := opts["sections"]; ok {
		r.sections = splitList(v)
	}
	return nil
}

func (r *ReadmeRequiredRule) Dependencies() []data.DependencyKey { return nil }

func (r *ReadmeRequiredRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	snap := pc.Facts()
	if !snap.HasReadme() {
		return rules.FailResult(r.ID(), "README file is missing", map[string]any{
			"has_readme": false,
		}).WithRemediation("Create a README.md file in the repository root with:\n" +
			"- Project description\n" +
			"- Installation instructions\n" +
			"- Usage examples\n" +
			"- License information"), nil
	}

	if len(r.sections) == 0 {
		return rules.PassResult(r.ID(), "README file found: "+snap.ReadmePath, map[string]any{
			"has_readme":  true,
			"readme_path": snap.ReadmePath,
		}), nil
	}

	missing := missingSections(snap, r.sections)
	if len(missing) > 0 {
		return rules.FailResult(r.ID(), "README is missing required sections: "+strings.Join(missing, ", "), map[string]any{
			"has_readme":        true,
			"readme_path":       snap.ReadmePath,
			"required_sections": r.sections,
			"missing_sections":  missing,
		}).WithRemediation(fmt.Sprintf("Add the following sections to %s:\n- %s", snap.ReadmePath, strings.Join(missing, "\n- "))), nil
	}

	return rules.PassResult(r.ID(), "README file found with all required sections: "+snap.ReadmePath, map[string]any{
		"has_readme":        true,
		"readme_path":       snap.ReadmePath,
		"required_sections": r.sections,
	}), nil
}

func missingSections(snap *facts.Snapshot, required []string) []string {
	var lines []string
	for _, l := range strings.Split(snap.ReadmeContent, "\n") {
		lines = append(lines, strings.ToLower(strings.TrimSpace(l)))
	}

	var missing []string
	for _, section := range required {
		want := strings.ToLower(section)
		found := false
		for _, h := range snap.ReadmeHeadings {
			if strings.HasPrefix(strings.ToLower(h), want) {
				found = true
				break
			}
		}
		for _, l := range lines {
			if found {
				break
			}
			found = l == want
		}
		if !found {
			missing = append(missing, section)
		}
	}
	return missing
}
