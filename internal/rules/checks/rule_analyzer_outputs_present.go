package checks

import (
	"context"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

// structuralOutputs are the analyzer outputs other tooling builds on.
var structuralOutputs = []string{"tree", "dependencies"}

type AnalyzerOutputsPresentRule struct{}

func (r *AnalyzerOutputsPresentRule) ID() string {
	return "analyzer-outputs-present"
}

func (r *AnalyzerOutputsPresentRule) Title() string {
	return "Repository Analyzer Produced Structure"
}

func (r *AnalyzerOutputsPresentRule) Description() string {
	return "Verifies that repo-analyzer produced tree.json and dependencies.json for the repository. Skipped when the analyzer integration is disabled, not installed or failed."
}

func (r *AnalyzerOutputsPresentRule) DefaultSeverity() rules.Severity { return rules.SeverityInfo }

func (r *AnalyzerOutputsPresentRule) Tags() []string { return []string{"analysis"} }

func (r *AnalyzerOutputsPresentRule) Dependencies() []data.DependencyKey {
	return []data.DependencyKey{data.DepAnalyzer}
}

func (r *AnalyzerOutputsPresentRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	if !pc.HasAnalyzerData() {
		return rules.SkippedResult(r.ID(), pc.UnavailableReason(data.DepAnalyzer), nil), nil
	}

	a := pc.Analyzer()
	present := []string{}
	var missing []string
	for _, name := range structuralOutputs {
		if a.HasOutput(name) {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}

	evidence := map[string]any{
		"present_outputs": present,
	}
	if a.ToolVersion != "" {
		evidence["tool_version"] = a.ToolVersion
	}
	if len(a.SummaryCounts) > 0 {
		evidence["summary_counts"] = a.SummaryCounts
	}
	if len(missing) > 0 {
		evidence["missing_outputs"] = missing
		return rules.FailResult(r.ID(), "repo-analyzer did not produce: "+strings.Join(missing, ", "), evidence).
			WithRemediation("Check the repo-analyzer version and its logs; it must write tree.json and dependencies.json to its output directory."), nil
	}
	return rules.PassResult(r.ID(), "repo-analyzer produced tree and dependency outputs", evidence), nil
}
