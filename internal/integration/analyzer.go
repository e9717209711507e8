package integration

import (
	"context"
	"log/slog"
	"sort"

	"repopolicy/internal/tool"
)

const (
	AnalyzerTool   = "repo-analyzer"
	analyzerSubdir = "analyzer"
)

// analyzerOutputs maps logical output names to the files repo-analyzer may emit.
var analyzerOutputs = map[string]string{
	"tree":         "tree.json",
	"dependencies": "dependencies.json",
	"metadata":     "metadata.json",
	"summary":      "summary.json",
}

// AnalyzerResult is the normalized output of repo-analyzer.
type AnalyzerResult struct {
	Outcome
	// Summary is summary.json decoded as-is, when present.
	Summary map[string]any `json:"summary,omitempty"`
}

// HasOutput reports whether the analyzer produced the named logical output.
func (r *AnalyzerResult) HasOutput(logical string) bool {
	if r == nil {
		return false
	}
	_, ok := r.OutputFiles[logical]
	return ok
}

type AnalyzerRunner struct {
	Invoker  *tool.Invoker
	Settings Settings
	Logger   *slog.Logger
}

// Run analyzes target. A missing optional binary yields a skipped result.
func (r *AnalyzerRunner) Run(ctx context.Context, target string) (*AnalyzerResult, error) {
	result := &AnalyzerResult{}
	tc := toolCommand{
		name:    AnalyzerTool,
		subdir:  analyzerSubdir,
		outputs: analyzerFileNames(),
		args: func(repo, outDir string) []string {
			return []string{"--path", repo, "--output", outDir}
		},
		accept: func(code int) bool { return code == 0 },
		parse: func(o *Outcome, outDir string) {
			o.OutputFiles = collectOutputs(outDir, analyzerOutputs)
			p, ok := o.OutputFiles["summary"]
			if !ok {
				return
			}
			doc, counts, err := readCounts(p)
			if err != nil {
				r.logger().Warn("could not parse analyzer summary", "path", p, "error", err)
				return
			}
			result.Summary = doc
			o.SummaryCounts = counts
		},
	}
	out, err := r.Settings.run(ctx, r.Invoker, r.logger(), tc, target)
	result.Outcome = out
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *AnalyzerRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func analyzerFileNames() []string {
	names := make([]string, 0, len(analyzerOutputs))
	for _, n := range analyzerOutputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
