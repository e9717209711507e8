package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/facts"
	"repopolicy/internal/output"
	"repopolicy/internal/report"
	"repopolicy/internal/rules"
)

// Options configure one policy run. Target and OutDir should be absolute.
type Options struct {
	Target string
	OutDir string

	// Catalog is the ordered rule set to select from; nil means rules.List().
	Catalog []rules.Rule
	Include []string
	Exclude []string

	// RuleOptions are per-rule option maps keyed by rule ID.
	RuleOptions map[string]map[string]string

	// SeverityOverrides map a rule ID or override key to a severity.
	SeverityOverrides map[string]rules.Severity

	Facts        facts.Options
	Integrations Integrations

	// KeepArtifacts runs every enabled integration, even when no selected
	// rule reads its data.
	KeepArtifacts bool

	// Clean removes OutDir before the run.
	Clean bool

	// Output receives lifecycle events and results; nil disables streaming.
	Output *output.Manager

	// Progress receives human progress lines; nil disables them.
	Progress io.Writer

	Logger *slog.Logger
}

// Run is everything a finished policy run produced.
type Run struct {
	Report       *report.Report
	Context      *data.RunContext
	Snapshot     *facts.Snapshot
	Integrations IntegrationResults
}

type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{opts: opts}
}

func (e *Engine) progressf(format string, args ...any) {
	if e.opts.Progress != nil {
		fmt.Fprintf(e.opts.Progress, format+"\n", args...)
	}
}

func (e *Engine) write(v any) {
	if e.opts.Output == nil {
		return
	}
	if err := e.opts.Output.Write(v); err != nil {
		e.opts.Logger.Warn("output sink write failed", "error", err)
	}
}

// Run selects and configures rules, extracts facts, runs the needed
// integrations and evaluates every selected rule in catalog order.
//
// Rule defects and integration failures become results; the error is
// reserved for configuration defects, a missing required tool, an unusable
// output directory and cancellation.
func (e *Engine) Run(ctx context.Context) (*Run, error) {
	opts := e.opts
	logger := opts.Logger
	if opts.Target == "" {
		return nil, errors.New("engine: target path is required")
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = rules.List()
	}

	e.progressf("Resolving rules...")
	if err := configureRules(catalog, opts.RuleOptions); err != nil {
		return nil, fmt.Errorf("configure rules: %w", err)
	}
	selected, err := SelectRules(catalog, opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}
	e.progressf("Selected %d rules.", len(selected))
	plan := NewRunPlan(selected)

	if err := prepareOutDir(opts.Target, opts.OutDir, opts.Clean); err != nil {
		return nil, err
	}

	e.progressf("Extracting facts...")
	factOpts := opts.Facts
	if factOpts.Logger == nil {
		factOpts.Logger = logger
	}
	if rel, ok := relativeInside(opts.Target, opts.OutDir); ok {
		factOpts.SkipDirs = append(append([]string(nil), factOpts.SkipDirs...), rel)
	}
	snap, err := facts.Extract(ctx, opts.Target, factOpts)
	if err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}

	if deps := plan.SortedDependencies(); len(deps) > 0 || opts.KeepArtifacts {
		e.progressf("Running integrations...")
	}
	integ, err := opts.Integrations.Execute(ctx, opts.Target, plan, opts.KeepArtifacts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pc := data.NewRunContext(snap,
		data.WithAnalyzer(integ.Analyzer),
		data.WithLicenseHeaders(integ.LicenseHeaders),
	)

	e.progressf("Evaluating rules...")
	e.write(output.Event{Type: output.EventRunStarted, Target: opts.Target, Rules: len(selected)})

	results := make([]rules.Result, 0, len(selected))
	for _, r := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := evaluateRule(ctx, r, pc)
		res = ResolveSeverity(res, r.DefaultSeverity(), opts.SeverityOverrides)
		if res.Defect {
			logger.Error("rule defect", "rule", r.ID(), "error", res.Message)
		} else {
			logger.Debug("rule evaluated", "rule", r.ID(), "status", res.Status(), "severity", res.Severity)
		}
		results = append(results, res)
		e.write(res)
	}

	rep := report.New(results)
	e.write(output.FinishedEvent(rep))

	return &Run{
		Report:       rep,
		Context:      pc,
		Snapshot:     snap,
		Integrations: integ,
	}, nil
}

// evaluateRule runs one rule with fault isolation. It never panics and
// always returns a result for r.
func evaluateRule(ctx context.Context, r rules.Rule, pc data.PolicyContext) (res rules.Result) {
	deps := r.Dependencies()
	if reason, unavailable := unavailableDependencyReason(pc, deps); unavailable {
		res = rules.SkippedResult(r.ID(), reason, nil)
		res.Tags = r.Tags()
		return res
	}

	// Enforce the rules contract: a rule must not read adapter data it did
	// not declare in Dependencies().
	tracked := data.NewTrackingContext(pc)
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		msg := fmt.Sprintf("rule panicked: %v", p)
		if undeclared := undeclaredDependencyAccesses(tracked.AccessedKeys(), deps); len(undeclared) > 0 {
			msg = fmt.Sprintf("rule accessed undeclared dependencies: %s (%s)", strings.Join(undeclared, ", "), msg)
		}
		res = defectResult(r, msg, true)
	}()

	var err error
	res, err = r.Evaluate(ctx, tracked)
	if undeclared := undeclaredDependencyAccesses(tracked.AccessedKeys(), deps); len(undeclared) > 0 {
		msg := fmt.Sprintf("rule accessed undeclared dependencies: %s. Declare them in Dependencies().", strings.Join(undeclared, ", "))
		if err != nil {
			msg = fmt.Sprintf("%s (evaluation error: %v)", msg, err)
		}
		return defectResult(r, msg, false)
	}
	if err != nil {
		return defectResult(r, fmt.Sprintf("evaluation failed: %v", err), false)
	}

	// Backfill identifiers so output stays consistent and well-formed.
	if res.RuleID == "" {
		res.RuleID = r.ID()
	}
	if res.Tags == nil {
		res.Tags = r.Tags()
	}
	if res.Skipped {
		res.Passed = true
		if res.SkipReason == "" {
			res.SkipReason = res.Message
		}
	}
	return res
}

func defectResult(r rules.Rule, msg string, panicked bool) rules.Result {
	res := rules.FailResult(r.ID(), msg, map[string]any{
		"error": msg,
		"panic": panicked,
	})
	res.Severity = rules.SeverityError
	res.Defect = true
	res.Tags = r.Tags()
	return res
}

// configureRules applies options to every configurable rule in catalog,
// resetting rules without options to their defaults.
func configureRules(catalog []rules.Rule, ruleOpts map[string]map[string]string) error {
	byID := make(map[string]rules.Rule, len(catalog))
	for _, r := range catalog {
		byID[r.ID()] = r
	}

	for ruleID, opts := range ruleOpts {
		r, ok := byID[ruleID]
		if !ok {
			return fmt.Errorf("unknown rule ID %q", ruleID)
		}
		cr, ok := r.(rules.ConfigurableRule)
		if !ok {
			if len(opts) == 0 {
				continue
			}
			return fmt.Errorf("rule %q does not support options", ruleID)
		}

		allowed := make(map[string]struct{})
		for _, opt := range cr.Options() {
			allowed[opt.Name] = struct{}{}
		}
		for name := range opts {
			if _, ok := allowed[name]; !ok {
				return fmt.Errorf("unknown option %q for rule %q", name, ruleID)
			}
		}
	}

	for _, r := range catalog {
		cr, ok := r.(rules.ConfigurableRule)
		if !ok {
			continue
		}
		opts := ruleOpts[r.ID()]
		if opts == nil {
			opts = map[string]string{}
		}
		if err := cr.Configure(opts); err != nil {
			return fmt.Errorf("configure rule %q: %w", r.ID(), err)
		}
	}
	return nil
}

func prepareOutDir(target, outDir string, clean bool) error {
	if outDir == "" {
		return errors.New("output directory is required")
	}
	if clean {
		if isSameOrAncestor(outDir, target) {
			return fmt.Errorf("refusing to clean %s: it contains the target repository", outDir)
		}
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("clean output directory: %w", err)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// relativeInside returns dir relative to root when dir lies strictly inside root.
func relativeInside(root, dir string) (string, bool) {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isSameOrAncestor(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
