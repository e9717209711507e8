package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"repopolicy/internal/data"
	"repopolicy/internal/integration"
)

// Integrations are the enabled adapters. A nil field disables that adapter.
type Integrations struct {
	Analyzer       *integration.AnalyzerRunner
	LicenseHeaders *integration.LicenseHeaderChecker
}

// IntegrationResults hold one result per adapter that ran; nil means it did not run.
type IntegrationResults struct {
	Analyzer       *integration.AnalyzerResult
	LicenseHeaders *integration.LicenseHeaderResult
}

// Outcomes lists the common part of every adapter that ran.
func (r IntegrationResults) Outcomes() []*integration.Outcome {
	var out []*integration.Outcome
	if r.Analyzer != nil {
		out = append(out, &r.Analyzer.Outcome)
	}
	if r.LicenseHeaders != nil {
		out = append(out, &r.LicenseHeaders.Outcome)
	}
	return out
}

// Execute runs the enabled adapters that the plan needs, concurrently.
//
// Each adapter owns its workspace and result; the goroutines share nothing.
// With keepAll every enabled adapter runs, so its artifacts are produced even
// when no selected rule reads them.
//
// Adapter failures are recorded on the results. The error is reserved for a
// missing required tool, an unusable output directory and cancellation.
func (in Integrations) Execute(ctx context.Context, target string, plan *RunPlan, keepAll bool) (IntegrationResults, error) {
	var res IntegrationResults
	g, gctx := errgroup.WithContext(ctx)

	if in.Analyzer != nil && (keepAll || plan.Needs(data.DepAnalyzer)) {
		g.Go(func() error {
			r, err := in.Analyzer.Run(gctx, target)
			if err != nil {
				return err
			}
			res.Analyzer = r
			return nil
		})
	}
	if in.LicenseHeaders != nil && (keepAll || plan.Needs(data.DepLicenseHeaders)) {
		g.Go(func() error {
			r, err := in.LicenseHeaders.Check(gctx, target)
			if err != nil {
				return err
			}
			res.LicenseHeaders = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return IntegrationResults{}, err
	}
	return res, nil
}
