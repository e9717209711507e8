package data

import (
	"fmt"

	"repopolicy/internal/facts"
	"repopolicy/internal/integration"
)

// PolicyContext is the read-only view rules evaluate against.
//
// Adapter data must be guarded by its availability predicate: Analyzer and
// LicenseHeaders panic with *UnavailableError when the data is absent.
type PolicyContext interface {
	Facts() *facts.Snapshot

	Available(key DependencyKey) bool
	UnavailableReason(key DependencyKey) string

	HasAnalyzerData() bool
	HasLicenseHeaderData() bool
	Analyzer() *integration.AnalyzerResult
	LicenseHeaders() *integration.LicenseHeaderResult
}

// UnavailableError is the panic value of an unguarded adapter accessor.
type UnavailableError struct {
	Key    DependencyKey
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s data read without checking availability (%s)", e.Key, e.Reason)
}

// RunContext holds one run's snapshot and adapter results.
type RunContext struct {
	snapshot *facts.Snapshot
	analyzer *integration.AnalyzerResult
	license  *integration.LicenseHeaderResult
}

type Option func(*RunContext)

// WithAnalyzer attaches a repo-analyzer result. A nil result means the integration was disabled.
func WithAnalyzer(r *integration.AnalyzerResult) Option {
	return func(c *RunContext) { c.analyzer = r }
}

// WithLicenseHeaders attaches a license-header result. A nil result means the integration was disabled.
func WithLicenseHeaders(r *integration.LicenseHeaderResult) Option {
	return func(c *RunContext) { c.license = r }
}

func NewRunContext(snapshot *facts.Snapshot, opts ...Option) *RunContext {
	if snapshot == nil {
		panic("data.NewRunContext: snapshot must not be nil")
	}
	c := &RunContext{snapshot: snapshot}
	for _, apply := range opts {
		if apply != nil {
			apply(c)
		}
	}
	return c
}

func (c *RunContext) Facts() *facts.Snapshot { return c.snapshot }

func (c *RunContext) Available(key DependencyKey) bool {
	switch key {
	case DepAnalyzer:
		return c.analyzer != nil && c.analyzer.Available()
	case DepLicenseHeaders:
		return c.license != nil && c.license.Available()
	default:
		return false
	}
}

func (c *RunContext) UnavailableReason(key DependencyKey) string {
	switch key {
	case DepAnalyzer:
		if c.analyzer == nil {
			return "repo-analyzer integration is disabled"
		}
		return c.analyzer.UnavailableReason()
	case DepLicenseHeaders:
		if c.license == nil {
			return "license-header integration is disabled"
		}
		return c.license.UnavailableReason()
	default:
		return fmt.Sprintf("unknown dependency %q", key)
	}
}

func (c *RunContext) HasAnalyzerData() bool      { return c.Available(DepAnalyzer) }
func (c *RunContext) HasLicenseHeaderData() bool { return c.Available(DepLicenseHeaders) }

func (c *RunContext) Analyzer() *integration.AnalyzerResult {
	c.mustHave(DepAnalyzer)
	return c.analyzer
}

func (c *RunContext) LicenseHeaders() *integration.LicenseHeaderResult {
	c.mustHave(DepLicenseHeaders)
	return c.license
}

func (c *RunContext) mustHave(key DependencyKey) {
	if !c.Available(key) {
		panic(&UnavailableError{Key: key, Reason: c.UnavailableReason(key)})
	}
}
