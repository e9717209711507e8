package data

import (
	"sort"

	"repopolicy/internal/facts"
	"repopolicy/internal/integration"
)

// TrackingContext wraps another PolicyContext and records every dependency
// key a rule touches through it.
//
// The engine uses it to enforce that rules declare their dependencies up
// front via Rule.Dependencies().
type TrackingContext struct {
	inner    PolicyContext
	accessed map[DependencyKey]struct{}
}

func NewTrackingContext(inner PolicyContext) *TrackingContext {
	return &TrackingContext{
		inner:    inner,
		accessed: make(map[DependencyKey]struct{}),
	}
}

func (c *TrackingContext) record(key DependencyKey) { c.accessed[key] = struct{}{} }

func (c *TrackingContext) Facts() *facts.Snapshot { return c.inner.Facts() }

func (c *TrackingContext) Available(key DependencyKey) bool {
	c.record(key)
	return c.inner.Available(key)
}

func (c *TrackingContext) UnavailableReason(key DependencyKey) string {
	c.record(key)
	return c.inner.UnavailableReason(key)
}

func (c *TrackingContext) HasAnalyzerData() bool {
	c.record(DepAnalyzer)
	return c.inner.HasAnalyzerData()
}

func (c *TrackingContext) HasLicenseHeaderData() bool {
	c.record(DepLicenseHeaders)
	return c.inner.HasLicenseHeaderData()
}

func (c *TrackingContext) Analyzer() *integration.AnalyzerResult {
	c.record(DepAnalyzer)
	return c.inner.Analyzer()
}

func (c *TrackingContext) LicenseHeaders() *integration.LicenseHeaderResult {
	c.record(DepLicenseHeaders)
	return c.inner.LicenseHeaders()
}

func (c *TrackingContext) AccessedKeys() []DependencyKey {
	if c == nil {
		return nil
	}
	keys := make([]DependencyKey, 0, len(c.accessed))
	for k := range c.accessed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
