package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"repopolicy/internal/data"
	"repopolicy/internal/facts"
	"repopolicy/internal/integration"
)

func TestUnavailableDependencyReason(t *testing.T) {
	snap := &facts.Snapshot{}
	analyzerMissing := &integration.AnalyzerResult{Outcome: integration.Outcome{
		Tool: integration.AnalyzerTool, Skipped: true, SkipReason: "tool not found: repo-analyzer",
	}}
	licenseFailed := &integration.LicenseHeaderResult{Outcome: integration.Outcome{
		Tool: integration.LicenseHeaderTool, ErrorMessage: "bad config",
	}}
	analyzerOK := &integration.AnalyzerResult{Outcome: integration.Outcome{Tool: integration.AnalyzerTool, Success: true}}

	t.Run("all available", func(t *testing.T) {
		pc := data.NewRunContext(snap, data.WithAnalyzer(analyzerOK))
		_, unavailable := unavailableDependencyReason(pc, []data.DependencyKey{data.DepAnalyzer})
		assert.False(t, unavailable)
	})

	t.Run("no dependencies", func(t *testing.T) {
		_, unavailable := unavailableDependencyReason(data.NewRunContext(snap), nil)
		assert.False(t, unavailable)
	})

	t.Run("single dependency yields bare reason", func(t *testing.T) {
		pc := data.NewRunContext(snap, data.WithAnalyzer(analyzerMissing))
		reason, unavailable := unavailableDependencyReason(pc, []data.DependencyKey{data.DepAnalyzer})
		assert.True(t, unavailable)
		assert.Equal(t, "tool not found: repo-analyzer", reason)
	})

	t.Run("several dependencies are keyed", func(t *testing.T) {
		pc := data.NewRunContext(snap, data.WithAnalyzer(analyzerMissing), data.WithLicenseHeaders(licenseFailed))
		reason, unavailable := unavailableDependencyReason(pc, []data.DependencyKey{data.DepAnalyzer, data.DepLicenseHeaders})
		assert.True(t, unavailable)
		assert.Equal(t,
			"integration.analyzer: tool not found: repo-analyzer; integration.license_headers: license-header failed: bad config",
			reason)
	})

	t.Run("disabled integration", func(t *testing.T) {
		reason, unavailable := unavailableDependencyReason(data.NewRunContext(snap), []data.DependencyKey{data.DepLicenseHeaders})
		assert.True(t, unavailable)
		assert.Equal(t, "license-header integration is disabled", reason)
	})
}

func TestUndeclaredDependencyAccesses(t *testing.T) {
	accessed := []data.DependencyKey{data.DepAnalyzer, data.DepLicenseHeaders}

	assert.Nil(t, undeclaredDependencyAccesses(nil, nil))
	assert.Empty(t, undeclaredDependencyAccesses(accessed, accessed))
	assert.Equal(t, []string{"integration.license_headers"}, undeclaredDependencyAccesses(accessed, []data.DependencyKey{data.DepAnalyzer}))
	assert.Equal(t, []string{"integration.analyzer", "integration.license_headers"}, undeclaredDependencyAccesses(accessed, nil))
}
