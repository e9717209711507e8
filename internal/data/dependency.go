package data

// DependencyKey identifies optional data a rule needs beyond the fact snapshot.
type DependencyKey string

const (
	// DepAnalyzer is the repo-analyzer output (tree, dependencies, metadata, summary).
	DepAnalyzer DependencyKey = "integration.analyzer"

	// DepLicenseHeaders is the license-header check report.
	DepLicenseHeaders DependencyKey = "integration.license_headers"
)
