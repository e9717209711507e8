// Package checks contains the built-in policy rules.
package checks

import "repopolicy/internal/rules"

// Catalog returns fresh instances of the built-in rules in declaration order.
// Report order follows this order.
func Catalog() []rules.Rule {
	return []rules.Rule{
		&ReadmeRequiredRule{},
		&LicenseFileRequiredRule{},
		&LicenseSPDXIDRequiredRule{},
		&LicenseHeaderRequiredRule{},
		&CIRequiredRule{},
		&GitignoreRequiredRule{},
		&ForbiddenFilesRule{},
		&FileSizeLimitRule{},
		&TestsRequiredWithSourcesRule{},
		&AnalyzerOutputsPresentRule{},
	}
}

func init() {
	for _, r := range Catalog() {
		rules.Register(r)
	}
}
