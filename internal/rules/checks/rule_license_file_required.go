package checks

import (
	"context"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

type LicenseFileRequiredRule struct{}

func (r *LicenseFileRequiredRule) ID() string {
	return "license-file-required"
}

func (r *LicenseFileRequiredRule) Title() string {
	return "LICENSE File Required"
}

func (r *LicenseFileRequiredRule) Description() string {
	return "Verifies that a license file exists at the repository root. Accepted names: LICENSE, LICENSE.md, LICENSE.txt, COPYING, license, License.txt."
}

func (r *LicenseFileRequiredRule) DefaultSeverity() rules.Severity { return rules.SeverityError }

func (r *LicenseFileRequiredRule) Tags() []string { return []string{"license", "legal"} }

func (r *LicenseFileRequiredRule) Dependencies() []data.DependencyKey { return nil }

func (r *LicenseFileRequiredRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	snap := pc.Facts()
	if !snap.HasLicense() {
		return rules.FailResult(r.ID(), "LICENSE file is missing", map[string]any{
			"has_license": false,
		}).WithRemediation("Add a LICENSE file to the repository root. " +
			"Choose an appropriate license from https://choosealicense.com/ or https://spdx.org/licenses/"), nil
	}
	return rules.PassResult(r.ID(), "LICENSE file found: "+snap.LicensePath, map[string]any{
		"has_license":  true,
		"license_path": snap.LicensePath,
	}), nil
}
