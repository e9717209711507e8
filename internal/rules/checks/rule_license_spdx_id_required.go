package checks

import (
	"context"
	"fmt"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

type LicenseSPDXIDRequiredRule struct {
	spdxID string
}

func (r *LicenseSPDXIDRequiredRule) ID() string {
	return "license-spdx-id-required"
}

func (r *LicenseSPDXIDRequiredRule) Title() string {
	return "SPDX License Identifier Configured"
}

func (r *LicenseSPDXIDRequiredRule) Description() string {
	return "Verifies that the policy declares the repository's SPDX license identifier (license.spdx_id).\n\n" +
		"Options:\n" +
		"- spdx_id: the SPDX identifier, e.g. Apache-2.0 or MIT"
}

func (r *LicenseSPDXIDRequiredRule) DefaultSeverity() rules.Severity { return rules.SeverityError }

func (r *LicenseSPDXIDRequiredRule) Tags() []string { return []string{"license", "legal"} }

func (r *LicenseSPDXIDRequiredRule) Options() []rules.Option {
	return []rules.Option{
		{Name: "spdx_id", Description: "SPDX license identifier of the repository."},
	}
}

func (r *LicenseSPDXIDRequiredRule) Configure(opts map[string]string) error {
	r.spdxID = strings.TrimSpace(opts["spdx_id"])
	return nil
}

func (r *LicenseSPDXIDRequiredRule) Dependencies() []data.DependencyKey { return nil }

func (r *LicenseSPDXIDRequiredRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	if r.spdxID == "" {
		return rules.FailResult(r.ID(), "SPDX license identifier is not configured", map[string]any{
			"has_spdx_id": false,
		}).WithRemediation("Add an SPDX license identifier to your configuration:\n" +
			"license:\n" +
			"  spdx_id: Apache-2.0\n\n" +
			"See https://spdx.org/licenses/ for valid identifiers"), nil
	}
	if len(r.spdxID) < 3 {
		return rules.FailResult(r.ID(), "Invalid SPDX license identifier: "+r.spdxID, map[string]any{
			"has_spdx_id": true,
			"spdx_id":     r.spdxID,
			"invalid":     true,
		}).WithRemediation(fmt.Sprintf("The SPDX identifier %q appears to be invalid. Use a valid identifier like Apache-2.0, MIT or GPL-3.0.", r.spdxID)), nil
	}
	return rules.PassResult(r.ID(), "SPDX license identifier configured: "+r.spdxID, map[string]any{
		"has_spdx_id": true,
		"spdx_id":     r.spdxID,
	}), nil
}
