package checks

import (
	"context"
	"fmt"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

const maxListedFiles = 10

type LicenseHeaderRequiredRule struct {
	requireHeader  bool
	spdxID         string
	headerTemplate string
}

func (r *LicenseHeaderRequiredRule) ID() string {
	return "license-header-required"
}

func (r *LicenseHeaderRequiredRule) Title() string {
	return "Source Files Carry License Headers"
}

func (r *LicenseHeaderRequiredRule) Description() string {
	return "Verifies that every eligible source file starts with the configured license header, using the license-header tool in check mode.\n\n" +
		"The rule is skipped unless require_header is true, and when the license-header integration did not produce data.\n\n" +
		"Options:\n" +
		"- require_header: enforce license headers (default false)\n" +
		"- spdx_id: SPDX identifier shown in remediation\n" +
		"- header_template_path: header template shown in remediation"
}

func (r *LicenseHeaderRequiredRule) DefaultSeverity() rules.Severity { return rules.SeverityError }

func (r *LicenseHeaderRequiredRule) Tags() []string { return []string{"license", "legal"} }

func (r *LicenseHeaderRequiredRule) Options() []rules.Option {
	return []rules.Option{
		{Name: "require_header", Description: "Enforce license headers in source files.", Default: "false"},
		{Name: "spdx_id", Description: "SPDX license identifier expected in headers."},
		{Name: "header_template_path", Description: "Path of the header template, relative to the repository root."},
	}
}

func (r *LicenseHeaderRequiredRule) Configure(opts map[string]string) error {
	r.requireHeader = false
	r.spdxID = strings.TrimSpace(opts["spdx_id"])
	r.headerTemplate = strings.TrimSpace(opts["header_template_path"])
	if v, ok := opts["require_header"]; ok && strings.TrimSpace(v) != "" {
		b, err := parseBoolOption("require_header", v)
		if err != nil {
			return err
		}
		r.requireHeader = b
	}
	return nil
}

func (r *LicenseHeaderRequiredRule) Dependencies() []data.DependencyKey {
	if !r.requireHeader {
		return nil
	}
	return []data.DependencyKey{data.DepLicenseHeaders}
}

func (r *LicenseHeaderRequiredRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	if !r.requireHeader {
		return rules.SkippedResult(r.ID(), "License header enforcement is disabled (require_header: false)", map[string]any{
			"require_header": false,
		}), nil
	}
	if !pc.HasLicenseHeaderData() {
		return rules.SkippedResult(r.ID(), pc.UnavailableReason(data.DepLicenseHeaders), map[string]any{
			"require_header": true,
		}), nil
	}

	lh := pc.LicenseHeaders()
	compliant := len(lh.Compliant)
	nonCompliant := len(lh.NonCompliant)
	if n := lh.SummaryCounts["non_compliant"]; n > nonCompliant {
		nonCompliant = n
	}
	if nonCompliant > 0 || !lh.AllCompliant {
		template := r.headerTemplate
		if template == "" {
			template = "default"
		}
		msg := fmt.Sprintf("%d file(s) missing license headers", nonCompliant)
		if nonCompliant == 0 {
			msg = "license-header reported files missing license headers"
		}
		return rules.FailResult(r.ID(), msg, map[string]any{
			"eligible":            lh.Eligible(),
			"compliant_count":     compliant,
			"non_compliant_count": nonCompliant,
			"non_compliant_files": lh.NonCompliant,
			"spdx_id":             r.spdxID,
		}).WithRemediation(fmt.Sprintf("Add license headers to the following files:\n%s\n\nUse the configured SPDX ID: %s\nTemplate path: %s",
			limitList(lh.NonCompliant, maxListedFiles), r.spdxID, template)), nil
	}

	return rules.PassResult(r.ID(), fmt.Sprintf("All %d checked file(s) have valid license headers", lh.Eligible()), map[string]any{
		"eligible":            lh.Eligible(),
		"compliant_count":     compliant,
		"non_compliant_count": 0,
		"spdx_id":             r.spdxID,
	}), nil
}
