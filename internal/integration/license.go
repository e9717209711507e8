package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"repopolicy/internal/tool"
)

const (
	LicenseHeaderTool = "license-header"
	licenseSubdir     = "license-headers"
	// LicenseReportFile is the JSON report license-header writes in check mode.
	LicenseReportFile = "license-header-check-report.json"
)

var defaultHeaderTemplates = []string{"LICENSE_HEADER", "LICENSE_HEADER.md"}

// LicenseHeaderResult is the normalized output of a license-header check.
type LicenseHeaderResult struct {
	Outcome
	// AllCompliant is true when the tool exited 0.
	AllCompliant bool     `json:"all_compliant"`
	Compliant    []string `json:"compliant,omitempty"`
	NonCompliant []string `json:"non_compliant,omitempty"`
	SkippedFiles []string `json:"skipped_files,omitempty"`
	FailedFiles  []string `json:"failed_files,omitempty"`
	Template     string   `json:"template,omitempty"`
}

// Eligible returns the number of files the tool considered, preferring the
// tool's own summary over a count of the file lists.
func (r *LicenseHeaderResult) Eligible() int {
	if r == nil {
		return 0
	}
	if n, ok := r.SummaryCounts["eligible"]; ok {
		return n
	}
	return len(r.Compliant) + len(r.NonCompliant)
}

type licenseReport struct {
	Summary map[string]any `json:"summary"`
	Files   struct {
		Compliant    []string `json:"compliant"`
		NonCompliant []string `json:"non_compliant"`
		Skipped      []string `json:"skipped"`
		Failed       []string `json:"failed"`
	} `json:"files"`
}

type LicenseHeaderChecker struct {
	Invoker  *tool.Invoker
	Settings Settings
	Logger   *slog.Logger

	// HeaderTemplate is the header file, absolute or relative to the target.
	// Empty means LICENSE_HEADER or LICENSE_HEADER.md at the repository root.
	HeaderTemplate string
	IncludeGlobs   []string
	ExcludeGlobs   []string
}

// Check runs license-header in check mode; the tool is never asked to modify files.
//
// Exit status 0 means every file is compliant and 1 means at least one is not;
// both are successful integrations. Any other status is a tool failure.
func (c *LicenseHeaderChecker) Check(ctx context.Context, target string) (*LicenseHeaderResult, error) {
	result := &LicenseHeaderResult{}

	template, err := resolveHeaderTemplate(target, c.HeaderTemplate)
	if err != nil {
		if _, lookErr := tool.Discover(c.Settings.Binary, LicenseHeaderTool, c.resolver()); lookErr != nil {
			return c.notFound(lookErr)
		}
		c.logger().Warn("license header check not run", "error", err)
		result.Outcome = Outcome{Tool: LicenseHeaderTool, ErrorMessage: err.Error()}
		return result, nil
	}
	result.Template = template

	tc := toolCommand{
		name:    LicenseHeaderTool,
		subdir:  licenseSubdir,
		outputs: []string{LicenseReportFile},
		args: func(repo, outDir string) []string {
			return c.args(repo, template, outDir)
		},
		accept: func(code int) bool { return code == 0 || code == 1 },
		parse: func(o *Outcome, outDir string) {
			result.AllCompliant = o.Invocation != nil && o.Invocation.ExitCode == 0
			p := filepath.Join(outDir, LicenseReportFile)
			rep, err := readLicenseReport(p)
			switch {
			case err == nil:
				o.OutputFiles = map[string]string{"report": p}
				o.SummaryCounts = numericFields(rep.Summary)
				result.Compliant = rep.Files.Compliant
				result.NonCompliant = rep.Files.NonCompliant
				result.SkippedFiles = rep.Files.Skipped
				result.FailedFiles = rep.Files.Failed
			case result.AllCompliant && errors.Is(err, os.ErrNotExist):
				c.logger().Warn("license-header wrote no report", "path", p)
			default:
				o.Success = false
				o.ErrorMessage = fmt.Sprintf("unreadable license-header report: %v", err)
			}
		},
	}
	out, err := c.Settings.run(ctx, c.Invoker, c.logger(), tc, target)
	result.Outcome = out
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *LicenseHeaderChecker) args(repo, template, outDir string) []string {
	args := []string{"check", "--path", repo, "--header", template, "--output", outDir}
	for _, g := range c.IncludeGlobs {
		if ext, ok := strings.CutPrefix(g, "**/*"); ok && ext != "" && !strings.ContainsAny(ext, "*/") {
			args = append(args, "--include-extension", ext)
		}
	}
	for _, g := range c.ExcludeGlobs {
		args = append(args, "--exclude-path", g)
	}
	return args
}

func (c *LicenseHeaderChecker) notFound(err error) (*LicenseHeaderResult, error) {
	if c.Settings.Required {
		return nil, fmt.Errorf("%s is required: %w", LicenseHeaderTool, err)
	}
	c.logger().Warn("integration skipped", "tool", LicenseHeaderTool, "reason", err)
	return &LicenseHeaderResult{Outcome: skippedOutcome(LicenseHeaderTool, err)}, nil
}

func (c *LicenseHeaderChecker) resolver() tool.Resolver {
	if c.Invoker != nil && c.Invoker.Resolver != nil {
		return c.Invoker.Resolver
	}
	return tool.PathResolver
}

func (c *LicenseHeaderChecker) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func resolveHeaderTemplate(target, configured string) (string, error) {
	if configured != "" {
		p := configured
		if !filepath.IsAbs(p) {
			p = filepath.Join(target, p)
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("header template file not found: %s", p)
		}
		return p, nil
	}
	for _, name := range defaultHeaderTemplates {
		p := filepath.Join(target, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no header template found: expected LICENSE_HEADER or LICENSE_HEADER.md in the repository root, or set license.header_template_path")
}

func readLicenseReport(p string) (*licenseReport, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var rep licenseReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
