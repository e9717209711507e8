package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"repopolicy/internal/glob"
	"repopolicy/internal/integration"
	"repopolicy/internal/rules"
)

const (
	DefaultOutDir  = ".repo-policy-output"
	DefaultTimeout = 5 * time.Minute
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect a
	// check run, keep these in sync:
	// - CLI flags in internal/cli/check.go
	// - rule option mapping in RuleOptions
	// - presets in presets.go

	// TargetPath is the repository to evaluate (see --path).
	TargetPath string `yaml:"target_path"`

	// OutDir receives reports and tool artifacts (see --outdir).
	// A relative path is resolved against TargetPath.
	OutDir string `yaml:"outdir"`

	Globs       Globs             `yaml:"globs"`
	Rules       Rules             `yaml:"rules"`
	License     License           `yaml:"license"`
	Integration Integration       `yaml:"integration"`
	RepoTags    map[string]string `yaml:"repo_tags,omitempty"`
	GitHub      GitHub            `yaml:"github"`

	// Preset records which preset a generated file started from. Informational.
	Preset string `yaml:"preset,omitempty"`

	// KeepArtifacts keeps tool outputs under OutDir after parsing (see --keep-artifacts).
	KeepArtifacts bool `yaml:"keep_artifacts"`

	// Clean removes OutDir before the run (see --clean).
	Clean bool `yaml:"clean"`

	// ConfigFile is the file this configuration was loaded from, if any.
	ConfigFile string `yaml:"-"`

	Output  Output  `yaml:"-"`
	Runtime Runtime `yaml:"-"`
}

type Globs struct {
	// Source classifies source files.
	Source []string `yaml:"source"`
	// Test classifies test files.
	Test []string `yaml:"test"`
}

type Rules struct {
	// Include selects rules by glob over rule IDs (see --rules-include). Default ["*"].
	Include []string `yaml:"include"`

	// Exclude removes rules from the included set (see --rules-exclude).
	Exclude []string `yaml:"exclude"`

	// SeverityOverrides maps a rule ID (or rule-specific override key such as
	// ci-required-tests) to error, warning or info (see --severity).
	SeverityOverrides map[string]string `yaml:"severity_overrides,omitempty"`

	// Options holds per-rule options, keyed by rule ID then option name.
	Options map[string]map[string]string `yaml:"options,omitempty"`

	// ReadmeRequiredSections overrides readme-required's sections. An empty
	// list disables the section check; nil keeps the default.
	ReadmeRequiredSections []string `yaml:"readme_required_sections,omitempty"`

	// ForbiddenPatterns overrides forbidden-files' patterns.
	ForbiddenPatterns []string `yaml:"forbidden_patterns,omitempty"`

	// MaxFileSizeBytes is the large file threshold. 0 means 10 MiB.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes,omitempty"`

	// TestsRequiredIfSourcesPresent toggles tests-required-with-sources. nil means true.
	TestsRequiredIfSourcesPresent *bool `yaml:"tests_required_if_sources_present,omitempty"`

	// Set provides per-rule option overrides from the CLI.
	// Entries are of the form ruleID.option=value (repeatable; see --set).
	Set []string `yaml:"-"`
}

type License struct {
	SPDXID             string   `yaml:"spdx_id"`
	HeaderTemplatePath string   `yaml:"header_template_path,omitempty"`
	RequireHeader      bool     `yaml:"require_header"`
	IncludeGlobs       []string `yaml:"include_globs,omitempty"`
	ExcludeGlobs       []string `yaml:"exclude_globs,omitempty"`
}

type Integration struct {
	EnableRepoAnalyzer    bool   `yaml:"enable_repo_analyzer"`
	RepoAnalyzerBinary    string `yaml:"repo_analyzer_binary,omitempty"`
	AnalyzerWorkspaceMode string `yaml:"analyzer_workspace_mode"`

	EnableLicenseHeaders       bool   `yaml:"enable_license_headers"`
	LicenseHeaderBinary        string `yaml:"license_header_binary,omitempty"`
	LicenseHeaderWorkspaceMode string `yaml:"license_header_workspace_mode"`

	// Required turns a missing tool into a fatal error instead of a skip.
	Required bool `yaml:"required"`

	// Timeout bounds each tool invocation (see --timeout).
	Timeout time.Duration `yaml:"timeout"`
}

type GitHub struct {
	// Repository is OWNER/REPO; when set, repository metadata is added to repo tags.
	Repository string `yaml:"repository,omitempty"`
	Enabled    bool   `yaml:"enabled"`
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by result status (see --console-filter-status).
	// Allowed values: PASS, FAIL, SKIPPED.
	ConsoleFilterStatus []string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// NoReports skips writing policy-report.json and policy-report.md (see --no-reports).
	NoReports bool
}

type Runtime struct {
	// Verbose enables debug logging (see --verbose).
	Verbose bool
}

// DefaultSourceGlobs classify source files when none are configured.
var DefaultSourceGlobs = []string{
	"**/*.py", "**/*.js", "**/*.ts", "**/*.java", "**/*.go",
	"**/*.rs", "**/*.c", "**/*.cpp", "**/*.h", "**/*.hpp",
}

// DefaultTestGlobs classify test files when none are configured.
var DefaultTestGlobs = []string{
	"**/test_*.py", "**/*_test.py", "**/*_test.go", "**/tests/**",
	"**/*.test.js", "**/*.test.ts", "**/*.spec.js", "**/*.spec.ts",
}

func New() *Config {
	return &Config{
		TargetPath: ".",
		OutDir:     DefaultOutDir,
		Globs: Globs{
			Source: append([]string(nil), DefaultSourceGlobs...),
			Test:   append([]string(nil), DefaultTestGlobs...),
		},
		Rules: Rules{
			Include: []string{"*"},
		},
		Integration: Integration{
			EnableRepoAnalyzer:         true,
			AnalyzerWorkspaceMode:      string(integration.DirectOutput),
			EnableLicenseHeaders:       true,
			LicenseHeaderWorkspaceMode: string(integration.DirectOutput),
			Timeout:                    DefaultTimeout,
		},
		Output: Output{
			ConsoleFormat: "text",
		},
	}
}

func (c *Config) Validate() error {
	c.Rules.Include = splitCommaList(c.Rules.Include)
	c.Rules.Exclude = splitCommaList(c.Rules.Exclude)
	if len(c.Rules.Include) == 0 {
		c.Rules.Include = []string{"*"}
	}
	if strings.TrimSpace(c.TargetPath) == "" {
		c.TargetPath = "."
	}
	if strings.TrimSpace(c.OutDir) == "" {
		c.OutDir = DefaultOutDir
	}

	// Glob validation
	for _, set := range []struct {
		name     string
		patterns []string
	}{
		{"globs.source", c.Globs.Source},
		{"globs.test", c.Globs.Test},
		{"rules.include", c.Rules.Include},
		{"rules.exclude", c.Rules.Exclude},
		{"rules.forbidden_patterns", c.Rules.ForbiddenPatterns},
		{"license.include_globs", c.License.IncludeGlobs},
		{"license.exclude_globs", c.License.ExcludeGlobs},
	} {
		for _, p := range set.patterns {
			if err := glob.Validate(p); err != nil {
				return fmt.Errorf("invalid %s pattern: %w", set.name, err)
			}
		}
	}

	// Severity validation
	for id, raw := range c.Rules.SeverityOverrides {
		sev, err := rules.ParseSeverity(raw)
		if err != nil {
			return fmt.Errorf("invalid severity override for %q: %w", id, err)
		}
		c.Rules.SeverityOverrides[id] = string(sev)
	}

	// Integration validation
	for _, mode := range []*string{&c.Integration.AnalyzerWorkspaceMode, &c.Integration.LicenseHeaderWorkspaceMode} {
		m, err := integration.ParseWorkspaceMode(*mode)
		if err != nil {
			return err
		}
		*mode = string(m)
	}
	if c.Integration.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if c.Rules.MaxFileSizeBytes < 0 {
		return errors.New("rules.max_file_size_bytes must be >= 0")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}
	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
	}
	for _, st := range c.Output.ConsoleFilterStatus {
		switch rules.Status(strings.ToUpper(strings.TrimSpace(st))) {
		case rules.StatusPass, rules.StatusFail, rules.StatusSkipped:
		default:
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: PASS, FAIL, SKIPPED)", st)
		}
	}

	if c.GitHub.Repository != "" {
		owner, repo, ok := strings.Cut(strings.TrimSpace(c.GitHub.Repository), "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return fmt.Errorf("invalid github.repository %q: expected OWNER/REPO", c.GitHub.Repository)
		}
	}

	// Ruleset option syntax validation (rule.option=value)
	if len(c.Rules.Set) > 0 {
		if _, err := ParseRuleOptionAssignments(c.Rules.Set); err != nil {
			return err
		}
	}

	if c.License.RequireHeader {
		if c.License.SPDXID == "" {
			slog.Warn("license.require_header is true but license.spdx_id is not set")
		}
		if c.License.HeaderTemplatePath == "" {
			slog.Warn("license.require_header is true but license.header_template_path is not set; LICENSE_HEADER or LICENSE_HEADER.md is used")
		}
	}
	return nil
}

// SeverityOverrides returns the parsed override map. Call after Validate.
func (c *Config) SeverityOverrides() map[string]rules.Severity {
	out := make(map[string]rules.Severity, len(c.Rules.SeverityOverrides))
	for id, raw := range c.Rules.SeverityOverrides {
		if sev, err := rules.ParseSeverity(raw); err == nil {
			out[id] = sev
		}
	}
	return out
}

// RuleOptions maps typed settings, rules.options and --set entries (in that
// precedence order, last wins) into per-rule option maps.
func (c *Config) RuleOptions() (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	put := func(ruleID, opt, value string) {
		if _, ok := out[ruleID]; !ok {
			out[ruleID] = make(map[string]string)
		}
		out[ruleID][opt] = value
	}

	if c.Rules.ReadmeRequiredSections != nil {
		put("readme-required", "sections", strings.Join(c.Rules.ReadmeRequiredSections, ","))
	}
	if c.License.SPDXID != "" {
		put("license-spdx-id-required", "spdx_id", c.License.SPDXID)
		put("license-header-required", "spdx_id", c.License.SPDXID)
	}
	put("license-header-required", "require_header", fmt.Sprint(c.License.RequireHeader))
	if c.License.HeaderTemplatePath != "" {
		put("license-header-required", "header_template_path", c.License.HeaderTemplatePath)
	}
	if len(c.Rules.ForbiddenPatterns) > 0 {
		put("forbidden-files", "patterns", strings.Join(c.Rules.ForbiddenPatterns, ","))
	}
	if c.Rules.MaxFileSizeBytes > 0 {
		put("file-size-limit", "max_bytes", fmt.Sprint(c.Rules.MaxFileSizeBytes))
	}
	if c.Rules.TestsRequiredIfSourcesPresent != nil {
		put("tests-required-with-sources", "enabled", fmt.Sprint(*c.Rules.TestsRequiredIfSourcesPresent))
	}

	for ruleID, opts := range c.Rules.Options {
		for opt, v := range opts {
			put(ruleID, opt, v)
		}
	}

	assignments, err := ParseRuleOptionAssignments(c.Rules.Set)
	if err != nil {
		return nil, err
	}
	for ruleID, opts := range assignments {
		for opt, v := range opts {
			put(ruleID, opt, v)
		}
	}
	return out, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseRuleOptionAssignments parses values of the form "ruleID.option=value".
//
// Notes:
//   - Entries may be provided via repeated flags and/or comma-delimited lists.
//   - A comma-separated fragment without "rule.option=" continues the previous
//     value, so list options can be written as rule.option=a,b.
//   - This validates syntax only (no validation of rule IDs or option names).
//   - Empty values are allowed ("rule.option=").
func ParseRuleOptionAssignments(values []string) (map[string]map[string]string, error) {
	type entry struct{ rule, opt, value string }
	var entries []entry

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			raw := strings.TrimSpace(part)
			if raw == "" {
				continue
			}
			left, value, hasEq := strings.Cut(raw, "=")
			ruleID, opt, hasDot := strings.Cut(strings.TrimSpace(left), ".")
			if !hasEq || !hasDot {
				if len(entries) == 0 || hasEq {
					return nil, fmt.Errorf("invalid --set entry %q: expected rule.option=value", raw)
				}
				last := &entries[len(entries)-1]
				last.value += "," + raw
				continue
			}
			ruleID = strings.TrimSpace(ruleID)
			opt = strings.TrimSpace(opt)
			if ruleID == "" || opt == "" {
				return nil, fmt.Errorf("invalid --set entry %q: expected non-empty rule and option", raw)
			}
			entries = append(entries, entry{rule: ruleID, opt: opt, value: strings.TrimSpace(value)})
		}
	}

	out := make(map[string]map[string]string)
	for _, e := range entries {
		if _, ok := out[e.rule]; !ok {
			out[e.rule] = make(map[string]string)
		}
		out[e.rule][e.opt] = e.value
	}
	return out, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
