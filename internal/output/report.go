package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"repopolicy/internal/rules"
)

// MarkdownReportFile is the human-readable report written into the output directory.
const MarkdownReportFile = "policy-report.md"

// ReportSink renders the final Document as Markdown on Close.
type ReportSink struct {
	path string
	file *os.File
	mu   sync.Mutex
	doc  *Document
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := v.(*Document); ok {
		s.doc = d
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		_ = s.file.Close()
		return os.Remove(s.path)
	}
	if _, err := s.file.WriteString(RenderMarkdown(s.doc)); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

// RenderMarkdown returns the Markdown form of doc. Output depends only on doc.
func RenderMarkdown(doc *Document) string {
	var b strings.Builder
	b.WriteString("# Policy Check Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s UTC\n\n", doc.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))

	// --- Overview ---
	sum := doc.Summary
	b.WriteString("## Overview\n\n")
	b.WriteString("### Summary\n\n")
	fmt.Fprintf(&b, "- **Total Rules:** %d\n", sum.Total)
	fmt.Fprintf(&b, "- **Passed:** %d\n", sum.Passed)
	fmt.Fprintf(&b, "- **Failed:** %d\n", sum.Failed)
	fmt.Fprintf(&b, "  - Errors: %d\n", sum.Errors)
	fmt.Fprintf(&b, "  - Warnings: %d\n", sum.Warnings)
	fmt.Fprintf(&b, "  - Info: %d\n", sum.Infos)
	fmt.Fprintf(&b, "- **Skipped:** %d\n\n", sum.Skipped)
	if doc.Passed {
		b.WriteString("**Status:** ✅ PASS\n\n")
	} else {
		b.WriteString("**Status:** ❌ FAIL\n\n")
	}

	meta := doc.Metadata
	b.WriteString("### Metadata\n\n")
	fmt.Fprintf(&b, "- **Repository:** `%s`\n", orNA(meta.RepoPath))
	fmt.Fprintf(&b, "- **Config File:** `%s`\n", orNA(meta.ConfigFile))
	if meta.CommitHash != "" {
		fmt.Fprintf(&b, "- **Commit Hash:** `%s`\n", meta.CommitHash)
	}
	if len(meta.ConfigHash) >= 12 {
		fmt.Fprintf(&b, "- **Config Hash:** `%s...`\n", meta.ConfigHash[:12])
	}
	if meta.AnalyzerVersion != "" {
		fmt.Fprintf(&b, "- **Analyzer Version:** %s\n", meta.AnalyzerVersion)
	}
	if meta.LicenseHeaderToolVersion != "" {
		fmt.Fprintf(&b, "- **License Header Tool Version:** %s\n", meta.LicenseHeaderToolVersion)
	}
	b.WriteString("\n")

	var fails, passes, skips []rules.Result
	for _, r := range doc.Rules {
		switch r.Status() {
		case rules.StatusFail:
			fails = append(fails, r)
		case rules.StatusPass:
			passes = append(passes, r)
		case rules.StatusSkipped:
			skips = append(skips, r)
		}
	}

	// --- Failures ---
	if len(fails) > 0 {
		sort.SliceStable(fails, func(i, j int) bool {
			ri, rj := fails[i].Severity.Rank(), fails[j].Severity.Rank()
			if ri != rj {
				return ri > rj
			}
			return fails[i].RuleID < fails[j].RuleID
		})
		b.WriteString("## Failures\n\n")
		for _, r := range fails {
			fmt.Fprintf(&b, "### %s %s\n\n", severityMarker(r.Severity), r.RuleID)
			fmt.Fprintf(&b, "**Severity:** %s\n\n", strings.ToUpper(string(r.Severity)))
			fmt.Fprintf(&b, "**Message:** %s\n\n", r.Message)
			if len(r.Evidence) > 0 {
				b.WriteString("**Evidence:**\n\n")
				writeEvidence(&b, r.Evidence)
				b.WriteString("\n")
			}
			if r.Remediation != "" {
				fmt.Fprintf(&b, "**Remediation:** %s\n\n", r.Remediation)
			}
			b.WriteString("---\n\n")
		}
	}

	// --- Passed / Skipped ---
	writeResultList(&b, "Passed Rules", "The following rules passed:", "✅", passes)
	writeResultList(&b, "Skipped Rules", "The following rules were skipped:", "⏭️", skips)

	// --- Artifacts ---
	b.WriteString("## Artifacts\n\n")
	if len(doc.Artifacts) == 0 {
		b.WriteString("No integration artifacts were generated.\n\n")
	} else {
		names := make([]string, 0, len(doc.Artifacts))
		for name := range doc.Artifacts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			a := doc.Artifacts[name]
			fmt.Fprintf(&b, "### %s\n\n", name)
			fmt.Fprintf(&b, "**Status:** %s\n\n", a.Status)
			if a.Version != "" {
				fmt.Fprintf(&b, "**Version:** %s\n\n", a.Version)
			}
			if len(a.OutputFiles) > 0 {
				b.WriteString("**Output Files:**\n\n")
				for _, f := range a.OutputFiles {
					fmt.Fprintf(&b, "- `%s`\n", f)
				}
				b.WriteString("\n")
			}
			if a.ErrorMessage != "" {
				fmt.Fprintf(&b, "**Error:** %s\n\n", a.ErrorMessage)
			}
		}
	}

	b.WriteString("## Command Guidance\n\n")
	rerun := doc.Metadata.Command
	if rerun == "" {
		rerun = "repo-policy check"
	}
	fmt.Fprintf(&b, "Re-run the policy check:\n\n```bash\n%s\n```\n\n", rerun)
	b.WriteString("List the available rules:\n\n```bash\nrepo-policy rules list\n```\n")
	return b.String()
}

func writeResultList(b *strings.Builder, title, intro, marker string, results []rules.Result) {
	if len(results) == 0 {
		return
	}
	sorted := append([]rules.Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RuleID < sorted[j].RuleID })

	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, intro)
	for _, r := range sorted {
		fmt.Fprintf(b, "- %s `%s`: %s\n", marker, r.RuleID, r.Message)
	}
	b.WriteString("\n")
}
