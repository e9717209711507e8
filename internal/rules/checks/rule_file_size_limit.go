package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"repopolicy/internal/data"
	"repopolicy/internal/facts"
	"repopolicy/internal/rules"
)

type FileSizeLimitRule struct {
	maxBytes int64
	allow    rules.AllowList
}

func (r *FileSizeLimitRule) ID() string {
	return "file-size-limit"
}

func (r *FileSizeLimitRule) Title() string {
	return "File Size Limit"
}

func (r *FileSizeLimitRule) Description() string {
	return "Reports files larger than max_bytes. Binary files are listed in the evidence for awareness but do not fail the rule.\n\n" +
		"Options:\n" +
		"- max_bytes: size limit in bytes (default 10485760)\n" +
		"- allow.paths: comma-separated globs of paths exempt from the rule"
}

func (r *FileSizeLimitRule) DefaultSeverity() rules.Severity { return rules.SeverityWarning }

func (r *FileSizeLimitRule) Tags() []string { return []string{"hygiene", "performance"} }

func (r *FileSizeLimitRule) Options() []rules.Option {
	return append([]rules.Option{
		{
			Name:        "max_bytes",
			Description: "Maximum file size in bytes.",
			Default:     strconv.FormatInt(facts.DefaultLargeFileThreshold, 10),
		},
	}, r.allow.Options()...)
}

func (r *FileSizeLimitRule) Configure(opts map[string]string) error {
	r.maxBytes = facts.DefaultLargeFileThreshold
	if v, ok := opts["max_bytes"]; ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid value for max_bytes: %q (must be a positive integer)", v)
		}
		r.maxBytes = n
	}
	return r.allow.Configure(opts)
}

func (r *FileSizeLimitRule) Dependencies() []data.DependencyKey { return nil }

func (r *FileSizeLimitRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	snap := pc.Facts()

	var oversized []string
	for _, f := range snap.Files {
		if snap.Sizes[f] > r.maxBytes {
			oversized = append(oversized, f)
		}
	}
	oversized, allowed := r.allow.Filter(oversized)
	binaries, _ := r.allow.Filter(snap.BinaryFiles)

	large := make([]facts.LargeFile, 0, len(oversized))
	for _, f := range oversized {
		large = append(large, facts.LargeFile{Path: f, SizeBytes: snap.Sizes[f]})
	}

	evidence := map[string]any{
		"max_bytes":          r.maxBytes,
		"large_files_count":  len(large),
		"binary_files_count": len(binaries),
	}
	if len(binaries) > 0 {
		evidence["binary_files"] = binaries
	}
	if len(allowed) > 0 {
		evidence["allowed_files"] = allowed
	}
	if len(large) == 0 {
		return rules.PassResult(r.ID(), "No large files found", evidence), nil
	}

	evidence["large_files"] = large
	lines := make([]string, 0, len(large))
	for _, lf := range large {
		lines = append(lines, fmt.Sprintf("%s (%.2f MB)", lf.Path, float64(lf.SizeBytes)/(1024*1024)))
	}
	return rules.FailResult(r.ID(), fmt.Sprintf("Found %d large file(s) and %d binary file(s)", len(large), len(binaries)), evidence).
		WithRemediation("Large files:\n" + limitList(lines, maxListedFiles) + "\n\n" +
			"Consider Git LFS for large binaries, storing assets externally, or ignoring build artifacts."), nil
}
