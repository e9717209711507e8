package engine

import (
	"context"
	"strings"
	"time"

	"repopolicy/internal/config"
	"repopolicy/internal/output"
	"repopolicy/internal/tool"
)

const gitTimeout = 10 * time.Second

// CommitHash returns HEAD of the repository at dir, or "" when git is
// unavailable or dir is not a work tree.
func CommitHash(ctx context.Context, inv *tool.Invoker, dir string) string {
	if inv == nil {
		inv = tool.NewInvoker(nil, nil)
	}
	res, err := inv.Invoke(ctx, tool.Request{
		Binary:  "git",
		Args:    []string{"rev-parse", "HEAD"},
		Dir:     dir,
		Timeout: gitTimeout,
	})
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

// Metadata describes run for the final report document.
func Metadata(ctx context.Context, cfg *config.Config, run *Run, inv *tool.Invoker, toolVersion string) output.Metadata {
	meta := output.Metadata{ToolVersion: toolVersion}
	if run != nil && run.Snapshot != nil {
		meta.RepoPath = run.Snapshot.Root
		meta.CommitHash = CommitHash(ctx, inv, run.Snapshot.Root)
	}
	if cfg != nil && cfg.ConfigFile != "" {
		meta.ConfigFile = cfg.ConfigFile
		if h, err := cfg.Hash(); err == nil {
			meta.ConfigHash = h
		}
	}
	if run != nil {
		if a := run.Integrations.Analyzer; a != nil {
			meta.AnalyzerVersion = a.ToolVersion
		}
		if l := run.Integrations.LicenseHeaders; l != nil {
			meta.LicenseHeaderToolVersion = l.ToolVersion
		}
	}
	return meta
}

// Document assembles the final report document of a finished run.
func (r *Run) Document(meta output.Metadata, now time.Time) *output.Document {
	return output.NewDocument(r.Report, meta, now, r.Integrations.Outcomes()...)
}
