package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"repopolicy/internal/tool"
)

// Settings are the options both adapters share.
type Settings struct {
	// Binary is the configured path or name; empty means the tool's default name.
	Binary   string
	Mode     WorkspaceMode
	OutDir   string
	Timeout  time.Duration
	Required bool

	KeepArtifacts   bool
	WorkspacePrefix string
	// Exclude lists absolute directories not copied into a temp workspace.
	Exclude []string
}

type toolCommand struct {
	name    string
	subdir  string
	outputs []string
	args    func(repo, outDir string) []string
	// accept reports whether an exit code means the tool produced usable output.
	accept func(exitCode int) bool
	// parse reads the files in outDir into o. It runs only after accept.
	parse func(o *Outcome, outDir string)
}

func (s Settings) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return tool.DefaultTimeout
}

// run executes tc against target in the configured workspace mode.
// Tool failures are recorded on the Outcome; the error is reserved for a
// missing required tool, an unusable output directory and cancellation.
func (s Settings) run(ctx context.Context, inv *tool.Invoker, logger *slog.Logger, tc toolCommand, target string) (Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if inv == nil {
		inv = tool.NewInvoker(nil, logger)
	}
	bin, err := tool.Discover(s.Binary, tc.name, inv.Resolver)
	if err != nil {
		if s.Required {
			return Outcome{Tool: tc.name}, fmt.Errorf("%s is required: %w", tc.name, err)
		}
		logger.Warn("integration skipped", "tool", tc.name, "reason", err)
		return skippedOutcome(tc.name, err), nil
	}

	o := Outcome{Tool: tc.name, ToolVersion: inv.Version(ctx, bin)}
	finalDir := filepath.Join(s.OutDir, tc.subdir)
	// Outputs of an earlier run must never be parsed as this run's.
	if err := os.RemoveAll(finalDir); err != nil {
		return o, fmt.Errorf("clear %s output directory: %w", tc.name, err)
	}

	invokeAndParse := func(repo, outDir string, copyBack bool) error {
		res, err := inv.Invoke(ctx, tool.Request{
			Binary:  bin,
			Args:    tc.args(repo, outDir),
			Dir:     repo,
			Timeout: s.Timeout,
		})
		o.Invocation = res
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, tool.ErrTimeout):
			o.ErrorMessage = fmt.Sprintf("%s timed out after %s", tc.name, s.timeout())
			return nil
		case err != nil:
			o.ErrorMessage = err.Error()
			return nil
		case !tc.accept(res.ExitCode):
			o.ErrorMessage = failureMessage(res)
			return nil
		}
		if copyBack {
			if _, err := copyOutputs(outDir, finalDir, tc.outputs); err != nil {
				o.ErrorMessage = fmt.Sprintf("copy %s outputs: %v", tc.name, err)
				return nil
			}
		}
		o.Success = true
		tc.parse(&o, finalDir)
		return nil
	}

	switch s.Mode {
	case TempWorkspace:
		prefix := s.WorkspacePrefix
		if prefix == "" {
			prefix = DefaultWorkspacePrefix + tc.subdir + "-"
		}
		err := WithTempWorkspace(ctx, prefix, target, s.Exclude, func(ws Workspace) error {
			return invokeAndParse(ws.RepoDir, ws.OutputDir, true)
		})
		if ctx.Err() != nil {
			return o, ctx.Err()
		}
		if err != nil {
			if o.Success {
				logger.Warn("temp workspace cleanup failed", "tool", tc.name, "error", err)
			} else {
				o.ErrorMessage = err.Error()
			}
		}
	default:
		if err := os.MkdirAll(finalDir, 0o755); err != nil {
			return o, fmt.Errorf("create %s output directory: %w", tc.name, err)
		}
		if err := invokeAndParse(target, finalDir, false); err != nil {
			return o, err
		}
	}

	// Artifacts of a failed run stay for diagnosis.
	switch {
	case s.KeepArtifacts:
		o.ArtifactsRetained = o.Success && len(o.OutputFiles) > 0
	case o.Success:
		if err := os.RemoveAll(finalDir); err != nil {
			logger.Warn("failed to remove tool artifacts", "tool", tc.name, "path", finalDir, "error", err)
		}
	}

	if o.Success {
		logger.Info("integration finished", "tool", tc.name, "version", o.ToolVersion, "outputs", len(o.OutputFiles))
	} else {
		logger.Warn("integration failed", "tool", tc.name, "error", o.ErrorMessage)
	}
	return o, nil
}

// collectOutputs maps logical names to the files of names present in dir.
func collectOutputs(dir string, names map[string]string) map[string]string {
	files := make(map[string]string)
	for logical, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			files[logical] = p
		}
	}
	return files
}
