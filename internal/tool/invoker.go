// Package tool runs external binaries with a bounded lifetime.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single invocation when Request.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// waitDelay bounds how long Wait keeps draining pipes after the process group is killed.
const waitDelay = 2 * time.Second

type Request struct {
	// Binary is a path or a bare name looked up through the Invoker's Resolver.
	Binary  string
	Args    []string
	Dir     string
	Timeout time.Duration
	// Env is appended to the current environment.
	Env []string
}

// Result describes a finished invocation. A non-zero ExitCode is a normal outcome.
type Result struct {
	Command  []string      `json:"command"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// CommandLine renders Command for logs and reports.
func (r *Result) CommandLine() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Command, " ")
}

type Invoker struct {
	Resolver Resolver
	Logger   *slog.Logger
}

func NewInvoker(resolver Resolver, logger *slog.Logger) *Invoker {
	if resolver == nil {
		resolver = PathResolver
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{Resolver: resolver, Logger: logger}
}

// Invoke runs req and waits for it to finish.
//
// The returned error is non-nil only when the binary cannot be found
// (ErrNotFound), the timeout elapses (ErrTimeout) or ctx is canceled.
// On timeout and cancellation the whole process group is killed and the
// partial output captured so far is returned alongside the error.
func (inv *Invoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	resolver := inv.Resolver
	if resolver == nil {
		resolver = PathResolver
	}
	logger := inv.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bin, err := Discover(req.Binary, "", resolver)
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, req.Args...)
	cmd.Dir = req.Dir
	if len(req.Env) > 0 {
		cmd.Env = append(cmd.Environ(), req.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	tree := newProcessTree(cmd)
	cmd.Cancel = tree.kill
	cmd.WaitDelay = waitDelay

	res := &Result{Command: append([]string{bin}, req.Args...)}
	logger.Debug("running tool", "command", res.CommandLine(), "dir", req.Dir, "timeout", timeout)

	start := time.Now()
	runErr := cmd.Start()
	if runErr == nil {
		if err := tree.attach(); err != nil {
			logger.Warn("child processes are not tracked", "command", res.CommandLine(), "error", err)
		}
		runErr = cmd.Wait()
	}
	tree.release()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.ExitCode = -1
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		logger.Warn("tool timed out", "command", res.CommandLine(), "timeout", timeout)
		return res, fmt.Errorf("%s: %w after %s", bin, ErrTimeout, timeout)
	}
	if runErr == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return res, nil
	}
	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) || errors.Is(runErr, fs.ErrPermission) {
		return nil, &NotFoundError{Name: req.Binary, Tried: []string{bin}, Err: runErr}
	}
	if errors.Is(runErr, exec.ErrWaitDelay) {
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", bin, runErr)
}

// Version runs `binary --version` and returns the first line of its output,
// or "" if the tool does not answer cleanly within ten seconds.
func (inv *Invoker) Version(ctx context.Context, binary string) string {
	res, err := inv.Invoke(ctx, Request{Binary: binary, Args: []string{"--version"}, Timeout: 10 * time.Second})
	if err != nil || res == nil || res.ExitCode != 0 {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	return strings.TrimSpace(line)
}
