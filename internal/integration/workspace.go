// Package integration runs the external analysis tools and normalizes their output.
package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultWorkspacePrefix is the name prefix of every temporary workspace.
const DefaultWorkspacePrefix = "repo-policy-"

type WorkspaceMode string

const (
	DirectOutput  WorkspaceMode = "direct_output"
	TempWorkspace WorkspaceMode = "temp_workspace"
)

// ParseWorkspaceMode accepts the configuration spellings of a workspace mode.
func ParseWorkspaceMode(raw string) (WorkspaceMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(DirectOutput), "direct":
		return DirectOutput, nil
	case string(TempWorkspace), "temp":
		return TempWorkspace, nil
	default:
		return "", fmt.Errorf("unsupported workspace mode %q (must be one of: direct_output, temp_workspace)", raw)
	}
}

// Workspace is a private copy of a repository plus a scratch output directory.
type Workspace struct {
	Dir       string
	RepoDir   string
	OutputDir string
}

// WithTempWorkspace copies root into a fresh temporary directory and calls fn
// with it. The directory is removed when WithTempWorkspace returns, whether fn
// succeeds, fails or panics.
//
// exclude lists absolute directories inside root that are not copied.
func WithTempWorkspace(ctx context.Context, prefix, root string, exclude []string, fn func(Workspace) error) (err error) {
	if prefix == "" {
		prefix = DefaultWorkspacePrefix
	}
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return fmt.Errorf("create temp workspace: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && err == nil {
			err = fmt.Errorf("remove temp workspace %s: %w", dir, rmErr)
		}
	}()

	ws := Workspace{
		Dir:       dir,
		RepoDir:   filepath.Join(dir, "repo"),
		OutputDir: filepath.Join(dir, "output"),
	}
	if err := os.Mkdir(ws.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create workspace output dir: %w", err)
	}
	if err := copyTree(ctx, root, ws.RepoDir, exclude); err != nil {
		return fmt.Errorf("copy repository into workspace: %w", err)
	}
	return fn(ws)
}

// copyTree mirrors src into dst, hard-linking files where the filesystem
// allows it and copying bytes otherwise. Symbolic links are not followed.
func copyTree(ctx context.Context, src, dst string, exclude []string) error {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			skip[abs] = struct{}{}
		}
	}
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	return filepath.WalkDir(srcAbs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := skip[p]; ok && d.IsDir() {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(srcAbs, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return linkOrCopy(p, target)
		default:
			return nil
		}
	})
}

func linkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// copyOutputs copies the named files that exist in srcDir into dstDir and
// returns the copied paths keyed by file name.
func copyOutputs(srcDir, dstDir string, names []string) (map[string]string, error) {
	copied := make(map[string]string)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, err
	}
	var errs []error
	for _, name := range names {
		src := filepath.Join(srcDir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := filepath.Join(dstDir, name)
		if err := copyFile(src, dst); err != nil {
			errs = append(errs, fmt.Errorf("copy %s: %w", name, err))
			continue
		}
		copied[name] = dst
	}
	return copied, errors.Join(errs...)
}
