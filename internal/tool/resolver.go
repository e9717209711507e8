package tool

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Resolver looks up a binary by name and returns its path.
type Resolver func(name string) (string, bool)

// PathResolver resolves names against the process PATH.
func PathResolver(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// Discover locates a tool binary. The explicitly configured path is tried
// first, then name is looked up through resolver; the first hit wins.
func Discover(configured, name string, resolver Resolver) (string, error) {
	if resolver == nil {
		resolver = PathResolver
	}
	var tried []string
	var lastErr error

	if configured = strings.TrimSpace(configured); configured != "" {
		tried = append(tried, configured)
		if isPathLike(configured) {
			lastErr = checkExecutable(configured)
			if lastErr == nil {
				return configured, nil
			}
		} else if p, ok := resolver(configured); ok {
			return p, nil
		}
	}

	if name != "" && name != configured {
		tried = append(tried, name)
		if p, ok := resolver(name); ok {
			return p, nil
		}
	}

	display := name
	if display == "" {
		display = configured
	}
	return "", &NotFoundError{Name: display, Tried: tried, Err: lastErr}
}

func isPathLike(s string) bool {
	return strings.ContainsAny(s, `/\`)
}

func checkExecutable(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return errors.New("permission denied: not executable")
	}
	return nil
}
