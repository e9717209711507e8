// Package glob evaluates repository path patterns.
//
// Patterns follow doublestar semantics: `**` matches zero or more path
// segments, `*` matches within one segment, `?` matches one character and
// `{a,b}` is alternation. Paths are always compared in forward-slash form.
package glob

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	ErrEmptyPattern    = errors.New("empty pattern")
	ErrAbsolutePattern = errors.New("absolute patterns are not allowed")
	ErrEscapingPattern = errors.New("pattern escapes the repository root")
)

// Validate reports whether pattern is usable against repository-relative paths.
func Validate(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return ErrEmptyPattern
	}
	p := filepathToSlash(pattern)
	if strings.HasPrefix(p, "/") || hasDriveLetter(p) {
		return fmt.Errorf("%w: %q", ErrAbsolutePattern, pattern)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", ErrEscapingPattern, pattern)
		}
	}
	if !doublestar.ValidatePattern(p) {
		return fmt.Errorf("malformed pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	return nil
}

// Match reports whether path matches pattern.
func Match(pattern, path string) (bool, error) {
	if err := Validate(pattern); err != nil {
		return false, err
	}
	ok, err := doublestar.Match(filepathToSlash(pattern), Normalize(path))
	if err != nil {
		return false, fmt.Errorf("malformed pattern %q: %w", pattern, err)
	}
	return ok, nil
}

// MatchAny reports whether path matches at least one of patterns.
// Every pattern is validated, even after a match has been found.
func MatchAny(patterns []string, path string) (bool, error) {
	matched := false
	for _, p := range patterns {
		ok, err := Match(p, path)
		if err != nil {
			return false, err
		}
		matched = matched || ok
	}
	return matched, nil
}

// Normalize converts path to the forward-slash relative form used for matching.
func Normalize(path string) string {
	p := filepathToSlash(path)
	p = strings.TrimPrefix(p, "./")
	return p
}

func filepathToSlash(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
