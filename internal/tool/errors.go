package tool

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("tool not found")
	ErrTimeout  = errors.New("tool timed out")
)

// NotFoundError reports a binary that could not be located or is not executable.
type NotFoundError struct {
	Name  string
	Tried []string
	Err   error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("tool not found: %s", e.Name)
	if len(e.Tried) > 0 {
		msg += fmt.Sprintf(" (tried %s)", strings.Join(e.Tried, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.Err }
