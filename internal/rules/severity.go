package rules

import (
	"fmt"
	"strings"
)

// Severity is how strongly a failed rule is enforced. Only SeverityError fails a run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity accepts error, warning or info in any case.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q (must be one of: error, warning, info)", raw)
	}
	return s, nil
}

func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Rank orders severities by enforcement strength; unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}
