package rules

import (
	"context"

	"repopolicy/internal/data"
)

type Rule interface {
	ID() string
	Title() string
	Description() string
	DefaultSeverity() Severity
	Tags() []string

	// Dependencies declares the adapter data Evaluate reads.
	Dependencies() []data.DependencyKey

	// Evaluate runs rule logic using only the PolicyContext.
	// Rules MUST NOT touch the filesystem or run processes.
	Evaluate(ctx context.Context, pc data.PolicyContext) (Result, error)
}

type Option struct {
	Name        string
	Description string
	Default     string
}

// ConfigurableRule is a Rule with static options. Configure resets every
// option not present in opts to its default.
type ConfigurableRule interface {
	Rule
	Options() []Option
	Configure(opts map[string]string) error
}
