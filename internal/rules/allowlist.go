package rules

import (
	"fmt"
	"strings"

	"repopolicy/internal/glob"
)

// AllowList exempts repository paths from file-level rules.
type AllowList struct {
	Paths glob.Set
}

const allowPathsOption = "allow.paths"

// Options returns the standard configuration options for allow-listing.
func (a *AllowList) Options() []Option {
	return []Option{
		{
			Name:        allowPathsOption,
			Description: "Comma-separated glob patterns of repository paths exempt from this rule (e.g. testdata/**, docs/*.pdf).",
		},
	}
}

// Configure parses the allow-list options. Missing options reset the list.
func (a *AllowList) Configure(opts map[string]string) error {
	a.Paths = glob.Set{}
	val, ok := opts[allowPathsOption]
	if !ok || strings.TrimSpace(val) == "" {
		return nil
	}
	var patterns []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			patterns = append(patterns, s)
		}
	}
	set, err := glob.Compile(patterns)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", allowPathsOption, err)
	}
	a.Paths = set
	return nil
}

// IsAllowed reports whether path matches any allow pattern.
func (a *AllowList) IsAllowed(path string) bool {
	return a.Paths.Matches(path)
}

// Filter splits paths into those still subject to the rule and those exempted.
func (a *AllowList) Filter(paths []string) (kept, allowed []string) {
	for _, p := range paths {
		if a.IsAllowed(p) {
			allowed = append(allowed, p)
			continue
		}
		kept = append(kept, p)
	}
	return kept, allowed
}
