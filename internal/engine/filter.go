package engine

import (
	"fmt"
	"strings"

	"repopolicy/internal/glob"
	"repopolicy/internal/rules"
)

// SelectRules returns (catalog ∩ include) \ exclude in catalog order.
//
// Patterns are globs over rule IDs. An empty include list selects every rule.
// A malformed pattern is a configuration error, never a silent non-match.
func SelectRules(catalog []rules.Rule, include, exclude []string) ([]rules.Rule, error) {
	include = trimPatterns(include)
	exclude = trimPatterns(exclude)
	if len(include) == 0 {
		include = []string{"*"}
	}

	var selected []rules.Rule
	for _, r := range catalog {
		in, err := glob.MatchAny(include, r.ID())
		if err != nil {
			return nil, fmt.Errorf("invalid rules.include: %w", err)
		}
		if !in {
			continue
		}
		out, err := glob.MatchAny(exclude, r.ID())
		if err != nil {
			return nil, fmt.Errorf("invalid rules.exclude: %w", err)
		}
		if out {
			continue
		}
		selected = append(selected, r)
	}
	return selected, nil
}

func trimPatterns(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
