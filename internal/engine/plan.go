package engine

import (
	"sort"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

// RunPlan is the set of selected rules and the adapter data they declare.
type RunPlan struct {
	Rules        []rules.Rule
	Dependencies map[data.DependencyKey][]string // key -> dependent rule IDs
}

func NewRunPlan(selected []rules.Rule) *RunPlan {
	p := &RunPlan{
		Rules:        selected,
		Dependencies: make(map[data.DependencyKey][]string),
	}
	for _, r := range selected {
		seen := make(map[data.DependencyKey]struct{})
		for _, d := range r.Dependencies() {
			// Simple deduplication by key.
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			p.Dependencies[d] = append(p.Dependencies[d], r.ID())
		}
	}
	return p
}

// Needs reports whether any selected rule declared key.
func (p *RunPlan) Needs(key data.DependencyKey) bool {
	if p == nil {
		return false
	}
	return len(p.Dependencies[key]) > 0
}

// SortedDependencies returns the declared keys in lexical order.
func (p *RunPlan) SortedDependencies() []data.DependencyKey {
	keys := make([]data.DependencyKey, 0, len(p.Dependencies))
	for k := range p.Dependencies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
