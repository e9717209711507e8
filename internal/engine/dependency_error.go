package engine

import (
	"fmt"
	"strings"

	"repopolicy/internal/data"
)

// unavailableDependencyReason explains why a rule cannot be evaluated, or
// returns ok=false when every declared dependency is available.
func unavailableDependencyReason(pc data.PolicyContext, deps []data.DependencyKey) (string, bool) {
	var msgs []string
	for _, d := range deps {
		if pc.Available(d) {
			continue
		}
		// If multiple deps are unavailable, include the key so the user can tell which.
		// If exactly one is, emit only its reason for a cleaner UX.
		msgs = append(msgs, fmt.Sprintf("%s: %s", d, pc.UnavailableReason(d)))
	}
	if len(msgs) == 0 {
		return "", false
	}
	if len(msgs) == 1 {
		if _, after, ok := strings.Cut(msgs[0], ": "); ok {
			return after, true
		}
	}
	return strings.Join(msgs, "; "), true
}

// undeclaredDependencyAccesses lists accessed keys missing from declared, sorted.
func undeclaredDependencyAccesses(accessed []data.DependencyKey, declared []data.DependencyKey) []string {
	if len(accessed) == 0 {
		return nil
	}
	decl := make(map[data.DependencyKey]struct{}, len(declared))
	for _, d := range declared {
		decl[d] = struct{}{}
	}

	var out []string
	for _, k := range accessed {
		if _, ok := decl[k]; ok {
			continue
		}
		out = append(out, string(k))
	}
	return out
}
