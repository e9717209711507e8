package checks

import (
	"fmt"
	"strconv"
	"strings"
)

// splitList splits a comma-separated option value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseBoolOption(name, v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q (must be true|false)", name, v)
	}
	return b, nil
}

// limitList returns at most n items of list plus a trailing "... and N more" line.
func limitList(list []string, n int) string {
	var b strings.Builder
	for i, s := range list {
		if i == n {
			fmt.Fprintf(&b, "  ... and %d more files\n", len(list)-n)
			break
		}
		fmt.Fprintf(&b, "  - %s\n", s)
	}
	return strings.TrimRight(b.String(), "\n")
}
