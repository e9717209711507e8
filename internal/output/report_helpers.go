package output

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"repopolicy/internal/rules"
)

// maxEvidenceItems bounds how many list entries the Markdown report shows per key.
const maxEvidenceItems = 10

func severityMarker(sev rules.Severity) string {
	switch sev {
	case rules.SeverityError:
		return "🔴"
	case rules.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// writeEvidence renders evidence keys in sorted order. Lists are truncated,
// maps are expanded one level deep.
func writeEvidence(b *strings.Builder, evidence map[string]any) {
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := reflect.ValueOf(evidence[k])
		switch {
		case !v.IsValid():
			fmt.Fprintf(b, "- **%s:** `null`\n", k)
		case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
			writeEvidenceList(b, k, v)
		case v.Kind() == reflect.Map:
			fmt.Fprintf(b, "- **%s:**\n", k)
			mkeys := v.MapKeys()
			sort.Slice(mkeys, func(i, j int) bool {
				return fmt.Sprint(mkeys[i].Interface()) < fmt.Sprint(mkeys[j].Interface())
			})
			for _, mk := range mkeys {
				fmt.Fprintf(b, "  - %v: `%v`\n", mk.Interface(), v.MapIndex(mk).Interface())
			}
		default:
			fmt.Fprintf(b, "- **%s:** `%v`\n", k, v.Interface())
		}
	}
}

func writeEvidenceList(b *strings.Builder, key string, v reflect.Value) {
	n := v.Len()
	switch {
	case n == 0:
		fmt.Fprintf(b, "- **%s:** (empty)\n", key)
		return
	case n <= maxEvidenceItems:
		fmt.Fprintf(b, "- **%s:** (%d items)\n", key, n)
	default:
		fmt.Fprintf(b, "- **%s:** (%d items, showing first %d)\n", key, n, maxEvidenceItems)
	}
	for i := 0; i < n && i < maxEvidenceItems; i++ {
		fmt.Fprintf(b, "  - `%v`\n", v.Index(i).Interface())
	}
	if n > maxEvidenceItems {
		fmt.Fprintf(b, "  - _(... and %d more)_\n", n-maxEvidenceItems)
	}
}
