package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"repopolicy/internal/tool"
)

// Outcome is the tool-independent part of an adapter result.
type Outcome struct {
	Tool        string       `json:"tool"`
	ToolVersion string       `json:"tool_version,omitempty"`
	Invocation  *tool.Result `json:"invocation,omitempty"`
	// OutputFiles maps a logical output name to the file the tool produced.
	OutputFiles   map[string]string `json:"output_files,omitempty"`
	Success       bool              `json:"success"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	SummaryCounts map[string]int    `json:"summary_counts,omitempty"`

	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`

	// ArtifactsRetained is false when the output files were removed after parsing.
	ArtifactsRetained bool `json:"artifacts_retained"`
}

// Available reports whether rules may consume the tool's data.
func (o *Outcome) Available() bool {
	return o != nil && !o.Skipped && o.Success
}

// UnavailableReason explains why Available is false.
func (o *Outcome) UnavailableReason() string {
	switch {
	case o == nil:
		return "integration disabled"
	case o.Skipped:
		return o.SkipReason
	case !o.Success:
		msg := strings.TrimSpace(o.ErrorMessage)
		if msg == "" {
			msg = "unknown failure"
		}
		return fmt.Sprintf("%s failed: %s", o.Tool, msg)
	default:
		return ""
	}
}

// Artifacts lists retained output files in name order.
func (o *Outcome) Artifacts() []string {
	if o == nil || !o.ArtifactsRetained {
		return nil
	}
	out := make([]string, 0, len(o.OutputFiles))
	for _, p := range o.OutputFiles {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func skippedOutcome(toolName string, err error) Outcome {
	return Outcome{Tool: toolName, Skipped: true, SkipReason: "tool not found: " + toolName + notFoundDetail(err)}
}

func notFoundDetail(err error) string {
	if err == nil {
		return ""
	}
	var nf *tool.NotFoundError
	if errors.As(err, &nf) && len(nf.Tried) > 0 {
		return " (tried " + strings.Join(nf.Tried, ", ") + ")"
	}
	return ""
}

// failureMessage picks the most useful description of a failed invocation.
func failureMessage(res *tool.Result) string {
	if res == nil {
		return "no result"
	}
	if s := strings.TrimSpace(res.Stderr); s != "" {
		return s
	}
	return fmt.Sprintf("exit status %d", res.ExitCode)
}

// readCounts decodes a JSON object and keeps its integral numeric fields.
func readCounts(path string) (map[string]any, map[string]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, numericFields(doc), nil
}

func numericFields(doc map[string]any) map[string]int {
	counts := make(map[string]int)
	for k, v := range doc {
		if f, ok := v.(float64); ok && f == math.Trunc(f) {
			counts[k] = int(f)
		}
	}
	return counts
}
