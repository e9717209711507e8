package output

import (
	"repopolicy/internal/report"
	"repopolicy/internal/rules"
)

const (
	EventRunStarted  = "run.started"
	EventRuleResult  = "rule.result"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - rule.result
// - run.finished
//
// JSON mode remains an aggregate of rules.Result values.
type Event struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	*rules.Result
	Rules   int             `json:"rules,omitempty"`
	Summary *report.Summary `json:"summary,omitempty"`

	// RunPassed is the run's pass condition, set on run.finished.
	RunPassed *bool `json:"run_passed,omitempty"`
}

func eventFromResult(r rules.Result) Event {
	return Event{Type: EventRuleResult, Result: &r}
}

// FinishedEvent closes a run with its summary and pass condition.
func FinishedEvent(rep *report.Report) Event {
	sum := rep.Summary()
	passed := rep.Passed()
	return Event{Type: EventRunFinished, Summary: &sum, RunPassed: &passed}
}
