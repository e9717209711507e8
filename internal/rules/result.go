package rules

// Status is the display form of a Result.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusSkipped Status = "SKIPPED"
)

// Result is the outcome of evaluating one rule.
//
// A skipped result always has Passed set, so it can never fail a run.
type Result struct {
	RuleID     string   `json:"rule_id"`
	Severity   Severity `json:"severity"`
	Passed     bool     `json:"passed"`
	Skipped    bool     `json:"skipped"`
	SkipReason string   `json:"skip_reason,omitempty"`
	Message    string   `json:"message"`
	// Evidence is rule-specific structured data surfaced verbatim in reports.
	Evidence    map[string]any `json:"evidence,omitempty"`
	Remediation string         `json:"remediation,omitempty"`
	Tags        []string       `json:"tags,omitempty"`

	// OverrideKey selects the severity override entry; empty means RuleID.
	OverrideKey string `json:"-"`
	// Defect marks a result synthesized from a rule that errored or panicked.
	// Its error severity is not subject to overrides.
	Defect bool `json:"-"`
}

func (r Result) Status() Status {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.Passed:
		return StatusPass
	default:
		return StatusFail
	}
}

// Blocking reports whether r fails the run.
func (r Result) Blocking() bool {
	return r.Severity == SeverityError && !r.Passed
}
