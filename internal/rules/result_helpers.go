package rules

func newResult(ruleID string, passed bool, message string, evidence map[string]any) Result {
	return Result{
		RuleID:   ruleID,
		Passed:   passed,
		Message:  message,
		Evidence: evidence,
	}
}

func PassResult(ruleID string, message string, evidence map[string]any) Result {
	return newResult(ruleID, true, message, evidence)
}

func FailResult(ruleID string, message string, evidence map[string]any) Result {
	return newResult(ruleID, false, message, evidence)
}

// SkippedResult reports that the rule did not apply; reason is shown to the user.
func SkippedResult(ruleID string, reason string, evidence map[string]any) Result {
	res := newResult(ruleID, true, reason, evidence)
	res.Skipped = true
	res.SkipReason = reason
	return res
}

// WithRemediation returns r with remediation advice attached.
func (r Result) WithRemediation(advice string) Result {
	r.Remediation = advice
	return r
}
