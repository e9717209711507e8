package engine

import "repopolicy/internal/rules"

// ResolveSeverity assigns the final severity of res.
//
// Order: a defect result is always error; otherwise the severity the rule set
// on the result, else def; then an override keyed by res.OverrideKey (or
// res.RuleID when empty) replaces it. Only Severity changes.
func ResolveSeverity(res rules.Result, def rules.Severity, overrides map[string]rules.Severity) rules.Result {
	if res.Defect {
		res.Severity = rules.SeverityError
		return res
	}
	if !res.Severity.Valid() {
		res.Severity = def
	}
	key := res.OverrideKey
	if key == "" {
		key = res.RuleID
	}
	if sev, ok := overrides[key]; ok && sev.Valid() {
		res.Severity = sev
	}
	return res
}
