// Package report aggregates rule results into the run's outcome.
package report

import (
	"encoding/json"

	"repopolicy/internal/rules"
)

// Summary counts are derived from the results and never set independently.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`

	// Failed results by severity.
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Report is the ordered sequence of post-override rule results.
type Report struct {
	results []rules.Result
}

// New copies results so later changes to the caller's slice do not leak in.
func New(results []rules.Result) *Report {
	return &Report{results: append([]rules.Result(nil), results...)}
}

func (r *Report) Results() []rules.Result {
	if r == nil {
		return nil
	}
	return append([]rules.Result(nil), r.results...)
}

func (r *Report) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	return Summarize(r.results)
}

// Passed reports whether no result failed with severity error.
// Every result is inspected; there is no early exit.
func (r *Report) Passed() bool {
	if r == nil {
		return true
	}
	blocking := 0
	for _, res := range r.results {
		if res.Blocking() {
			blocking++
		}
	}
	return blocking == 0
}

// Blocking returns the results that fail the run, in report order.
func (r *Report) Blocking() []rules.Result {
	if r == nil {
		return nil
	}
	var out []rules.Result
	for _, res := range r.results {
		if res.Blocking() {
			out = append(out, res)
		}
	}
	return out
}

// Summarize folds results into counts.
func Summarize(results []rules.Result) Summary {
	var s Summary
	for _, res := range results {
		s.Total++
		switch {
		case res.Skipped:
			s.Skipped++
		case res.Passed:
			s.Passed++
		default:
			s.Failed++
			switch res.Severity {
			case rules.SeverityError:
				s.Errors++
			case rules.SeverityWarning:
				s.Warnings++
			case rules.SeverityInfo:
				s.Infos++
			}
		}
	}
	return s
}

type reportJSON struct {
	Passed  bool           `json:"passed"`
	Summary Summary        `json:"summary"`
	Rules   []rules.Result `json:"rules"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	results := r.Results()
	if results == nil {
		results = []rules.Result{}
	}
	return json.Marshal(reportJSON{Passed: r.Passed(), Summary: r.Summary(), Rules: results})
}
