package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"repopolicy/internal/rules"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	results         []rules.Result // For JSON array output
	allowedStatuses map[rules.Status]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[rules.Status]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[rules.Status(strings.ToUpper(strings.TrimSpace(st)))] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	// Apply filtering if configured
	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(rules.Result); ok {
			if !s.allowedStatuses[r.Status()] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		r, ok := v.(rules.Result)
		if !ok {
			// Ignore non-result events in JSON console mode.
			return nil
		}
		s.results = append(s.results, r)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case rules.Result:
			if err := encoder.Encode(eventFromResult(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		switch t := v.(type) {
		case rules.Result:
			if err := s.writeResultLine(t); err != nil {
				return err
			}
		case Event:
			if t.Type != EventRunFinished || t.Summary == nil {
				return nil
			}
			if err := s.writeSummaryLine(t); err != nil {
				return err
			}
		default:
			return nil
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeResultLine(r rules.Result) error {
	if _, err := fmt.Fprintf(s.writer, "%s %-28s %-7s", statusLabel(r.Status()), r.RuleID, r.Severity); err != nil {
		return err
	}
	if r.Message != "" {
		if _, err := fmt.Fprintf(s.writer, " %s", r.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(s.writer)
	return err
}

func (s *ConsoleSink) writeSummaryLine(e Event) error {
	sum := e.Summary
	verdict := color.New(color.FgGreen, color.Bold).Sprint("PASSED")
	if e.RunPassed != nil && !*e.RunPassed {
		verdict = color.New(color.FgRed, color.Bold).Sprint("FAILED")
	}
	_, err := fmt.Fprintf(s.writer, "\n%s: %d rules, %d passed, %d failed (%d error, %d warning, %d info), %d skipped\n",
		verdict, sum.Total, sum.Passed, sum.Failed, sum.Errors, sum.Warnings, sum.Infos, sum.Skipped)
	return err
}

func statusLabel(st rules.Status) string {
	label := fmt.Sprintf("[%-7s]", st)
	switch st {
	case rules.StatusPass:
		return color.GreenString(label)
	case rules.StatusFail:
		return color.RedString(label)
	case rules.StatusSkipped:
		return color.YellowString(label)
	default:
		return label
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		results := s.results
		if results == nil {
			results = []rules.Result{}
		}
		if err := encoder.Encode(results); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
