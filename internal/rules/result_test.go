package rules

import (
	"encoding/json"
	"testing"
)

func TestResultSerialization(t *testing.T) {
	r := FailResult("test-rule", "Something is wrong", map[string]any{
		"zeta":  1,
		"alpha": []string{"a.txt"},
	})
	r.Severity = SeverityError
	r.OverrideKey = "hidden"

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"rule_id":"test-rule","severity":"error","passed":false,"skipped":false,"message":"Something is wrong","evidence":{"alpha":["a.txt"],"zeta":1}}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, string(data))
	}
}

func TestResultStatus(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		status   Status
		blocking bool
	}{
		{"pass", PassResult("r", "ok", nil), StatusPass, false},
		{"fail", FailResult("r", "bad", nil), StatusFail, false},
		{"skip", SkippedResult("r", "not applicable", nil), StatusSkipped, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Status(); got != tt.status {
				t.Errorf("want %v, got %v", tt.status, got)
			}
			res := tt.result
			res.Severity = SeverityWarning
			if res.Blocking() {
				t.Errorf("warning result must never block")
			}
		})
	}

	failed := FailResult("r", "bad", nil)
	failed.Severity = SeverityError
	if !failed.Blocking() {
		t.Error("failed error result must block")
	}

	skipped := SkippedResult("r", "why", nil)
	skipped.Severity = SeverityError
	if skipped.Blocking() {
		t.Error("skipped result must not block")
	}
	if skipped.SkipReason != "why" {
		t.Errorf("want skip reason %q, got %q", "why", skipped.SkipReason)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", SeverityError, false},
		{"WARNING", SeverityWarning, false},
		{" Info ", SeverityInfo, false},
		{"critical", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseSeverity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q): want %v, got %v", tt.in, tt.want, got)
		}
	}

	if !(SeverityError.Rank() > SeverityWarning.Rank() && SeverityWarning.Rank() > SeverityInfo.Rank()) {
		t.Error("severity ranks must be error > warning > info")
	}
}

func TestAllowList(t *testing.T) {
	var a AllowList
	if err := a.Configure(map[string]string{"allow.paths": "testdata/**, *.bak"}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	kept, allowed := a.Filter([]string{"testdata/big.bin", "src/app.bak", "old.bak", "src/x.go"})
	if len(kept) != 2 || kept[0] != "src/app.bak" || kept[1] != "src/x.go" {
		t.Errorf("unexpected kept: %v", kept)
	}
	if len(allowed) != 2 || allowed[0] != "testdata/big.bin" || allowed[1] != "old.bak" {
		t.Errorf("unexpected allowed: %v", allowed)
	}

	if err := a.Configure(map[string]string{"allow.paths": "../escape"}); err == nil {
		t.Error("expected error for escaping pattern")
	}

	if err := a.Configure(nil); err != nil {
		t.Fatalf("Configure(nil) failed: %v", err)
	}
	if a.IsAllowed("testdata/big.bin") {
		t.Error("Configure must reset previous patterns")
	}
}
