package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopolicy/internal/data"
	"repopolicy/internal/rules"
)

type mockRule struct {
	id          string
	title       string
	description string
	deps        []data.DependencyKey
}

func (m *mockRule) ID() string                         { return m.id }
func (m *mockRule) Title() string                      { return m.title }
func (m *mockRule) Description() string                { return m.description }
func (m *mockRule) DefaultSeverity() rules.Severity    { return rules.SeverityWarning }
func (m *mockRule) Tags() []string                     { return []string{"hygiene"} }
func (m *mockRule) Dependencies() []data.DependencyKey { return m.deps }
func (m *mockRule) Evaluate(ctx context.Context, pc data.PolicyContext) (rules.Result, error) {
	return rules.PassResult(m.id, "ok", nil), nil
}

type mockConfigurableRule struct {
	mockRule
	options []rules.Option
}

func (m *mockConfigurableRule) Options() []rules.Option { return m.options }

func (m *mockConfigurableRule) Configure(opts map[string]string) error { return nil }

// withRegistry swaps the catalog the rules commands read for the test's duration.
func withRegistry(t *testing.T, rs ...rules.Rule) {
	t.Helper()
	reg := rules.NewRegistry()
	for _, r := range rs {
		reg.Register(r)
	}
	prev := registry
	registry = reg
	t.Cleanup(func() { registry = prev })
}

func TestPrintRule(t *testing.T) {
	tests := []struct {
		name           string
		rule           rules.Rule
		expectedOutput []string
		notExpected    []string
	}{
		{
			name: "Regular Rule",
			rule: &mockRule{
				id:          "simple-rule",
				title:       "Simple Rule",
				description: "A simple rule description",
			},
			expectedOutput: []string{
				"RULE: simple-rule",
				"Simple Rule",
				"Severity: warning",
				"Tags: hygiene",
				"A simple rule description",
			},
			notExpected: []string{
				"Options:",
				"Requires:",
			},
		},
		{
			name: "Configurable Rule With Dependencies",
			rule: &mockConfigurableRule{
				mockRule: mockRule{
					id:          "config-rule",
					title:       "Config Rule",
					description: "A configurable rule description",
					deps:        []data.DependencyKey{data.DepLicenseHeaders},
				},
				options: []rules.Option{
					{Name: "opt1", Description: "Option 1 description", Default: "default1"},
					{Name: "opt2", Description: "Option 2 description"},
				},
			},
			expectedOutput: []string{
				"RULE: config-rule",
				"Requires: integration.license_headers",
				"Options:",
				"opt1",
				"Description: Option 1 description",
				"Default:     default1",
				"opt2",
				"Default:     \"\"",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			printRule(buf, tt.rule)
			out := buf.String()

			for _, exp := range tt.expectedOutput {
				assert.Contains(t, out, exp)
			}
			for _, notExp := range tt.notExpected {
				assert.NotContains(t, out, notExp)
			}
		})
	}
}

func TestRulesListCmd(t *testing.T) {
	withRegistry(t,
		&mockRule{id: "b-rule", title: "B Rule", description: "Second."},
		&mockRule{id: "a-rule", title: "A Rule", description: "First."},
	)

	t.Run("default output", func(t *testing.T) {
		rulesListQuiet = false
		buf := new(bytes.Buffer)
		rulesListCmd.SetOut(buf)

		require.NoError(t, rulesListCmd.RunE(rulesListCmd, nil))
		out := buf.String()
		assert.Contains(t, out, "RULE: b-rule")
		assert.Contains(t, out, "A Rule")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("b-rule")), bytes.Index(buf.Bytes(), []byte("a-rule")), "catalog order")
	})

	t.Run("quiet output", func(t *testing.T) {
		rulesListQuiet = true
		defer func() { rulesListQuiet = false }()
		buf := new(bytes.Buffer)
		rulesListCmd.SetOut(buf)

		require.NoError(t, rulesListCmd.RunE(rulesListCmd, nil))
		assert.Equal(t, "b-rule\na-rule\n", buf.String())
	})
}

func TestRulesShowCmd(t *testing.T) {
	withRegistry(t, &mockRule{id: "test-rule-show", title: "Test Rule Show", description: "Shown."})

	buf := new(bytes.Buffer)
	rulesShowCmd.SetOut(buf)
	require.NoError(t, rulesShowCmd.RunE(rulesShowCmd, []string{"test-rule-show"}))
	assert.Contains(t, buf.String(), "RULE: test-rule-show")
	assert.Contains(t, buf.String(), "Shown.")

	err := rulesShowCmd.RunE(rulesShowCmd, []string{"non-existent-rule"})
	assert.ErrorContains(t, err, "rule not found: non-existent-rule")
}
