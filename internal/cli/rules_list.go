package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"repopolicy/internal/rules"
)

var (
	rulesListQuiet bool
	// registry is the catalog the rules commands describe.
	registry = rules.Default()
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List and describe policy rules",
	Long: `Discover which rules exist and what each rule checks.
Rules are evaluated by "repo-policy check".

Examples:
  # List all available rules
  repo-policy rules list

  # Describe one rule and its options
  repo-policy rules show license-header-required
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long: `List every rule in the catalog, in evaluation order.

Examples:
  repo-policy rules list
  repo-policy rules list -q

Output:
  A vertical list of rules:
    ----------------------------------------
    RULE: {ID}
    ----------------------------------------
    {TITLE}
    Severity: {DEFAULT SEVERITY}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, r := range registry.List() {
			if rulesListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), r.ID())
			} else {
				printRule(cmd.OutOrStdout(), r)
			}
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Show details of a specific rule",
	Long: `Show details of a specific rule by its ID.

Examples:
  repo-policy rules show readme-required
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rList, err := registry.Resolve(args[0])
		if err != nil {
			return err
		}
		if len(rList) == 0 {
			return fmt.Errorf("rule not found: %s", args[0])
		}
		printRule(cmd.OutOrStdout(), rList[0])
		return nil
	},
}

func printRule(w io.Writer, r rules.Rule) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s\n", r.ID())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, r.Title())
	fmt.Fprintf(w, "Severity: %s\n", r.DefaultSeverity())
	if tags := r.Tags(); len(tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(tags, ", "))
	}
	if deps := r.Dependencies(); len(deps) > 0 {
		names := make([]string, 0, len(deps))
		for _, d := range deps {
			names = append(names, string(d))
		}
		fmt.Fprintf(w, "Requires: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w, r.Description())

	if cr, ok := r.(rules.ConfigurableRule); ok {
		opts := cr.Options()
		if len(opts) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Options:")
			for _, opt := range opts {
				def := opt.Default
				if def == "" {
					def = "\"\""
				}
				fmt.Fprintf(w, "  %s\n", opt.Name)
				fmt.Fprintf(w, "    Description: %s\n", opt.Description)
				fmt.Fprintf(w, "    Default:     %s\n", def)
			}
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().BoolVarP(&rulesListQuiet, "quiet", "q", false, "Only print rule IDs")
	rulesCmd.AddCommand(rulesShowCmd)
}
