package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repopolicy/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// Exit codes of the repo-policy binary.
const (
	ExitPass        = 0
	ExitFail        = 1
	ExitInterrupted = 130
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type globalOptions struct {
	verbose       bool
	configPath    string
	path          string
	outDir        string
	keepArtifacts bool
	clean         bool
}

var globals globalOptions

var rootCmd = &cobra.Command{
	Use:   "repo-policy",
	Short: "Evaluate a local repository against a policy rule catalog",
	Long: `repo-policy evaluates a local repository against a catalog of policy rules
and reports which rules pass, fail or were skipped.

It only reads the repository. External analysis tools (repo-analyzer and
license-header) run when a selected rule needs their data; a missing tool
skips the rules that depend on it.

Examples:
	# Check the current directory (same as "repo-policy check")
	repo-policy

	# Check another repository and keep tool outputs
	repo-policy check --path ../service --keep-artifacts

	# Write a starter configuration
	repo-policy init --preset standard

	# List rules
	repo-policy rules list

Configuration:
	repo-policy.yml (or .repo-policy.yml) is discovered from --path upward to the
	repository root. Command line flags override the file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&globals.verbose, flags.FlagVerbose, false, "Enable debug logging (tool invocations, API calls, rule evaluation)")
	pf.StringVar(&globals.configPath, flags.FlagConfig, "", "Configuration file (default: discovered from --path upward)")
	pf.StringVar(&globals.path, flags.FlagPath, "", "Repository to evaluate (default: current directory)")
	pf.StringVar(&globals.outDir, flags.FlagOutDir, "", "Output directory for reports and tool artifacts (default: .repo-policy-output under --path)")
	pf.BoolVar(&globals.keepArtifacts, flags.FlagKeepArtifacts, false, "Run every enabled tool and keep its outputs in the output directory")
	pf.BoolVar(&globals.clean, flags.FlagClean, false, "Remove the output directory before the run")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:])
}

func execute(args []string) int {
	rootCmd.SetArgs(defaultToCheck(rootCmd, args))
	err := rootCmd.Execute()
	if err == nil {
		return ExitPass
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	return ExitFail
}

// defaultToCheck makes check the implicit subcommand: bare invocations and
// invocations that start with a flag other than help or version run check.
func defaultToCheck(root *cobra.Command, args []string) []string {
	if len(args) == 0 {
		return []string{checkCmd.Name()}
	}
	first := args[0]
	switch first {
	case "-h", "--help", "--version", "help", "completion", "__complete", "__completeNoDesc":
		return args
	}
	for _, c := range root.Commands() {
		if c.Name() == first || c.HasAlias(first) {
			return args
		}
	}
	if len(first) > 0 && first[0] == '-' {
		return append([]string{checkCmd.Name()}, args...)
	}
	return args
}
