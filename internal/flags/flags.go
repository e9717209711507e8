// Package flags defines canonical CLI flag names shared by the commands and
// the code that reports or re-renders them.
//
// These are flag names without leading dashes:
//
//	cmd.Flags().StringSliceVar(&f.include, flags.FlagRulesInclude, nil, "...")
//	arg := "--" + flags.FlagRulesInclude
package flags

const (
	// Global
	FlagVerbose       = "verbose"
	FlagConfig        = "config"
	FlagPath          = "path"
	FlagOutDir        = "outdir"
	FlagKeepArtifacts = "keep-artifacts"
	FlagClean         = "clean"

	// Rules
	FlagRulesInclude = "rules-include"
	FlagRulesExclude = "rules-exclude"
	FlagSet          = "set"
	FlagSeverity     = "severity"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"
	FlagNoReports           = "no-reports"

	// Runtime
	FlagTimeout = "timeout"

	// init
	FlagPreset = "preset"
	FlagForce  = "force"
)

// Reproducible lists the check flags that change a run's results. Output
// flags are left out.
var Reproducible = []string{
	FlagConfig,
	FlagPath,
	FlagRulesInclude,
	FlagRulesExclude,
	FlagSet,
	FlagSeverity,
	FlagTimeout,
	FlagKeepArtifacts,
}
