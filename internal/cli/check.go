package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"repopolicy/internal/config"
	"repopolicy/internal/engine"
	"repopolicy/internal/flags"
	gh "repopolicy/internal/github"
	"repopolicy/internal/output"
	"repopolicy/internal/tool"
)

type checkOptions struct {
	include             []string
	exclude             []string
	set                 []string
	severity            []string
	consoleFormat       string
	consoleFilterStatus []string
	emit                []string
	noConsole           bool
	noReports           bool
	timeout             time.Duration
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the repository against the selected rules",
	Long: `Evaluate the repository against the selected rules.

Rules are selected with --rules-include and --rules-exclude (globs over rule
IDs). Each selected rule produces one result: PASS, FAIL or SKIPPED. A rule is
skipped when the tool it depends on is missing or failed.

Output:
	Console output is controlled by --console-format (default: text).
	policy-report.json and policy-report.md are written to the output directory
	unless --no-reports is set.
	--emit writes an additional structured stream to stdout (json or ndjson).
	NDJSON objects carry a "type" field: run.started, rule.result, run.finished.

Exit codes:
	0   = no rule failed with severity error
	1   = at least one error-severity failure, or the run could not complete
	130 = interrupted

Examples:
	# Only license rules, with a stricter CI severity
	repo-policy check --rules-include 'license-*' --severity ci-required=error

	# Override a rule option
	repo-policy check --set readme-required.sections=Installation,Usage

	# Machine-readable stream for agents and pipelines
	repo-policy check --no-console --emit ndjson
`,
	Args: cobra.NoArgs,
}

func init() {
	// Assigned here rather than in the literal: runCheck refers back to
	// checkCmd (via rerunCommand), which would be an initialization cycle.
	checkCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, checkOpts)
	}
	rootCmd.AddCommand(checkCmd)
	f := checkCmd.Flags()

	// MAINTAINER NOTE: flags that change results must also be listed in
	// flags.Reproducible so reports print a faithful re-run command.

	// Rules
	f.StringSliceVar(&checkOpts.include, flags.FlagRulesInclude, nil, "Rule ID globs to include (repeatable; comma-separated accepted; default: *)")
	f.StringSliceVar(&checkOpts.exclude, flags.FlagRulesExclude, nil, "Rule ID globs to exclude (repeatable; comma-separated accepted)")
	f.StringArrayVar(&checkOpts.set, flags.FlagSet, nil, "Per-rule option as ruleID.option=value (repeatable)")
	f.StringArrayVar(&checkOpts.severity, flags.FlagSeverity, nil, "Severity override as ruleID=error|warning|info (repeatable)")

	// Output
	f.StringVar(&checkOpts.consoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson")
	f.StringSliceVar(&checkOpts.consoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Only print results with these statuses (PASS, FAIL, SKIPPED). Comma-separated.")
	f.StringSliceVar(&checkOpts.emit, flags.FlagEmit, nil, "Emit an additional structured stream to stdout: json|ndjson")
	f.BoolVar(&checkOpts.noConsole, flags.FlagNoConsole, false, "Suppress console output and progress lines")
	f.BoolVar(&checkOpts.noReports, flags.FlagNoReports, false, "Do not write policy-report.json and policy-report.md")

	// Runtime
	f.DurationVar(&checkOpts.timeout, flags.FlagTimeout, config.DefaultTimeout, "Timeout for each external tool invocation")
}

func runCheck(cmd *cobra.Command, opts checkOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd.ErrOrStderr(), globals.verbose)
	slog.SetDefault(logger)

	cfg, err := loadCheckConfig(cmd, opts)
	if err != nil {
		return err
	}

	inv := tool.NewInvoker(nil, logger)
	enrichRepoTags(ctx, cfg, inv, logger)

	engOpts, err := engine.OptionsFromConfig(cfg, inv, logger)
	if err != nil {
		return err
	}

	mgr, err := streamingSinks(cmd, cfg)
	if err != nil {
		return err
	}
	engOpts.Output = mgr
	if !cfg.Output.NoConsole {
		engOpts.Progress = cmd.ErrOrStderr()
	}

	run, err := engine.New(engOpts).Run(ctx)
	if err != nil {
		_ = mgr.Close()
		if ctx.Err() != nil {
			return &exitError{code: ExitInterrupted, err: errors.New("interrupted")}
		}
		return err
	}

	if !cfg.Output.NoReports {
		if err := addReportSinks(mgr, engOpts.OutDir); err != nil {
			_ = mgr.Close()
			return err
		}
	}
	meta := engine.Metadata(ctx, cfg, run, inv, buildVersion)
	meta.Command = rerunCommand(cmd)
	if err := mgr.Write(run.Document(meta, time.Now())); err != nil {
		logger.Warn("output sink write failed", "error", err)
	}
	if err := mgr.Close(); err != nil {
		return err
	}

	if !run.Report.Passed() {
		return &exitError{code: ExitFail}
	}
	return nil
}

// loadCheckConfig layers defaults, the configuration file, .env and REPO_POLICY_*
// variables, then explicitly set flags, and validates the result.
func loadCheckConfig(cmd *cobra.Command, opts checkOptions) (*config.Config, error) {
	cfg, err := loadConfigFile()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(cfg.TargetPath); err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed(flags.FlagOutDir) {
		cfg.OutDir = globals.outDir
	}
	if pf.Changed(flags.FlagKeepArtifacts) {
		cfg.KeepArtifacts = globals.keepArtifacts
	}
	if pf.Changed(flags.FlagClean) {
		cfg.Clean = globals.clean
	}
	if pf.Changed(flags.FlagRulesInclude) {
		cfg.Rules.Include = opts.include
	}
	if pf.Changed(flags.FlagRulesExclude) {
		cfg.Rules.Exclude = opts.exclude
	}
	if pf.Changed(flags.FlagTimeout) {
		cfg.Integration.Timeout = opts.timeout
	}
	cfg.Rules.Set = append(cfg.Rules.Set, opts.set...)
	overrides, err := parseSeverityFlags(opts.severity)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 && cfg.Rules.SeverityOverrides == nil {
		cfg.Rules.SeverityOverrides = make(map[string]string, len(overrides))
	}
	for id, level := range overrides {
		cfg.Rules.SeverityOverrides[id] = level
	}

	cfg.Output = config.Output{
		ConsoleFormat:       opts.consoleFormat,
		ConsoleFilterStatus: opts.consoleFilterStatus,
		Emit:                opts.emit,
		NoConsole:           opts.noConsole,
		NoReports:           opts.noReports,
	}
	cfg.Runtime.Verbose = globals.verbose

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile returns defaults overlaid with the explicit or discovered
// configuration file. A relative target_path in the file is anchored at the
// file's directory; --path always wins.
func loadConfigFile() (*config.Config, error) {
	cfg := config.New()
	start := globals.path
	if start == "" {
		start = "."
	}

	path := globals.configPath
	if path == "" {
		found, err := config.Discover(start)
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, err
		}
		if globals.path == "" && cfg.TargetPath != "" && !filepath.IsAbs(cfg.TargetPath) {
			cfg.TargetPath = filepath.Join(filepath.Dir(path), cfg.TargetPath)
		}
	}
	if globals.path != "" {
		cfg.TargetPath = globals.path
	}
	return cfg, nil
}

func parseSeverityFlags(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		id, level, ok := strings.Cut(v, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" || strings.TrimSpace(level) == "" {
			return nil, fmt.Errorf("invalid --%s value %q: expected ruleID=error|warning|info", flags.FlagSeverity, v)
		}
		out[id] = strings.TrimSpace(level)
	}
	return out, nil
}

// enrichRepoTags adds GitHub repository metadata to the configured repo tags.
// Failures are logged and never stop the run.
func enrichRepoTags(ctx context.Context, cfg *config.Config, inv *tool.Invoker, logger *slog.Logger) {
	if !cfg.GitHub.Enabled || cfg.GitHub.Repository == "" {
		return
	}
	owner, repo, err := gh.SplitRepository(cfg.GitHub.Repository)
	if err != nil {
		logger.Warn("github metadata skipped", "error", err)
		return
	}
	token, source, err := gh.ResolveAuthToken(ctx, inv, "")
	if err != nil {
		logger.Warn("github token resolution failed", "error", err)
	}
	logger.Debug("github token", "source", source, "present", token != "")

	var clientOpts []gh.Option
	if globals.verbose {
		clientOpts = append(clientOpts, gh.WithLogger(logger))
	}
	client, err := gh.NewClient(ctx, token, clientOpts...)
	if err != nil {
		logger.Warn("github metadata skipped", "error", err)
		return
	}
	tags, err := client.RepoTags(ctx, owner, repo)
	if err != nil {
		logger.Warn("github metadata unavailable", "repository", cfg.GitHub.Repository, "error", err)
		return
	}
	cfg.RepoTags = gh.MergeTags(tags, cfg.RepoTags)
}

// streamingSinks builds the sinks that receive events while the run is in progress.
func streamingSinks(cmd *cobra.Command, cfg *config.Config) (*output.Manager, error) {
	mgr := output.NewManager()
	if !cfg.Output.NoConsole {
		if err := mgr.AddSink(output.NewConsoleSink(cmd.OutOrStdout(), cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus)); err != nil {
			return nil, err
		}
	}
	for _, format := range cfg.Output.Emit {
		s, err := output.NewEmitSink(cmd.OutOrStdout(), format)
		if err != nil {
			return nil, err
		}
		if err := mgr.AddSink(s); err != nil {
			return nil, err
		}
	}
	return mgr, nil
}

// addReportSinks attaches the report files once the output directory exists.
// They only need the final Document.
func addReportSinks(mgr *output.Manager, outDir string) error {
	fs, err := output.NewFileSink(filepath.Join(outDir, output.JSONReportFile), "json")
	if err != nil {
		return err
	}
	if err := mgr.AddSink(fs); err != nil {
		return err
	}
	rs, err := output.NewReportSink(filepath.Join(outDir, output.MarkdownReportFile))
	if err != nil {
		return err
	}
	return mgr.AddSink(rs)
}
