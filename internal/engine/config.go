package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"repopolicy/internal/config"
	"repopolicy/internal/facts"
	"repopolicy/internal/glob"
	"repopolicy/internal/integration"
	"repopolicy/internal/tool"
)

// OptionsFromConfig translates a validated configuration into engine options.
// Output and Progress are left for the caller to attach.
func OptionsFromConfig(cfg *config.Config, inv *tool.Invoker, logger *slog.Logger) (Options, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if inv == nil {
		inv = tool.NewInvoker(nil, logger)
	}

	target, err := filepath.Abs(cfg.TargetPath)
	if err != nil {
		return Options{}, fmt.Errorf("resolve target path: %w", err)
	}
	resolved := *cfg
	resolved.TargetPath = target
	outDir, err := resolved.ResolvedOutDir()
	if err != nil {
		return Options{}, fmt.Errorf("resolve output directory: %w", err)
	}

	ruleOpts, err := cfg.RuleOptions()
	if err != nil {
		return Options{}, err
	}

	factOpts, err := factsOptions(cfg)
	if err != nil {
		return Options{}, err
	}
	factOpts.Logger = logger

	integ, err := integrationsFromConfig(cfg, inv, outDir, logger)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Target:            target,
		OutDir:            outDir,
		Include:           cfg.Rules.Include,
		Exclude:           cfg.Rules.Exclude,
		RuleOptions:       ruleOpts,
		SeverityOverrides: cfg.SeverityOverrides(),
		Facts:             factOpts,
		Integrations:      integ,
		KeepArtifacts:     cfg.KeepArtifacts,
		Clean:             cfg.Clean,
		Logger:            logger,
	}, nil
}

func factsOptions(cfg *config.Config) (facts.Options, error) {
	source, err := glob.Compile(cfg.Globs.Source)
	if err != nil {
		return facts.Options{}, fmt.Errorf("globs.source: %w", err)
	}
	test, err := glob.Compile(cfg.Globs.Test)
	if err != nil {
		return facts.Options{}, fmt.Errorf("globs.test: %w", err)
	}
	return facts.Options{
		SourceGlobs: source,
		TestGlobs:   test,
		RepoTags:    cfg.RepoTags,
	}, nil
}

func integrationsFromConfig(cfg *config.Config, inv *tool.Invoker, outDir string, logger *slog.Logger) (Integrations, error) {
	var integ Integrations
	ic := cfg.Integration

	settings := func(binary, mode string) (integration.Settings, error) {
		m, err := integration.ParseWorkspaceMode(mode)
		if err != nil {
			return integration.Settings{}, err
		}
		return integration.Settings{
			Binary:        binary,
			Mode:          m,
			OutDir:        outDir,
			Timeout:       ic.Timeout,
			Required:      ic.Required,
			KeepArtifacts: cfg.KeepArtifacts,
			Exclude:       []string{outDir},
		}, nil
	}

	if ic.EnableRepoAnalyzer {
		s, err := settings(ic.RepoAnalyzerBinary, ic.AnalyzerWorkspaceMode)
		if err != nil {
			return Integrations{}, fmt.Errorf("integration.analyzer_workspace_mode: %w", err)
		}
		integ.Analyzer = &integration.AnalyzerRunner{Invoker: inv, Settings: s, Logger: logger}
	}
	if ic.EnableLicenseHeaders {
		s, err := settings(ic.LicenseHeaderBinary, ic.LicenseHeaderWorkspaceMode)
		if err != nil {
			return Integrations{}, fmt.Errorf("integration.license_header_workspace_mode: %w", err)
		}
		integ.LicenseHeaders = &integration.LicenseHeaderChecker{
			Invoker:        inv,
			Settings:       s,
			Logger:         logger,
			HeaderTemplate: cfg.License.HeaderTemplatePath,
			IncludeGlobs:   cfg.License.IncludeGlobs,
			ExcludeGlobs:   cfg.License.ExcludeGlobs,
		}
	}
	return integ, nil
}
