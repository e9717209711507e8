package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"repopolicy/internal/config"
	"repopolicy/internal/flags"
)

type initOptions struct {
	preset string
	force  bool
}

var initOpts = initOptions{preset: config.PresetStandard}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter repo-policy.yml",
	Long: `Write a starter repo-policy.yml into the repository (see --path).

Presets:
	baseline  structural rules only, no license header enforcement
	standard  Apache-2.0 headers from LICENSE_HEADER.md
	strict    standard, plus required tools and error-level hygiene rules

Examples:
	repo-policy init
	repo-policy init --preset strict --force
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd, initOpts)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initOpts.preset, flags.FlagPreset, config.PresetStandard, "Preset: baseline|standard|strict")
	initCmd.Flags().BoolVar(&initOpts.force, flags.FlagForce, false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, opts initOptions) error {
	dir := globals.path
	if dir == "" {
		dir = "."
	}
	path := globals.configPath
	if path == "" {
		path = filepath.Join(dir, config.ConfigFileNames[0])
	}

	body, err := config.RenderPreset(opts.preset)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("%s already exists (use --%s to overwrite)", path, flags.FlagForce)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (preset: %s)\n", path, opts.preset)
	return nil
}
