package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	PresetBaseline = "baseline"
	PresetStandard = "standard"
	PresetStrict   = "strict"
)

// Presets lists the preset names accepted by `repo-policy init`.
func Presets() []string {
	names := []string{PresetBaseline, PresetStandard, PresetStrict}
	sort.Strings(names)
	return names
}

// Preset returns a fresh configuration for the named preset.
func Preset(name string) (*Config, error) {
	cfg := New()
	cfg.Preset = normalizeEnumValue(name)
	switch cfg.Preset {
	case PresetBaseline:
		cfg.License = License{}
	case PresetStandard:
		cfg.License = License{
			SPDXID:             "Apache-2.0",
			RequireHeader:      true,
			HeaderTemplatePath: "LICENSE_HEADER.md",
		}
		cfg.Rules.SeverityOverrides = map[string]string{
			"analyzer-outputs-present": "info",
		}
	case PresetStrict:
		cfg.License = License{
			SPDXID:             "Apache-2.0",
			RequireHeader:      true,
			HeaderTemplatePath: "LICENSE_HEADER.md",
		}
		cfg.Integration.Required = true
		cfg.Rules.SeverityOverrides = map[string]string{
			"ci-required":           "error",
			"ci-required-tests":     "error",
			"gitignore-required":    "error",
			"file-size-limit":       "error",
			"readme-required":       "error",
			"license-file-required": "error",
		}
	default:
		return nil, fmt.Errorf("unknown preset %q (must be one of: baseline, standard, strict)", name)
	}
	return cfg, nil
}

// RenderPreset returns the YAML document `repo-policy init` writes.
func RenderPreset(name string) ([]byte, error) {
	cfg, err := Preset(name)
	if err != nil {
		return nil, err
	}
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("render preset %s: %w", name, err)
	}
	header := fmt.Sprintf("# repo-policy configuration (preset: %s)\n", cfg.Preset)
	return append([]byte(header), body...), nil
}
