package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are searched in order in each directory during discovery.
var ConfigFileNames = []string{
	"repo-policy.yml",
	"repo-policy.yaml",
	".repo-policy.yml",
	".repo-policy.yaml",
}

const maxDiscoveryDepth = 50

// Environment variables that override configuration values.
const (
	EnvOutDir              = "REPO_POLICY_OUTDIR"
	EnvAnalyzerBinary      = "REPO_POLICY_ANALYZER_BINARY"
	EnvLicenseHeaderBinary = "REPO_POLICY_LICENSE_HEADER_BINARY"
)

// Discover returns the first configuration file found in start or one of its
// parents. The walk stops after the directory holding .git, at the filesystem
// root, or after 50 levels. An empty string means nothing was found.
func Discover(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	for range maxDiscoveryDepth {
		for _, name := range ConfigFileNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
	return "", nil
}

// Load decodes the YAML file at path over cfg. Unknown keys are an error;
// an empty file leaves cfg unchanged.
func Load(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// Hash returns the hex SHA-256 of the loaded config file, or "" when the
// configuration did not come from a file.
func (c *Config) Hash() (string, error) {
	if c.ConfigFile == "" {
		return "", nil
	}
	raw, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// ApplyEnv loads .env from dir when present (existing variables win) and
// applies the REPO_POLICY_* overrides.
func (c *Config) ApplyEnv(dir string) error {
	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutDir)); v != "" {
		c.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAnalyzerBinary)); v != "" {
		c.Integration.RepoAnalyzerBinary = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLicenseHeaderBinary)); v != "" {
		c.Integration.LicenseHeaderBinary = v
	}
	return nil
}

// ResolvedOutDir returns OutDir as an absolute path, relative paths being
// anchored at TargetPath.
func (c *Config) ResolvedOutDir() (string, error) {
	out := c.OutDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.TargetPath, out)
	}
	return filepath.Abs(out)
}
