// Package config holds runtime configuration for setup-gh.
//
// Configuration comes from three places, in precedence order: explicit
// environment variables, an optional setup-gh.toml file, and built-in
// defaults. On a hosted runner the tool cache and temp directories come
// from the runner environment (RUNNER_TOOL_CACHE, RUNNER_TEMP); outside a
// runner they fall back to directories under the user's home.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// EnvToolCache is the runner-provided root of the persistent tool cache.
	EnvToolCache = "RUNNER_TOOL_CACHE"

	// EnvTemp is the runner-provided scratch directory.
	EnvTemp = "RUNNER_TEMP"

	// EnvToken is the credential forwarded to the release registry.
	EnvToken = "GITHUB_TOKEN"

	// EnvAPITimeout overrides the registry/download request timeout.
	EnvAPITimeout = "SETUP_GH_API_TIMEOUT"

	// EnvConfigFile overrides the location of the optional config file.
	EnvConfigFile = "SETUP_GH_CONFIG"

	// DefaultAPITimeout is the default timeout for registry and download
	// requests (30 seconds).
	DefaultAPITimeout = 30 * time.Second
)

// GetAPITimeout returns the configured request timeout from SETUP_GH_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout (30 seconds).
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	// Validate reasonable range (1 second to 10 minutes)
	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvAPITimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvAPITimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// Config holds setup-gh configuration.
type Config struct {
	// ToolCacheDir is the root of the persistent tool cache.
	ToolCacheDir string

	// TempDir is the scratch directory for downloads and extraction.
	TempDir string

	// Token is the optional registry credential.
	Token string

	// DefaultVersion is the version to install when no input is given.
	// Comes from the config file; empty means "stable".
	DefaultVersion string

	// APITimeout bounds each registry and download request.
	APITimeout time.Duration
}

// fileConfig is the schema of the optional setup-gh.toml file.
type fileConfig struct {
	Version    string `toml:"version"`
	APITimeout string `toml:"api_timeout"`
}

// DefaultConfig builds the configuration for this run.
// Environment variables win over the config file, which wins over defaults.
func DefaultConfig() (*Config, error) {
	cfg := &Config{
		Token:          os.Getenv(EnvToken),
		DefaultVersion: "stable",
		APITimeout:     GetAPITimeout(),
	}

	if dir := os.Getenv(EnvToolCache); dir != "" {
		cfg.ToolCacheDir = dir
	}
	if dir := os.Getenv(EnvTemp); dir != "" {
		cfg.TempDir = dir
	}

	if cfg.ToolCacheDir == "" || cfg.TempDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		if cfg.ToolCacheDir == "" {
			cfg.ToolCacheDir = filepath.Join(home, ".setup-gh", "tool-cache")
		}
		if cfg.TempDir == "" {
			cfg.TempDir = filepath.Join(home, ".setup-gh", "tmp")
		}
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile merges the optional setup-gh.toml into cfg.
// A missing file is not an error; a malformed one is.
func (c *Config) loadFile() error {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, "setup-gh.toml")
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Version != "" {
		c.DefaultVersion = fc.Version
	}
	if fc.APITimeout != "" && os.Getenv(EnvAPITimeout) == "" {
		duration, err := time.ParseDuration(fc.APITimeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid api_timeout %q in %s, ignoring\n",
				fc.APITimeout, path)
		} else {
			c.APITimeout = duration
		}
	}

	return nil
}

// EnsureDirectories creates the tool cache and temp directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.ToolCacheDir, c.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
