// Package testutil holds shared helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tsukumogami/setup-gh/internal/config"
)

// NewTestConfig creates a config with temporary directories for testing.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := &config.Config{
		ToolCacheDir:   filepath.Join(tmpDir, "tool-cache"),
		TempDir:        filepath.Join(tmpDir, "tmp"),
		DefaultVersion: "stable",
		APITimeout:     config.DefaultAPITimeout,
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("failed to create test directories: %v", err)
	}
	return cfg
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists checks if a file exists at the given path.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if !FileExists(path) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does NOT exist at the given path.
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if FileExists(path) {
		t.Errorf("file should not exist: %s", path)
	}
}
