// Package setup sequences a run: classify the version request, consult
// the tool cache, resolve a release, install if needed, expose the tool
// on the search path, verify it answers, and publish the result.
//
// Collaborators are injected as narrow interfaces so tests can observe
// the cache short-circuits without a network or a real runner.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tsukumogami/setup-gh/internal/ghrelease"
	"github.com/tsukumogami/setup-gh/internal/log"
	"github.com/tsukumogami/setup-gh/internal/platform"
	"github.com/tsukumogami/setup-gh/internal/spec"
)

const toolName = "gh"

// ErrVerificationFailed indicates the freshly exposed executable did not
// report the expected version.
var ErrVerificationFailed = errors.New("verification failed")

// ReleaseResolver produces one candidate release for a version request.
type ReleaseResolver interface {
	Resolve(ctx context.Context, s spec.Spec) (*ghrelease.Release, error)
}

// ToolCache answers whether an exact version is already installed.
type ToolCache interface {
	Find(tool, version, arch string) (string, bool)
}

// AssetInstaller downloads, extracts, and registers one release asset.
type AssetInstaller interface {
	Install(ctx context.Context, asset ghrelease.Asset, version *semver.Version, desc platform.Descriptor) (string, error)
}

// RunnerEnv publishes results to the hosting pipeline.
type RunnerEnv interface {
	SetOutput(name, value string) error
	AddPath(dir string) error
}

// CommandRunner executes a command and captures its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner is the production CommandRunner, backed by os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

// Setup wires the collaborators for one run.
type Setup struct {
	Resolver   ReleaseResolver
	Cache      ToolCache
	Installer  AssetInstaller
	Env        RunnerEnv
	RunCommand CommandRunner
	Desc       platform.Descriptor
	Logger     log.Logger
}

// Run ensures the requested version is installed and on the search path.
// Returns the canonical version string that was installed and published.
func (s *Setup) Run(ctx context.Context, rawVersion string) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	request, err := spec.Parse(rawVersion)
	if err != nil {
		return "", err
	}

	var version *semver.Version
	var installDir string

	// Only an exact request can hit the cache before resolution; stable
	// and latest do not know their concrete version yet.
	if v, err := request.Version(); err == nil {
		if dir, ok := s.Cache.Find(toolName, v.String(), s.Desc.Arch); ok {
			logger.Info("using cached installation", "version", v.String())
			version, installDir = v, dir
		}
	}

	if installDir == "" {
		release, err := s.Resolver.Resolve(ctx, request)
		if err != nil {
			return "", err
		}
		version = release.Version
		logger.Info("resolved release", "version", version.String())

		// The resolved version may have been installed by an earlier run.
		if dir, ok := s.Cache.Find(toolName, version.String(), s.Desc.Arch); ok {
			logger.Info("using cached installation", "version", version.String())
			installDir = dir
		} else {
			asset, err := release.AssetByName(s.Desc.AssetName(version))
			if err != nil {
				return "", err
			}
			installDir, err = s.Installer.Install(ctx, asset, version, s.Desc)
			if err != nil {
				return "", err
			}
		}
	}

	binDir := filepath.Join(installDir, "bin")
	if err := s.Env.AddPath(binDir); err != nil {
		return "", fmt.Errorf("failed to update search path: %w", err)
	}

	if err := s.verify(ctx, version, logger); err != nil {
		return "", err
	}
	s.debugListing(installDir, logger)

	if err := s.Env.SetOutput("installed-version", version.String()); err != nil {
		return "", fmt.Errorf("failed to publish output: %w", err)
	}
	return version.String(), nil
}

// verify invokes the tool's version subcommand and checks the expected
// version appears in its output.
func (s *Setup) verify(ctx context.Context, version *semver.Version, logger log.Logger) error {
	out, err := s.RunCommand(ctx, s.Desc.ExeName, "version")
	if err != nil {
		return fmt.Errorf("%w: could not run %s version: %v", ErrVerificationFailed, s.Desc.ExeName, err)
	}
	if !strings.Contains(out, version.String()) {
		return fmt.Errorf("%w: %s version output %q does not mention %s",
			ErrVerificationFailed, s.Desc.ExeName, strings.TrimSpace(out), version.String())
	}
	logger.Debug("verified installation", "version", version.String())
	return nil
}

// debugListing logs the installed path and its contents at debug level.
func (s *Setup) debugListing(installDir string, logger log.Logger) {
	entries, err := os.ReadDir(installDir)
	if err != nil {
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	logger.Debug("installed", "path", installDir, "contents", strings.Join(names, " "))
}
