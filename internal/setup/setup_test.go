package setup

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/setup-gh/internal/ghrelease"
	"github.com/tsukumogami/setup-gh/internal/log"
	"github.com/tsukumogami/setup-gh/internal/platform"
	"github.com/tsukumogami/setup-gh/internal/spec"
)

var linuxAmd64 = platform.Descriptor{OS: platform.OSLinux, Arch: "amd64", ExeName: "gh"}

type fakeResolver struct {
	calls   int
	release *ghrelease.Release
	err     error
}

func (f *fakeResolver) Resolve(_ context.Context, _ spec.Spec) (*ghrelease.Release, error) {
	f.calls++
	return f.release, f.err
}

type fakeCache struct {
	entries map[string]string // version -> dir
	calls   int
}

func (f *fakeCache) Find(tool, version, arch string) (string, bool) {
	f.calls++
	dir, ok := f.entries[version]
	return dir, ok
}

type fakeInstaller struct {
	calls int
	dir   string
	err   error
}

func (f *fakeInstaller) Install(_ context.Context, _ ghrelease.Asset, _ *semver.Version, _ platform.Descriptor) (string, error) {
	f.calls++
	return f.dir, f.err
}

type fakeEnv struct {
	outputs map[string]string
	paths   []string
}

func (f *fakeEnv) SetOutput(name, value string) error {
	if f.outputs == nil {
		f.outputs = make(map[string]string)
	}
	f.outputs[name] = value
	return nil
}

func (f *fakeEnv) AddPath(dir string) error {
	f.paths = append(f.paths, dir)
	return nil
}

// versionRunner fakes a gh binary reporting the given version.
func versionRunner(version string) CommandRunner {
	return func(_ context.Context, name string, args ...string) (string, error) {
		return fmt.Sprintf("gh version %s (2026-01-01)\n", version), nil
	}
}

func release(t *testing.T, version string, assetNames ...string) *ghrelease.Release {
	t.Helper()
	assets := make([]ghrelease.Asset, 0, len(assetNames))
	for _, n := range assetNames {
		assets = append(assets, ghrelease.Asset{Name: n, DownloadURL: "https://example.invalid/" + n})
	}
	return &ghrelease.Release{Version: semver.MustParse(version), Assets: assets}
}

func TestRun_StableInstallsAndPublishes(t *testing.T) {
	resolver := &fakeResolver{release: release(t, "2.40.0", "gh_2.40.0_linux_amd64.tar.gz")}
	cache := &fakeCache{}
	installer := &fakeInstaller{dir: "/cache/gh/2.40.0/amd64"}
	env := &fakeEnv{}

	s := &Setup{
		Resolver:   resolver,
		Cache:      cache,
		Installer:  installer,
		Env:        env,
		RunCommand: versionRunner("2.40.0"),
		Desc:       linuxAmd64,
		Logger:     log.NewNoop(),
	}

	got, err := s.Run(context.Background(), "stable")
	require.NoError(t, err)
	require.Equal(t, "2.40.0", got)
	require.Equal(t, 1, resolver.calls)
	require.Equal(t, 1, installer.calls)
	require.Equal(t, "2.40.0", env.outputs["installed-version"])
	require.Equal(t, []string{"/cache/gh/2.40.0/amd64/bin"}, env.paths)
}

func TestRun_ExactCacheHitSkipsResolutionAndInstall(t *testing.T) {
	resolver := &fakeResolver{}
	cache := &fakeCache{entries: map[string]string{"2.38.0": "/cache/gh/2.38.0/amd64"}}
	installer := &fakeInstaller{}
	env := &fakeEnv{}

	s := &Setup{
		Resolver:   resolver,
		Cache:      cache,
		Installer:  installer,
		Env:        env,
		RunCommand: versionRunner("2.38.0"),
		Desc:       linuxAmd64,
		Logger:     log.NewNoop(),
	}

	got, err := s.Run(context.Background(), "v2.38.0")
	require.NoError(t, err)
	require.Equal(t, "2.38.0", got)

	// The cache hit must short-circuit: no registry call, no install.
	require.Zero(t, resolver.calls)
	require.Zero(t, installer.calls)
	require.Equal(t, "2.38.0", env.outputs["installed-version"])
}

func TestRun_ResolvedVersionCacheHitSkipsInstall(t *testing.T) {
	resolver := &fakeResolver{release: release(t, "2.40.0", "gh_2.40.0_linux_amd64.tar.gz")}
	cache := &fakeCache{entries: map[string]string{"2.40.0": "/cache/gh/2.40.0/amd64"}}
	installer := &fakeInstaller{}
	env := &fakeEnv{}

	s := &Setup{
		Resolver:   resolver,
		Cache:      cache,
		Installer:  installer,
		Env:        env,
		RunCommand: versionRunner("2.40.0"),
		Desc:       linuxAmd64,
		Logger:     log.NewNoop(),
	}

	_, err := s.Run(context.Background(), "latest")
	require.NoError(t, err)
	require.Equal(t, 1, resolver.calls)
	require.Zero(t, installer.calls)
}

func TestRun_InvalidVersionInput(t *testing.T) {
	s := &Setup{Logger: log.NewNoop(), Cache: &fakeCache{}}
	_, err := s.Run(context.Background(), "two-point-oh")
	require.ErrorIs(t, err, spec.ErrInvalidVersion)
}

func TestRun_AssetNameMismatch(t *testing.T) {
	// Release exists but carries no asset matching the platform scheme.
	resolver := &fakeResolver{release: release(t, "2.40.0", "gh_2.40.0_checksums.txt")}
	s := &Setup{
		Resolver:   resolver,
		Cache:      &fakeCache{},
		Installer:  &fakeInstaller{},
		Env:        &fakeEnv{},
		RunCommand: versionRunner("2.40.0"),
		Desc:       linuxAmd64,
		Logger:     log.NewNoop(),
	}

	_, err := s.Run(context.Background(), "stable")
	require.ErrorIs(t, err, ghrelease.ErrAssetNotFound)
}

func TestRun_VerificationFailure(t *testing.T) {
	resolver := &fakeResolver{release: release(t, "2.40.0", "gh_2.40.0_linux_amd64.tar.gz")}
	env := &fakeEnv{}
	s := &Setup{
		Resolver:   resolver,
		Cache:      &fakeCache{},
		Installer:  &fakeInstaller{dir: "/cache/gh/2.40.0/amd64"},
		Env:        env,
		RunCommand: versionRunner("2.39.0"), // wrong version reported
		Desc:       linuxAmd64,
		Logger:     log.NewNoop(),
	}

	_, err := s.Run(context.Background(), "stable")
	require.ErrorIs(t, err, ErrVerificationFailed)

	// Nothing is published on a failed verification.
	require.NotContains(t, env.outputs, "installed-version")
}

func TestRun_ResolverErrorPropagates(t *testing.T) {
	resolver := &fakeResolver{err: ghrelease.ErrNoMatchingRelease}
	s := &Setup{
		Resolver: resolver,
		Cache:    &fakeCache{},
		Logger:   log.NewNoop(),
		Desc:     linuxAmd64,
	}

	_, err := s.Run(context.Background(), "latest")
	require.ErrorIs(t, err, ghrelease.ErrNoMatchingRelease)
}

func TestRun_CommandFailureIsVerificationFailure(t *testing.T) {
	resolver := &fakeResolver{release: release(t, "2.40.0", "gh_2.40.0_linux_amd64.tar.gz")}
	s := &Setup{
		Resolver:  resolver,
		Cache:     &fakeCache{},
		Installer: &fakeInstaller{dir: "/cache/gh/2.40.0/amd64"},
		Env:       &fakeEnv{},
		RunCommand: func(context.Context, string, ...string) (string, error) {
			return "", errors.New("exec: not found")
		},
		Desc:   linuxAmd64,
		Logger: log.NewNoop(),
	}

	_, err := s.Run(context.Background(), "stable")
	require.ErrorIs(t, err, ErrVerificationFailed)
}
