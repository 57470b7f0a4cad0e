// Package platform derives the host descriptor used to pick release assets.
//
// The descriptor is computed once in main and passed explicitly to the
// components that need it, rather than re-queried from the runtime.
package platform

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// ErrUnsupportedPlatform indicates the host OS is outside the supported
// matrix. This is fatal: there is no asset to install.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ErrUnsupportedExtension indicates an archive extension outside the
// enumerated set reached the installer. This is a contract violation and
// should never occur.
var ErrUnsupportedExtension = errors.New("unsupported archive extension")

// OS family tokens as they appear in release asset names.
const (
	OSLinux   = "linux"
	OSMacOS   = "macOS"
	OSWindows = "windows"
)

// Archive extensions used by the release packaging.
const (
	ExtZip   = "zip"
	ExtTarGz = "tar.gz"
)

// zipBoundaryMacOS is the first release that ships macOS assets as zip.
// Earlier macOS releases were packaged as tar.gz; the boundary must be
// reproduced exactly so cached entries for old versions stay reachable.
var zipBoundaryMacOS = semver.MustParse("2.28.0")

// Descriptor describes the host for asset selection purposes.
type Descriptor struct {
	// OS is the asset-name OS family token (linux, macOS, windows).
	OS string

	// Arch is the asset-name architecture token (amd64, arm64, ...).
	Arch string

	// ExeName is the platform-specific executable name (gh or gh.exe).
	ExeName string
}

// Detect returns the Descriptor for the current host.
// Fails with ErrUnsupportedPlatform for any OS outside linux/darwin/windows.
func Detect() (Descriptor, error) {
	return detect(runtime.GOOS, runtime.GOARCH)
}

// detect is the testable core of Detect.
func detect(goos, goarch string) (Descriptor, error) {
	var os string
	switch goos {
	case "linux":
		os = OSLinux
	case "darwin":
		os = OSMacOS
	case "windows":
		os = OSWindows
	default:
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}

	// Asset names use amd64 for 64-bit x86; other GOARCH values match
	// the asset naming verbatim.
	arch := goarch
	if arch == "x86_64" {
		arch = "amd64"
	}

	exe := "gh"
	if os == OSWindows {
		exe = "gh.exe"
	}

	return Descriptor{OS: os, Arch: arch, ExeName: exe}, nil
}

// AssetExtension returns the archive extension the given release version
// was packaged with on this platform. Windows releases are always zip.
// macOS switched from tar.gz to zip at 2.28.0. Everything else is tar.gz.
func (d Descriptor) AssetExtension(v *semver.Version) string {
	switch d.OS {
	case OSWindows:
		return ExtZip
	case OSMacOS:
		if !v.LessThan(zipBoundaryMacOS) {
			return ExtZip
		}
		return ExtTarGz
	default:
		return ExtTarGz
	}
}

// AssetName builds the exact asset filename for a release version on this
// platform: gh_<version>_<os>_<arch>.<ext>. Matching against the release's
// asset list is exact; there is no fuzzy fallback.
func (d Descriptor) AssetName(v *semver.Version) string {
	return fmt.Sprintf("gh_%s_%s_%s.%s", v.String(), d.OS, d.Arch, d.AssetExtension(v))
}
