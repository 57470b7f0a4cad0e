// Package spec classifies the user-supplied version input.
//
// The pipeline accepts three intents: "stable" (whatever the registry
// marks as the latest stable release), "latest" (maximum by semantic
// version precedence over recent releases), or an exact version such as
// "2.40.1" or "v2.40.1". Classification happens exactly once, in Parse;
// everything downstream branches on the resulting Spec.
package spec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// ErrInvalidVersion indicates the input is neither a keyword nor a
	// parseable semantic version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrNotExactVersion indicates a version-dependent accessor was called
	// on a "stable" or "latest" spec, which carries no concrete version.
	ErrNotExactVersion = errors.New("not an exact version")
)

// Mode identifies which of the three user intents a Spec represents.
type Mode int

const (
	// Stable requests the registry's latest stable release.
	Stable Mode = iota
	// Latest requests the maximum recent release by semver precedence.
	Latest
	// Exact requests one specific version.
	Exact
)

// Spec is an immutable, classified version request.
// Only Exact specs carry a concrete semantic version.
type Spec struct {
	raw     string
	mode    Mode
	version *semver.Version // nil unless mode is Exact
}

// Parse classifies a raw version input.
// "stable" and "latest" are recognized keywords; anything else must
// normalize as a semantic version (a leading "v" is tolerated) or Parse
// fails with ErrInvalidVersion.
func Parse(raw string) (Spec, error) {
	switch raw {
	case "stable":
		return Spec{raw: raw, mode: Stable}, nil
	case "latest":
		return Spec{raw: raw, mode: Latest}, nil
	}

	v, err := Normalize(raw)
	if err != nil {
		return Spec{}, err
	}
	return Spec{raw: raw, mode: Exact, version: v}, nil
}

// Normalize parses a version string into its canonical semantic version.
// This is the single normalization path for the whole program: release
// tags, user input, and resolved versions all go through here.
func Normalize(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, raw, err)
	}
	return v, nil
}

// Raw returns the original user input.
func (s Spec) Raw() string { return s.raw }

// Mode returns the classification of this spec.
func (s Spec) Mode() Mode { return s.mode }

// IsStable reports whether the user asked for the stable release.
func (s Spec) IsStable() bool { return s.mode == Stable }

// IsLatest reports whether the user asked for the latest release.
func (s Spec) IsLatest() bool { return s.mode == Latest }

// Version returns the canonical semantic version for an Exact spec.
// Fails with ErrNotExactVersion for Stable and Latest specs.
func (s Spec) Version() (*semver.Version, error) {
	if s.mode != Exact {
		return nil, fmt.Errorf("%w: %q", ErrNotExactVersion, s.raw)
	}
	return s.version, nil
}

// TagName returns the release tag for an Exact spec ("v" + version).
// Fails with ErrNotExactVersion for Stable and Latest specs.
func (s Spec) TagName() (string, error) {
	v, err := s.Version()
	if err != nil {
		return "", err
	}
	return "v" + v.String(), nil
}
