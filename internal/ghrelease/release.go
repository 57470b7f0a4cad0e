// Package ghrelease resolves a version request against the GitHub CLI's
// release listing and selects the candidate release to install.
//
// This is the only package that talks to the release registry. All three
// request modes funnel into Resolver.Resolve, which produces exactly one
// Release or fails.
package ghrelease

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	// Name is the display name, e.g. "gh_2.40.0_linux_amd64.tar.gz".
	Name string

	// DownloadURL is the browser download URL for the asset.
	DownloadURL string
}

// Release is the resolved candidate: a canonical version plus the
// registry-ordered list of its assets. Produced only by Resolver.Resolve
// and never mutated afterwards.
type Release struct {
	Version *semver.Version
	Assets  []Asset
}

// AssetByName returns the asset with exactly the given name.
// There is no fuzzy matching: a miss means the expected naming scheme and
// the release's actual packaging disagree, which fails the run.
func (r *Release) AssetByName(name string) (Asset, error) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("%w: %q among %d assets of release %s",
		ErrAssetNotFound, name, len(r.Assets), r.Version)
}
