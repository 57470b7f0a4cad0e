// Package installer turns a chosen release asset into a cached, ready to
// use installation: download, extract, locate the bin directory, register
// with the tool cache.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tsukumogami/setup-gh/internal/ghrelease"
	"github.com/tsukumogami/setup-gh/internal/log"
	"github.com/tsukumogami/setup-gh/internal/platform"
	"github.com/tsukumogami/setup-gh/internal/toolcache"
)

const toolName = "gh"

var (
	// ErrDownloadFailed indicates the asset could not be fetched or stored.
	ErrDownloadFailed = errors.New("download failed")

	// ErrExtractionFailed indicates the downloaded archive could not be
	// unpacked.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrNoExecutableFound indicates the extracted tree has no bin
	// directory at either accepted location. Deliberately strict: no
	// guessing beyond the one known nesting scheme.
	ErrNoExecutableFound = errors.New("no executable found in archive")
)

// Installer downloads and registers release assets.
type Installer struct {
	client  *http.Client
	cache   *toolcache.Cache
	tempDir string
	logger  log.Logger
}

// New creates an installer. The client should be the hardened download
// client; tempDir is the scratch space for downloads and extraction.
func New(client *http.Client, cache *toolcache.Cache, tempDir string, logger log.Logger) *Installer {
	if logger == nil {
		logger = log.Default()
	}
	return &Installer{client: client, cache: cache, tempDir: tempDir, logger: logger}
}

// Install downloads the asset, extracts it, resolves the directory that
// holds bin/, and registers it in the tool cache. Returns the canonical
// installation path.
func (i *Installer) Install(ctx context.Context, asset ghrelease.Asset, version *semver.Version, desc platform.Descriptor) (string, error) {
	workDir, err := os.MkdirTemp(i.tempDir, "setup-gh-*")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create work directory: %v", ErrDownloadFailed, err)
	}

	archivePath := filepath.Join(workDir, asset.Name)
	if err := i.download(ctx, asset.DownloadURL, archivePath); err != nil {
		return "", err
	}

	extractDir := filepath.Join(workDir, "extracted")
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	ext := desc.AssetExtension(version)
	switch ext {
	case platform.ExtZip:
		err = extractZip(archivePath, extractDir)
	case platform.ExtTarGz:
		err = extractTarGz(archivePath, extractDir)
	default:
		// Unreachable given the platform package's enumeration; kept as a
		// hard stop so a future extension slips nothing past extraction.
		return "", fmt.Errorf("%w: %q", platform.ErrUnsupportedExtension, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	binRoot, err := locateBinRoot(extractDir, asset.Name, ext)
	if err != nil {
		return "", err
	}

	i.logger.Debug("registering installation", "source", binRoot, "version", version.String())
	installed, err := i.cache.Cache(binRoot, desc.ExeName, toolName, version.String(), desc.Arch)
	if err != nil {
		return "", fmt.Errorf("failed to register installation: %w", err)
	}
	return installed, nil
}

// download fetches url into destPath.
func (i *Installer) download(ctx context.Context, url, destPath string) error {
	i.logger.Info("downloading asset", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %s", ErrDownloadFailed, resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return nil
}

// locateBinRoot resolves the directory that contains bin/. Some archives
// place bin/ at the extraction root; others nest everything inside a
// top-level folder named after the asset minus its extension.
func locateBinRoot(extractDir, assetName, ext string) (string, error) {
	if hasBinDir(extractDir) {
		return extractDir, nil
	}

	base := strings.TrimSuffix(assetName, "."+ext)
	nested := filepath.Join(extractDir, base)
	if fi, err := os.Stat(nested); err == nil && fi.IsDir() && hasBinDir(nested) {
		return nested, nil
	}

	return "", fmt.Errorf("%w: no bin directory at extraction root or under %q", ErrNoExecutableFound, base)
}

func hasBinDir(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, "bin"))
	return err == nil && fi.IsDir()
}
