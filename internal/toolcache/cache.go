// Package toolcache manages the runner's persistent tool cache.
//
// The on-disk layout is <root>/<tool>/<version>/<arch>/ with a sibling
// <arch>.complete marker, matching the hosted runner's tool-cache
// convention so entries written here are visible to other steps (and vice
// versa). An entry without its marker is treated as absent: it means a
// previous install was interrupted mid-copy.
package toolcache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tsukumogami/setup-gh/internal/log"
)

// Cache is a handle on the tool cache root directory.
type Cache struct {
	root   string
	logger log.Logger
}

// New creates a cache handle. The root is created lazily on first write.
func New(root string, logger log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{root: root, logger: logger}
}

// versionDir returns the directory an entry lives in.
func (c *Cache) versionDir(tool, version, arch string) string {
	return filepath.Join(c.root, tool, version, arch)
}

// Find looks up a cached installation by tool name, exact version, and
// architecture. Returns the installation path and whether it exists.
// This is a pure query; it never mutates the cache.
func (c *Cache) Find(tool, version, arch string) (string, bool) {
	dir := c.versionDir(tool, version, arch)
	marker := dir + ".complete"

	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", false
	}
	if _, err := os.Stat(marker); err != nil {
		c.logger.Debug("cache entry missing completion marker, treating as absent",
			"tool", tool, "version", version)
		return "", false
	}

	c.logger.Debug("tool cache hit", "tool", tool, "version", version, "path", dir)
	return dir, true
}

// Cache copies srcDir into the cache under (tool, version, arch), marks
// the executable bit on bin/<execName>, writes the completion marker, and
// returns the canonical installation path.
func (c *Cache) Cache(srcDir, execName, tool, version, arch string) (string, error) {
	dir := c.versionDir(tool, version, arch)
	marker := dir + ".complete"

	// A stale partial entry from an interrupted run is replaced wholesale.
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clear stale cache entry: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := copyDir(srcDir, dir); err != nil {
		return "", fmt.Errorf("failed to populate cache entry: %w", err)
	}

	if runtime.GOOS != "windows" {
		execPath := filepath.Join(dir, "bin", execName)
		if fi, err := os.Stat(execPath); err == nil {
			if err := os.Chmod(execPath, fi.Mode()|0111); err != nil {
				return "", fmt.Errorf("failed to mark %s executable: %w", execName, err)
			}
		}
	}

	if err := os.WriteFile(marker, nil, 0644); err != nil {
		return "", fmt.Errorf("failed to write completion marker: %w", err)
	}

	c.logger.Debug("cached tool", "tool", tool, "version", version, "path", dir)
	return dir, nil
}

// copyDir recursively copies the contents of src into dst.
// Symlinks are recreated as symlinks; modes are preserved for files.
func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
		case entry.IsDir():
			if err := os.MkdirAll(dstPath, 0755); err != nil {
				return err
			}
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		default:
			if err := copyFile(srcPath, dstPath, info.Mode()); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
