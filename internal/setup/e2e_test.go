package setup_test

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/setup-gh/internal/actionenv"
	"github.com/tsukumogami/setup-gh/internal/ghrelease"
	"github.com/tsukumogami/setup-gh/internal/installer"
	"github.com/tsukumogami/setup-gh/internal/log"
	"github.com/tsukumogami/setup-gh/internal/platform"
	"github.com/tsukumogami/setup-gh/internal/setup"
	"github.com/tsukumogami/setup-gh/internal/testutil"
	"github.com/tsukumogami/setup-gh/internal/toolcache"
)

// ghArchive builds a tar.gz shaped like a real gh release: everything
// nested under a directory named after the asset.
func ghArchive(t *testing.T, base string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	content := []byte("#!/bin/sh\necho gh\n")
	entries := []struct {
		name string
		dir  bool
	}{
		{base + "/", true},
		{base + "/bin/", true},
		{base + "/bin/gh", false},
		{base + "/LICENSE", false},
	}
	for _, e := range entries {
		if e.dir {
			require.NoError(t, tw.WriteHeader(&tar.Header{Name: e.name, Typeflag: tar.TypeDir, Mode: 0755}))
			continue
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: e.name, Typeflag: tar.TypeReg, Mode: 0755, Size: int64(len(content)),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestEndToEnd_StableOnLinuxAmd64(t *testing.T) {
	const version = "2.40.0"
	assetName := fmt.Sprintf("gh_%s_linux_amd64.tar.gz", version)
	archive := ghArchive(t, strings.TrimSuffix(assetName, ".tar.gz"))

	var downloadCalls int
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloadCalls++
		_, _ = w.Write(archive)
	}))
	defer files.Close()

	var registryCalls int
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registryCalls++
		if !strings.HasSuffix(r.URL.Path, "/repos/cli/cli/releases/latest") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tag_name": "v" + version,
			"assets": []map[string]any{
				{"name": "gh_" + version + "_checksums.txt", "browser_download_url": files.URL + "/checksums"},
				{"name": assetName, "browser_download_url": files.URL + "/" + assetName},
			},
		})
	}))
	defer registry.Close()

	cfg := testutil.NewTestConfig(t)
	outFile := filepath.Join(t.TempDir(), "github_output")
	pathFile := filepath.Join(t.TempDir(), "github_path")
	env := actionenv.NewWithGetenv(func(k string) string {
		switch k {
		case actionenv.EnvOutputFile:
			return outFile
		case actionenv.EnvPathFile:
			return pathFile
		}
		return ""
	})

	origPath := os.Getenv("PATH")
	t.Cleanup(func() { os.Setenv("PATH", origPath) })

	logger := log.NewNoop()
	cache := toolcache.New(cfg.ToolCacheDir, logger)
	desc := platform.Descriptor{OS: platform.OSLinux, Arch: "amd64", ExeName: "gh"}

	s := &setup.Setup{
		Resolver:  ghrelease.New("", ghrelease.WithBaseURL(registry.URL), ghrelease.WithLogger(logger)),
		Cache:     cache,
		Installer: installer.New(files.Client(), cache, cfg.TempDir, logger),
		Env:       env,
		RunCommand: func(_ context.Context, name string, _ ...string) (string, error) {
			return "gh version " + version + " (2026-01-01)\n", nil
		},
		Desc:   desc,
		Logger: logger,
	}

	installed, err := s.Run(context.Background(), "stable")
	require.NoError(t, err)
	require.Equal(t, version, installed)
	require.Equal(t, 1, registryCalls)
	require.Equal(t, 1, downloadCalls)

	// The tool landed in the cache with its executable.
	cached, ok := cache.Find("gh", version, "amd64")
	require.True(t, ok)
	testutil.AssertFileExists(t, filepath.Join(cached, "bin", "gh"))

	// The runner files carry the published output and path entry.
	out, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t, "installed-version="+version+"\n", string(out))

	pathData, err := os.ReadFile(pathFile)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cached, "bin")+"\n", string(pathData))

	// A second run asking for the now-cached exact version must touch
	// neither the registry nor the download server.
	installed, err = s.Run(context.Background(), version)
	require.NoError(t, err)
	require.Equal(t, version, installed)
	require.Equal(t, 1, registryCalls)
	require.Equal(t, 1, downloadCalls)
}
