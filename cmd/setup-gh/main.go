package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/setup-gh/internal/actionenv"
	"github.com/tsukumogami/setup-gh/internal/config"
	"github.com/tsukumogami/setup-gh/internal/ghrelease"
	"github.com/tsukumogami/setup-gh/internal/httputil"
	"github.com/tsukumogami/setup-gh/internal/installer"
	"github.com/tsukumogami/setup-gh/internal/log"
	"github.com/tsukumogami/setup-gh/internal/platform"
	"github.com/tsukumogami/setup-gh/internal/setup"
	"github.com/tsukumogami/setup-gh/internal/toolcache"
)

var (
	flagVersion string
	flagToken   string
	flagQuiet   bool
	flagVerbose bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "setup-gh",
	Short: "Install the GitHub CLI on a pipeline runner",
	Long: `setup-gh ensures a build of the GitHub CLI (gh) is installed and on
the execution search path, downloading and caching it if necessary.

The version may be "stable" (the latest stable release), "latest" (the
maximum recent release by semantic version), or an exact version such as
2.40.1 or v2.40.1. Inputs follow pipeline conventions: when flags are not
given, INPUT_VERSION and INPUT_GITHUB-TOKEN are consulted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagVersion, "version", "", "gh version to install (stable, latest, or an exact version)")
	rootCmd.Flags().StringVar(&flagToken, "token", "", "GitHub token for release registry requests")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Errors only")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Operational detail")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Troubleshooting detail")
}

func run(ctx context.Context) error {
	env := actionenv.New()
	logger := newLogger(env)
	log.SetDefault(logger)

	cfg, err := config.DefaultConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	version := flagVersion
	if version == "" {
		version = env.Input("version")
	}
	if version == "" {
		version = cfg.DefaultVersion
	}

	token := flagToken
	if token == "" {
		token = env.Input("github-token")
	}
	if token == "" {
		token = cfg.Token
	}

	desc, err := platform.Detect()
	if err != nil {
		return err
	}
	logger.Debug("detected platform", "os", desc.OS, "arch", desc.Arch)

	cache := toolcache.New(cfg.ToolCacheDir, logger)
	client := httputil.NewClient(httputil.ClientOptions{Timeout: cfg.APITimeout})

	s := &setup.Setup{
		Resolver:   ghrelease.New(token, ghrelease.WithLogger(logger)),
		Cache:      cache,
		Installer:  installer.New(client, cache, cfg.TempDir, logger),
		Env:        env,
		RunCommand: setup.ExecRunner,
		Desc:       desc,
		Logger:     logger,
	}

	installed, err := s.Run(ctx, version)
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("✓ gh %s installed\n", installed)
	}
	return nil
}

// newLogger picks the slog level from verbosity flags, honoring the
// runner's debug toggle as well.
func newLogger(env *actionenv.Env) log.Logger {
	level := slog.LevelWarn
	switch {
	case flagDebug || env.IsDebug():
		level = slog.LevelDebug
	case flagVerbose:
		level = slog.LevelInfo
	case flagQuiet:
		level = slog.LevelError
	}
	return log.NewAtLevel(level)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
