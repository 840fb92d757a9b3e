// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zetflix/internal/anilist"
	"zetflix/internal/catalog"
	"zetflix/internal/config"
	xlog "zetflix/internal/log"
	"zetflix/internal/media"
	"zetflix/internal/provider"
	"zetflix/internal/tmdb"
	"zetflix/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig   string
	flagKind     string
	flagSeason   int
	flagEpisode  int
	flagPlayer   string
	flagContinue bool
	flagJSON     bool
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "zetflix [query]",
	Short: "Browse movies, TV and anime and play them through embed providers",
	Long: `Zetflix searches TMDB and AniList, then walks the configured embed
providers in priority order until one serves the chosen title.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              searchRun,
	SilenceUsage:      true,
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ui.ErrCancelled) {
			os.Exit(1)
		}
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/zetflix/config.toml)")
	pf.StringVarP(&flagKind, "kind", "k", "", "Restrict to one content kind: movie | tv | anime")
	pf.IntVarP(&flagSeason, "season", "s", 0, "Season number (TV)")
	pf.IntVarP(&flagEpisode, "episode", "e", 0, "Episode number (TV and anime)")
	pf.StringVar(&flagPlayer, "player", "", "Player: browser | mpv | firefox | chromium | iina")
	pf.BoolVarP(&flagContinue, "continue", "c", false, "Resume at the episode recorded in history")
	pf.BoolVarP(&flagJSON, "json", "j", false, "Print results and resolved embed URLs as JSON")
	pf.BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(genreCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagDebug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if flagSeason < 0 || flagEpisode < 0 {
		return fmt.Errorf("--season and --episode must be positive")
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	xlog.Configure(xlog.Config{Level: level, Console: true})
	return nil
}

// kindFilter parses --kind. ok is false when the flag is unset.
func kindFilter() (kind media.Kind, ok bool, err error) {
	if flagKind == "" {
		return media.Movie, false, nil
	}
	kind, err = media.ParseKind(flagKind)
	return kind, err == nil, err
}

func newCatalog() *catalog.Service {
	log := xlog.WithComponent("catalog")
	movies := tmdb.NewClient(cfg.TMDB.APIKey,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithMinInterval(cfg.TMDB.MinInterval),
		tmdb.WithCacheTTL(cfg.TMDB.CacheTTL),
		tmdb.WithLogger(xlog.WithComponent("tmdb")),
	)
	anime := anilist.NewClient(
		anilist.WithURL(cfg.AniList.URL),
		anilist.WithTimeout(cfg.AniList.Timeout),
		anilist.WithMinInterval(cfg.AniList.MinInterval),
		anilist.WithLogger(xlog.WithComponent("anilist")),
	)
	return catalog.New(movies, anime,
		catalog.WithBackendTimeout(cfg.Catalog.BackendTimeout),
		catalog.WithPerPage(cfg.AniList.PerPage),
		catalog.WithLogger(log),
	)
}

func newRegistry() (*provider.Registry, error) {
	reg, err := provider.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading providers: %w", err)
	}
	return reg, nil
}
