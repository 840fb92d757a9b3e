// Package config handles TOML-based configuration loading and validation.
// ${VAR} references are substituted from the environment before parsing,
// so secrets such as the TMDB key can stay out of the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"zetflix/internal/httputil"
)

// Config holds all application configuration.
type Config struct {
	Player            string           `toml:"player"`
	History           bool             `toml:"history"`
	HistoryBackend    string           `toml:"history_backend"`
	Debug             bool             `toml:"debug"`
	LogLevel          string           `toml:"log_level"`
	TMDB              TMDBConfig       `toml:"tmdb"`
	AniList           AniListConfig    `toml:"anilist"`
	Catalog           CatalogConfig    `toml:"catalog"`
	Playback          PlaybackConfig   `toml:"playback"`
	Server            ServerConfig     `toml:"server"`
	DisabledProviders []string         `toml:"disabled_providers"`
	Providers         []ProviderConfig `toml:"providers"`
}

// TMDBConfig configures the movie/TV metadata backend.
type TMDBConfig struct {
	APIKey      string        `toml:"api_key"`
	BaseURL     string        `toml:"base_url"`
	Language    string        `toml:"language"`
	Timeout     time.Duration `toml:"timeout"`
	MinInterval time.Duration `toml:"min_interval"`
	CacheTTL    time.Duration `toml:"cache_ttl"`
}

// AniListConfig configures the anime metadata backend.
type AniListConfig struct {
	URL         string        `toml:"url"`
	Timeout     time.Duration `toml:"timeout"`
	MinInterval time.Duration `toml:"min_interval"`
	PerPage     int           `toml:"per_page"`
}

// CatalogConfig bounds each backend call made by the aggregator.
type CatalogConfig struct {
	BackendTimeout time.Duration `toml:"backend_timeout"`
}

// PlaybackConfig tunes the provider fallback chain.
type PlaybackConfig struct {
	LoadTimeout       time.Duration `toml:"load_timeout"`
	SettleDelay       time.Duration `toml:"settle_delay"`
	Autoplay          bool          `toml:"autoplay"`
	AutoplayCountdown time.Duration `toml:"autoplay_countdown"`
	ProbeTimeout      time.Duration `toml:"probe_timeout"`
}

// ServerConfig configures `zetflix serve`.
type ServerConfig struct {
	Listen      string        `toml:"listen"`
	RateLimit   int           `toml:"rate_limit"` // requests per minute per client IP
	MaxSessions int           `toml:"max_sessions"`
	SessionTTL  time.Duration `toml:"session_ttl"`
}

// ProviderConfig declares an extra embed provider or overrides a built-in one by id.
type ProviderConfig struct {
	ID        string            `toml:"id"`
	Name      string            `toml:"name"`
	Priority  int               `toml:"priority"`
	Kinds     []string          `toml:"kinds"`
	Disabled  bool              `toml:"disabled"`
	Templates map[string]string `toml:"templates"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Player:         "browser",
		History:        true,
		HistoryBackend: "tsv",
		LogLevel:       "warn",
		TMDB: TMDBConfig{
			BaseURL:     "https://api.themoviedb.org/3",
			Language:    "en-US",
			Timeout:     10 * time.Second,
			MinInterval: 250 * time.Millisecond,
			CacheTTL:    time.Hour,
		},
		AniList: AniListConfig{
			URL:         "https://graphql.anilist.co",
			Timeout:     8 * time.Second,
			MinInterval: time.Second,
			PerPage:     20,
		},
		Catalog: CatalogConfig{
			BackendTimeout: 10 * time.Second,
		},
		Playback: PlaybackConfig{
			LoadTimeout:       20 * time.Second,
			SettleDelay:       1500 * time.Millisecond,
			Autoplay:          true,
			AutoplayCountdown: 10 * time.Second,
			ProbeTimeout:      10 * time.Second,
		},
		Server: ServerConfig{
			Listen:      "127.0.0.1:8484",
			RateLimit:   120,
			MaxSessions: 64,
			SessionTTL:  30 * time.Minute,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "zetflix"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "zetflix"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at its default location and merges it with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads the given config file and merges it with defaults.
// A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content := substituteEnvVars(string(data))
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv fills values that are conventionally supplied through the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("ZETFLIX_HISTORY_BACKEND"); v != "" {
		c.HistoryBackend = v
	}
	if c.TMDB.APIKey == "" || envVarPattern.MatchString(c.TMDB.APIKey) {
		c.TMDB.APIKey = os.Getenv("TMDB_API_KEY")
	}
}

// loadDotEnv exports KEY=value pairs from a .env file next to the config and
// in the working directory. Variables already set in the environment win.
func loadDotEnv(paths ...string) {
	for _, p := range append(paths, ".env") {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// History backends accepted by Validate.
const (
	HistoryTSV    = "tsv"
	HistorySQLite = "sqlite"
)

// ValidPlayers lists the player names accepted by Validate.
var ValidPlayers = []string{"browser", "mpv", "firefox", "chromium", "iina"}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayer := false
	for _, p := range ValidPlayers {
		if strings.EqualFold(c.Player, p) {
			validPlayer = true
			break
		}
	}
	if !validPlayer {
		return fmt.Errorf("unsupported player %q (valid: %s)", c.Player, strings.Join(ValidPlayers, ", "))
	}

	switch c.HistoryBackend {
	case HistoryTSV, HistorySQLite:
	default:
		return fmt.Errorf("unsupported history_backend %q (valid: %s, %s)", c.HistoryBackend, HistoryTSV, HistorySQLite)
	}

	if err := httputil.ValidateURL(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	if err := httputil.ValidateURL(c.AniList.URL); err != nil {
		return fmt.Errorf("anilist.url: %w", err)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"tmdb.timeout", c.TMDB.Timeout},
		{"anilist.timeout", c.AniList.Timeout},
		{"catalog.backend_timeout", c.Catalog.BackendTimeout},
		{"playback.load_timeout", c.Playback.LoadTimeout},
		{"playback.autoplay_countdown", c.Playback.AutoplayCountdown},
		{"playback.probe_timeout", c.Playback.ProbeTimeout},
		{"server.session_ttl", c.Server.SessionTTL},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.d)
		}
	}
	if c.TMDB.MinInterval < 0 || c.AniList.MinInterval < 0 || c.Playback.SettleDelay < 0 {
		return fmt.Errorf("intervals and delays cannot be negative")
	}

	if c.AniList.PerPage < 1 || c.AniList.PerPage > 50 {
		return fmt.Errorf("anilist.per_page must be between 1 and 50, got %d", c.AniList.PerPage)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("server.rate_limit must be at least 1, got %d", c.Server.RateLimit)
	}
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("server.max_sessions must be at least 1, got %d", c.Server.MaxSessions)
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("providers[%d]: id cannot be empty", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("providers[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}

	return nil
}

func dataDir() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "zetflix"), nil
}

// HistoryPath returns the path to the history file for the configured backend.
func (c *Config) HistoryPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	if c.HistoryBackend == HistorySQLite {
		return filepath.Join(dir, "history.db"), nil
	}
	return filepath.Join(dir, "history.tsv"), nil
}
