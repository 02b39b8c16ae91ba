package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// taste.io
	TasteUsername string
	TasteToken    string
	TasteBaseURL  string

	// Simkl
	SimklClientID    string
	SimklAccessToken string
	SimklBaseURL     string

	// Cache
	CacheBackend  string // "file" or "bolt"
	CacheBaseName string
	CacheTTL      time.Duration

	// Pagination
	PageSize int
	MinDelay time.Duration
	MaxDelay time.Duration

	// Feeds
	ScrapeRatings          bool
	ScrapeSaved            bool
	ScrapeContinueWatching bool

	// Policy
	KeepUnresolvedRated bool
	RatingScale         float64

	// Daemon
	Schedule   string
	ServerPort string

	// Paths
	ConfigDir           string
	OutputFile          string // $CONFIG_DIR/SimklBackup.json
	WatchedEpisodesFile string // $CONFIG_DIR/watched_episodes.json
	IgnoreFile          string // $CONFIG_DIR/ignore.txt
	CacheDatabaseFile   string // $CONFIG_DIR/cache.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and a .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TASTE_BASE_URL", "https://www.taste.io/api")
	v.SetDefault("SIMKL_BASE_URL", "https://api.simkl.com")
	v.SetDefault("CACHE_BACKEND", "file")
	v.SetDefault("CACHE_BASE_NAME", "ratings_cache")
	v.SetDefault("CACHE_TIMEOUT_DAYS", 1)
	v.SetDefault("API_LIMIT", 96)
	v.SetDefault("MIN_DELAY", 1.5)
	v.SetDefault("MAX_DELAY", 4.0)
	v.SetDefault("OUTPUT_FILE", "SimklBackup.json")
	v.SetDefault("WATCHED_EPISODES_FILE", "watched_episodes.json")
	v.SetDefault("IGNORE_FILE", "ignore.txt")
	v.SetDefault("SCRAPE_RATINGS", true)
	v.SetDefault("SCRAPE_SAVED", true)
	v.SetDefault("SCRAPE_CONTINUE_WATCHING", true)
	v.SetDefault("KEEP_UNRESOLVED_RATED", true)
	v.SetDefault("RATING_SCALE", 2.0)
	v.SetDefault("SCHEDULE", "0 3 * * *")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "tastesync")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		TasteUsername: strings.TrimSpace(v.GetString("TASTE_USERNAME")),
		TasteToken:    strings.TrimSpace(v.GetString("TASTE_TOKEN")),
		TasteBaseURL:  strings.TrimRight(v.GetString("TASTE_BASE_URL"), "/"),

		SimklClientID:    strings.TrimSpace(v.GetString("SIMKL_CLIENT_ID")),
		SimklAccessToken: strings.TrimSpace(v.GetString("SIMKL_ACCESS_TOKEN")),
		SimklBaseURL:     strings.TrimRight(v.GetString("SIMKL_BASE_URL"), "/"),

		CacheBackend:  strings.ToLower(v.GetString("CACHE_BACKEND")),
		CacheBaseName: v.GetString("CACHE_BASE_NAME"),
		CacheTTL:      time.Duration(v.GetInt("CACHE_TIMEOUT_DAYS")) * 24 * time.Hour,

		PageSize: v.GetInt("API_LIMIT"),
		MinDelay: seconds(v.GetFloat64("MIN_DELAY")),
		MaxDelay: seconds(v.GetFloat64("MAX_DELAY")),

		ScrapeRatings:          v.GetBool("SCRAPE_RATINGS"),
		ScrapeSaved:            v.GetBool("SCRAPE_SAVED"),
		ScrapeContinueWatching: v.GetBool("SCRAPE_CONTINUE_WATCHING"),

		KeepUnresolvedRated: v.GetBool("KEEP_UNRESOLVED_RATED"),
		RatingScale:         v.GetFloat64("RATING_SCALE"),

		Schedule:   v.GetString("SCHEDULE"),
		ServerPort: v.GetString("SERVER_PORT"),

		ConfigDir:           configDir,
		OutputFile:          inDir(configDir, v.GetString("OUTPUT_FILE")),
		WatchedEpisodesFile: inDir(configDir, v.GetString("WATCHED_EPISODES_FILE")),
		IgnoreFile:          inDir(configDir, v.GetString("IGNORE_FILE")),
		CacheDatabaseFile:   filepath.Join(configDir, "cache.db"),

		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.SimklClientID == "" {
		return nil, fmt.Errorf("SIMKL_CLIENT_ID is required")
	}
	if cfg.CacheBackend != "file" && cfg.CacheBackend != "bolt" {
		return nil, fmt.Errorf("CACHE_BACKEND must be \"file\" or \"bolt\", got %q", cfg.CacheBackend)
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("API_LIMIT must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TIMEOUT_DAYS must be positive")
	}
	if cfg.MinDelay <= 0 || cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("MIN_DELAY must be positive and not greater than MAX_DELAY")
	}

	return cfg, nil
}

// ValidateBackup checks the settings needed to pull from taste.io
func (c *Config) ValidateBackup() error {
	if c.TasteUsername == "" {
		return fmt.Errorf("TASTE_USERNAME is required")
	}
	return nil
}

// ValidateImport checks the settings needed to upload to Simkl
func (c *Config) ValidateImport() error {
	if c.SimklAccessToken == "" {
		return fmt.Errorf("SIMKL_ACCESS_TOKEN is required")
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func inDir(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
