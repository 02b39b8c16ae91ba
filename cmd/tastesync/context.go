package main

import (
	"fmt"
	"path/filepath"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/cache"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/config"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/controllers"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/services/simkl"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/services/taste"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/sirupsen/logrus"
)

// commandContext lazily loads configuration and logging shared by all commands
type commandContext struct {
	logLevel *string
	cfg      *config.Config
	logger   *logrus.Logger
}

func newCommandContext(logLevel *string) *commandContext {
	return &commandContext{logLevel: logLevel}
}

func (c *commandContext) ensureConfig() (*config.Config, *logrus.Logger, error) {
	if c.cfg != nil {
		return c.cfg, c.logger, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.logLevel != nil && *c.logLevel != "" {
		cfg.LogLevel = *c.logLevel
	}

	c.cfg = cfg
	c.logger = utils.NewLogger(cfg.LogLevel, nil)
	c.logger.WithFields(logrus.Fields{
		"config_dir":    cfg.ConfigDir,
		"cache_backend": cfg.CacheBackend,
	}).Debug("Configuration loaded")
	return c.cfg, c.logger, nil
}

// openStore opens the configured cache backend; the returned store must be closed with closeFn
func openStore(cfg *config.Config, logger *logrus.Logger) (*cache.Store, func(), error) {
	var backend cache.Backend
	switch cfg.CacheBackend {
	case "bolt":
		b, err := cache.OpenBoltBackend(cfg.CacheDatabaseFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		backend = b
	default:
		b, err := cache.NewFileBackend(filepath.Join(cfg.ConfigDir, "cache"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache directory: %w", err)
		}
		backend = b
	}

	closeFn := func() {
		if err := backend.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close cache backend")
		}
	}
	return cache.NewStore(backend, cfg.CacheBaseName, cfg.CacheTTL, logger), closeFn, nil
}

// newBackupController wires the backup pipeline from configuration
func newBackupController(cfg *config.Config, store *cache.Store, logger *logrus.Logger) (*controllers.BackupController, error) {
	if err := cfg.ValidateBackup(); err != nil {
		return nil, err
	}

	tasteClient, err := taste.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize taste.io client: %w", err)
	}
	simklClient, err := simkl.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Simkl client: %w", err)
	}

	ignore, err := utils.LoadIgnoreList(cfg.IgnoreFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load ignore list, continuing without it")
		ignore = utils.NewIgnoreList()
	} else if ignore.Len() > 0 {
		logger.WithField("terms", ignore.Len()).Info("Ignore list loaded")
	}

	paginator := controllers.NewPaginator(tasteClient, store, cfg.PageSize, cfg.MinDelay, cfg.MaxDelay, logger)
	episodes := controllers.NewCatalogEpisodes(paginator, tasteClient.EpisodesURL)
	resolver := controllers.NewResolver(simklClient, store, logger)
	assembler := controllers.NewAssembler(resolver, episodes, controllers.AssemblerOptions{
		KeepUnresolvedRated: cfg.KeepUnresolvedRated,
		RatingScale:         cfg.RatingScale,
		Ignore:              ignore,
	}, logger)

	return controllers.NewBackupController(tasteClient, paginator, assembler, store, controllers.BackupOptions{
		Feeds:               enabledFeeds(cfg),
		OutputFile:          cfg.OutputFile,
		WatchedEpisodesFile: cfg.WatchedEpisodesFile,
	}, logger), nil
}

func enabledFeeds(cfg *config.Config) []models.Feed {
	var feeds []models.Feed
	if cfg.ScrapeRatings {
		feeds = append(feeds, models.FeedRatings)
	}
	if cfg.ScrapeSaved {
		feeds = append(feeds, models.FeedSaved)
	}
	if cfg.ScrapeContinueWatching {
		feeds = append(feeds, models.FeedContinueWatching)
	}
	return feeds
}
