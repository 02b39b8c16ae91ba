package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/cache"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/metrics"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/sirupsen/logrus"
)

// Run results
const (
	RunSuccess = "success"
	RunPartial = "partial"
	RunFailed  = "failed"
)

// FeedSource resolves feed listing endpoints
type FeedSource interface {
	FeedURL(feed models.Feed) string
}

// BackupOptions selects the feeds and output files of a run
type BackupOptions struct {
	Feeds               []models.Feed
	OutputFile          string
	WatchedEpisodesFile string
}

// RunReport summarizes one backup run
type RunReport struct {
	StartedAt     time.Time              `json:"started_at"`
	FinishedAt    time.Time              `json:"finished_at"`
	Result        string                 `json:"result"`
	Halted        bool                   `json:"halted"`
	Error         string                 `json:"error,omitempty"`
	FeedCounts    map[models.Feed]int    `json:"feed_counts"`
	FeedErrors    map[models.Feed]string `json:"feed_errors,omitempty"`
	Movies        int                    `json:"movies"`
	Shows         int                    `json:"shows"`
	LedgerShows   int                    `json:"ledger_shows"`
	Stats         AssemblyStats          `json:"stats"`
	FailedLookups int                    `json:"failed_lookups"`
}

// BackupController pulls the feeds, assembles the backup and writes it out
type BackupController struct {
	feeds     FeedSource
	paginator *Paginator
	assembler *Assembler
	store     *cache.Store
	opts      BackupOptions
	logger    *logrus.Logger
}

// NewBackupController creates a new backup controller
func NewBackupController(feeds FeedSource, paginator *Paginator, assembler *Assembler, store *cache.Store, opts BackupOptions, logger *logrus.Logger) *BackupController {
	return &BackupController{
		feeds:     feeds,
		paginator: paginator,
		assembler: assembler,
		store:     store,
		opts:      opts,
		logger:    logger,
	}
}

// FeedCacheKey returns the cache key a feed is checkpointed under
func FeedCacheKey(feed models.Feed) string {
	if feed == models.FeedRatings {
		return cache.DefaultKey
	}
	return string(feed)
}

// Run executes one backup. A failing saved or in-progress feed is skipped; a rate
// limit or a failing ratings feed stops the run. The backup built so far is written
// unless the run stopped before producing any entry.
func (c *BackupController) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		StartedAt:  time.Now(),
		FeedCounts: map[models.Feed]int{},
		FeedErrors: map[models.Feed]string{},
	}
	c.logger.WithField("feeds", c.opts.Feeds).Info("Starting backup run")

	listings := map[models.Feed][]models.SourceItem{}
	var runErr error
	halted := false
	for _, feed := range c.opts.Feeds {
		items, err := c.paginator.FetchAll(ctx, c.feeds.FeedURL(feed), FeedCacheKey(feed))
		if err != nil {
			report.FeedErrors[feed] = err.Error()
			if halts(ctx, err) {
				runErr = fmt.Errorf("failed to fetch %s feed: %w", feed, err)
				halted = true
				break
			}
			if feed == models.FeedRatings {
				// Saved and in-progress passes dedupe against rated entries
				runErr = fmt.Errorf("failed to fetch %s feed, skipping remaining feeds: %w", feed, err)
				break
			}
			c.logger.WithError(err).WithField("feed", feed).Error("Failed to fetch feed, skipping it")
			continue
		}
		listings[feed] = items
		report.FeedCounts[feed] = len(items)
	}

	state := NewAssemblyState()
	if runErr == nil {
		var err error
		state, err = c.assembler.Assemble(ctx,
			listings[models.FeedRatings],
			listings[models.FeedSaved],
			listings[models.FeedContinueWatching],
		)
		if err != nil {
			runErr = fmt.Errorf("failed to assemble backup: %w", err)
			halted = true
		}
	}

	if runErr != nil && state.Backup.Len() == 0 {
		c.logger.WithField("path", c.opts.OutputFile).Warn("Run produced no entries, keeping the previous backup")
	} else if err := c.write(state); err != nil {
		if runErr == nil {
			runErr = err
		}
		c.logger.WithError(err).Error("Failed to write backup")
	}

	if lookups, err := c.store.FailedLookups(); err != nil {
		c.logger.WithError(err).Warn("Failed to read failed lookups")
	} else {
		report.FailedLookups = len(lookups)
	}

	report.Movies = len(state.Backup.Movies)
	report.Shows = len(state.Backup.Shows)
	report.LedgerShows = len(state.Ledger)
	report.Stats = state.Stats
	report.Halted = halted
	report.FinishedAt = time.Now()

	switch {
	case runErr != nil && state.Backup.Len() > 0:
		report.Result = RunPartial
	case runErr != nil:
		report.Result = RunFailed
	case len(report.FeedErrors) > 0:
		report.Result = RunPartial
	default:
		report.Result = RunSuccess
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	metrics.Runs.WithLabelValues(report.Result).Inc()

	c.logger.WithFields(logrus.Fields{
		"result":         report.Result,
		"movies":         report.Movies,
		"shows":          report.Shows,
		"ledger_shows":   report.LedgerShows,
		"failed_lookups": report.FailedLookups,
		"duration":       report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	}).Info("Backup run finished")

	return report, runErr
}

func (c *BackupController) write(state *AssemblyState) error {
	if err := utils.WriteJSONFile(c.opts.OutputFile, state.Backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	c.logger.WithField("path", c.opts.OutputFile).Info("Backup written")

	if len(state.Ledger) == 0 || c.opts.WatchedEpisodesFile == "" {
		return nil
	}
	if err := utils.WriteJSONFile(c.opts.WatchedEpisodesFile, state.Ledger); err != nil {
		return fmt.Errorf("failed to write watched episodes file: %w", err)
	}
	c.logger.WithField("path", c.opts.WatchedEpisodesFile).Info("Watched episodes written")
	return nil
}

// halts reports whether an error must stop the whole run
func halts(ctx context.Context, err error) bool {
	return errors.Is(err, models.ErrRateLimited) || ctx.Err() != nil
}
