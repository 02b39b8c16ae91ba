package controllers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/sirupsen/logrus"
)

// Uploader writes entries to the target service
type Uploader interface {
	AddRatings(ctx context.Context, rating int, items models.Backup) error
	AddToList(ctx context.Context, items models.Backup) error
	AddHistory(ctx context.Context, shows []models.WatchedShowLedger) error
}

// ImportReport summarizes one import
type ImportReport struct {
	Rated         int `json:"rated"`
	Listed        int `json:"listed"`
	HistoryShows  int `json:"history_shows"`
	SkippedNoIDs  int `json:"skipped_no_ids"`
	FailedUploads int `json:"failed_uploads"`
}

// ImportController uploads a previously written backup to Simkl
type ImportController struct {
	uploader Uploader
	logger   *logrus.Logger
}

// NewImportController creates a new import controller
func NewImportController(uploader Uploader, logger *logrus.Logger) *ImportController {
	return &ImportController{
		uploader: uploader,
		logger:   logger,
	}
}

// ratingGroup is the set of entries sharing one rounded rating
type ratingGroup struct {
	rating int
	items  models.Backup
}

// Import reads the backup and optional ledger and uploads them.
// Entries without ids are skipped. Upload failures are logged and counted;
// a rate limit stops the import.
func (c *ImportController) Import(ctx context.Context, backupPath, ledgerPath string) (*ImportReport, error) {
	var backup models.Backup
	if err := utils.ReadJSONFile(backupPath, &backup); err != nil {
		return nil, fmt.Errorf("failed to load backup: %w", err)
	}

	report := &ImportReport{}
	rated, listed := c.split(backup, report)

	for _, group := range groupByRating(rated) {
		log := c.logger.WithFields(logrus.Fields{
			"rating": group.rating,
			"count":  group.items.Len(),
		})
		// Ratings and completed status are uploaded independently
		if err := c.uploader.AddRatings(ctx, group.rating, group.items); err != nil {
			if halts(ctx, err) {
				return report, err
			}
			log.WithError(err).Error("Failed to upload ratings")
			report.FailedUploads++
		} else {
			report.Rated += group.items.Len()
			log.Info("Uploaded ratings")
		}
		if err := c.uploader.AddToList(ctx, group.items); err != nil {
			if halts(ctx, err) {
				return report, err
			}
			log.WithError(err).Error("Failed to mark rated entries completed")
			report.FailedUploads++
		}
	}

	if listed.Len() > 0 {
		if err := c.uploader.AddToList(ctx, listed); err != nil {
			if halts(ctx, err) {
				return report, err
			}
			c.logger.WithError(err).Error("Failed to upload list entries")
			report.FailedUploads++
		} else {
			report.Listed = listed.Len()
			c.logger.WithField("count", listed.Len()).Info("Uploaded list entries")
		}
	}

	if ledgerPath != "" {
		if err := c.importLedger(ctx, ledgerPath, report); err != nil {
			return report, err
		}
	}

	if report.FailedUploads > 0 {
		return report, fmt.Errorf("%d uploads failed", report.FailedUploads)
	}
	return report, nil
}

func (c *ImportController) importLedger(ctx context.Context, path string, report *ImportReport) error {
	var ledger []models.WatchedShowLedger
	if err := utils.ReadJSONFile(path, &ledger); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.WithField("path", path).Debug("No watched episodes file, skipping history")
			return nil
		}
		return fmt.Errorf("failed to load watched episodes: %w", err)
	}

	shows := make([]models.WatchedShowLedger, 0, len(ledger))
	for _, show := range ledger {
		if show.IDs == nil {
			report.SkippedNoIDs++
			continue
		}
		if len(show.Seasons) == 0 {
			continue
		}
		shows = append(shows, show)
	}
	if len(shows) == 0 {
		return nil
	}

	if err := c.uploader.AddHistory(ctx, shows); err != nil {
		if halts(ctx, err) {
			return err
		}
		c.logger.WithError(err).Error("Failed to upload watched episodes")
		report.FailedUploads++
		return nil
	}
	report.HistoryShows = len(shows)
	c.logger.WithField("count", len(shows)).Info("Uploaded watched episodes")
	return nil
}

// split separates rated completed entries from list-only entries, dropping those without ids
func (c *ImportController) split(backup models.Backup, report *ImportReport) (rated, listed models.Backup) {
	rated, listed = models.NewBackup(), models.NewBackup()
	place := func(entry models.MediaEntry, show bool) {
		if entry.IDs == nil {
			c.logger.WithField("title", entry.Title).Debug("Skipping entry without ids")
			report.SkippedNoIDs++
			return
		}
		target := &listed
		if entry.Status == models.StatusCompleted && entry.Rating != nil {
			target = &rated
		}
		if show {
			target.Shows = append(target.Shows, entry)
		} else {
			target.Movies = append(target.Movies, entry)
		}
	}
	for _, entry := range backup.Movies {
		place(entry, false)
	}
	for _, entry := range backup.Shows {
		place(entry, true)
	}
	return rated, listed
}

// groupByRating buckets rated entries by rounded rating, highest first
func groupByRating(rated models.Backup) []ratingGroup {
	sortByRating(rated.Movies)
	sortByRating(rated.Shows)

	index := map[int]int{}
	var groups []ratingGroup
	bucket := func(entry models.MediaEntry) *models.Backup {
		r := int(math.Round(*entry.Rating))
		i, ok := index[r]
		if !ok {
			i = len(groups)
			index[r] = i
			groups = append(groups, ratingGroup{rating: r, items: models.NewBackup()})
		}
		return &groups[i].items
	}
	for _, entry := range rated.Movies {
		b := bucket(entry)
		b.Movies = append(b.Movies, entry)
	}
	for _, entry := range rated.Shows {
		b := bucket(entry)
		b.Shows = append(b.Shows, entry)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].rating > groups[j].rating })
	return groups
}

func sortByRating(entries []models.MediaEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return *entries[i].Rating > *entries[j].Rating })
}
