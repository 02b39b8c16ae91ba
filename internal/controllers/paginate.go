package controllers

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/cache"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/metrics"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/sirupsen/logrus"
)

// PageFetcher fetches one offset/limit page of a listing
type PageFetcher interface {
	GetPage(ctx context.Context, endpoint string, offset, limit int) (*models.Page, error)
}

// checkpoint is the cached form of a listing being collected
type checkpoint struct {
	Total int                 `json:"total"`
	Items []models.SourceItem `json:"items"`
}

// Paginator collects complete listings page by page, checkpointing into the cache
type Paginator struct {
	fetcher  PageFetcher
	store    *cache.Store
	pageSize int
	wait     func(ctx context.Context) error
	logger   *logrus.Logger
}

// PaginatorOption configures a Paginator
type PaginatorOption func(*Paginator)

// WithWait replaces the pause taken between page requests
func WithWait(wait func(ctx context.Context) error) PaginatorOption {
	return func(p *Paginator) {
		if wait != nil {
			p.wait = wait
		}
	}
}

// NewPaginator creates a paginator pausing a random duration in [minDelay, maxDelay] between pages
func NewPaginator(fetcher PageFetcher, store *cache.Store, pageSize int, minDelay, maxDelay time.Duration, logger *logrus.Logger, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		fetcher:  fetcher,
		store:    store,
		pageSize: pageSize,
		wait:     JitterWait(minDelay, maxDelay),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// JitterWait sleeps a uniformly random duration between min and max, or until ctx is done
func JitterWait(min, max time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		d := min
		if max > min {
			d += time.Duration(rand.Int63n(int64(max-min) + 1))
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// FetchAll returns every item of endpoint. A complete cached listing under
// cacheKey is returned without any request; otherwise the listing is fetched
// from offset 0 and checkpointed after every page.
func (p *Paginator) FetchAll(ctx context.Context, endpoint, cacheKey string) ([]models.SourceItem, error) {
	log := p.logger.WithFields(logrus.Fields{
		"endpoint":  endpoint,
		"cache_key": cacheKey,
	})

	var cached checkpoint
	if p.store.Load(cacheKey, &cached) {
		if len(cached.Items) >= cached.Total {
			log.WithField("count", len(cached.Items)).Info("Using cached listing")
			return cached.Items, nil
		}
		log.WithFields(logrus.Fields{
			"cached": len(cached.Items),
			"total":  cached.Total,
		}).Info("Cached listing is incomplete, fetching again")
	}

	cp := checkpoint{Items: []models.SourceItem{}}
	for offset := 0; ; offset += p.pageSize {
		if offset > 0 {
			if err := p.wait(ctx); err != nil {
				return nil, err
			}
		}

		page, err := p.fetcher.GetPage(ctx, endpoint, offset, p.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page at offset %d: %w", offset, err)
		}
		metrics.PagesFetched.Inc()

		if offset == 0 {
			cp.Total = page.Total
		}
		cp.Items = append(cp.Items, page.Items...)
		// Listings without a total are treated as a single page
		if cp.Total < len(cp.Items) {
			cp.Total = len(cp.Items)
		}

		if err := p.store.Set(cacheKey, cp); err != nil {
			log.WithError(err).Warn("Failed to write checkpoint")
		}

		log.WithFields(logrus.Fields{
			"offset":  offset,
			"fetched": len(cp.Items),
			"total":   cp.Total,
		}).Debug("Fetched page")

		if len(cp.Items) >= cp.Total {
			break
		}
		if len(page.Items) == 0 {
			log.WithFields(logrus.Fields{
				"fetched": len(cp.Items),
				"total":   cp.Total,
			}).Warn("Listing returned an empty page before reaching its total")
			break
		}
	}

	log.WithField("count", len(cp.Items)).Info("Fetched listing")
	return cp.Items, nil
}
