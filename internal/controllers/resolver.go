package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/cache"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/metrics"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// lowConfidenceDistance is the normalized title distance above which a match is logged as suspicious
const lowConfidenceDistance = 0.5

// Searcher looks titles up in the identity service
type Searcher interface {
	Search(ctx context.Context, category models.Category, query string) ([]models.Candidate, error)
}

// SearchQuery is one call to the identity service
type SearchQuery struct {
	Category models.Category
	Query    string
}

// Tier builds the query of one fallback attempt, or reports that it does not apply
type Tier struct {
	Name  string
	Build func(title, year string, category models.Category) (SearchQuery, bool)
}

// DefaultTiers is the fallback order used to resolve a title
var DefaultTiers = []Tier{
	{
		Name: "category_with_year",
		Build: func(title, year string, category models.Category) (SearchQuery, bool) {
			return SearchQuery{Category: category, Query: withYear(title, year)}, true
		},
	},
	{
		Name: "category_title_only",
		Build: func(title, year string, category models.Category) (SearchQuery, bool) {
			if year == "" {
				return SearchQuery{}, false
			}
			return SearchQuery{Category: category, Query: title}, true
		},
	},
	{
		Name: "anime_with_year",
		Build: func(title, year string, category models.Category) (SearchQuery, bool) {
			if category == models.CategoryAnimation {
				return SearchQuery{}, false
			}
			return SearchQuery{Category: models.CategoryAnimation, Query: withYear(title, year)}, true
		},
	},
	{
		Name: "anime_title_only",
		Build: func(title, year string, category models.Category) (SearchQuery, bool) {
			if category == models.CategoryAnimation || year == "" {
				return SearchQuery{}, false
			}
			return SearchQuery{Category: models.CategoryAnimation, Query: title}, true
		},
	},
}

func withYear(title, year string) string {
	if year == "" {
		return title
	}
	return title + " " + year
}

// QueriesFor lists the searches a resolution may issue, in order
func QueriesFor(tiers []Tier, title, year string, category models.Category) []SearchQuery {
	var queries []SearchQuery
	for _, tier := range tiers {
		if q, ok := tier.Build(title, year, category); ok {
			queries = append(queries, q)
		}
	}
	return queries
}

// Resolver maps titles to canonical identities through a tiered search
type Resolver struct {
	searcher Searcher
	store    *cache.Store
	tiers    []Tier
	memo     *gocache.Cache
	logger   *logrus.Logger

	mu           sync.Mutex
	failed       map[string]struct{}
	failedLoaded bool
}

// NewResolver creates a resolver recording failures in store
func NewResolver(searcher Searcher, store *cache.Store, logger *logrus.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		store:    store,
		tiers:    DefaultTiers,
		memo:     gocache.New(6*time.Hour, 30*time.Minute),
		logger:   logger,
		failed:   map[string]struct{}{},
	}
}

// Resolve returns the identity of a title, or nil when it cannot be resolved.
// year is the normalized four digit year or empty. Not-found and transient
// service errors yield (nil, nil) and are recorded as failed lookups; a rate
// limit or cancellation is returned as an error and not recorded.
func (r *Resolver) Resolve(ctx context.Context, title, year string, category models.Category) (*models.Identity, error) {
	title = strings.TrimSpace(title)
	key := models.LookupKey(title, year, category)
	log := r.logger.WithFields(logrus.Fields{
		"title":    title,
		"year":     year,
		"category": category,
	})

	if cached, found := r.memo.Get(key); found {
		metrics.Resolutions.WithLabelValues("memo").Inc()
		ids := *cached.(*models.Identity)
		return &ids, nil
	}

	if r.isKnownFailure(key) {
		log.Debug("Skipping title that previously failed to resolve")
		metrics.Resolutions.WithLabelValues("sticky").Inc()
		return nil, nil
	}

	var tried []string
	for _, tier := range r.tiers {
		q, ok := tier.Build(title, year, category)
		if !ok {
			continue
		}
		tried = append(tried, fmt.Sprintf("%s:%q", q.Category, q.Query))

		metrics.SearchRequests.WithLabelValues(string(q.Category)).Inc()
		candidates, err := r.searcher.Search(ctx, q.Category, q.Query)
		if err != nil {
			if errors.Is(err, models.ErrRateLimited) || ctx.Err() != nil {
				metrics.Resolutions.WithLabelValues("error").Inc()
				return nil, err
			}
			log.WithError(err).WithField("tier", tier.Name).Warn("Identity search failed")
			metrics.Resolutions.WithLabelValues("error").Inc()
			r.recordFailure(title, year, category, err.Error())
			return nil, nil
		}

		if len(candidates) == 0 || candidates[0].Primary == nil {
			log.WithField("tier", tier.Name).Debug("No match in tier")
			continue
		}

		best := candidates[0]
		ids := &models.Identity{Simkl: *best.Primary}
		if best.Secondary != nil {
			ids.TMDB = *best.Secondary
		}

		if d := utils.TitleDistance(title, best.Title); d > lowConfidenceDistance {
			log.WithFields(logrus.Fields{
				"matched_title": best.Title,
				"distance":      fmt.Sprintf("%.2f", d),
			}).Warn("Low confidence identity match")
		}

		log.WithFields(logrus.Fields{
			"tier":     tier.Name,
			"simkl_id": ids.Simkl,
		}).Debug("Resolved title")
		metrics.Resolutions.WithLabelValues("resolved").Inc()
		r.memo.SetDefault(key, ids)
		out := *ids
		return &out, nil
	}

	metrics.Resolutions.WithLabelValues("not_found").Inc()
	log.Info("No identity match found")
	r.recordFailure(title, year, category, "no match found for "+strings.Join(tried, ", "))
	return nil, nil
}

// Reset forgets memoized resolutions and reloads failed lookups on next use
func (r *Resolver) Reset() {
	r.memo.Flush()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = map[string]struct{}{}
	r.failedLoaded = false
}

func (r *Resolver) isKnownFailure(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.failedLoaded {
		r.failedLoaded = true
		lookups, err := r.store.FailedLookups()
		if err != nil {
			r.logger.WithError(err).Warn("Failed to load failed lookups, retrying all titles")
		}
		for _, lookup := range lookups {
			r.failed[lookup.Key()] = struct{}{}
		}
	}

	_, found := r.failed[key]
	return found
}

func (r *Resolver) recordFailure(title, year string, category models.Category, reason string) {
	lookup := models.FailedLookup{
		Title:    title,
		Year:     year,
		Category: category,
		Error:    reason,
	}

	r.mu.Lock()
	r.failed[lookup.Key()] = struct{}{}
	r.mu.Unlock()

	if err := r.store.AppendFailedLookup(lookup); err != nil {
		r.logger.WithError(err).WithField("title", title).Error("Failed to record failed lookup")
	}
}
