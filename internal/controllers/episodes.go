package controllers

import (
	"context"
	"fmt"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/cache"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
)

// EpisodeSource returns the watched episode markers of a show
type EpisodeSource interface {
	WatchedEpisodes(ctx context.Context, slug string) ([]models.EpisodeMarker, error)
}

// AggregateEpisodes groups watched markers into seasons.
// Season 0 (specials) is discarded; seasons and episodes keep first-seen order
// and repeated markers are kept once.
func AggregateEpisodes(markers []models.EpisodeMarker) []models.SeasonGroup {
	var groups []models.SeasonGroup
	seasonIndex := map[int]int{}
	seen := map[models.EpisodeMarker]struct{}{}

	for _, marker := range markers {
		if marker.Season == 0 {
			continue
		}
		if _, dup := seen[marker]; dup {
			continue
		}
		seen[marker] = struct{}{}

		idx, ok := seasonIndex[marker.Season]
		if !ok {
			idx = len(groups)
			seasonIndex[marker.Season] = idx
			groups = append(groups, models.SeasonGroup{Number: marker.Season})
		}
		groups[idx].Episodes = append(groups[idx].Episodes, models.EpisodeNumber{Number: marker.Episode})
	}

	return groups
}

// FlattenSeasons turns season groups back into markers, in group order
func FlattenSeasons(groups []models.SeasonGroup) []models.EpisodeMarker {
	var markers []models.EpisodeMarker
	for _, group := range groups {
		for _, ep := range group.Episodes {
			markers = append(markers, models.EpisodeMarker{Season: group.Number, Episode: ep.Number})
		}
	}
	return markers
}

// WatchedMarkers keeps the episode items the user has tracked
func WatchedMarkers(items []models.SourceItem) []models.EpisodeMarker {
	var markers []models.EpisodeMarker
	for _, item := range items {
		if item.User == nil || !item.User.Tracked {
			continue
		}
		markers = append(markers, models.EpisodeMarker{Season: item.Season, Episode: item.Episode})
	}
	return markers
}

// CatalogEpisodes reads episode listings through the paginator so each show is checkpointed
type CatalogEpisodes struct {
	paginator *Paginator
	urlFor    func(slug string) string
}

var _ EpisodeSource = (*CatalogEpisodes)(nil)

// NewCatalogEpisodes creates an episode source; urlFor maps a show slug to its listing endpoint
func NewCatalogEpisodes(paginator *Paginator, urlFor func(slug string) string) *CatalogEpisodes {
	return &CatalogEpisodes{paginator: paginator, urlFor: urlFor}
}

// WatchedEpisodes fetches the show's episode listing and returns its tracked episodes
func (c *CatalogEpisodes) WatchedEpisodes(ctx context.Context, slug string) ([]models.EpisodeMarker, error) {
	items, err := c.paginator.FetchAll(ctx, c.urlFor(slug), cache.EpisodesKey(slug))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch episodes of %s: %w", slug, err)
	}
	return WatchedMarkers(items), nil
}
