package models

import "errors"

// Category is the search scope used when resolving an item against Simkl
type Category string

const (
	CategoryMovie     Category = "movie"
	CategoryEpisodic  Category = "tv"
	CategoryAnimation Category = "anime"
)

// IsShow reports whether entries of this category belong in the shows list
func (c Category) IsShow() bool {
	return c != CategoryMovie
}

// Status represents the list an entry is placed in on Simkl
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusPlanToWatch Status = "plantowatch"
	StatusWatching    Status = "watching"
)

// Feed names a source catalog listing
type Feed string

const (
	FeedRatings          Feed = "ratings"
	FeedSaved            Feed = "saved"
	FeedContinueWatching Feed = "continue_watching"
)

// ErrRateLimited is wrapped by service clients when an upstream signals quota exhaustion
var ErrRateLimited = errors.New("rate limited by upstream service")
