package controllers

import (
	"strings"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
)

// animationMarkers are genre tags that send a show to the anime search scope
var animationMarkers = []string{"animation", "anime"}

// Classify infers the search category of a catalog item.
// Movies are classified by their declared category, shows by their genre tags.
func Classify(item models.SourceItem) models.Category {
	switch strings.ToLower(strings.TrimSpace(item.Category)) {
	case "movies", "movie":
		return models.CategoryMovie
	}

	for _, tag := range item.Genre {
		tag = strings.ToLower(strings.TrimSpace(tag))
		for _, marker := range animationMarkers {
			if tag == marker {
				return models.CategoryAnimation
			}
		}
	}

	return models.CategoryEpisodic
}
