package controllers

import (
	"testing"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		item models.SourceItem
		want models.Category
	}{
		{"movie", models.SourceItem{Category: "movies", Genre: models.Tags{"Animation"}}, models.CategoryMovie},
		{"singular movie", models.SourceItem{Category: "Movie"}, models.CategoryMovie},
		{"drama show", models.SourceItem{Category: "tv", Genre: models.Tags{"Drama"}}, models.CategoryEpisodic},
		{"animated show", models.SourceItem{Category: "tv", Genre: models.Tags{"Comedy", "animation"}}, models.CategoryAnimation},
		{"anime tag", models.SourceItem{Category: "tv", Genre: models.Tags{" Anime "}}, models.CategoryAnimation},
		{"no category", models.SourceItem{}, models.CategoryEpisodic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.item))
		})
	}
}
