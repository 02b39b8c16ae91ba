package taste

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/config"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{
		TasteBaseURL:  server.URL,
		TasteUsername: "someone",
		TasteToken:    "secret",
	}, utils.NewDiscardLogger())
	require.NoError(t, err)
	return client
}

func TestGetPageDecodesItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/someone/ratings", r.URL.Path)
		assert.Equal(t, "96", r.URL.Query().Get("offset"))
		assert.Equal(t, "96", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":150,"items":[
			{"name":"Show A","year":2020,"category":"tv","genre":["Drama"],"slug":"show-a","user":{"rating":4}},
			{"name":"Film B","year":"2019","category":"movies","genre":[{"name":"Animation"}],"highlightRating":3.5}
		]}`))
	})

	page, err := client.GetPage(context.Background(), client.FeedURL(models.FeedRatings), 96, 96)
	require.NoError(t, err)
	assert.Equal(t, 150, page.Total)
	require.Len(t, page.Items, 2)

	show := page.Items[0]
	assert.Equal(t, models.Year("2020"), show.Year)
	assert.Equal(t, models.Tags{"Drama"}, show.Genre)
	require.NotNil(t, show.SourceRating())
	assert.Equal(t, 4.0, *show.SourceRating())

	film := page.Items[1]
	assert.Equal(t, models.Tags{"Animation"}, film.Genre)
	assert.Equal(t, 3.5, *film.SourceRating())
}

func TestGetPageRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetPage(context.Background(), client.FeedURL(models.FeedSaved), 0, 96)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrRateLimited))
}

func TestGetPageServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := client.GetPage(context.Background(), client.EpisodesURL("show-a"), 0, 96)
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrRateLimited))
	assert.Contains(t, err.Error(), "502")
}

func TestFeedURLs(t *testing.T) {
	client := &Client{baseURL: "https://www.taste.io/api", username: "someone"}
	assert.Equal(t, "https://www.taste.io/api/users/someone/ratings", client.FeedURL(models.FeedRatings))
	assert.Equal(t, "https://www.taste.io/api/users/someone/saved", client.FeedURL(models.FeedSaved))
	assert.Equal(t, "https://www.taste.io/api/browse/continue-watching", client.FeedURL(models.FeedContinueWatching))
	assert.Equal(t, "https://www.taste.io/api/tv/show-a/episodes", client.EpisodesURL("show-a"))
}
