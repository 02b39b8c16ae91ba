package simkl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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
		SimklBaseURL:     server.URL,
		SimklClientID:    "client",
		SimklAccessToken: "token",
	}, utils.NewDiscardLogger())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresClientID(t *testing.T) {
	_, err := NewClient(&config.Config{SimklBaseURL: "https://api.simkl.com"}, utils.NewDiscardLogger())
	assert.Error(t, err)
}

func TestSearchDecodesCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/anime", r.URL.Path)
		assert.Equal(t, "Frieren 2023", r.URL.Query().Get("q"))
		assert.Equal(t, "client", r.URL.Query().Get("client_id"))
		assert.Equal(t, "client", r.Header.Get("simkl-api-key"))
		_, _ = w.Write([]byte(`[
			{"title":"Frieren","year":2023,"ids":{"simkl_id":111,"tmdb":"222"}},
			{"title":"Other","year":null,"ids":{"simkl":5}},
			{"title":"No ids","ids":{}}
		]`))
	})

	candidates, err := client.Search(context.Background(), models.CategoryAnimation, "Frieren 2023")
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	require.NotNil(t, candidates[0].Primary)
	assert.Equal(t, 111, *candidates[0].Primary)
	require.NotNil(t, candidates[0].Secondary)
	assert.Equal(t, 222, *candidates[0].Secondary)
	assert.Equal(t, 2023, candidates[0].Year)

	require.NotNil(t, candidates[1].Primary)
	assert.Equal(t, 5, *candidates[1].Primary)
	assert.Nil(t, candidates[1].Secondary)

	assert.Nil(t, candidates[2].Primary)
}

func TestSearchRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), models.CategoryMovie, "Anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrRateLimited))
}

func TestSearchEmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.Search(context.Background(), models.CategoryMovie, "  ")
	assert.Error(t, err)
}

func TestAddRatingsSendsBody(t *testing.T) {
	rating := 8.0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sync/ratings", r.URL.Path)
		assert.Equal(t, "8", r.URL.Query().Get("rating"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var body models.Backup
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Movies, 1)
		assert.Equal(t, "Film", body.Movies[0].Title)
		w.WriteHeader(http.StatusCreated)
	})

	err := client.AddRatings(context.Background(), 8, models.Backup{
		Movies: []models.MediaEntry{{Title: "Film", Rating: &rating, Year: "2001", Status: models.StatusCompleted, IDs: &models.Identity{Simkl: 1}}},
		Shows:  []models.MediaEntry{},
	})
	assert.NoError(t, err)
}

func TestUploadDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	err := client.AddToList(context.Background(), models.NewBackup())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAddHistoryWrapsShows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync/history", r.URL.Path)
		var body struct {
			Shows []models.WatchedShowLedger `json:"shows"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Shows, 1)
		assert.Equal(t, 1, body.Shows[0].Seasons[0].Number)
	})

	err := client.AddHistory(context.Background(), []models.WatchedShowLedger{{
		Title:   "Show A",
		Year:    "2020",
		IDs:     &models.Identity{Simkl: 111},
		Seasons: []models.SeasonGroup{{Number: 1, Episodes: []models.EpisodeNumber{{Number: 1}}}},
	}})
	assert.NoError(t, err)
}
