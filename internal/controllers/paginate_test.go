package controllers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratingsURL = "https://taste.test/users/me/ratings"

func TestFetchAllTwoPages(t *testing.T) {
	store, backend := newTestStore(t)
	fetcher := newFakeFetcher()
	fetcher.listings[ratingsURL] = numberedItems(150)

	waits := 0
	paginator := NewPaginator(fetcher, store, 96, time.Second, time.Second, utils.NewDiscardLogger(),
		WithWait(func(context.Context) error { waits++; return nil }))

	items, err := paginator.FetchAll(context.Background(), ratingsURL, "default")
	require.NoError(t, err)
	assert.Len(t, items, 150)
	assert.Equal(t, []pageCall{
		{Endpoint: ratingsURL, Offset: 0, Limit: 96},
		{Endpoint: ratingsURL, Offset: 96, Limit: 96},
	}, fetcher.calls)
	assert.Equal(t, 2, backend.Writes("ratings_cache"))
	assert.Equal(t, 1, waits)

	var cp checkpoint
	require.True(t, store.Load("default", &cp))
	assert.Equal(t, 150, cp.Total)
	assert.Len(t, cp.Items, 150)
	assert.Equal(t, "Title 149", cp.Items[149].Name)
}

func TestFetchAllUsesCompleteCheckpoint(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Set("saved", checkpoint{Total: 2, Items: numberedItems(2)}))

	fetcher := newFakeFetcher()
	paginator := NewPaginator(fetcher, store, 96, time.Second, time.Second, utils.NewDiscardLogger(), WithWait(noWait))

	items, err := paginator.FetchAll(context.Background(), "https://taste.test/saved", "saved")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Empty(t, fetcher.calls)
}

func TestFetchAllRefetchesIncompleteCheckpoint(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Set("default", checkpoint{Total: 5, Items: numberedItems(2)}))

	fetcher := newFakeFetcher()
	fetcher.listings[ratingsURL] = numberedItems(5)
	paginator := NewPaginator(fetcher, store, 3, time.Second, time.Second, utils.NewDiscardLogger(), WithWait(noWait))

	items, err := paginator.FetchAll(context.Background(), ratingsURL, "default")
	require.NoError(t, err)
	assert.Len(t, items, 5)
	require.Len(t, fetcher.calls, 2)
	assert.Equal(t, 0, fetcher.calls[0].Offset)
}

func TestFetchAllPageErrorKeepsEarlierCheckpoint(t *testing.T) {
	store, _ := newTestStore(t)
	fetcher := newFakeFetcher()
	fetcher.listings[ratingsURL] = numberedItems(10)
	fetcher.errAt[fmt.Sprintf("%s@%d", ratingsURL, 4)] = fmt.Errorf("page: %w", models.ErrRateLimited)
	paginator := NewPaginator(fetcher, store, 4, time.Second, time.Second, utils.NewDiscardLogger(), WithWait(noWait))

	items, err := paginator.FetchAll(context.Background(), ratingsURL, "default")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Nil(t, items)

	var cp checkpoint
	require.True(t, store.Load("default", &cp))
	assert.Equal(t, 10, cp.Total)
	assert.Len(t, cp.Items, 4)
}

// shortFetcher reports a total larger than what it actually serves
type shortFetcher struct{ calls int }

func (f *shortFetcher) GetPage(ctx context.Context, endpoint string, offset, limit int) (*models.Page, error) {
	f.calls++
	if offset == 0 {
		return &models.Page{Total: 50, Items: numberedItems(3)}, nil
	}
	return &models.Page{Total: 50}, nil
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	store, _ := newTestStore(t)
	fetcher := &shortFetcher{}
	paginator := NewPaginator(fetcher, store, 3, time.Second, time.Second, utils.NewDiscardLogger(), WithWait(noWait))

	items, err := paginator.FetchAll(context.Background(), ratingsURL, "default")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 2, fetcher.calls)
}

func TestFetchAllEmptyListing(t *testing.T) {
	store, _ := newTestStore(t)
	fetcher := newFakeFetcher()
	paginator := NewPaginator(fetcher, store, 96, time.Second, time.Second, utils.NewDiscardLogger(), WithWait(noWait))

	items, err := paginator.FetchAll(context.Background(), ratingsURL, "default")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, fetcher.calls, 1)
}

func TestJitterWaitHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := JitterWait(time.Hour, 2*time.Hour)(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	start := time.Now()
	require.NoError(t, JitterWait(time.Millisecond, 5*time.Millisecond)(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}
