package controllers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/cache"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/stretchr/testify/require"
)

// countingBackend counts partition writes on top of a file backend
type countingBackend struct {
	*cache.FileBackend
	mu     sync.Mutex
	writes map[string]int
}

func (b *countingBackend) Write(name string, data []byte) error {
	b.mu.Lock()
	b.writes[name]++
	b.mu.Unlock()
	return b.FileBackend.Write(name, data)
}

func (b *countingBackend) Writes(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes[name]
}

func newTestStore(t *testing.T) (*cache.Store, *countingBackend) {
	t.Helper()
	fb, err := cache.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	backend := &countingBackend{FileBackend: fb, writes: map[string]int{}}
	return cache.NewStore(backend, "ratings_cache", 24*time.Hour, utils.NewDiscardLogger()), backend
}

type searchCall struct {
	Category models.Category
	Query    string
}

// fakeSearcher answers searches from a table keyed by "category|query"
type fakeSearcher struct {
	results map[string][]models.Candidate
	errs    map[string]error
	calls   []searchCall
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: map[string][]models.Candidate{},
		errs:    map[string]error{},
	}
}

func (f *fakeSearcher) on(category models.Category, query string, primary, secondary int) {
	p := primary
	c := models.Candidate{Title: query, Primary: &p}
	if secondary != 0 {
		s := secondary
		c.Secondary = &s
	}
	f.results[string(category)+"|"+query] = []models.Candidate{c}
}

func (f *fakeSearcher) fail(category models.Category, query string, err error) {
	f.errs[string(category)+"|"+query] = err
}

func (f *fakeSearcher) Search(ctx context.Context, category models.Category, query string) ([]models.Candidate, error) {
	f.calls = append(f.calls, searchCall{Category: category, Query: query})
	key := string(category) + "|" + query
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.results[key], nil
}

type pageCall struct {
	Endpoint string
	Offset   int
	Limit    int
}

// fakeFetcher serves fixed listings per endpoint
type fakeFetcher struct {
	listings map[string][]models.SourceItem
	errAt    map[string]error // "endpoint@offset"
	calls    []pageCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		listings: map[string][]models.SourceItem{},
		errAt:    map[string]error{},
	}
}

func (f *fakeFetcher) GetPage(ctx context.Context, endpoint string, offset, limit int) (*models.Page, error) {
	f.calls = append(f.calls, pageCall{Endpoint: endpoint, Offset: offset, Limit: limit})
	if err, ok := f.errAt[fmt.Sprintf("%s@%d", endpoint, offset)]; ok {
		return nil, err
	}
	all := f.listings[endpoint]
	page := &models.Page{Total: len(all), Items: []models.SourceItem{}}
	if offset < len(all) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		page.Items = all[offset:end]
	}
	return page, nil
}

func noWait(context.Context) error { return nil }

func numberedItems(n int) []models.SourceItem {
	items := make([]models.SourceItem, n)
	for i := range items {
		items[i] = models.SourceItem{Name: fmt.Sprintf("Title %d", i), Year: "2001", Category: "movies"}
	}
	return items
}

func rating(v float64) *float64 { return &v }
