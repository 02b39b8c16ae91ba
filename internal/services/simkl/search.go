package simkl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
)

// searchResult is one item of GET /search/{type}
type searchResult struct {
	Title string      `json:"title"`
	Year  flexibleInt `json:"year"`
	IDs   struct {
		SimklID flexibleInt `json:"simkl_id"`
		Simkl   flexibleInt `json:"simkl"`
		TMDB    flexibleInt `json:"tmdb"`
	} `json:"ids"`
}

// flexibleInt decodes ids that Simkl sends as numbers, numeric strings or null
type flexibleInt struct {
	value *int
}

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.value = nil
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			f.value = nil
			return nil
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Non-numeric identifiers are not usable as ids
		f.value = nil
		return nil
	}
	f.value = &n
	return nil
}

// Search queries Simkl for a title within a category.
// Results keep the service's relevance order.
func (c *Client) Search(ctx context.Context, category models.Category, query string) ([]models.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("client_id", c.clientID)

	var results []searchResult
	if err := c.doRequest(ctx, "GET", "/search/"+url.PathEscape(string(category)), params, nil, &results); err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", category, err)
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, r := range results {
		primary := r.IDs.SimklID.value
		if primary == nil {
			primary = r.IDs.Simkl.value
		}
		year := 0
		if r.Year.value != nil {
			year = *r.Year.value
		}
		candidates = append(candidates, models.Candidate{
			Title:     r.Title,
			Year:      year,
			Primary:   primary,
			Secondary: r.IDs.TMDB.value,
		})
	}

	return candidates, nil
}
