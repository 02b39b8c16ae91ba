package taste

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/config"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/sirupsen/logrus"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
}

// Client fetches paginated JSON listings from the taste.io API
type Client struct {
	baseURL    string
	username   string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new taste.io client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TasteBaseURL == "" {
		return nil, fmt.Errorf("taste.io base URL is required")
	}

	return &Client{
		baseURL:  cfg.TasteBaseURL,
		username: cfg.TasteUsername,
		token:    cfg.TasteToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// FeedURL returns the listing endpoint of a feed
func (c *Client) FeedURL(feed models.Feed) string {
	switch feed {
	case models.FeedSaved:
		return fmt.Sprintf("%s/users/%s/saved", c.baseURL, url.PathEscape(c.username))
	case models.FeedContinueWatching:
		return c.baseURL + "/browse/continue-watching"
	default:
		return fmt.Sprintf("%s/users/%s/ratings", c.baseURL, url.PathEscape(c.username))
	}
}

// EpisodesURL returns the episode listing endpoint of a show
func (c *Client) EpisodesURL(slug string) string {
	return fmt.Sprintf("%s/tv/%s/episodes", c.baseURL, url.PathEscape(slug))
}

// GetPage fetches one page of endpoint at the given offset
func (c *Client) GetPage(ctx context.Context, endpoint string, offset, limit int) (*models.Page, error) {
	pageURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid taste.io URL: %w", err)
	}
	params := pageURL.Query()
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	pageURL.RawQuery = params.Encode()
	finalURL := pageURL.String()

	c.logger.WithFields(logrus.Fields{
		"url":    finalURL,
		"offset": offset,
		"limit":  limit,
	}).Debug("Requesting taste.io page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("taste.io request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: taste.io returned status %d", models.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("taste.io returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page models.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode taste.io page: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"offset": offset,
		"count":  len(page.Items),
		"total":  page.Total,
	}).Debug("taste.io page received")

	return &page, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("DNT", "1")
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
