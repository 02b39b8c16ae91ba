package simkl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/config"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusError is returned when Simkl answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Unwrap exposes quota exhaustion as models.ErrRateLimited
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return models.ErrRateLimited
	}
	return nil
}

// Client handles communication with the Simkl API
type Client struct {
	baseURL     string
	clientID    string
	accessToken string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewClient creates a new Simkl API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.SimklClientID == "" {
		return nil, errors.New("simkl client id is required")
	}
	baseURL := strings.TrimRight(cfg.SimklBaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("simkl base url is required")
	}

	return &Client{
		baseURL:     baseURL,
		clientID:    cfg.SimklClientID,
		accessToken: cfg.SimklAccessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}, nil
}

// doRequest performs a single HTTP request to the Simkl API
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    fullURL,
	}).Debug("Making Simkl API request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("simkl-api-key", c.clientID)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
