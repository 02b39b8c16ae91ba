package simkl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// maxUploadRetries bounds retries of one upload request
const maxUploadRetries = 4

// historyPayload is the body of POST /sync/history
type historyPayload struct {
	Shows []models.WatchedShowLedger `json:"shows"`
}

// AddRatings sends entries sharing one rounded rating to /sync/ratings
func (c *Client) AddRatings(ctx context.Context, rating int, items models.Backup) error {
	query := url.Values{}
	query.Set("rating", strconv.Itoa(rating))
	if err := c.upload(ctx, "/sync/ratings", query, items); err != nil {
		return fmt.Errorf("failed to send ratings: %w", err)
	}
	return nil
}

// AddToList sends entries to /sync/add-to-list; each entry's "to" picks the list
func (c *Client) AddToList(ctx context.Context, items models.Backup) error {
	if err := c.upload(ctx, "/sync/add-to-list", nil, items); err != nil {
		return fmt.Errorf("failed to add to list: %w", err)
	}
	return nil
}

// AddHistory sends watched episodes for all shows in a single request
func (c *Client) AddHistory(ctx context.Context, shows []models.WatchedShowLedger) error {
	if err := c.upload(ctx, "/sync/history", nil, historyPayload{Shows: shows}); err != nil {
		return fmt.Errorf("failed to send watched history: %w", err)
	}
	return nil
}

// upload POSTs body, retrying server errors and throttling with exponential backoff.
// Other client errors are returned immediately.
func (c *Client) upload(ctx context.Context, path string, query url.Values, body interface{}) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 30 * time.Second

	attempt := 0
	operation := func() error {
		attempt++
		err := c.doRequest(ctx, http.MethodPost, path, query, body, nil)
		if err == nil {
			return nil
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < 500 && statusErr.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"path":    path,
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("Simkl upload failed, retrying")
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, maxUploadRetries), ctx), notify)
}
