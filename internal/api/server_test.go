package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/api/handlers"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/controllers"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuns struct {
	running  bool
	last     *controllers.RunReport
	triggers int
}

func (f *fakeRuns) Running() bool { return f.running }
func (f *fakeRuns) LastReport() *controllers.RunReport { return f.last }
func (f *fakeRuns) Trigger() bool {
	if f.running {
		return false
	}
	f.triggers++
	return true
}

type fakeFailed struct {
	lookups []models.FailedLookup
	cleared bool
}

func (f *fakeFailed) FailedLookups() ([]models.FailedLookup, error) { return f.lookups, nil }
func (f *fakeFailed) ClearFailedLookups() error {
	f.cleared = true
	f.lookups = nil
	return nil
}

func newTestHandler(runs *fakeRuns, failed *fakeFailed) http.Handler {
	return NewServer("0", runs, failed, utils.NewDiscardLogger()).Handler()
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&fakeRuns{}, &fakeFailed{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestStatusReportsLastRun(t *testing.T) {
	runs := &fakeRuns{last: &controllers.RunReport{Result: controllers.RunPartial, Movies: 3}}
	rec := httptest.NewRecorder()
	newTestHandler(runs, &fakeFailed{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Running)
	require.NotNil(t, resp.LastRun)
	assert.Equal(t, controllers.RunPartial, resp.LastRun.Result)
	assert.Equal(t, 3, resp.LastRun.Movies)
}

func TestRunTrigger(t *testing.T) {
	runs := &fakeRuns{}
	h := newTestHandler(runs, &fakeFailed{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, runs.triggers)

	runs.running = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFailedLookupsListAndClear(t *testing.T) {
	failed := &fakeFailed{lookups: []models.FailedLookup{{Title: "Lost", Year: "1999", Category: models.CategoryMovie, Error: "no match"}}}
	h := newTestHandler(&fakeRuns{}, failed)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/failed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.FailedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Lost", resp.Lookups[0].Title)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/failed", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, failed.cleared)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&fakeRuns{}, &fakeFailed{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
