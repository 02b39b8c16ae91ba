package handlers

import (
	"net/http"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/sirupsen/logrus"
)

// FailedLookupStore reads and clears recorded resolution failures
type FailedLookupStore interface {
	FailedLookups() ([]models.FailedLookup, error)
	ClearFailedLookups() error
}

// FailedHandler lists failed lookups on GET and clears them on DELETE
type FailedHandler struct {
	store  FailedLookupStore
	logger *logrus.Logger
}

// NewFailedHandler creates a new failed lookups handler
func NewFailedHandler(store FailedLookupStore, logger *logrus.Logger) *FailedHandler {
	return &FailedHandler{
		store:  store,
		logger: logger,
	}
}

// FailedResponse represents the failed lookups response
type FailedResponse struct {
	Count   int                   `json:"count"`
	Lookups []models.FailedLookup `json:"lookups"`
}

// ServeHTTP handles the failed lookups endpoint
func (h *FailedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		lookups, err := h.store.FailedLookups()
		if err != nil {
			h.logger.WithError(err).Error("Failed to read failed lookups")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, FailedResponse{Count: len(lookups), Lookups: lookups}, h.logger)
	case http.MethodDelete:
		if err := h.store.ClearFailedLookups(); err != nil {
			h.logger.WithError(err).Error("Failed to clear failed lookups")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		h.logger.Info("Failed lookups cleared")
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
