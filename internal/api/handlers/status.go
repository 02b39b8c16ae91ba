package handlers

import (
	"net/http"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/controllers"
	"github.com/sirupsen/logrus"
)

// RunTracker exposes the state of scheduled backups
type RunTracker interface {
	Running() bool
	LastReport() *controllers.RunReport
	Trigger() bool
}

// StatusHandler reports the last backup run
type StatusHandler struct {
	runs   RunTracker
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(runs RunTracker, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		runs:   runs,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Running bool                   `json:"running"`
	LastRun *controllers.RunReport `json:"last_run"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Running: h.runs.Running(),
		LastRun: h.runs.LastReport(),
	}, h.logger)
}
