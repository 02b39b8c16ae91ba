package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// RunHandler starts a backup on demand
type RunHandler struct {
	runs   RunTracker
	logger *logrus.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs RunTracker, logger *logrus.Logger) *RunHandler {
	return &RunHandler{
		runs:   runs,
		logger: logger,
	}
}

// ServeHTTP handles the run trigger endpoint
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.runs.Trigger() {
		h.logger.Info("Backup trigger ignored, a run is already in progress")
		writeJSON(w, http.StatusConflict, map[string]string{"status": "running"}, h.logger)
		return
	}

	h.logger.Info("Backup triggered over HTTP")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"}, h.logger)
}
