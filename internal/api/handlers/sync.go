package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// RefreshHandler exposes one imperative refresh operation over HTTP
type RefreshHandler struct {
	name    string
	refresh func(ctx context.Context) error
	logger  *logrus.Logger
}

// NewRefreshHandler creates a handler that runs the given refresh operation
func NewRefreshHandler(name string, refresh func(ctx context.Context) error, logger *logrus.Logger) *RefreshHandler {
	return &RefreshHandler{name: name, refresh: refresh, logger: logger}
}

// ServeHTTP runs the refresh and reports success or failure. The pre-existing
// local state is untouched when the refresh fails.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.refresh(r.Context()); err != nil {
		h.logger.WithError(err).WithField("operation", h.name).Error("Refresh failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{
			"operation": h.name,
			"status":    "failed",
			"error":     err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"operation": h.name,
		"status":    "ok",
	})
}
