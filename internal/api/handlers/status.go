package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/showsync/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports counts of the locally synchronized entities
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{db: db, logger: logger}
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	watched, err := h.db.GetWatchedShows()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read watched snapshot")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	trending, err := h.db.GetTrendingEntries()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read trending cache")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	pending, err := h.db.GetWatchEntriesWithAction(models.ActionUpload)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read pending uploads")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	lastPage := -1
	if page, ok, _ := h.db.GetTrendingLastPage(); ok {
		lastPage = page
	}

	response := map[string]interface{}{
		"watched_shows":      len(watched),
		"trending_entries":   len(trending),
		"trending_last_page": lastPage,
		"pending_uploads":    len(pending),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
