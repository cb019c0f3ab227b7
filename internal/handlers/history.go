package handlers

import (
	"net/http"
	"strconv"

	"metamorphosis/internal/database"
	"metamorphosis/internal/logging"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryResponse contains history totals and recent conversions.
type HistoryResponse struct {
	Stats       database.Stats        `json:"stats"`
	Conversions []database.Conversion `json:"conversions"`
}

// GetHistory returns the most recent conversions, newest first.
// GET /api/history?limit=
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSONError(w, "history is disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	stats, err := h.history.Stats(r.Context())
	if err != nil {
		logging.Error("Failed to load history stats: %v", err)
		writeJSONError(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	conversions, err := h.history.RecentConversions(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to load history: %v", err)
		writeJSONError(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, HistoryResponse{Stats: stats, Conversions: conversions})
}
