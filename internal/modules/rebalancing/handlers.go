package rebalancing

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	system *System
	log    zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(system *System, log zerolog.Logger) *Handler {
	return &Handler{
		system: system,
		log:    log.With().Str("handler", "rebalancing").Logger(),
	}
}

// RegisterRoutes mounts the rebalancing endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/trigger", h.HandleTrigger)
	r.Get("/stats", h.HandleStats)
	r.Get("/history", h.HandleHistory)
}

// HandleTrigger runs a manual rebalance over the current snapshot.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.system.TriggerRebalance()
	if err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleStats returns today's trading statistics.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.system.Rebalancer().DailyStats())
}

// HandleHistory returns recent trade executions.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			h.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	h.writeJSON(w, http.StatusOK, h.system.Rebalancer().TradeHistory(limit))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
