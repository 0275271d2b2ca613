package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleSystemStatus reports the combined monitoring + rebalancing state.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	if s.system == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "system not initialized"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.system.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
