package handler

import (
	"net/http"
	"time"
)

// Health is the basic liveness probe: responding at all means ok. It never
// touches the lab or the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    h.checker.Basic(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) HealthDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.checker.Detailed(r.Context()))
}

// Ready answers 200 while the service should receive traffic (ok or
// degraded) and 503 otherwise.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ready, status := h.checker.Ready(r.Context())
	body := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
	}
	if !ready {
		writeJSONStatus(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, body)
}
