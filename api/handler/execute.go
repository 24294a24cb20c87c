package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"agentlab/api/model"
)

// Execute routes one execution request. Invalid input fails fast with a
// 400 before any upstream call; upstream trouble comes back as a 200 with
// a typed failure result so clients always parse one shape.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req model.ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.ApplyDefaults(h.catalog)
	if v := model.ValidateExecutionRequest(&req, h.catalog); !v.Valid() {
		writeJSONStatus(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "invalid execution request",
			"findings": v.Findings,
		})
		return
	}

	result, err := h.exec.Execute(r.Context(), req)
	if err != nil {
		// Only the should-never-happen routing contract violation lands
		// here; everything upstream-related is already folded into result.
		log.Printf("handler: internal routing error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal routing error")
		return
	}
	writeJSON(w, result)
}

// Models lists the allowed model catalog.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.catalog)
}
