package handler

import (
	"encoding/json"
	"net/http"

	"agentlab/api/config"
	"agentlab/api/executor"
	"agentlab/api/health"
	"agentlab/api/hub"
	"agentlab/api/model"
	"agentlab/api/rag"
	"agentlab/api/storage"
	"agentlab/api/store"
)

type Handler struct {
	exec    *executor.Executor
	checker *health.Checker
	catalog *model.Catalog
	cfg     *config.Config
	db      *store.DB
	rag     *rag.Processor
	ws      *hub.Hub
	s3      *storage.Client
}

func New(exec *executor.Executor, checker *health.Checker, catalog *model.Catalog, cfg *config.Config, db *store.DB, proc *rag.Processor, ws *hub.Hub, s3 *storage.Client) *Handler {
	return &Handler{
		exec:    exec,
		checker: checker,
		catalog: catalog,
		cfg:     cfg,
		db:      db,
		rag:     proc,
		ws:      ws,
		s3:      s3,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSONStatus(w, code, map[string]string{"error": msg})
}
