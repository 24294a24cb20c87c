package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agentlab/api/model"
	"agentlab/api/rag"
)

const maxUploadBytes = 100 << 20 // 100MB

var allowedFileTypes = map[string]bool{
	"pdf":  true,
	"txt":  true,
	"docx": true,
	"md":   true,
}

// requireDB guards the RAG endpoints: without a configured database the
// whole subsystem is off and answers 503.
func (h *Handler) requireDB(w http.ResponseWriter) bool {
	if h.db == nil {
		writeError(w, http.StatusServiceUnavailable, "rag storage not configured")
		return false
	}
	return true
}

type createWorkspaceRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	VectorStore    string `json:"vector_store,omitempty"`
	ChunkSize      int    `json:"chunk_size,omitempty"`
	ChunkOverlap   int    `json:"chunk_overlap,omitempty"`
}

func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}

	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.EmbeddingModel == "" {
		req.EmbeddingModel = "bge-m3"
	}
	if req.VectorStore == "" {
		req.VectorStore = "milvus"
	}
	if req.ChunkSize <= 0 {
		req.ChunkSize = 512
	}
	if req.ChunkOverlap < 0 || req.ChunkOverlap >= req.ChunkSize {
		writeError(w, http.StatusBadRequest, "chunk_overlap must be non-negative and smaller than chunk_size")
		return
	}

	ws := &model.Workspace{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		Status:         model.WorkspaceCreating,
		EmbeddingModel: req.EmbeddingModel,
		VectorStore:    req.VectorStore,
		ChunkSize:      req.ChunkSize,
		ChunkOverlap:   req.ChunkOverlap,
		CreatedAt:      time.Now(),
	}
	if err := h.db.CreateWorkspace(r.Context(), ws); err != nil {
		log.Printf("handler: create workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "could not create workspace")
		return
	}
	writeJSONStatus(w, http.StatusCreated, ws)
}

func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	workspaces, err := h.db.ListWorkspaces(r.Context())
	if err != nil {
		log.Printf("handler: list workspaces: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list workspaces")
		return
	}
	if workspaces == nil {
		workspaces = []model.Workspace{}
	}
	writeJSON(w, workspaces)
}

func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	id := chi.URLParam(r, "id")
	ws, err := h.db.GetWorkspace(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		log.Printf("handler: get workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load workspace")
		return
	}

	docs, err := h.db.ListDocuments(r.Context(), id)
	if err != nil {
		log.Printf("handler: list documents: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load documents")
		return
	}

	writeJSON(w, map[string]interface{}{
		"workspace":  ws,
		"documents":  docs,
		"processing": h.rag.Processing(id),
	})
}

func (h *Handler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if h.rag.Processing(id) {
		writeError(w, http.StatusConflict, "workspace is processing")
		return
	}
	if err := h.db.DeleteWorkspace(r.Context(), id); err != nil {
		log.Printf("handler: delete workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "could not delete workspace")
		return
	}
	writeJSON(w, map[string]string{"deleted": id})
}

// UploadDocuments accepts a batch of multipart files, stores each body
// (object store when configured, local disk otherwise) and queues the
// workspace for background processing. Every part is type-checked before
// anything is stored so a bad file rejects the whole batch up front.
func (h *Handler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	workspaceID := chi.URLParam(r, "id")
	if _, err := h.db.GetWorkspace(r.Context(), workspaceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		log.Printf("handler: get workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load workspace")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var headers []*multipart.FileHeader
	for _, hs := range r.MultipartForm.File {
		headers = append(headers, hs...)
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file part is required")
		return
	}
	for _, header := range headers {
		if fileType := rag.FileType(header.Filename); !allowedFileTypes[fileType] {
			writeError(w, http.StatusBadRequest, "unsupported file type "+fileType)
			return
		}
	}

	docs := make([]*model.Document, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read file "+header.Filename)
			return
		}

		doc := &model.Document{
			ID:          uuid.New().String(),
			WorkspaceID: workspaceID,
			Filename:    header.Filename,
			FileType:    rag.FileType(header.Filename),
			SizeBytes:   header.Size,
			Status:      model.DocumentUploaded,
			UploadedAt:  time.Now(),
		}

		err = h.storeDocumentBody(r, doc, file, header.Size)
		file.Close()
		if err != nil {
			log.Printf("handler: store document body: %v", err)
			writeError(w, http.StatusInternalServerError, "could not store document")
			return
		}

		if err := h.db.InsertDocument(r.Context(), doc); err != nil {
			log.Printf("handler: insert document: %v", err)
			// No row points at the stored body; remove it so it cannot
			// leak.
			h.removeDocumentBody(r, doc)
			writeError(w, http.StatusInternalServerError, "could not record document")
			return
		}
		docs = append(docs, doc)
	}

	h.rag.Start(workspaceID)
	writeJSONStatus(w, http.StatusCreated, docs)
}

type duplicateWorkspaceRequest struct {
	Name string `json:"name,omitempty"`
}

// DuplicateWorkspace copies a workspace's configuration, document rows
// and stored bodies into a fresh workspace, then reprocesses it so the
// copy builds its own index.
func (h *Handler) DuplicateWorkspace(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if h.rag.Processing(id) {
		writeError(w, http.StatusConflict, "workspace is processing")
		return
	}

	src, err := h.db.GetWorkspace(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		log.Printf("handler: get workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load workspace")
		return
	}

	// Body is optional; without it the copy is named after the source.
	var req duplicateWorkspaceRequest
	json.NewDecoder(r.Body).Decode(&req)
	if req.Name == "" {
		req.Name = src.Name + " (copy)"
	}

	dst := &model.Workspace{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    src.Description,
		Status:         model.WorkspaceCreating,
		EmbeddingModel: src.EmbeddingModel,
		VectorStore:    src.VectorStore,
		ChunkSize:      src.ChunkSize,
		ChunkOverlap:   src.ChunkOverlap,
		CreatedAt:      time.Now(),
	}
	if err := h.db.CreateWorkspace(r.Context(), dst); err != nil {
		log.Printf("handler: duplicate workspace: %v", err)
		writeError(w, http.StatusInternalServerError, "could not create workspace copy")
		return
	}

	docs, err := h.db.ListDocuments(r.Context(), src.ID)
	if err != nil {
		log.Printf("handler: list documents: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load documents")
		return
	}

	for _, doc := range docs {
		copied := &model.Document{
			ID:          uuid.New().String(),
			WorkspaceID: dst.ID,
			Filename:    doc.Filename,
			FileType:    doc.FileType,
			SizeBytes:   doc.SizeBytes,
			Status:      model.DocumentUploaded,
			UploadedAt:  time.Now(),
		}
		if err := h.copyDocumentBody(r, &doc, copied); err != nil {
			log.Printf("handler: copy document body: %v", err)
			writeError(w, http.StatusInternalServerError, "could not copy documents")
			return
		}
		if err := h.db.InsertDocument(r.Context(), copied); err != nil {
			log.Printf("handler: insert document copy: %v", err)
			h.removeDocumentBody(r, copied)
			writeError(w, http.StatusInternalServerError, "could not record document copy")
			return
		}
	}

	if len(docs) > 0 {
		h.rag.Start(dst.ID)
	} else if err := h.db.UpdateWorkspaceStatus(r.Context(), dst.ID, model.WorkspaceReady, 0); err != nil {
		log.Printf("handler: mark copy ready: %v", err)
	}
	writeJSONStatus(w, http.StatusCreated, dst)
}

func (h *Handler) storeDocumentBody(r *http.Request, doc *model.Document, file io.Reader, size int64) error {
	if h.s3 != nil {
		return h.s3.PutObject(r.Context(), h.cfg.S3Bucket, rag.ObjectKey(doc.WorkspaceID, doc.ID, doc.Filename), file, size, "application/octet-stream")
	}

	path := rag.LocalPath(h.cfg.UploadDir, doc.WorkspaceID, doc.ID, doc.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, file)
	return err
}

// removeDocumentBody deletes a stored body again, for the paths where a
// body was written but no database row ended up referencing it.
func (h *Handler) removeDocumentBody(r *http.Request, doc *model.Document) {
	if h.s3 != nil {
		if err := h.s3.RemoveObject(r.Context(), h.cfg.S3Bucket, rag.ObjectKey(doc.WorkspaceID, doc.ID, doc.Filename)); err != nil {
			log.Printf("handler: remove orphaned object: %v", err)
		}
		return
	}
	if err := os.Remove(rag.LocalPath(h.cfg.UploadDir, doc.WorkspaceID, doc.ID, doc.Filename)); err != nil && !os.IsNotExist(err) {
		log.Printf("handler: remove orphaned file: %v", err)
	}
}

func (h *Handler) copyDocumentBody(r *http.Request, src, dst *model.Document) error {
	if h.s3 != nil {
		return h.s3.CopyObject(r.Context(), h.cfg.S3Bucket,
			rag.ObjectKey(src.WorkspaceID, src.ID, src.Filename),
			rag.ObjectKey(dst.WorkspaceID, dst.ID, dst.Filename))
	}

	in, err := os.Open(rag.LocalPath(h.cfg.UploadDir, src.WorkspaceID, src.ID, src.Filename))
	if err != nil {
		return err
	}
	defer in.Close()

	path := rag.LocalPath(h.cfg.UploadDir, dst.WorkspaceID, dst.ID, dst.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func (h *Handler) ProcessingStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	id := chi.URLParam(r, "id")
	entry, err := h.db.LatestProcessingEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no processing history")
			return
		}
		log.Printf("handler: processing status: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load processing status")
		return
	}
	writeJSON(w, map[string]interface{}{
		"entry":      entry,
		"processing": h.rag.Processing(id),
	})
}
