// Package rag runs the background document pipeline for RAG workspaces:
// extract, chunk, embed, index. Each step is recorded in the processing
// log and broadcast to watching clients.
package rag

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentlab/api/hub"
	"agentlab/api/model"
	"agentlab/api/storage"
	"agentlab/api/store"
)

const (
	StepExtracting = "extracting"
	StepChunking   = "chunking"
	StepEmbedding  = "embedding"
	StepIndexing   = "indexing"
	StepCompleted  = "completed"
	StepError      = "error"
)

// Store is the slice of the database layer the pipeline needs. Declared
// here so tests can substitute a failing double.
type Store interface {
	GetWorkspace(ctx context.Context, id string) (*model.Workspace, error)
	PendingDocuments(ctx context.Context, workspaceID string) ([]model.Document, error)
	UpdateWorkspaceStatus(ctx context.Context, id string, status model.WorkspaceStatus, processingSec float64) error
	RefreshWorkspaceMetrics(ctx context.Context, id string) error
	MarkDocumentProcessing(ctx context.Context, id string) error
	MarkDocumentProcessed(ctx context.Context, id string, chunkCount int) error
	MarkDocumentFailed(ctx context.Context, id, errMsg string) error
	AppendProcessingEntry(ctx context.Context, e *model.ProcessingEntry) error
}

var _ Store = (*store.DB)(nil)

type Processor struct {
	DB        Store
	WS        *hub.Hub
	Objects   *storage.Client // optional; UploadDir is the fallback
	Bucket    string
	UploadDir string

	mu     sync.Mutex
	active map[string]bool
}

// Start kicks off background processing for a workspace. A workspace is
// processed by at most one goroutine at a time.
func (p *Processor) Start(workspaceID string) {
	p.mu.Lock()
	if p.active == nil {
		p.active = make(map[string]bool)
	}
	if p.active[workspaceID] {
		p.mu.Unlock()
		return
	}
	p.active[workspaceID] = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.active, workspaceID)
			p.mu.Unlock()
		}()
		if err := p.process(context.Background(), workspaceID); err != nil {
			log.Printf("rag: workspace %s: %v", workspaceID, err)
		}
	}()
}

// Processing reports whether a workspace pipeline is currently running.
func (p *Processor) Processing(workspaceID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active[workspaceID]
}

func (p *Processor) process(ctx context.Context, workspaceID string) error {
	ws, err := p.DB.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}

	docs, err := p.DB.PendingDocuments(ctx, workspaceID)
	if err != nil {
		p.fail(ctx, workspaceID, err)
		return fmt.Errorf("list documents: %w", err)
	}

	if err := p.DB.UpdateWorkspaceStatus(ctx, workspaceID, model.WorkspaceProcessing, 0); err != nil {
		p.fail(ctx, workspaceID, err)
		return fmt.Errorf("mark processing: %w", err)
	}

	start := time.Now()
	total := len(docs)
	done := 0

	for _, doc := range docs {
		if err := p.processDocument(ctx, ws, &doc, total, done); err != nil {
			log.Printf("rag: document %s (%s): %v", doc.ID, doc.Filename, err)
			if dbErr := p.DB.MarkDocumentFailed(ctx, doc.ID, err.Error()); dbErr != nil {
				log.Printf("rag: mark failed: %v", dbErr)
			}
			continue
		}
		done++
	}

	elapsed := time.Since(start).Seconds()
	if err := p.DB.UpdateWorkspaceStatus(ctx, workspaceID, model.WorkspaceReady, elapsed); err != nil {
		p.fail(ctx, workspaceID, err)
		return fmt.Errorf("mark ready: %w", err)
	}
	if err := p.DB.RefreshWorkspaceMetrics(ctx, workspaceID); err != nil {
		log.Printf("rag: refresh metrics: %v", err)
	}
	p.logStep(ctx, workspaceID, StepCompleted, 100, "", total, done)
	log.Printf("rag: workspace %s processed %d/%d documents in %.1fs", workspaceID, done, total, elapsed)
	return nil
}

func (p *Processor) processDocument(ctx context.Context, ws *model.Workspace, doc *model.Document, total, done int) error {
	base := float64(done) / float64(total) * 100

	if err := p.DB.MarkDocumentProcessing(ctx, doc.ID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	p.logStep(ctx, ws.ID, StepExtracting, base, doc.Filename, total, done)
	text, err := p.extractText(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	p.logStep(ctx, ws.ID, StepChunking, base+30/float64(total), doc.Filename, total, done)
	chunks := ChunkText(text, ws.ChunkSize, ws.ChunkOverlap)

	p.logStep(ctx, ws.ID, StepEmbedding, base+60/float64(total), doc.Filename, total, done)
	embeddings := p.embed(chunks, ws.EmbeddingModel)

	p.logStep(ctx, ws.ID, StepIndexing, base+90/float64(total), doc.Filename, total, done)
	p.index(embeddings, ws.VectorStore, doc.ID)

	return p.DB.MarkDocumentProcessed(ctx, doc.ID, len(chunks))
}

// extractText fetches the stored document body. Plain-text types are read
// as-is; binary formats get a placeholder until real extractors land.
func (p *Processor) extractText(ctx context.Context, doc *model.Document) (string, error) {
	switch doc.FileType {
	case "txt", "md":
	default:
		return fmt.Sprintf("Extracted text from %s: %s", doc.FileType, doc.Filename), nil
	}

	if p.Objects != nil {
		obj, err := p.Objects.GetObject(ctx, p.Bucket, ObjectKey(doc.WorkspaceID, doc.ID, doc.Filename))
		if err != nil {
			return "", err
		}
		defer obj.Close()
		data, err := io.ReadAll(obj)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := os.ReadFile(LocalPath(p.UploadDir, doc.WorkspaceID, doc.ID, doc.Filename))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ChunkText splits text into overlapping windows of size runes. Overlap is
// clamped below size so the window always advances.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += size - overlap {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

type embedding struct {
	ChunkIndex int
	Model      string
}

// embed is a placeholder until the lab service exposes an embedding
// endpoint; it only shapes the data the indexer expects.
func (p *Processor) embed(chunks []string, embeddingModel string) []embedding {
	embeddings := make([]embedding, len(chunks))
	for i := range chunks {
		embeddings[i] = embedding{ChunkIndex: i, Model: embeddingModel}
	}
	return embeddings
}

// index is a placeholder for the vector store integration.
func (p *Processor) index(embeddings []embedding, vectorStore, documentID string) {
	log.Printf("rag: indexed %d embeddings in %s for document %s", len(embeddings), vectorStore, documentID)
}

func (p *Processor) logStep(ctx context.Context, workspaceID, step string, progress float64, currentFile string, total, done int) {
	entry := &model.ProcessingEntry{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Step:        step,
		Progress:    progress,
		CurrentFile: currentFile,
		TotalFiles:  total,
		DoneFiles:   done,
		At:          time.Now(),
	}
	if err := p.DB.AppendProcessingEntry(ctx, entry); err != nil {
		log.Printf("rag: log step: %v", err)
	}
	if p.WS != nil {
		p.WS.Broadcast(hub.Event{Type: "rag.progress", WorkspaceID: workspaceID, Payload: entry})
	}
}

// fail records a workspace-level pipeline failure: the workspace status
// goes to error so clients never see it stuck in processing, and the
// cause lands in the processing log. Both writes are best-effort since
// the store itself may be the thing that failed.
func (p *Processor) fail(ctx context.Context, workspaceID string, cause error) {
	if err := p.DB.UpdateWorkspaceStatus(ctx, workspaceID, model.WorkspaceError, 0); err != nil {
		log.Printf("rag: mark workspace error: %v", err)
	}

	entry := &model.ProcessingEntry{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Step:        StepError,
		Error:       cause.Error(),
		At:          time.Now(),
	}
	if err := p.DB.AppendProcessingEntry(ctx, entry); err != nil {
		log.Printf("rag: log error: %v", err)
	}
	if p.WS != nil {
		p.WS.Broadcast(hub.Event{Type: "rag.progress", WorkspaceID: workspaceID, Payload: entry})
	}
}

// ObjectKey is the object-store key for a document body.
func ObjectKey(workspaceID, documentID, filename string) string {
	return workspaceID + "/" + documentID + filepath.Ext(filename)
}

// LocalPath is the on-disk fallback location for a document body.
func LocalPath(uploadDir, workspaceID, documentID, filename string) string {
	return filepath.Join(uploadDir, workspaceID, documentID+filepath.Ext(filename))
}

// FileType derives the stored type tag from a filename.
func FileType(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
