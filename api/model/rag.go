package model

import "time"

type WorkspaceStatus string

const (
	WorkspaceCreating   WorkspaceStatus = "creating"
	WorkspaceProcessing WorkspaceStatus = "processing"
	WorkspaceReady      WorkspaceStatus = "ready"
	WorkspaceError      WorkspaceStatus = "error"
)

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentProcessed  DocumentStatus = "processed"
	DocumentError      DocumentStatus = "error"
)

// Workspace is a RAG document collection with its processing
// configuration and denormalized metrics.
type Workspace struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      WorkspaceStatus `json:"status"`

	EmbeddingModel string `json:"embedding_model"`
	VectorStore    string `json:"vector_store"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`

	TotalDocuments int     `json:"total_documents"`
	TotalChunks    int     `json:"total_chunks"`
	ProcessingSec  float64 `json:"processing_time_sec,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Document struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	Filename    string         `json:"filename"`
	FileType    string         `json:"file_type"`
	SizeBytes   int64          `json:"size_bytes"`
	Status      DocumentStatus `json:"status"`
	ChunkCount  int            `json:"chunk_count,omitempty"`
	Error       string         `json:"error,omitempty"`

	UploadedAt  time.Time  `json:"uploaded_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ProcessingEntry is one append-only record of workspace processing
// progress.
type ProcessingEntry struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Step        string    `json:"step"` // extracting, chunking, embedding, indexing, completed, error
	Progress    float64   `json:"progress_percent"`
	CurrentFile string    `json:"current_file,omitempty"`
	TotalFiles  int       `json:"total_files"`
	DoneFiles   int       `json:"processed_files"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}
