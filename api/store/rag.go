package store

import (
	"context"
	"time"

	"agentlab/api/model"
)

func (db *DB) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO rag_workspaces (id, name, description, status, embedding_model, vector_store, chunk_size, chunk_overlap, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		ws.ID, ws.Name, ws.Description, ws.Status, ws.EmbeddingModel, ws.VectorStore, ws.ChunkSize, ws.ChunkOverlap, ws.CreatedAt,
	)
	return err
}

const workspaceColumns = `id, name, description, status, embedding_model, vector_store, chunk_size, chunk_overlap,
	total_documents, total_chunks, processing_sec, created_at, updated_at`

func scanWorkspace(row interface{ Scan(...interface{}) error }) (*model.Workspace, error) {
	var ws model.Workspace
	err := row.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.Status, &ws.EmbeddingModel, &ws.VectorStore,
		&ws.ChunkSize, &ws.ChunkOverlap, &ws.TotalDocuments, &ws.TotalChunks, &ws.ProcessingSec,
		&ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (db *DB) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM rag_workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

func (db *DB) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+workspaceColumns+` FROM rag_workspaces ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []model.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, *ws)
	}
	return workspaces, rows.Err()
}

func (db *DB) DeleteWorkspace(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM rag_workspaces WHERE id = $1`, id)
	return err
}

func (db *DB) UpdateWorkspaceStatus(ctx context.Context, id string, status model.WorkspaceStatus, processingSec float64) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE rag_workspaces SET status = $1, processing_sec = $2, updated_at = now() WHERE id = $3`,
		status, processingSec, id,
	)
	return err
}

// RefreshWorkspaceMetrics recomputes the denormalized document and chunk
// counters from the documents table.
func (db *DB) RefreshWorkspaceMetrics(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE rag_workspaces SET
			total_documents = (SELECT COUNT(*) FROM rag_documents WHERE workspace_id = $1),
			total_chunks    = (SELECT COALESCE(SUM(chunk_count), 0) FROM rag_documents WHERE workspace_id = $1),
			updated_at      = now()
		WHERE id = $1`, id)
	return err
}

func (db *DB) InsertDocument(ctx context.Context, d *model.Document) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO rag_documents (id, workspace_id, filename, file_type, size_bytes, status, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.WorkspaceID, d.Filename, d.FileType, d.SizeBytes, d.Status, d.UploadedAt,
	)
	return err
}

const documentColumns = `id, workspace_id, filename, file_type, size_bytes, status, chunk_count, error, uploaded_at, processed_at`

func (db *DB) ListDocuments(ctx context.Context, workspaceID string) ([]model.Document, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+documentColumns+` FROM rag_documents WHERE workspace_id = $1 ORDER BY uploaded_at`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Filename, &d.FileType, &d.SizeBytes, &d.Status,
			&d.ChunkCount, &d.Error, &d.UploadedAt, &d.ProcessedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// PendingDocuments returns documents still waiting to be processed.
func (db *DB) PendingDocuments(ctx context.Context, workspaceID string) ([]model.Document, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+documentColumns+` FROM rag_documents WHERE workspace_id = $1 AND status = $2 ORDER BY uploaded_at`,
		workspaceID, model.DocumentUploaded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Filename, &d.FileType, &d.SizeBytes, &d.Status,
			&d.ChunkCount, &d.Error, &d.UploadedAt, &d.ProcessedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (db *DB) MarkDocumentProcessing(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE rag_documents SET status = $1 WHERE id = $2`,
		model.DocumentProcessing, id,
	)
	return err
}

func (db *DB) MarkDocumentProcessed(ctx context.Context, id string, chunkCount int) error {
	now := time.Now()
	_, err := db.Pool.Exec(ctx,
		`UPDATE rag_documents SET status = $1, chunk_count = $2, processed_at = $3 WHERE id = $4`,
		model.DocumentProcessed, chunkCount, now, id,
	)
	return err
}

func (db *DB) MarkDocumentFailed(ctx context.Context, id, errMsg string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE rag_documents SET status = $1, error = $2 WHERE id = $3`,
		model.DocumentError, errMsg, id,
	)
	return err
}

// AppendProcessingEntry records one step of workspace processing. The log
// is append-only; progress queries read the latest entry.
func (db *DB) AppendProcessingEntry(ctx context.Context, e *model.ProcessingEntry) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO rag_processing_log (id, workspace_id, step, progress, current_file, total_files, done_files, error, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.WorkspaceID, e.Step, e.Progress, e.CurrentFile, e.TotalFiles, e.DoneFiles, e.Error, e.At,
	)
	return err
}

func (db *DB) LatestProcessingEntry(ctx context.Context, workspaceID string) (*model.ProcessingEntry, error) {
	var e model.ProcessingEntry
	err := db.Pool.QueryRow(ctx,
		`SELECT id, workspace_id, step, progress, current_file, total_files, done_files, error, at
		 FROM rag_processing_log WHERE workspace_id = $1 ORDER BY at DESC LIMIT 1`,
		workspaceID,
	).Scan(&e.ID, &e.WorkspaceID, &e.Step, &e.Progress, &e.CurrentFile, &e.TotalFiles, &e.DoneFiles, &e.Error, &e.At)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
