package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func Connect(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

func Migrate(db *DB) error {
	ctx := context.Background()
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rag_workspaces (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL DEFAULT 'creating',
			embedding_model TEXT NOT NULL DEFAULT 'bge-m3',
			vector_store    TEXT NOT NULL DEFAULT 'milvus',
			chunk_size      INT NOT NULL DEFAULT 512,
			chunk_overlap   INT NOT NULL DEFAULT 50,
			total_documents INT NOT NULL DEFAULT 0,
			total_chunks    INT NOT NULL DEFAULT 0,
			processing_sec  DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_workspaces_status ON rag_workspaces(status);

		CREATE TABLE IF NOT EXISTS rag_documents (
			id           TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL REFERENCES rag_workspaces(id) ON DELETE CASCADE,
			filename     TEXT NOT NULL,
			file_type    TEXT NOT NULL,
			size_bytes   BIGINT NOT NULL DEFAULT 0,
			status       TEXT NOT NULL DEFAULT 'uploaded',
			chunk_count  INT NOT NULL DEFAULT 0,
			error        TEXT NOT NULL DEFAULT '',
			uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			processed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_documents_workspace ON rag_documents(workspace_id, uploaded_at);

		CREATE TABLE IF NOT EXISTS rag_processing_log (
			id           TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL REFERENCES rag_workspaces(id) ON DELETE CASCADE,
			step         TEXT NOT NULL,
			progress     DOUBLE PRECISION NOT NULL DEFAULT 0,
			current_file TEXT NOT NULL DEFAULT '',
			total_files  INT NOT NULL DEFAULT 0,
			done_files   INT NOT NULL DEFAULT 0,
			error        TEXT NOT NULL DEFAULT '',
			at           TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_processing_workspace ON rag_processing_log(workspace_id, at DESC);
	`)
	return err
}

// Healthy checks the database connection.
func (db *DB) Healthy(ctx context.Context) error {
	var n int
	return db.Pool.QueryRow(ctx, "SELECT 1").Scan(&n)
}
