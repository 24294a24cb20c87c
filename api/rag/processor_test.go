package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agentlab/api/model"
)

// fakeStore records every pipeline write so failure-path behavior can be
// asserted without a database.
type fakeStore struct {
	workspace  *model.Workspace
	pending    []model.Document
	pendingErr error
	readyErr   error

	statuses  []model.WorkspaceStatus
	inFlight  []string
	processed map[string]int
	failed    map[string]string
	entries   []model.ProcessingEntry
	refreshed bool
}

func (f *fakeStore) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	return f.workspace, nil
}

func (f *fakeStore) PendingDocuments(ctx context.Context, workspaceID string) ([]model.Document, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return f.pending, nil
}

func (f *fakeStore) UpdateWorkspaceStatus(ctx context.Context, id string, status model.WorkspaceStatus, processingSec float64) error {
	f.statuses = append(f.statuses, status)
	if status == model.WorkspaceReady && f.readyErr != nil {
		return f.readyErr
	}
	return nil
}

func (f *fakeStore) RefreshWorkspaceMetrics(ctx context.Context, id string) error {
	f.refreshed = true
	return nil
}

func (f *fakeStore) MarkDocumentProcessing(ctx context.Context, id string) error {
	f.inFlight = append(f.inFlight, id)
	return nil
}

func (f *fakeStore) MarkDocumentProcessed(ctx context.Context, id string, chunkCount int) error {
	if f.processed == nil {
		f.processed = make(map[string]int)
	}
	f.processed[id] = chunkCount
	return nil
}

func (f *fakeStore) MarkDocumentFailed(ctx context.Context, id, errMsg string) error {
	if f.failed == nil {
		f.failed = make(map[string]string)
	}
	f.failed[id] = errMsg
	return nil
}

func (f *fakeStore) AppendProcessingEntry(ctx context.Context, e *model.ProcessingEntry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func testWorkspace() *model.Workspace {
	return &model.Workspace{
		ID:             "ws1",
		Name:           "docs",
		Status:         model.WorkspaceCreating,
		EmbeddingModel: "bge-m3",
		VectorStore:    "milvus",
		ChunkSize:      64,
		ChunkOverlap:   8,
	}
}

func lastStatus(f *fakeStore) model.WorkspaceStatus {
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

func TestProcess_HappyPath(t *testing.T) {
	// A pdf body is never fetched, so no object store or disk is needed.
	fake := &fakeStore{
		workspace: testWorkspace(),
		pending:   []model.Document{{ID: "d1", WorkspaceID: "ws1", Filename: "report.pdf", FileType: "pdf"}},
	}
	p := &Processor{DB: fake}

	if err := p.process(context.Background(), "ws1"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(fake.statuses) != 2 || fake.statuses[0] != model.WorkspaceProcessing || fake.statuses[1] != model.WorkspaceReady {
		t.Errorf("statuses = %v, want [processing ready]", fake.statuses)
	}
	if len(fake.inFlight) != 1 || fake.inFlight[0] != "d1" {
		t.Errorf("documents marked processing = %v, want [d1]", fake.inFlight)
	}
	if fake.processed["d1"] == 0 {
		t.Error("document d1 should be processed with a chunk count")
	}
	if !fake.refreshed {
		t.Error("workspace metrics should be refreshed")
	}
	last := fake.entries[len(fake.entries)-1]
	if last.Step != StepCompleted {
		t.Errorf("final log step = %q, want completed", last.Step)
	}
}

func TestProcess_PendingFailureMarksWorkspaceError(t *testing.T) {
	fake := &fakeStore{
		workspace:  testWorkspace(),
		pendingErr: errors.New("connection lost"),
	}
	p := &Processor{DB: fake}

	if err := p.process(context.Background(), "ws1"); err == nil {
		t.Fatal("expected error")
	}
	if got := lastStatus(fake); got != model.WorkspaceError {
		t.Errorf("last workspace status = %q, want error", got)
	}
	found := false
	for _, e := range fake.entries {
		if e.Step == StepError && strings.Contains(e.Error, "connection lost") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing error log entry with cause, got %+v", fake.entries)
	}
}

func TestProcess_MarkReadyFailureMarksWorkspaceError(t *testing.T) {
	fake := &fakeStore{
		workspace: testWorkspace(),
		readyErr:  errors.New("connection lost"),
	}
	p := &Processor{DB: fake}

	if err := p.process(context.Background(), "ws1"); err == nil {
		t.Fatal("expected error")
	}
	// The workspace must never be left stuck in processing.
	if got := lastStatus(fake); got != model.WorkspaceError {
		t.Errorf("last workspace status = %q, want error", got)
	}
}

func TestProcess_ExtractFailureMarksDocumentError(t *testing.T) {
	// A txt body is really fetched; pointing at an empty temp dir makes
	// extraction fail for this one document.
	fake := &fakeStore{
		workspace: testWorkspace(),
		pending:   []model.Document{{ID: "d1", WorkspaceID: "ws1", Filename: "notes.txt", FileType: "txt"}},
	}
	p := &Processor{DB: fake, UploadDir: t.TempDir()}

	if err := p.process(context.Background(), "ws1"); err != nil {
		t.Fatalf("a failing document must not fail the pipeline: %v", err)
	}
	if fake.failed["d1"] == "" {
		t.Error("document d1 should be marked failed with a cause")
	}
	if got := lastStatus(fake); got != model.WorkspaceReady {
		t.Errorf("last workspace status = %q, want ready", got)
	}
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name: "empty text yields no chunks",
			text: "", size: 4, overlap: 0,
			want: nil,
		},
		{
			name: "text shorter than size is one chunk",
			text: "abc", size: 10, overlap: 2,
			want: []string{"abc"},
		},
		{
			name: "exact multiple without overlap",
			text: "abcdefgh", size: 4, overlap: 0,
			want: []string{"abcd", "efgh"},
		},
		{
			name: "overlap repeats the window tail",
			text: "abcdefgh", size: 4, overlap: 2,
			want: []string{"abcd", "cdef", "efgh"},
		},
		{
			name: "overlap at or above size is clamped below size",
			text: "abcdef", size: 2, overlap: 5,
			want: []string{"ab", "bc", "cd", "de", "ef"},
		},
		{
			name: "non-positive size falls back to the default window",
			text: strings.Repeat("x", 600), size: 0, overlap: 0,
			want: []string{strings.Repeat("x", 512), strings.Repeat("x", 88)},
		},
		{
			name: "multibyte runes are never split",
			text: "日本語のテキスト", size: 3, overlap: 1,
			want: []string{"日本語", "語のテ", "テキス", "スト"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.size, tt.overlap)
			if len(got) != len(tt.want) {
				t.Fatalf("chunks = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkText_CoversEveryRune(t *testing.T) {
	text := strings.Repeat("abcdefghij", 37)
	chunks := ChunkText(text, 64, 16)

	var rebuilt strings.Builder
	for i, c := range chunks {
		if i == 0 {
			rebuilt.WriteString(c)
			continue
		}
		rebuilt.WriteString(c[16:])
	}
	if rebuilt.String() != text {
		t.Error("chunks with overlap stripped do not rebuild the input")
	}
}

func TestFileType(t *testing.T) {
	tests := []struct{ filename, want string }{
		{"report.PDF", "pdf"},
		{"notes.md", "md"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := FileType(tt.filename); got != tt.want {
			t.Errorf("FileType(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestObjectKey(t *testing.T) {
	got := ObjectKey("ws1", "doc1", "paper.pdf")
	if got != "ws1/doc1.pdf" {
		t.Errorf("ObjectKey = %q", got)
	}
}
