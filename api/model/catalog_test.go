package model

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, `
models:
  - name: mistral7b
    provider: ollama
    context_tokens: 8192
    default: true
  - name: llama3
    provider: ollama
`)
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(c.Models) != 2 {
		t.Fatalf("got %d models, want 2", len(c.Models))
	}
	if !c.Has("llama3") || c.Has("gpt9") {
		t.Error("Has reported wrong membership")
	}
	if c.Default() != "mistral7b" {
		t.Errorf("Default = %q, want mistral7b", c.Default())
	}
}

func TestLoadCatalog_Empty(t *testing.T) {
	path := writeCatalog(t, "models: []\n")
	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestLoadCatalog_MissingName(t *testing.T) {
	path := writeCatalog(t, "models:\n  - provider: ollama\n")
	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for nameless model")
	}
}

func TestLoadCatalog_NotFound(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCatalogFromNames(t *testing.T) {
	c := CatalogFromNames([]string{"a", "b"})
	if c.Default() != "a" {
		t.Errorf("Default = %q, want first entry", c.Default())
	}
	if !c.Has("b") {
		t.Error("missing entry b")
	}
}
