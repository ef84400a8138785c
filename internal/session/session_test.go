package session

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewRegistry(filepath.Join(dir, "chat_id.txt"), logger)
}

func TestRecordAndLoad(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.Record(12345); err != nil {
		t.Fatalf("Record: %v", err)
	}
	id, ok := r.Load()
	if !ok {
		t.Fatal("Load: no value after Record")
	}
	if id != 12345 {
		t.Errorf("id = %d, want 12345", id)
	}
}

func TestRecordOverwrites(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.Record(1); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Record(2); err != nil {
		t.Fatalf("Record: %v", err)
	}
	id, ok := r.Load()
	if !ok || id != 2 {
		t.Errorf("Load = (%d, %v), want (2, true)", id, ok)
	}
}

func TestLoadMissingFile(t *testing.T) {
	r := newTestRegistry(t)

	id, ok := r.Load()
	if ok || id != 0 {
		t.Errorf("Load = (%d, %v), want (0, false) for missing file", id, ok)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	r := newTestRegistry(t)
	if err := os.WriteFile(r.file, []byte("not a number\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	id, ok := r.Load()
	if ok || id != 0 {
		t.Errorf("Load = (%d, %v), want (0, false) for corrupt file", id, ok)
	}
}
