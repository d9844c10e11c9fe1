package state

import (
	"path/filepath"
	"testing"

	"github.com/jkhoffman/cogni/config"
	"github.com/rs/zerolog"
)

func TestNewDefaultsToMemory(t *testing.T) {
	store, err := NewStore(config.StateConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := store.(*Memory); !ok {
		t.Errorf("expected *Memory, got %T", store)
	}
}

func TestNewFileBackedRequiresDirectory(t *testing.T) {
	_, err := NewStore(config.StateConfig{Backend: "file"}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNewFileBacked(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conversations")
	store, err := NewStore(config.StateConfig{Backend: "file", Directory: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := store.(*File); !ok {
		t.Errorf("expected *File, got %T", store)
	}
}
