package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jkhoffman/cogni/llm"
	"github.com/rs/zerolog"
)

func TestFileSaveWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	st := New()
	st.AddMessage(llm.UserMessage("hi"))
	if err := f.Save(context.Background(), st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, st.ID+".json")); err != nil {
		t.Errorf("expected final file to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, st.ID+".json.tmp")); !os.IsNotExist(err) {
		t.Errorf("expected temp file to be gone after rename, err=%v", err)
	}
}

func TestFileLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(dir, zerolog.Nop())
	ctx := context.Background()

	st := New()
	st.Metadata.Title = "round trip"
	_ = f.Save(ctx, st)

	loaded, err := f.Load(ctx, st.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Metadata.Title != "round trip" {
		t.Errorf("expected title to survive round trip, got %+v", loaded)
	}
}

func TestFileLoadMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(dir, zerolog.Nop())
	_, err := f.Load(context.Background(), "nope")
	assertNotFound(t, err)
}

func TestFileDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(dir, zerolog.Nop())
	ctx := context.Background()

	st := New()
	_ = f.Save(ctx, st)
	if err := f.Delete(ctx, st.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := f.Load(ctx, st.ID)
	assertNotFound(t, err)
}

func TestFileListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(dir, zerolog.Nop())
	ctx := context.Background()

	st := New()
	_ = f.Save(ctx, st)

	if err := os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt fixture: %v", err)
	}

	list, err := f.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != st.ID {
		t.Errorf("expected corrupt file to be skipped, got %+v", list)
	}
}

func TestFileFindByTags(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(dir, zerolog.Nop())
	ctx := context.Background()

	a := New()
	a.AddTag("keep")
	b := New()

	_ = f.Save(ctx, a)
	_ = f.Save(ctx, b)

	found, err := f.FindByTags(ctx, []string{"keep"})
	if err != nil {
		t.Fatalf("FindByTags: %v", err)
	}
	if len(found) != 1 || found[0].ID != a.ID {
		t.Errorf("expected only tagged conversation, got %+v", found)
	}
}
