package state

import (
	"context"
	"testing"
	"time"

	"github.com/jkhoffman/cogni/llm"
)

func TestMemorySaveLoadRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	st := New()
	st.AddMessage(llm.UserMessage("hello"))
	st.Metadata.Title = "greeting"

	if err := m.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := m.Load(ctx, st.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Metadata.Title != "greeting" || len(loaded.Messages) != 1 {
		t.Errorf("unexpected loaded state: %+v", loaded)
	}
}

func TestMemoryLoadMissingReturnsNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Load(context.Background(), "does-not-exist")
	assertNotFound(t, err)
}

func TestMemoryDeleteMissingReturnsNotFound(t *testing.T) {
	m := NewMemory()
	err := m.Delete(context.Background(), "does-not-exist")
	assertNotFound(t, err)
}

func TestMemoryListOrdersMostRecentFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	older := New()
	newer := New()
	newer.UpdatedAt = older.UpdatedAt.Add(time.Hour)

	_ = m.Save(ctx, older)
	_ = m.Save(ctx, newer)

	list, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Errorf("expected newer conversation first, got %+v", list)
	}
}

func TestMemoryFindByTagsRequiresIntersection(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := New()
	a.AddTag("important")
	a.AddTag("work")
	b := New()
	b.AddTag("important")

	_ = m.Save(ctx, a)
	_ = m.Save(ctx, b)

	found, err := m.FindByTags(ctx, []string{"important", "work"})
	if err != nil {
		t.Fatalf("FindByTags: %v", err)
	}
	if len(found) != 1 || found[0].ID != a.ID {
		t.Errorf("expected only %q to match both tags, got %+v", a.ID, found)
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	as, ok := err.(*llm.Error)
	if !ok {
		t.Fatalf("expected *llm.Error, got %T (%v)", err, err)
	}
	if as.Type != llm.ErrorTypeNotFound {
		t.Fatalf("expected NotFound, got %s", as.Type)
	}
}
