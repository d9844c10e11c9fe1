package state

import (
	"context"
	"testing"

	"github.com/jkhoffman/cogni/llm"
)

func TestSQLSaveLoadDeleteRoundTrip(t *testing.T) {
	db, err := NewSQL(":memory:")
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	st := New()
	st.AddMessage(llm.UserMessage("hi"))
	st.AddTag("work")

	if err := db.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := db.Load(ctx, st.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Messages) != 1 {
		t.Errorf("expected one message, got %d", len(loaded.Messages))
	}

	found, err := db.FindByTags(ctx, []string{"work"})
	if err != nil {
		t.Fatalf("FindByTags: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("expected one tagged conversation, got %d", len(found))
	}

	if err := db.Delete(ctx, st.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Load(ctx, st.ID); err == nil {
		t.Fatal("expected NotFound after delete")
	}
}

func TestSQLDeleteMissingReturnsNotFound(t *testing.T) {
	db, err := NewSQL(":memory:")
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	defer db.Close()

	err = db.Delete(context.Background(), "nope")
	assertNotFound(t, err)
}
