package memory

import (
	"testing"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
)

func TestStore_CallersCannotMutateStoredState(t *testing.T) {
	store := NewStore()

	doc := realm.NewDocument()
	doc.Points["Kohli"] = 10
	if err := store.Save(t.Context(), "default", doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the saved document after the fact must not leak in.
	doc.Points["Kohli"] = 999

	loaded, found, err := store.Load(t.Context(), "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected document to exist")
	}
	if loaded.Points["Kohli"] != 10 {
		t.Fatalf("caller mutation leaked into store: %v", loaded.Points)
	}

	// Same on the way out.
	loaded.Points["Kohli"] = 777
	again, _, err := store.Load(t.Context(), "default")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if again.Points["Kohli"] != 10 {
		t.Fatalf("loaded copy mutation leaked into store: %v", again.Points)
	}
}

func TestStore_MissingRealm(t *testing.T) {
	store := NewStore()

	_, found, err := store.Load(t.Context(), "missing")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}

	stats, err := store.Stats(t.Context(), "missing")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.UsedBytes != 0 {
		t.Fatalf("expected zero usage, got %d", stats.UsedBytes)
	}
}

func TestStore_StatsMeasuresDocument(t *testing.T) {
	store := NewStore()

	doc := realm.NewDocument()
	doc.Points["Kohli"] = 10
	if err := store.Save(t.Context(), "default", doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	stats, err := store.Stats(t.Context(), "default")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.UsedBytes == 0 {
		t.Fatal("expected non-zero usage for a saved document")
	}
}
