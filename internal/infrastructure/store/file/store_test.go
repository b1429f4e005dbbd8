package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	doc := realm.NewDocument()
	doc.Points["Kohli"] = 42
	doc.CorrectAnswers["1"] = "Yes"

	if err := store.Save(t.Context(), "default", doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, found, err := store.Load(t.Context(), "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected document to exist")
	}
	if loaded.Points["Kohli"] != 42 || loaded.CorrectAnswers["1"] != "Yes" {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
	// Collections absent from the payload come back usable.
	if loaded.PendingBets == nil || loaded.Captains == nil {
		t.Fatal("expected normalized collections after load")
	}
}

func TestStore_LoadMissingRealm(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, found, err := store.Load(t.Context(), "missing")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("expected missing realm to report not found")
	}
}

func TestStore_SecondSaveKeepsBackupGeneration(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	first := realm.NewDocument()
	first.Points["Kohli"] = 1
	if err := store.Save(t.Context(), "default", first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "default.json.bak")); !os.IsNotExist(err) {
		t.Fatal("no backup expected before a second save")
	}

	second := realm.NewDocument()
	second.Points["Kohli"] = 2
	if err := store.Save(t.Context(), "default", second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	backup, err := os.ReadFile(filepath.Join(dir, "default.json.bak"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	current, err := os.ReadFile(filepath.Join(dir, "default.json"))
	if err != nil {
		t.Fatalf("read current: %v", err)
	}
	if string(backup) == string(current) {
		t.Fatal("expected backup to hold the previous generation")
	}

	loaded, _, err := store.Load(t.Context(), "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Points["Kohli"] != 2 {
		t.Fatalf("expected latest generation, got %d", loaded.Points["Kohli"])
	}
}

func TestStore_Stats(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	stats, err := store.Stats(t.Context(), "default")
	if err != nil {
		t.Fatalf("stats before save: %v", err)
	}
	if stats.UsedBytes != 0 || stats.LimitBytes != 1024 {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}

	if err := store.Save(t.Context(), "default", realm.NewDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	stats, err = store.Stats(t.Context(), "default")
	if err != nil {
		t.Fatalf("stats after save: %v", err)
	}
	if stats.UsedBytes == 0 {
		t.Fatal("expected non-zero file size")
	}
}
