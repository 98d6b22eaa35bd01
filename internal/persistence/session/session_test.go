package session

import (
	"os"
	"path/filepath"
	"testing"

	"geocoin.ai/internal/persistence/snapshot"
)

func TestFileStore_MissingFileIsNotAnError(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "save.zst"))
	blob, ok, err := s.Load()
	if err != nil || ok || blob != "" {
		t.Fatalf("expected empty load, got %q %v %v", blob, ok, err)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "game.save.zst")
	s := NewFileStore(path)

	sv := snapshot.SaveV1{
		Version: snapshot.Version,
		Inventory: []snapshot.ItemV1{{
			OriginCell:  snapshot.CellV1{I: 2, J: 3},
			Serial:      1,
			CurrentCell: snapshot.CellV1{I: 2, J: 3},
			InInventory: true,
		}},
		PersistedCaches: []snapshot.CacheV1{{Key: "2:3"}},
	}
	blob, err := snapshot.Marshal(sv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := s.Save(blob); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	got, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("load: %v ok=%v", err, ok)
	}
	if got != blob {
		t.Fatalf("blob mismatch:\n got %s\nwant %s", got, blob)
	}

	h, err := snapshot.ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.Caches != 1 || h.Items != 1 {
		t.Fatalf("unexpected header %+v", h)
	}
}

func TestFileStore_KeepsUnparsableBlob(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "save.zst"))
	if err := s.Save("{broken"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.Load()
	if err != nil || !ok || got != "{broken" {
		t.Fatalf("unexpected load %q %v %v", got, ok, err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if _, ok, _ := s.Load(); ok {
		t.Fatalf("expected empty store")
	}
	_ = s.Save("a")
	_ = s.Save("b")
	if blob, ok, _ := s.Load(); !ok || blob != "b" {
		t.Fatalf("expected last blob, got %q", blob)
	}
}
