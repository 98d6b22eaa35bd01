package world

import (
	"errors"
	"testing"

	"geocoin.ai/internal/persistence/snapshot"
)

func playedWorld(t *testing.T) *World {
	t.Helper()
	w := newTestWorld(t, 3, fixedSpawner{{I: 1, J: 1}: 3, {I: 30, J: 0}: 1})
	if _, err := w.Collect(Cell{I: 1, J: 1}, 1); err != nil {
		t.Fatalf("collect: %v", err)
	}
	moveToCell(t, w, Cell{I: 30, J: 0})
	if _, err := w.OpenCache(Cell{I: 30, J: 0}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := w.Drop(Cell{I: 30, J: 0}, 0); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := w.Collect(Cell{I: 30, J: 0}, 0); err != nil {
		t.Fatalf("collect: %v", err)
	}
	return w
}

func TestSave_RoundTrip(t *testing.T) {
	w := playedWorld(t)
	s, err := w.ExportSave()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	blob, err := snapshot.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	w2 := newTestWorld(t, 3, fixedSpawner{{I: 1, J: 1}: 3, {I: 30, J: 0}: 1})
	if _, err := w2.Restore(blob); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if w2.PlayerCell() != w.PlayerCell() || w2.PlayerPosition() != w.PlayerPosition() {
		t.Fatalf("player mismatch: %v vs %v", w2.PlayerPosition(), w.PlayerPosition())
	}
	if len(w2.PathHistory()) != len(w.PathHistory()) {
		t.Fatalf("path mismatch: %d vs %d", len(w2.PathHistory()), len(w.PathHistory()))
	}
	inv, inv2 := w.Inventory(), w2.Inventory()
	if len(inv) != len(inv2) {
		t.Fatalf("inventory mismatch: %+v vs %+v", inv, inv2)
	}
	for i := range inv {
		if inv[i] != inv2[i] {
			t.Fatalf("inventory[%d] mismatch: %+v vs %+v", i, inv[i], inv2[i])
		}
	}
	if err := w2.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}

	// Walking back reproduces the collected-from cache, not a regenerated one.
	moveToCell(t, w2, Cell{})
	v, _ := w2.CacheView(Cell{I: 1, J: 1})
	if got := serials(v); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("expected serials [0 2], got %v", got)
	}

	s2, err := w2.ExportSave()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(s2.Inventory) != len(s.Inventory) || s2.Header().Items != s.Header().Items {
		t.Fatalf("item count drifted: %+v vs %+v", s2.Header(), s.Header())
	}
}

func TestSave_ImportClearsDirtyState(t *testing.T) {
	w := playedWorld(t)
	if !w.NeedsSave() || len(w.DirtyCells()) == 0 {
		t.Fatalf("expected pending changes after play")
	}
	s, err := w.ExportSave()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := w.ImportSave(s); err != nil {
		t.Fatalf("import: %v", err)
	}
	if w.NeedsSave() {
		t.Fatalf("expected clean state after import")
	}
}

func TestRestore_GarbageFallsBackToFreshGame(t *testing.T) {
	w := playedWorld(t)
	_, err := w.Restore("{not json")
	if !errors.Is(err, ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization, got %v", err)
	}
	if CodeOf(err) != "E_DESERIALIZATION" {
		t.Fatalf("unexpected code %q", CodeOf(err))
	}
	if len(w.Inventory()) != 0 || w.PlayerCell() != (Cell{}) {
		t.Fatalf("expected fresh game after failed restore")
	}
	if err := w.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestRestore_RejectsDuplicateItem(t *testing.T) {
	dup := snapshot.ItemV1{OriginCell: snapshot.CellV1{I: 1, J: 1}, Serial: 0, CurrentCell: snapshot.CellV1{I: 1, J: 1}}
	held := dup
	held.InInventory = true
	s := snapshot.SaveV1{
		Version:         snapshot.Version,
		Inventory:       []snapshot.ItemV1{held},
		PersistedCaches: []snapshot.CacheV1{{Key: "1:1", Items: []snapshot.ItemV1{dup}}},
	}

	w := newTestWorld(t, 2, fixedSpawner{})
	if _, err := w.ImportSave(s); !errors.Is(err, ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization, got %v", err)
	}
	blob, err := snapshot.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := w.Restore(blob); !errors.Is(err, ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization, got %v", err)
	}
	if len(w.Inventory()) != 0 {
		t.Fatalf("expected empty inventory after fallback")
	}
}

func TestValidateSave_Rejections(t *testing.T) {
	item := func(i, j, serial int, held bool) snapshot.ItemV1 {
		return snapshot.ItemV1{
			OriginCell:  snapshot.CellV1{I: i, J: j},
			Serial:      serial,
			CurrentCell: snapshot.CellV1{I: i, J: j},
			InInventory: held,
		}
	}
	cases := map[string]snapshot.SaveV1{
		"version":        {Version: 2},
		"bad key":        {Version: 1, PersistedCaches: []snapshot.CacheV1{{Key: "x"}}},
		"duplicate key":  {Version: 1, PersistedCaches: []snapshot.CacheV1{{Key: "1:1"}, {Key: "1:1"}}},
		"negative":       {Version: 1, Inventory: []snapshot.ItemV1{item(0, 0, -1, true)}},
		"unheld in inv":  {Version: 1, Inventory: []snapshot.ItemV1{item(0, 0, 0, false)}},
		"held in cache":  {Version: 1, PersistedCaches: []snapshot.CacheV1{{Key: "0:0", Items: []snapshot.ItemV1{item(0, 0, 0, true)}}}},
		"misplaced item": {Version: 1, PersistedCaches: []snapshot.CacheV1{{Key: "5:5", Items: []snapshot.ItemV1{item(0, 0, 0, false)}}}},
	}
	for name, s := range cases {
		if _, err := validateSave(s); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}

	_, err := validateSave(snapshot.SaveV1{Version: 1, Inventory: []snapshot.ItemV1{item(2, -3, 1, false)}})
	if err == nil || err.Error() != "inventory item 2:-3#1 not flagged held" {
		t.Fatalf("unexpected error text: %v", err)
	}

	moved := item(0, 0, 0, false)
	moved.CurrentCell = snapshot.CellV1{I: 5, J: 5}
	ok := snapshot.SaveV1{Version: 1, PersistedCaches: []snapshot.CacheV1{{Key: "5:5", Items: []snapshot.ItemV1{moved}}}}
	if _, err := validateSave(ok); err != nil {
		t.Fatalf("dropped item should be accepted: %v", err)
	}
}

func TestLoadSession(t *testing.T) {
	sess := &memSession{}
	w := newTestWorld(t, 2, fixedSpawner{{I: 1, J: 1}: 2})
	if _, err := w.LoadSession(sess); err != nil {
		t.Fatalf("load empty session: %v", err)
	}
	if _, err := w.Collect(Cell{I: 1, J: 1}, 0); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !w.NeedsSave() {
		t.Fatalf("expected pending changes")
	}
	if err := w.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if w.NeedsSave() || sess.count() != 1 {
		t.Fatalf("expected one clean save")
	}

	w2 := newTestWorld(t, 2, fixedSpawner{{I: 1, J: 1}: 2})
	if _, err := w2.LoadSession(sess); err != nil {
		t.Fatalf("load session: %v", err)
	}
	if len(w2.Inventory()) != 1 {
		t.Fatalf("expected restored inventory")
	}
	v, _ := w2.CacheView(Cell{I: 1, J: 1})
	if len(v.Items) != 1 {
		t.Fatalf("expected 1 remaining item, got %d", len(v.Items))
	}
}
