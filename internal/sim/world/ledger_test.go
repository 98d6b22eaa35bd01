package world

import (
	"errors"
	"testing"
)

func TestLedger_CollectMovesItem(t *testing.T) {
	l := NewLedger()
	c := Cell{I: 2, J: 3}
	cache := &Cache{Cell: c}
	for s := 0; s < 3; s++ {
		it := newItem(c, s)
		_ = l.track(it)
		cache.Items = append(cache.Items, it)
	}

	it, err := l.Collect(c, cache, 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if it.ID != (ItemID{Origin: c, Serial: 1}) || !it.InInventory {
		t.Fatalf("unexpected item %+v", it)
	}
	if it.Current != c {
		t.Fatalf("current cell must be preserved on collect, got %v", it.Current)
	}
	if cache.Len() != 2 || cache.Items[0].ID.Serial != 0 || cache.Items[1].ID.Serial != 2 {
		t.Fatalf("unexpected cache contents after collect")
	}
	if l.InventoryLen() != 1 {
		t.Fatalf("expected 1 held item, got %d", l.InventoryLen())
	}
	if got := l.DirtyCells(); len(got) != 1 || got[0] != c.Key() {
		t.Fatalf("expected %s dirty, got %v", c.Key(), got)
	}
}

func TestLedger_CollectRejectsStaleRequests(t *testing.T) {
	l := NewLedger()
	c := Cell{I: 0, J: 0}
	cache := &Cache{Cell: c}
	it := newItem(c, 0)
	_ = l.track(it)
	cache.Items = append(cache.Items, it)

	cases := []struct {
		name  string
		cell  Cell
		cache *Cache
		index int
	}{
		{"nil cache", c, nil, 0},
		{"wrong cell", Cell{I: 1, J: 0}, cache, 0},
		{"negative index", c, cache, -1},
		{"index past end", c, cache, 1},
	}
	for _, tc := range cases {
		if _, err := l.Collect(tc.cell, tc.cache, tc.index); !errors.Is(err, ErrPreconditionFailed) {
			t.Fatalf("%s: expected ErrPreconditionFailed, got %v", tc.name, err)
		}
	}

	if _, err := l.Collect(c, cache, 0); err != nil {
		t.Fatalf("collect: %v", err)
	}
	// Same index again: the popup still shows the coin but it is gone.
	if _, err := l.Collect(c, cache, 0); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected stale collect to fail, got %v", err)
	}

	// A coin resting somewhere else is not collectable from this cache.
	stray := newItem(Cell{I: 9, J: 9}, 0)
	cache.Items = append(cache.Items, stray)
	if _, err := l.Collect(c, cache, 0); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected misplaced item to fail, got %v", err)
	}
	stray.Current = c
	stray.InInventory = true
	if _, err := l.Collect(c, cache, 0); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected held item to fail, got %v", err)
	}
}

func TestLedger_Drop(t *testing.T) {
	l := NewLedger()
	origin := Cell{I: 2, J: 3}
	src := &Cache{Cell: origin, Items: []*Item{newItem(origin, 0)}}
	_ = l.track(src.Items[0])
	if _, err := l.Collect(origin, src, 0); err != nil {
		t.Fatalf("collect: %v", err)
	}
	l.ClearDirty()

	target := Cell{I: 5, J: 5}
	dst := &Cache{Cell: target}

	if _, err := l.Drop(target, nil, 0); !errors.Is(err, ErrNoOpenCache) {
		t.Fatalf("expected ErrNoOpenCache, got %v", err)
	}
	if _, err := l.Drop(Cell{I: 6, J: 5}, dst, 0); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected wrong target to fail, got %v", err)
	}
	if _, err := l.Drop(target, dst, 1); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected bad index to fail, got %v", err)
	}

	it, err := l.Drop(target, dst, 0)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if it.Current != target || it.ID.Origin != origin || it.InInventory {
		t.Fatalf("unexpected item after drop: %+v", it)
	}
	if dst.Len() != 1 || l.InventoryLen() != 0 {
		t.Fatalf("drop did not move the item")
	}
	if got := l.DirtyCells(); len(got) != 1 || got[0] != target.Key() {
		t.Fatalf("expected %s dirty, got %v", target.Key(), got)
	}
}

func TestLedger_TrackRejectsDuplicates(t *testing.T) {
	l := NewLedger()
	if err := l.track(newItem(Cell{}, 0)); err != nil {
		t.Fatalf("track: %v", err)
	}
	if err := l.track(newItem(Cell{}, 0)); err == nil {
		t.Fatalf("expected duplicate to be rejected")
	}
}
