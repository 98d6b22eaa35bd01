package world

import (
	"fmt"
	"sort"

	"geocoin.ai/internal/persistence/snapshot"
)

// ExportSave captures the full game. Active caches are written alongside the
// persisted entries so the save does not depend on the current window.
func (w *World) ExportSave() (snapshot.SaveV1, error) {
	s := snapshot.SaveV1{
		Version:        snapshot.Version,
		Inventory:      make([]snapshot.ItemV1, 0, len(w.ledger.inventory)),
		PlayerPosition: latLngV1(w.pos),
		PathHistory:    make([]snapshot.LatLngV1, 0, len(w.path)),
	}
	for _, it := range w.ledger.inventory {
		s.Inventory = append(s.Inventory, it.Memento())
	}

	err := w.store.Range(func(key string, items []snapshot.ItemV1) bool {
		s.PersistedCaches = append(s.PersistedCaches, snapshot.CacheV1{Key: key, Items: items})
		return true
	})
	if err != nil {
		return s, fmt.Errorf("export cell store: %w", err)
	}
	for _, c := range w.registry.ActiveCells() {
		cache := w.registry.Active(c)
		s.PersistedCaches = append(s.PersistedCaches, snapshot.CacheV1{Key: string(c.Key()), Items: cache.mementos()})
	}
	sort.Slice(s.PersistedCaches, func(i, j int) bool { return s.PersistedCaches[i].Key < s.PersistedCaches[j].Key })

	for _, p := range w.path {
		s.PathHistory = append(s.PathHistory, latLngV1(p))
	}
	return s, nil
}

// SessionStore is the medium the save blob is written to (file, database, ...).
type SessionStore interface {
	Save(blob string) error
	// Load returns ok=false when no save exists yet.
	Load() (blob string, ok bool, err error)
}

// NeedsSave reports whether anything changed since the last successful Save.
func (w *World) NeedsSave() bool { return w.moved || w.ledger.IsDirty() }

func (w *World) Save(store SessionStore) error {
	s, err := w.ExportSave()
	if err != nil {
		return err
	}
	blob, err := snapshot.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := store.Save(blob); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	w.ledger.ClearDirty()
	w.moved = false
	return nil
}
