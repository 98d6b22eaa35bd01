package world

import (
	"errors"
	"fmt"

	"geocoin.ai/internal/persistence/snapshot"
)

type importedCache struct {
	key   string
	items []snapshot.ItemV1
}

func validateSave(s snapshot.SaveV1) ([]importedCache, error) {
	if s.Version != snapshot.Version {
		return nil, fmt.Errorf("unsupported version %d", s.Version)
	}
	seen := map[ItemID]struct{}{}
	claim := func(m snapshot.ItemV1) error {
		id := ItemID{Origin: cellFromV1(m.OriginCell), Serial: m.Serial}
		if m.Serial < 0 {
			return fmt.Errorf("item %s has negative serial", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("item %s appears twice", id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, m := range s.Inventory {
		if !m.InInventory {
			id := ItemID{Origin: cellFromV1(m.OriginCell), Serial: m.Serial}
			return nil, fmt.Errorf("inventory item %s not flagged held", id)
		}
		if err := claim(m); err != nil {
			return nil, err
		}
	}

	keys := map[string]struct{}{}
	out := make([]importedCache, 0, len(s.PersistedCaches))
	for _, e := range s.PersistedCaches {
		c, err := ParseCellKey(CellKey(e.Key))
		if err != nil {
			return nil, err
		}
		key := string(c.Key())
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("cell %s appears twice", key)
		}
		keys[key] = struct{}{}
		for _, m := range e.Items {
			if m.InInventory {
				return nil, fmt.Errorf("cell %s holds an item flagged held", key)
			}
			if cellFromV1(m.CurrentCell) != c {
				return nil, fmt.Errorf("cell %s holds an item resting elsewhere", key)
			}
			if err := claim(m); err != nil {
				return nil, err
			}
		}
		out = append(out, importedCache{key: key, items: e.Items})
	}

	if !finite(latLngFromV1(s.PlayerPosition)) {
		return nil, fmt.Errorf("player position not finite")
	}
	for _, p := range s.PathHistory {
		if !finite(latLngFromV1(p)) {
			return nil, fmt.Errorf("path point not finite")
		}
	}
	return out, nil
}

// ImportSave replaces the whole game with s. An invalid save is rejected with
// ErrDeserialization before any state is touched.
func (w *World) ImportSave(s snapshot.SaveV1) ([]Event, error) {
	caches, err := validateSave(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	events := w.clear()
	if err := w.store.Reset(); err != nil {
		return events, fmt.Errorf("reset cell store: %w", err)
	}
	for _, e := range caches {
		if err := w.store.Put(e.key, e.items); err != nil {
			return events, fmt.Errorf("restore cell %s: %w", e.key, err)
		}
	}
	for _, m := range s.Inventory {
		it := itemFromMemento(m)
		if err := w.ledger.track(it); err != nil {
			events = append(events, w.clear()...)
			return events, fmt.Errorf("%w: %v", ErrDeserialization, err)
		}
		w.ledger.inventory = append(w.ledger.inventory, it)
	}
	for _, p := range s.PathHistory {
		w.path = append(w.path, latLngFromV1(p))
	}

	center, pos := w.mapper.Snap(latLngFromV1(s.PlayerPosition))
	more, err := w.syncWindow(center)
	events = append(events, more...)
	if err != nil {
		return events, err
	}
	w.center, w.pos = center, pos
	events = append(events, Event{Kind: EventPlayerMove, Cell: center, Position: pos}, inventoryEvent(w.ledger))

	w.ledger.ClearDirty()
	w.moved = false
	return events, nil
}

// Restore loads a save blob. A blob that cannot be used is never fatal: the
// world falls back to a fresh game and the returned error wraps ErrDeserialization.
func (w *World) Restore(blob string) ([]Event, error) {
	s, err := snapshot.Unmarshal(blob)
	if err == nil {
		var events []Event
		events, err = w.ImportSave(s)
		if err == nil {
			return events, nil
		}
	}

	w.log.WithError(err).Warn("save unusable; starting a fresh game")
	events, rerr := w.Reset()
	if rerr != nil {
		return events, rerr
	}
	if errors.Is(err, ErrDeserialization) {
		return events, err
	}
	return events, fmt.Errorf("%w: %v", ErrDeserialization, err)
}

// LoadSession restores from store, or starts fresh when it holds no save.
func (w *World) LoadSession(store SessionStore) ([]Event, error) {
	blob, ok, err := store.Load()
	if err != nil {
		events, rerr := w.Reset()
		if rerr != nil {
			return events, rerr
		}
		return events, fmt.Errorf("%w: load session: %v", ErrDeserialization, err)
	}
	if !ok {
		return w.Reset()
	}
	return w.Restore(blob)
}
