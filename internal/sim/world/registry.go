package world

import (
	"fmt"
	"sort"
)

// Registry is the set of materialized cells. A cell is either present here
// (active) or its state lives in the CellStore (or it was never visited).
type Registry struct {
	gen    Spawner
	store  CellStore
	ledger *Ledger

	active map[CellKey]*Cache
}

func NewRegistry(gen Spawner, store CellStore, ledger *Ledger) *Registry {
	return &Registry{
		gen:    gen,
		store:  store,
		ledger: ledger,
		active: map[CellKey]*Cache{},
	}
}

func (r *Registry) Active(c Cell) *Cache { return r.active[c.Key()] }

func (r *Registry) IsActive(c Cell) bool {
	_, ok := r.active[c.Key()]
	return ok
}

func (r *Registry) Len() int { return len(r.active) }

// ActiveCells returns the active cells ordered by I then J.
func (r *Registry) ActiveCells() []Cell {
	out := make([]Cell, 0, len(r.active))
	for _, c := range r.active {
		out = append(out, c.Cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].I != out[j].I {
			return out[i].I < out[j].I
		}
		return out[i].J < out[j].J
	})
	return out
}

// Materialize activates c, restoring it from the store when an entry exists
// and generating it otherwise.
func (r *Registry) Materialize(c Cell) (*Cache, error) {
	if cache, ok := r.active[c.Key()]; ok {
		return cache, nil
	}
	key := string(c.Key())
	mementos, ok, err := r.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("load cell %s: %w", key, err)
	}

	cache := &Cache{Cell: c}
	if ok {
		for _, m := range mementos {
			it := itemFromMemento(m)
			if it.InInventory || it.Current != c {
				return nil, fmt.Errorf("%w: cell %s entry holds misplaced item %s", ErrDeserialization, key, it.ID)
			}
			cache.Items = append(cache.Items, it)
		}
	} else if r.gen.ShouldSpawn(c) {
		n := r.gen.ItemCount(c)
		cache.Items = make([]*Item, 0, n)
		for serial := 0; serial < n; serial++ {
			cache.Items = append(cache.Items, newItem(c, serial))
		}
	}

	for i, it := range cache.Items {
		if err := r.ledger.track(it); err != nil {
			r.untrack(cache.Items[:i])
			return nil, fmt.Errorf("%w: cell %s: %v", ErrDeserialization, key, err)
		}
	}
	if ok {
		if err := r.store.Delete(key); err != nil {
			r.untrack(cache.Items)
			return nil, fmt.Errorf("clear cell %s: %w", key, err)
		}
	}
	r.active[c.Key()] = cache
	return cache, nil
}

// Evict freezes the cache of c into the store and deactivates it. The entry is
// written even when empty so the cell is never regenerated.
func (r *Registry) Evict(c Cell) error {
	cache, ok := r.active[c.Key()]
	if !ok {
		return nil
	}
	if err := r.store.Put(string(c.Key()), cache.mementos()); err != nil {
		return fmt.Errorf("store cell %s: %w", c, err)
	}
	r.untrack(cache.Items)
	delete(r.active, c.Key())
	return nil
}

// quarantine drops the stored entry of c and activates it as an empty cell.
func (r *Registry) quarantine(c Cell) (*Cache, error) {
	key := string(c.Key())
	if err := r.store.Delete(key); err != nil {
		return nil, fmt.Errorf("quarantine cell %s: %w", key, err)
	}
	cache := &Cache{Cell: c}
	r.active[c.Key()] = cache
	return cache, nil
}

func (r *Registry) untrack(items []*Item) {
	for _, it := range items {
		r.ledger.untrack(it.ID)
	}
}

// discard drops every active cache without persisting it.
func (r *Registry) discard() {
	for k, cache := range r.active {
		r.untrack(cache.Items)
		delete(r.active, k)
	}
}
