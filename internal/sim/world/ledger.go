package world

import (
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Ledger tracks every materialized coin, the player inventory and the cells
// touched since the last save.
type Ledger struct {
	inventory []*Item
	live      map[ItemID]*Item
	dirty     mapset.Set[CellKey]
}

func NewLedger() *Ledger {
	return &Ledger{
		live:  map[ItemID]*Item{},
		dirty: mapset.New[CellKey](),
	}
}

func (l *Ledger) reset() {
	l.inventory = nil
	l.live = map[ItemID]*Item{}
	l.dirty = mapset.New[CellKey]()
}

func (l *Ledger) track(it *Item) error {
	if _, ok := l.live[it.ID]; ok {
		return fmt.Errorf("duplicate item %s", it.ID)
	}
	l.live[it.ID] = it
	return nil
}

func (l *Ledger) untrack(id ItemID) { delete(l.live, id) }

func (l *Ledger) Lookup(id ItemID) (*Item, bool) {
	it, ok := l.live[id]
	return it, ok
}

// Inventory returns the held coins in pickup order.
func (l *Ledger) Inventory() []*Item {
	return append([]*Item(nil), l.inventory...)
}

func (l *Ledger) InventoryLen() int { return len(l.inventory) }

// Collect moves cache.Items[index] into the inventory.
func (l *Ledger) Collect(cell Cell, cache *Cache, index int) (*Item, error) {
	if cache == nil || cache.Cell != cell {
		return nil, fmt.Errorf("%w: cell %s is not open", ErrPreconditionFailed, cell)
	}
	if index < 0 || index >= len(cache.Items) {
		return nil, fmt.Errorf("%w: index %d out of range (%d items)", ErrPreconditionFailed, index, len(cache.Items))
	}
	it := cache.Items[index]
	if it.InInventory {
		return nil, fmt.Errorf("%w: item %s already held", ErrPreconditionFailed, it.ID)
	}
	if it.Current != cell {
		return nil, fmt.Errorf("%w: item %s rests at %s, not %s", ErrPreconditionFailed, it.ID, it.Current, cell)
	}

	cache.removeAt(index)
	it.InInventory = true
	l.inventory = append(l.inventory, it)
	l.MarkDirty(cell)
	return it, nil
}

// Drop moves inventory[invIndex] into the open cache at target.
func (l *Ledger) Drop(target Cell, cache *Cache, invIndex int) (*Item, error) {
	if cache == nil {
		return nil, ErrNoOpenCache
	}
	if cache.Cell != target {
		return nil, fmt.Errorf("%w: open cache is %s, not %s", ErrPreconditionFailed, cache.Cell, target)
	}
	if invIndex < 0 || invIndex >= len(l.inventory) {
		return nil, fmt.Errorf("%w: inventory index %d out of range (%d items)", ErrPreconditionFailed, invIndex, len(l.inventory))
	}
	it := l.inventory[invIndex]
	if !it.InInventory {
		return nil, fmt.Errorf("%w: item %s is not held", ErrPreconditionFailed, it.ID)
	}

	l.inventory = append(l.inventory[:invIndex:invIndex], l.inventory[invIndex+1:]...)
	it.InInventory = false
	it.Current = target
	cache.Items = append(cache.Items, it)
	l.MarkDirty(target)
	return it, nil
}

func (l *Ledger) MarkDirty(c Cell) { l.dirty.Put(c.Key()) }

func (l *Ledger) IsDirty() bool { return l.dirty.Size() > 0 }

// DirtyCells lists the cells touched since the last ClearDirty, sorted.
func (l *Ledger) DirtyCells() []CellKey {
	out := make([]CellKey, 0, l.dirty.Size())
	l.dirty.Each(func(k CellKey) { out = append(out, k) })
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (l *Ledger) ClearDirty() { l.dirty = mapset.New[CellKey]() }

// CheckInvariants verifies that every live coin is either held or resident in
// exactly one active cache at its current cell, never both.
func (l *Ledger) CheckInvariants(r *Registry) error {
	seen := map[ItemID]string{}
	for _, it := range l.inventory {
		if !it.InInventory {
			return fmt.Errorf("inventory item %s not flagged held", it.ID)
		}
		if where, ok := seen[it.ID]; ok {
			return fmt.Errorf("item %s in inventory and %s", it.ID, where)
		}
		seen[it.ID] = "inventory"
	}
	for _, c := range r.ActiveCells() {
		cache := r.Active(c)
		for _, it := range cache.Items {
			if it.InInventory {
				return fmt.Errorf("cache %s holds item %s flagged held", c, it.ID)
			}
			if it.Current != c {
				return fmt.Errorf("cache %s holds item %s resting at %s", c, it.ID, it.Current)
			}
			if where, ok := seen[it.ID]; ok {
				return fmt.Errorf("item %s in cache %s and %s", it.ID, c, where)
			}
			seen[it.ID] = "cache " + c.String()
		}
	}
	if len(seen) != len(l.live) {
		return fmt.Errorf("ledger tracks %d items, %d reachable", len(l.live), len(seen))
	}
	for id := range seen {
		if _, ok := l.live[id]; !ok {
			return fmt.Errorf("item %s reachable but untracked", id)
		}
	}
	return nil
}
