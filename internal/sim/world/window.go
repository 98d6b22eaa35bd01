package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/zyedidia/generic/mapset"
)

// OnPlayerMove snaps pos to its cell center and slides the window there:
// cells entering the window are materialized, cells leaving it are evicted.
func (w *World) OnPlayerMove(pos LatLng) ([]Event, error) {
	center, snapped := w.mapper.Snap(pos)
	events, err := w.syncWindow(center)
	if err != nil {
		return events, err
	}
	w.center, w.pos = center, snapped
	w.path = append(w.path, snapped)
	w.moved = true
	events = append(events, Event{Kind: EventPlayerMove, Cell: center, Position: snapped})
	return events, nil
}

// Move steps one cell in dir from the current cell.
func (w *World) Move(dir Direction) ([]Event, error) {
	di, dj, ok := dir.Offset()
	if !ok {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrBadRequest, dir)
	}
	return w.OnPlayerMove(w.mapper.Center(w.center.Add(di, dj)))
}

// MoveTo jumps to an absolute position, e.g. a geolocation fix.
func (w *World) MoveTo(pos LatLng) ([]Event, error) {
	if !finite(pos) || math.Abs(pos.Lat) > 90 || math.Abs(pos.Lng) > 180 {
		return nil, fmt.Errorf("%w: position %v out of range", ErrBadRequest, pos)
	}
	return w.OnPlayerMove(pos)
}

// syncWindow materializes every cell within R of center and evicts the rest.
// A failed materialization evicts the cells added by this call again so the
// window still matches the old center. A corrupt store entry is quarantined:
// the entry is dropped and the cell comes back empty.
func (w *World) syncWindow(center Cell) ([]Event, error) {
	r := w.cfg.WindowRadius
	want := mapset.New[CellKey]()
	var events []Event
	var added []Cell

	for di := -r; di <= r; di++ {
		for dj := -r; dj <= r; dj++ {
			c := center.Add(di, dj)
			want.Put(c.Key())
			if w.registry.IsActive(c) {
				continue
			}
			cache, err := w.registry.Materialize(c)
			if errors.Is(err, ErrDeserialization) {
				w.log.WithError(err).WithField("cell", c.String()).Warn("quarantining corrupt cell entry")
				cache, err = w.registry.quarantine(c)
			}
			if err != nil {
				w.rollback(added)
				return nil, err
			}
			added = append(added, c)
			events = append(events, showEvent(cache))
		}
	}

	// Scan every active cell rather than the previous window: the registry may
	// hold cells the last window never covered (restores, resets, failed evictions).
	for _, c := range w.registry.ActiveCells() {
		if want.Has(c.Key()) {
			continue
		}
		if err := w.registry.Evict(c); err != nil {
			w.log.WithError(err).WithField("cell", c.String()).Warn("evict failed; retrying on next move")
			continue
		}
		if w.openCell != nil && *w.openCell == c {
			w.openCell = nil
		}
		events = append(events, hideEvent(c))
	}
	return events, nil
}

// rollback returns cells materialized by an aborted sync to the store.
func (w *World) rollback(cells []Cell) {
	for _, c := range cells {
		if err := w.registry.Evict(c); err != nil {
			w.log.WithError(err).WithField("cell", c.String()).Error("rollback evict failed")
		}
	}
}
