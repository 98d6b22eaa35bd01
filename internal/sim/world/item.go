package world

import (
	"strconv"

	"geocoin.ai/internal/persistence/snapshot"
)

// ItemID is the permanent identity of a coin.
type ItemID struct {
	Origin Cell
	Serial int
}

func (id ItemID) String() string {
	return string(id.Origin.Key()) + "#" + strconv.Itoa(id.Serial)
}

type Item struct {
	ID ItemID

	// Current is the last cell the coin rested in. It is kept while the coin is
	// held so the coin can always be traced back.
	Current     Cell
	InInventory bool
}

func newItem(origin Cell, serial int) *Item {
	return &Item{ID: ItemID{Origin: origin, Serial: serial}, Current: origin}
}

func (it *Item) Memento() snapshot.ItemV1 {
	return snapshot.ItemV1{
		OriginCell:  cellV1(it.ID.Origin),
		Serial:      it.ID.Serial,
		CurrentCell: cellV1(it.Current),
		InInventory: it.InInventory,
	}
}

func itemFromMemento(m snapshot.ItemV1) *Item {
	return &Item{
		ID:          ItemID{Origin: cellFromV1(m.OriginCell), Serial: m.Serial},
		Current:     cellFromV1(m.CurrentCell),
		InInventory: m.InInventory,
	}
}

func cellV1(c Cell) snapshot.CellV1       { return snapshot.CellV1{I: c.I, J: c.J} }
func cellFromV1(c snapshot.CellV1) Cell   { return Cell{I: c.I, J: c.J} }
func latLngV1(p LatLng) snapshot.LatLngV1 { return snapshot.LatLngV1{Lat: p.Lat, Lng: p.Lng} }
func latLngFromV1(p snapshot.LatLngV1) LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lng}
}

// ItemView is a read-only copy handed to the display side.
type ItemView struct {
	ID          string
	Origin      Cell
	Serial      int
	Current     Cell
	InInventory bool
}

func (it *Item) View() ItemView {
	return ItemView{
		ID:          it.ID.String(),
		Origin:      it.ID.Origin,
		Serial:      it.ID.Serial,
		Current:     it.Current,
		InInventory: it.InInventory,
	}
}

func itemViews(items []*Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, it.View())
	}
	return out
}
