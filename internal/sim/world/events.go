package world

type EventKind string

const (
	EventCellShow        EventKind = "CELL_SHOW"
	EventCellHide        EventKind = "CELL_HIDE"
	EventCacheUpdate     EventKind = "CACHE_UPDATE"
	EventInventoryUpdate EventKind = "INVENTORY_UPDATE"
	EventPlayerMove      EventKind = "PLAYER_MOVE"
)

// Event is a change notification for the display side. Cache is nil for
// CELL_SHOW of an empty cell and for CELL_HIDE.
type Event struct {
	Kind      EventKind
	Cell      Cell
	Cache     *CacheView
	Inventory []ItemView
	Position  LatLng
}

func showEvent(cache *Cache) Event {
	ev := Event{Kind: EventCellShow, Cell: cache.Cell}
	if !cache.Empty() {
		v := cache.View()
		ev.Cache = &v
	}
	return ev
}

func hideEvent(c Cell) Event { return Event{Kind: EventCellHide, Cell: c} }

func cacheEvent(cache *Cache) Event {
	v := cache.View()
	return Event{Kind: EventCacheUpdate, Cell: cache.Cell, Cache: &v}
}

func inventoryEvent(l *Ledger) Event {
	return Event{Kind: EventInventoryUpdate, Inventory: itemViews(l.inventory)}
}
