package world

import "geocoin.ai/internal/protocol"

func encodeCell(c Cell) protocol.Cell { return protocol.Cell{I: c.I, J: c.J} }

func encodeItems(items []ItemView) []protocol.Item {
	out := make([]protocol.Item, 0, len(items))
	for _, it := range items {
		out = append(out, protocol.Item{
			ID:          it.ID,
			Origin:      encodeCell(it.Origin),
			Serial:      it.Serial,
			Current:     encodeCell(it.Current),
			InInventory: it.InInventory,
		})
	}
	return out
}

func encodeCache(v *CacheView) *protocol.Cache {
	if v == nil {
		return nil
	}
	return &protocol.Cache{Cell: encodeCell(v.Cell), Items: encodeItems(v.Items)}
}

func encodeEvents(events []Event) []protocol.Event {
	out := make([]protocol.Event, 0, len(events))
	for _, ev := range events {
		pe := protocol.Event{
			Kind:  string(ev.Kind),
			Cell:  encodeCell(ev.Cell),
			Cache: encodeCache(ev.Cache),
		}
		switch ev.Kind {
		case EventInventoryUpdate:
			pe.Inventory = encodeItems(ev.Inventory)
		case EventPlayerMove:
			pos := protocol.LatLng{Lat: ev.Position.Lat, Lng: ev.Position.Lng}
			pe.Position = &pos
		}
		out = append(out, pe)
	}
	return out
}

func (w *World) buildWelcome(clientID string) protocol.WelcomeMsg {
	msg := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ClientID:        clientID,
		TileSize:        w.cfg.TileSize,
		WindowRadius:    w.cfg.WindowRadius,
		Position:        protocol.LatLng{Lat: w.pos.Lat, Lng: w.pos.Lng},
		Inventory:       encodeItems(w.Inventory()),
	}
	for _, c := range w.registry.ActiveCells() {
		st := protocol.CellState{Cell: encodeCell(c)}
		if cache := w.registry.Active(c); !cache.Empty() {
			v := cache.View()
			st.Cache = encodeCache(&v)
		}
		msg.Cells = append(msg.Cells, st)
	}
	if w.openCell != nil {
		oc := encodeCell(*w.openCell)
		msg.OpenCell = &oc
	}
	return msg
}
