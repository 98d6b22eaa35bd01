package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name,omitempty"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client). Carries the full visible state so the display
// can draw without replaying history.
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ClientID        string      `json:"client_id"`
	TileSize        float64     `json:"tile_size"`
	WindowRadius    int         `json:"window_radius"`
	Position        LatLng      `json:"position"`
	Cells           []CellState `json:"cells"`
	Inventory       []Item      `json:"inventory"`
	OpenCell        *Cell       `json:"open_cell,omitempty"`
}

// Command (client -> server). Fields are read according to Type.
type CommandMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Direction       string  `json:"direction,omitempty"`
	Position        *LatLng `json:"position,omitempty"`
	Cell            *Cell   `json:"cell,omitempty"`
	Index           int     `json:"index,omitempty"`
	Action          string  `json:"action,omitempty"`
}

// EVENTS (server -> client): the notifications produced by one command.
type EventsMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Seq             uint64  `json:"seq"`
	Events          []Event `json:"events"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

type Event struct {
	Kind      string  `json:"kind"`
	Cell      Cell    `json:"cell"`
	Cache     *Cache  `json:"cache,omitempty"`
	Inventory []Item  `json:"inventory,omitempty"`
	Position  *LatLng `json:"position,omitempty"`
}

type Cell struct {
	I int `json:"i"`
	J int `json:"j"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Item struct {
	ID          string `json:"id"`
	Origin      Cell   `json:"origin"`
	Serial      int    `json:"serial"`
	Current     Cell   `json:"current"`
	InInventory bool   `json:"in_inventory"`
}

type Cache struct {
	Cell  Cell   `json:"cell"`
	Items []Item `json:"items"`
}

// CellState is one active cell as listed in WELCOME.
type CellState struct {
	Cell  Cell   `json:"cell"`
	Cache *Cache `json:"cache,omitempty"`
}
