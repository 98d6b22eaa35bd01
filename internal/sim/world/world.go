package world

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// World owns the whole game state: the window of active cells, the coin
// ledger, the persisted store of departed cells and the player. It is not
// safe for concurrent use; Run serializes all access onto one goroutine.
type World struct {
	cfg    WorldConfig
	mapper Mapper
	store  CellStore

	ledger   *Ledger
	registry *Registry

	pos    LatLng
	center Cell
	path   []LatLng

	openCell *Cell
	moved    bool

	log         logrus.FieldLogger
	auditLogger AuditLogger
	now         func() time.Time

	session SessionStore
	clients map[string]*clientState
	seq     uint64

	inbox    chan Command
	attach   chan AttachRequest
	leave    chan string
	admin    chan adminSaveReq
	stop     chan struct{}
	stopOnce sync.Once

	stats   counters
	metrics atomic.Value // WorldMetrics
}

// New builds a world with no active cells. Call Reset, Restore or LoadSession
// before issuing commands.
func New(cfg WorldConfig, store CellStore) (*World, error) {
	cfg.applyDefaults()
	if !finite(cfg.Origin) || !finite(cfg.Start) || math.IsInf(cfg.TileSize, 0) || math.IsNaN(cfg.TileSize) {
		return nil, fmt.Errorf("world config: origin, start and tile size must be finite")
	}
	if store == nil {
		store = NewMemoryCellStore()
	}
	ledger := NewLedger()
	w := &World{
		cfg:      cfg,
		mapper:   cfg.Mapper(),
		store:    store,
		ledger:   ledger,
		registry: NewRegistry(cfg.WorldGen(), store, ledger),
		log:      logrus.StandardLogger().WithField("component", "world"),
		now:      time.Now,
		clients:  map[string]*clientState{},
		inbox:    make(chan Command, cfg.InboxSize),
		attach:   make(chan AttachRequest, 16),
		leave:    make(chan string, 16),
		admin:    make(chan adminSaveReq, 4),
		stop:     make(chan struct{}),
	}
	w.center, w.pos = w.mapper.Snap(cfg.Start)
	return w, nil
}

func finite(p LatLng) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

func (w *World) Config() WorldConfig { return w.cfg }
func (w *World) Mapper() Mapper      { return w.mapper }

func (w *World) PlayerPosition() LatLng { return w.pos }
func (w *World) PlayerCell() Cell       { return w.center }

func (w *World) PathHistory() []LatLng { return append([]LatLng(nil), w.path...) }

func (w *World) Inventory() []ItemView { return itemViews(w.ledger.inventory) }

func (w *World) ActiveCells() []Cell { return w.registry.ActiveCells() }

func (w *World) IsActive(c Cell) bool { return w.registry.IsActive(c) }

func (w *World) CacheView(c Cell) (CacheView, bool) {
	cache := w.registry.Active(c)
	if cache == nil {
		return CacheView{}, false
	}
	return cache.View(), true
}

func (w *World) OpenCell() (Cell, bool) {
	if w.openCell == nil {
		return Cell{}, false
	}
	return *w.openCell, true
}

// DirtyCells lists cells whose coins changed since the last save.
func (w *World) DirtyCells() []CellKey { return w.ledger.DirtyCells() }

// CheckInvariants verifies the disjoint held/resident rule over all materialized coins.
func (w *World) CheckInvariants() error { return w.ledger.CheckInvariants(w.registry) }

// StoredCells reports the number of persisted store entries.
func (w *World) StoredCells() (int, error) { return w.store.Len() }

// OpenCache sets the interaction context used by Drop.
func (w *World) OpenCache(c Cell) ([]Event, error) {
	cache := w.registry.Active(c)
	if cache == nil {
		return nil, fmt.Errorf("%w: cell %s is not active", ErrPreconditionFailed, c)
	}
	cell := c
	w.openCell = &cell
	return []Event{cacheEvent(cache)}, nil
}

func (w *World) CloseCache() { w.openCell = nil }

func (w *World) Collect(c Cell, index int) ([]Event, error) {
	cache := w.registry.Active(c)
	if cache == nil {
		return nil, fmt.Errorf("%w: cell %s is not active", ErrPreconditionFailed, c)
	}
	it, err := w.ledger.Collect(c, cache, index)
	if err != nil {
		return nil, err
	}
	w.auditf(AuditEntry{Action: "COLLECT", Item: it.ID.String(), From: c.String()})
	return []Event{cacheEvent(cache), inventoryEvent(w.ledger)}, nil
}

// Drop places inventory[invIndex] into the open cache, which must be at c.
func (w *World) Drop(c Cell, invIndex int) ([]Event, error) {
	if w.openCell == nil {
		return nil, ErrNoOpenCache
	}
	cache := w.registry.Active(*w.openCell)
	if cache == nil {
		w.openCell = nil
		return nil, ErrNoOpenCache
	}
	it, err := w.ledger.Drop(c, cache, invIndex)
	if err != nil {
		return nil, err
	}
	w.auditf(AuditEntry{Action: "DROP", Item: it.ID.String(), To: c.String()})
	return []Event{cacheEvent(cache), inventoryEvent(w.ledger)}, nil
}

const (
	ActionCollect = "collect"
	ActionDrop    = "drop"
)

func (w *World) Interact(c Cell, index int, action string) ([]Event, error) {
	switch action {
	case ActionCollect:
		return w.Collect(c, index)
	case ActionDrop:
		return w.Drop(c, index)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrBadRequest, action)
	}
}

// Reset discards every coin, entry and trail and starts over at the configured start.
func (w *World) Reset() ([]Event, error) {
	events := w.clear()
	if err := w.store.Reset(); err != nil {
		return events, fmt.Errorf("reset cell store: %w", err)
	}
	more, err := w.OnPlayerMove(w.cfg.Start)
	events = append(events, more...)
	events = append(events, inventoryEvent(w.ledger))
	w.auditf(AuditEntry{Action: "RESET"})
	return events, err
}

// clear drops all in-memory state without touching the store.
func (w *World) clear() []Event {
	var events []Event
	for _, c := range w.registry.ActiveCells() {
		events = append(events, hideEvent(c))
	}
	w.registry.discard()
	w.ledger.reset()
	w.openCell = nil
	w.path = nil
	return events
}
