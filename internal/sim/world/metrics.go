package world

import "time"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	PlayerCell  Cell   `json:"player_cell"`
	ActiveCells int    `json:"active_cells"`
	StoredCells int    `json:"stored_cells"`
	Inventory   int    `json:"inventory"`
	Clients     int    `json:"clients"`
	Seq         uint64 `json:"seq"`

	Commands    uint64  `json:"commands_total"`
	Rejected    uint64  `json:"rejected_total"`
	Saves       uint64  `json:"saves_total"`
	SaveErrors  uint64  `json:"save_errors_total"`
	Detached    uint64  `json:"detached_total"`
	LastSaveAge float64 `json:"last_save_age_s"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox  int `json:"inbox"`
	Leave  int `json:"leave"`
	Attach int `json:"attach"`
}

type counters struct {
	commands   uint64
	rejected   uint64
	saves      uint64
	saveErrors uint64
	detached   uint64
	lastSave   time.Time
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(step time.Duration) {
	stored, err := w.store.Len()
	if err != nil {
		stored = -1
	}
	m := WorldMetrics{
		PlayerCell:  w.center,
		ActiveCells: w.registry.Len(),
		StoredCells: stored,
		Inventory:   w.ledger.InventoryLen(),
		Clients:     len(w.clients),
		Seq:         w.seq,
		Commands:    w.stats.commands,
		Rejected:    w.stats.rejected,
		Saves:       w.stats.saves,
		SaveErrors:  w.stats.saveErrors,
		Detached:    w.stats.detached,
		QueueDepths: QueueDepths{
			Inbox:  len(w.inbox),
			Leave:  len(w.leave),
			Attach: len(w.attach),
		},
		StepMS: float64(step.Microseconds()) / 1000,
	}
	if !w.stats.lastSave.IsZero() {
		m.LastSaveAge = w.now().Sub(w.stats.lastSave).Seconds()
	}
	w.metrics.Store(m)
}
