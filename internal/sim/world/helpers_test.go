package world

import (
	"sync"
	"testing"
)

// fixedSpawner places caches only at the listed cells with the listed sizes.
type fixedSpawner map[Cell]int

func (f fixedSpawner) ShouldSpawn(c Cell) bool {
	_, ok := f[c]
	return ok
}

func (f fixedSpawner) ItemCount(c Cell) int { return f[c] }

// countingSpawner records how often generation ran per cell.
type countingSpawner struct {
	inner Spawner
	calls map[Cell]int
}

func (s *countingSpawner) ShouldSpawn(c Cell) bool {
	s.calls[c]++
	return s.inner.ShouldSpawn(c)
}

func (s *countingSpawner) ItemCount(c Cell) int { return s.inner.ItemCount(c) }

// newTestWorld builds a world on a unit grid with the player at cell (0,0).
func newTestWorld(t *testing.T, radius int, sp Spawner) *World {
	t.Helper()
	w, err := New(WorldConfig{TileSize: 1, WindowRadius: radius, Start: LatLng{Lat: 0.5, Lng: 0.5}}, nil)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if sp != nil {
		w.SetSpawner(sp)
	}
	if _, err := w.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return w
}

func moveToCell(t *testing.T, w *World, c Cell) []Event {
	t.Helper()
	events, err := w.OnPlayerMove(w.Mapper().Center(c))
	if err != nil {
		t.Fatalf("move to %v: %v", c, err)
	}
	return events
}

func serials(v CacheView) []int {
	out := make([]int, 0, len(v.Items))
	for _, it := range v.Items {
		out = append(out, it.Serial)
	}
	return out
}

type memSession struct {
	mu    sync.Mutex
	blob  string
	ok    bool
	saves int
}

func (m *memSession) Save(blob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob, m.ok = blob, true
	m.saves++
	return nil
}

func (m *memSession) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blob, m.ok, nil
}

func (m *memSession) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
