package world

import (
	"sort"

	"geocoin.ai/internal/persistence/snapshot"
)

// CellStore holds the frozen coin lists of cells outside the window. An entry
// with no items marks a cell that was generated and found (or left) empty.
type CellStore interface {
	Get(key string) ([]snapshot.ItemV1, bool, error)
	Put(key string, items []snapshot.ItemV1) error
	Delete(key string) error
	// Range visits entries in key order until fn returns false.
	Range(fn func(key string, items []snapshot.ItemV1) bool) error
	Len() (int, error)
	Reset() error
}

type MemoryCellStore struct {
	m map[string][]snapshot.ItemV1
}

var _ CellStore = (*MemoryCellStore)(nil)

func NewMemoryCellStore() *MemoryCellStore {
	return &MemoryCellStore{m: map[string][]snapshot.ItemV1{}}
}

func (s *MemoryCellStore) Get(key string) ([]snapshot.ItemV1, bool, error) {
	items, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]snapshot.ItemV1{}, items...), true, nil
}

func (s *MemoryCellStore) Put(key string, items []snapshot.ItemV1) error {
	s.m[key] = append([]snapshot.ItemV1{}, items...)
	return nil
}

func (s *MemoryCellStore) Delete(key string) error {
	delete(s.m, key)
	return nil
}

func (s *MemoryCellStore) Range(fn func(key string, items []snapshot.ItemV1) bool) error {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn(k, append([]snapshot.ItemV1{}, s.m[k]...)) {
			return nil
		}
	}
	return nil
}

func (s *MemoryCellStore) Len() (int, error) { return len(s.m), nil }

func (s *MemoryCellStore) Reset() error {
	s.m = map[string][]snapshot.ItemV1{}
	return nil
}
