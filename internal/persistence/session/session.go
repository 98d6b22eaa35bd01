// Package session holds the save media a world writes its blob to.
package session

import (
	"errors"
	"io/fs"
	"sync"

	"geocoin.ai/internal/persistence/snapshot"
)

// FileStore keeps the save as a zstd-framed file replaced atomically on every Save.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(blob string) error {
	h := snapshot.Header{Version: snapshot.Version}
	if sv, err := snapshot.Unmarshal(blob); err == nil {
		h = sv.Header()
	}
	return snapshot.WriteBlob(s.path, h, blob)
}

func (s *FileStore) Load() (string, bool, error) {
	blob, err := snapshot.ReadBlob(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return blob, true, nil
}

// MemoryStore keeps the last blob in memory. Useful for tests and throwaway servers.
type MemoryStore struct {
	mu   sync.Mutex
	blob string
	ok   bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(blob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob, s.ok = blob, true
	return nil
}

func (s *MemoryStore) Load() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob, s.ok, nil
}
