// Package memstore is an in-memory snapshot store. The daemon uses it when
// persistence is disabled; tests use it to inject write failures.
package memstore

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrInjected is returned by Save while failures are switched on.
var ErrInjected = errors.New("memstore: injected save failure")

// Store keeps snapshots in a map. It implements domain.SnapshotStore.
type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	failSave error
	saves    int
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Load returns a copy of the bytes under key, or nil.
func (s *Store) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Save stores a copy of data under key.
func (s *Store) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave != nil {
		return errors.Wrapf(s.failSave, "save %q", key)
	}
	v := make([]byte, len(data))
	copy(v, data)
	s.data[key] = v
	s.saves++
	return nil
}

// FailSaves makes every following Save return err. A nil err restores
// normal behavior.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

// Put seeds raw bytes under key, bypassing failure injection.
func (s *Store) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
}

// Saves returns how many writes succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
