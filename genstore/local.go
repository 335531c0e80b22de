package genstore

import (
	"context"
	"sync"
)

// LocalGenStore keeps versions in-process.
// Counters are never pruned: forgetting one would reset it to 0 and let a
// reader that cached under an older value of 0 trust stale entries.
type LocalGenStore struct {
	mu   sync.RWMutex
	vers map[string]uint64
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocalGenStore() *LocalGenStore {
	return &LocalGenStore{vers: make(map[string]uint64)}
}

func (s *LocalGenStore) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	v := s.vers[k]
	s.mu.RUnlock()
	return v, nil
}

func (s *LocalGenStore) Bump(_ context.Context, k string) (uint64, error) {
	s.mu.Lock()
	s.vers[k]++
	v := s.vers[k]
	s.mu.Unlock()
	return v, nil
}

func (s *LocalGenStore) Close(_ context.Context) error { return nil }
