package journal

import (
	"context"
	"sync"

	"github.com/kilianp07/yard/core/events"
)

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []events.ActionEvent
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Append stores a copy of ev.
func (s *MemoryStore) Append(_ context.Context, ev events.ActionEvent) error {
	s.mu.Lock()
	s.recs = append(s.recs, ev)
	s.mu.Unlock()
	return nil
}

// Query returns the matching records in append order.
func (s *MemoryStore) Query(_ context.Context, q Query) ([]events.ActionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []events.ActionEvent
	for _, r := range s.recs {
		if q.Match(r) {
			res = append(res, r)
		}
	}
	return res, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
