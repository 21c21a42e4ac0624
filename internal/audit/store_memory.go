package audit

import (
	"context"
	"sync"

	"custodia/pkg/domain"
)

// InMemoryStore keeps the trail in process memory. Used in tests and in
// single-node deployments that have no broker configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.ProductID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.ProductID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ProductID] = append(s.events[event.ProductID], event)
	return nil
}

// Emit lets the store double as a synchronous Publisher where no broker or
// worker is wired, such as tests.
func (s *InMemoryStore) Emit(ctx context.Context, event Event) error {
	return s.Append(ctx, event)
}

func (s *InMemoryStore) ListByProduct(_ context.Context, id domain.ProductID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[id]...), nil
}
