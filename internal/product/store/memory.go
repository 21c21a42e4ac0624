package store

import (
	"context"
	"sync"

	"custodia/internal/product/models"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemory is the primary store: an append-only slice behind one RWMutex.
// Slice position doubles as the record id, which holds because records are
// never removed. One lock for the whole arena is deliberate; record counts
// are small and the custody rules require every mutation to run as a single
// atomic unit anyway.
type InMemory struct {
	mu      sync.RWMutex
	records []models.Product
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, p *models.Product) (domain.ProductID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := domain.ProductID(len(s.records))
	rec := p.Snapshot()
	rec.ID = id
	s.records = append(s.records, rec)
	return id, nil
}

func (s *InMemory) Last(_ context.Context) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return models.Product{}, sentinel.ErrEmptyStore
	}
	return s.records[len(s.records)-1].Snapshot(), nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ProductID) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.records) {
		return models.Product{}, sentinel.ErrNotFound
	}
	return s.records[id].Snapshot(), nil
}

func (s *InMemory) Len(_ context.Context) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint32(len(s.records)), nil
}

// Execute holds the write lock across the existence check, validation, and
// mutation so failed calls leave the record byte-identical.
func (s *InMemory) Execute(_ context.Context, id domain.ProductID, validate func(*models.Product) error, mutate func(*models.Product)) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(id) >= len(s.records) {
		return models.Product{}, sentinel.ErrNotFound
	}
	rec := &s.records[id]
	if err := validate(rec); err != nil {
		return models.Product{}, err
	}
	mutate(rec)
	return rec.Snapshot(), nil
}
