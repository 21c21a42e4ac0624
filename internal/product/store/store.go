// Package store holds the append-only custody record store. Records are
// addressed by dense sequential ids; nothing is ever removed or reindexed, so
// position-as-identifier stays valid for the lifetime of the store.
package store

import (
	"context"

	"custodia/internal/product/models"
	"custodia/pkg/domain"
)

//go:generate mockgen -destination=../service/mocks/mocks.go -package=mocks custodia/internal/product/store Store

// Store is interface-driven to keep the domain logic testable and to allow
// swapping the in-memory arena for external persistence without rewiring
// business code.
//
// Execute is the single serialization point for mutations: implementations
// must hold their lock (mutex or SELECT FOR UPDATE) across the existence
// check, the validate callback, and the mutate callback, so a failed call
// leaves the record untouched and no other call observes a record
// mid-mutation.
type Store interface {
	// Append assigns the next sequential id to the record, stores it, and
	// returns the assigned id.
	Append(ctx context.Context, p *models.Product) (domain.ProductID, error)

	// Last returns a snapshot of the most recently appended record, or
	// sentinel.ErrEmptyStore when nothing has been created yet.
	Last(ctx context.Context) (models.Product, error)

	// FindByID returns a snapshot, or sentinel.ErrNotFound when the id is at
	// or beyond the current length.
	FindByID(ctx context.Context, id domain.ProductID) (models.Product, error)

	// Len returns the number of records created so far, which is also the
	// next id to be assigned.
	Len(ctx context.Context) (uint32, error)

	// Execute atomically validates and mutates the record under id. If the
	// record does not exist it returns sentinel.ErrNotFound; if validate
	// fails its error is returned verbatim and no mutation happens.
	// On success it returns a snapshot of the mutated record.
	Execute(ctx context.Context, id domain.ProductID, validate func(*models.Product) error, mutate func(*models.Product)) (models.Product, error)
}
