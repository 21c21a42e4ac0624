// Package audit captures the custody trail: who created, delegated, and
// accepted which record. Events are emitted from domain logic and fan out to
// a store or broker; emission is fail-open so an audit outage never blocks a
// transfer.
package audit

import (
	"context"
	"time"

	"custodia/pkg/domain"
)

// Action names a custody event.
type Action string

const (
	ActionProductCreated   Action = "product_created"
	ActionProductDelegated Action = "product_delegated"
	ActionProductAccepted  Action = "product_accepted"
)

// Event is emitted from domain logic for every successful custody mutation.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    Action            `json:"action"`
	ProductID domain.ProductID  `json:"product_id"`
	Actor     domain.Principal  `json:"actor"`
	Target    *domain.Principal `json:"target,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Store persists events for later inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProduct(ctx context.Context, id domain.ProductID) ([]Event, error)
}

// Publisher accepts events from domain logic. Implementations decide whether
// that means a channel hand-off, a broker produce, or a direct store write.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
