package models

import (
	"time"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// CustodyState is the lifecycle state of a product record.
//
// A record cycles between two states indefinitely:
//
//	owned --delegate(by owner)--> pending_delegate
//	pending_delegate --accept(by delegate)--> owned
//
// There is no terminal state.
type CustodyState string

const (
	// StateOwned means the record rests with its owner and carries no
	// pending delegation.
	StateOwned CustodyState = "owned"

	// StatePendingDelegate means the owner has proposed a transfer and the
	// named delegate has not yet accepted.
	StatePendingDelegate CustodyState = "pending_delegate"
)

// Product is a single custody record.
//
// Invariants:
//   - ID is assigned once at creation and never reused or reassigned
//   - Code is immutable after creation
//   - State == StateOwned exactly when Delegate is nil
//   - State == StatePendingDelegate exactly when Delegate is set
//
// The type carries no validation of its own beyond the CanX checks below; the
// store's Execute discipline guarantees that validation and mutation happen
// under one lock, so Apply methods assume their Can counterpart has passed.
type Product struct {
	ID        domain.ProductID  `json:"id"`
	Code      domain.Code       `json:"code"`
	Owner     domain.Principal  `json:"owner"`
	State     CustodyState      `json:"state"`
	Delegate  *domain.Principal `json:"delegate,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewProduct builds a freshly owned record. The id is assigned by the store
// on append.
func NewProduct(code domain.Code, owner domain.Principal, now time.Time) *Product {
	return &Product{
		Code:      code,
		Owner:     owner,
		State:     StateOwned,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanDelegate checks whether the caller may propose a transfer. Ownership is
// checked before state so a non-owner probing a pending record learns only
// that it is not the owner.
func (p *Product) CanDelegate(caller domain.Principal) error {
	if p.Owner != caller {
		return sentinel.ErrNotOwner
	}
	if p.State != StateOwned {
		return sentinel.ErrInvalidState
	}
	return nil
}

// ApplyDelegation transitions the record to pending_delegate with the given
// target. Call CanDelegate first; this performs no validation.
func (p *Product) ApplyDelegation(target domain.Principal, now time.Time) {
	p.State = StatePendingDelegate
	p.Delegate = &target
	p.UpdatedAt = now
}

// CanAccept checks whether the caller may complete a pending transfer.
// Delegate identity is checked before state, so accepting an owned record
// reports not-delegate (the delegate slot is empty), matching the delegation
// check order.
func (p *Product) CanAccept(caller domain.Principal) error {
	if p.Delegate == nil || *p.Delegate != caller {
		return sentinel.ErrNotDelegate
	}
	if p.State != StatePendingDelegate {
		return sentinel.ErrInvalidState
	}
	return nil
}

// ApplyAcceptance completes the transfer: the accepting caller becomes the
// owner and the delegation slot is cleared. Call CanAccept first.
func (p *Product) ApplyAcceptance(newOwner domain.Principal, now time.Time) {
	p.Owner = newOwner
	p.State = StateOwned
	p.Delegate = nil
	p.UpdatedAt = now
}

// Snapshot returns a defensive copy safe to hand across the store boundary.
func (p *Product) Snapshot() Product {
	out := *p
	if p.Delegate != nil {
		d := *p.Delegate
		out.Delegate = &d
	}
	return out
}
