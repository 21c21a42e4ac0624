package sentinel

import "errors"

// Sentinel errors for infrastructure and custody facts. Stores and domain
// models return these (optionally wrapped) so services can translate them
// into coded domain errors.
//
// These represent factual states about records, not validation failures:
//   - ErrNotFound: no record exists under the requested id
//   - ErrEmptyStore: the store holds no records yet
//   - ErrNotOwner: the caller is not the record's current owner
//   - ErrNotDelegate: the caller is not the record's pending delegate
//   - ErrInvalidState: the record is in the wrong custody state for the operation
var (
	ErrNotFound     = errors.New("record not found")
	ErrEmptyStore   = errors.New("store is empty")
	ErrNotOwner     = errors.New("caller is not the owner")
	ErrNotDelegate  = errors.New("caller is not the delegate")
	ErrInvalidState = errors.New("invalid custody state")
)
