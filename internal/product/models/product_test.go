package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

func TestNewProductStartsOwned(t *testing.T) {
	owner := domain.NewPrincipal()
	now := time.Now()

	p := NewProduct(42, owner, now)

	assert.Equal(t, domain.Code(42), p.Code)
	assert.Equal(t, owner, p.Owner)
	assert.Equal(t, StateOwned, p.State)
	assert.Nil(t, p.Delegate)
	assert.Equal(t, now, p.CreatedAt)
}

func TestDelegationTransition(t *testing.T) {
	owner := domain.NewPrincipal()
	target := domain.NewPrincipal()
	p := NewProduct(1, owner, time.Now())

	require.NoError(t, p.CanDelegate(owner))
	p.ApplyDelegation(target, time.Now())

	assert.Equal(t, StatePendingDelegate, p.State)
	require.NotNil(t, p.Delegate)
	assert.Equal(t, target, *p.Delegate)
	// Ownership does not move until the delegate accepts.
	assert.Equal(t, owner, p.Owner)
}

func TestCanDelegateChecksOwnershipBeforeState(t *testing.T) {
	owner := domain.NewPrincipal()
	stranger := domain.NewPrincipal()
	p := NewProduct(1, owner, time.Now())
	p.ApplyDelegation(domain.NewPrincipal(), time.Now())

	// A stranger probing a pending record sees not-owner, not invalid-state.
	assert.ErrorIs(t, p.CanDelegate(stranger), sentinel.ErrNotOwner)
	// The owner of a pending record sees invalid-state.
	assert.ErrorIs(t, p.CanDelegate(owner), sentinel.ErrInvalidState)
}

func TestAcceptanceTransition(t *testing.T) {
	owner := domain.NewPrincipal()
	delegate := domain.NewPrincipal()
	p := NewProduct(1, owner, time.Now())
	p.ApplyDelegation(delegate, time.Now())

	require.NoError(t, p.CanAccept(delegate))
	p.ApplyAcceptance(delegate, time.Now())

	assert.Equal(t, StateOwned, p.State)
	assert.Equal(t, delegate, p.Owner)
	assert.Nil(t, p.Delegate)
}

func TestCanAcceptChecksDelegateBeforeState(t *testing.T) {
	owner := domain.NewPrincipal()
	delegate := domain.NewPrincipal()
	p := NewProduct(1, owner, time.Now())

	// No delegation pending: the delegate slot is empty, so even the owner
	// is not-delegate.
	assert.ErrorIs(t, p.CanAccept(owner), sentinel.ErrNotDelegate)

	p.ApplyDelegation(delegate, time.Now())
	assert.ErrorIs(t, p.CanAccept(owner), sentinel.ErrNotDelegate)
	assert.NoError(t, p.CanAccept(delegate))
}

func TestSelfDelegationPermitted(t *testing.T) {
	owner := domain.NewPrincipal()
	p := NewProduct(1, owner, time.Now())

	require.NoError(t, p.CanDelegate(owner))
	p.ApplyDelegation(owner, time.Now())
	require.NoError(t, p.CanAccept(owner))
	p.ApplyAcceptance(owner, time.Now())

	assert.Equal(t, owner, p.Owner)
	assert.Equal(t, StateOwned, p.State)
}

func TestSnapshotIsDefensive(t *testing.T) {
	owner := domain.NewPrincipal()
	delegate := domain.NewPrincipal()
	p := NewProduct(1, owner, time.Now())
	p.ApplyDelegation(delegate, time.Now())

	snap := p.Snapshot()
	*snap.Delegate = domain.NewPrincipal()

	assert.Equal(t, delegate, *p.Delegate, "mutating a snapshot must not touch the record")
}

func TestRecordCyclesIndefinitely(t *testing.T) {
	current := domain.NewPrincipal()
	p := NewProduct(7, current, time.Now())

	for i := 0; i < 5; i++ {
		next := domain.NewPrincipal()
		require.NoError(t, p.CanDelegate(current))
		p.ApplyDelegation(next, time.Now())
		require.NoError(t, p.CanAccept(next))
		p.ApplyAcceptance(next, time.Now())
		current = next
	}

	assert.Equal(t, current, p.Owner)
	assert.Equal(t, StateOwned, p.State)
	assert.Equal(t, domain.Code(7), p.Code, "code is immutable across transfers")
}
