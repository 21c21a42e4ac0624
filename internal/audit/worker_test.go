package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestWorkerPersistsEvents(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 8)
	worker := NewWorker(store, inbox, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	actor := domain.NewPrincipal()
	inbox <- Event{Action: ActionProductCreated, ProductID: 0, Actor: actor}
	inbox <- Event{Action: ActionProductDelegated, ProductID: 0, Actor: actor}

	require.Eventually(t, func() bool {
		events, err := store.ListByProduct(context.Background(), 0)
		return err == nil && len(events) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	events, err := store.ListByProduct(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, ActionProductCreated, events[0].Action)
	assert.Equal(t, ActionProductDelegated, events[1].Action)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	worker := NewWorker(NewInMemoryStore(), make(chan Event), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueuePublisherDropsWhenInboxFull(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewQueuePublisher(inbox, discardLogger())

	ctx := context.Background()
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionProductCreated}))
	// Inbox is full now; the second emit must not block or error.
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionProductDelegated}))

	assert.Len(t, inbox, 1)
	first := <-inbox
	assert.Equal(t, ActionProductCreated, first.Action)
}

func TestInMemoryStoreIsolatesProducts(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{Action: ActionProductCreated, ProductID: 0}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionProductCreated, ProductID: 1}))

	events, err := store.ListByProduct(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// The returned slice is a copy; appending to it must not leak into the
	// store.
	events = append(events, Event{Action: ActionProductAccepted, ProductID: 0})
	_ = events
	again, err := store.ListByProduct(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}
