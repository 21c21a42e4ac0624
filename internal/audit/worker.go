package audit

import (
	"context"
	"log/slog"
)

// QueuePublisher hands events to the worker's inbox without blocking the
// custody operation. A full inbox drops the event; the custody trail is an
// operational record, not a ledger the transfer depends on.
type QueuePublisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewQueuePublisher(inbox chan<- Event, logger *slog.Logger) *QueuePublisher {
	return &QueuePublisher{inbox: inbox, logger: logger}
}

func (p *QueuePublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"product_id", event.ProductID,
		)
		return nil
	}
}

// Worker consumes events from a channel and persists them. It keeps
// background processing testable without wiring broker implementations.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Store failures are
// logged and skipped; the worker keeps running.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"product_id", event.ProductID,
					"error", err,
				)
			}
		}
	}
}
