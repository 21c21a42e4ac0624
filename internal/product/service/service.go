// Package service orchestrates custody operations. Every operation resolves
// the calling principal from the request context, delegates validation and
// mutation to the store's Execute discipline, and translates store facts
// into coded domain errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"custodia/internal/audit"
	productmetrics "custodia/internal/product/metrics"
	"custodia/internal/product/models"
	"custodia/internal/product/store"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// Service exposes the custody operations: create, read, delegate, accept.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *productmetrics.Metrics
	audit   audit.Publisher
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *productmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// New constructs the custody service. Logger, metrics, and audit are
// optional; absent collaborators become no-ops.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("custodia/internal/product/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create appends a new record owned by the caller and returns its snapshot
// with the assigned id.
func (s *Service) Create(ctx context.Context, code domain.Code) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.Create")
	defer span.End()
	start := time.Now()

	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	rec := models.NewProduct(code, caller, requestcontext.Now(ctx))
	id, err := s.store.Append(ctx, rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create product")
	}
	rec.ID = id

	s.logger.InfoContext(ctx, "product created",
		"product_id", id,
		"owner", caller,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementProductsCreated()
		s.metrics.ObserveCreate(start)
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionProductCreated,
		ProductID: id,
		Actor:     caller,
	})

	snapshot := rec.Snapshot()
	return &snapshot, nil
}

// GetLast returns a snapshot of the most recently created record.
func (s *Service) GetLast(ctx context.Context) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.GetLast")
	defer span.End()

	rec, err := s.store.Last(ctx)
	if err != nil {
		return nil, s.reject(ctx, err)
	}
	return &rec, nil
}

// GetByID returns a snapshot of the record under id.
func (s *Service) GetByID(ctx context.Context, id domain.ProductID) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.GetByID")
	defer span.End()

	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.reject(ctx, err)
	}
	return &rec, nil
}

// Delegate proposes transferring the record to target. Only the current
// owner of an owned record may delegate; checks run in the order existence,
// ownership, state, and a failed check leaves the record untouched.
//
// Delegating to oneself or to the zero principal is permitted; the registry
// imposes no policy beyond ownership.
func (s *Service) Delegate(ctx context.Context, id domain.ProductID, target domain.Principal) error {
	ctx, span := s.tracer.Start(ctx, "product.Delegate")
	defer span.End()
	start := time.Now()

	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	_, err = s.store.Execute(ctx, id,
		func(p *models.Product) error {
			return p.CanDelegate(caller)
		},
		func(p *models.Product) {
			p.ApplyDelegation(target, now)
		},
	)
	if err != nil {
		return s.reject(ctx, err)
	}

	s.logger.InfoContext(ctx, "product delegated",
		"product_id", id,
		"owner", caller,
		"delegate", target,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementTransfersProposed()
		s.metrics.ObserveTransfer(start)
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionProductDelegated,
		ProductID: id,
		Actor:     caller,
		Target:    &target,
	})
	return nil
}

// Accept completes a pending transfer. Only the named delegate of a pending
// record may accept; on success the caller becomes the owner and the
// delegation slot is cleared.
func (s *Service) Accept(ctx context.Context, id domain.ProductID) error {
	ctx, span := s.tracer.Start(ctx, "product.Accept")
	defer span.End()
	start := time.Now()

	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	_, err = s.store.Execute(ctx, id,
		func(p *models.Product) error {
			return p.CanAccept(caller)
		},
		func(p *models.Product) {
			p.ApplyAcceptance(caller, now)
		},
	)
	if err != nil {
		return s.reject(ctx, err)
	}

	s.logger.InfoContext(ctx, "product transfer accepted",
		"product_id", id,
		"new_owner", caller,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementTransfersAccepted()
		s.metrics.ObserveTransfer(start)
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionProductAccepted,
		ProductID: id,
		Actor:     caller,
	})
	return nil
}

// caller resolves the principal supplied by the execution context. The value
// is read per invocation and never cached across operations.
func (s *Service) caller(ctx context.Context) (domain.Principal, error) {
	caller := requestcontext.Principal(ctx)
	if caller.IsZero() {
		return domain.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "caller principal missing from context")
	}
	return caller, nil
}

// reject translates a store or custody fact into a coded domain error and
// counts the rejection. The sentinel stays in the chain so callers can still
// match it with errors.Is.
func (s *Service) reject(ctx context.Context, err error) error {
	reason, coded := codeFor(err)
	if s.metrics != nil && reason != "" {
		s.metrics.IncrementRejected(reason)
	}
	if reason == "" {
		s.logger.ErrorContext(ctx, "custody operation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return coded
}

func codeFor(err error) (reason string, coded error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return "record_not_found", dErrors.Wrap(err, dErrors.CodeNotFound, "record not found")
	case errors.Is(err, sentinel.ErrEmptyStore):
		return "empty_store", dErrors.Wrap(err, dErrors.CodeNotFound, "store is empty")
	case errors.Is(err, sentinel.ErrNotOwner):
		return "not_owner", dErrors.Wrap(err, dErrors.CodeForbidden, "caller is not the record owner")
	case errors.Is(err, sentinel.ErrNotDelegate):
		return "not_delegate", dErrors.Wrap(err, dErrors.CodeForbidden, "caller is not the record delegate")
	case errors.Is(err, sentinel.ErrInvalidState):
		return "invalid_state", dErrors.Wrap(err, dErrors.CodeConflict, "record is in the wrong state")
	default:
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "custody operation failed")
	}
}

// emit publishes an audit event, stamping time and request id from the
// context. Audit is fail-open: a publish failure is logged only.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"product_id", event.ProductID,
			"error", err,
		)
	}
}
