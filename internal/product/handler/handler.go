// Package handler wires the custody operations to HTTP. It stays thin:
// decode, delegate to the service, translate errors into the JSON envelope.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"custodia/internal/platform/middleware"
	"custodia/internal/product/models"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// Service defines the custody operations the handler exposes.
type Service interface {
	Create(ctx context.Context, code domain.Code) (*models.Product, error)
	GetLast(ctx context.Context) (*models.Product, error)
	GetByID(ctx context.Context, id domain.ProductID) (*models.Product, error)
	Delegate(ctx context.Context, id domain.ProductID, target domain.Principal) error
	Accept(ctx context.Context, id domain.ProductID) error
}

// Handler handles product custody endpoints.
type Handler struct {
	products  Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New creates a product Handler.
func New(products Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{products: products, logger: logger, validator: validator}
}

// Register mounts the product routes. Every route requires an authenticated
// principal; identity resolution happens in the auth middleware, never here.
func (h *Handler) Register(r chi.Router) {
	pr := chi.NewRouter()
	pr.Use(middleware.RequireAuth(h.validator, h.logger))
	pr.Post("/", h.handleCreate)
	pr.Get("/last", h.handleGetLast)
	pr.Get("/{id}", h.handleGetByID)
	pr.Post("/{id}/delegate", h.handleDelegate)
	pr.Post("/{id}/accept", h.handleAccept)

	r.Mount("/products", pr)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid create product request", err)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.products.Create(ctx, domain.Code(req.Code))
	if err != nil {
		h.fail(ctx, w, "failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGetLast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.products.GetLast(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to fetch last product", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	rec, err := h.products.GetByID(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to fetch product", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelegate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req delegateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid delegate request", err)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, err := req.Target()
	if err != nil {
		h.warn(ctx, "invalid delegate target", err)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "delegate_to must be a principal id"))
		return
	}

	if err := h.products.Delegate(ctx, id, target); err != nil {
		h.fail(ctx, w, "failed to delegate product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.products.Accept(ctx, id); err != nil {
		h.fail(ctx, w, "failed to accept product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (domain.ProductID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		h.warn(r.Context(), "invalid product id", err)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "product id must be a non-negative integer"))
		return 0, false
	}
	return domain.ProductID(id), true
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// fail logs rejections at warn and unexpected failures at error, then writes
// the envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.warn(ctx, msg, err)
	}
	writeError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation. The error slug preserves
// the custody taxonomy (record_not_found, not_owner, not_delegate,
// invalid_state, empty_store) when a sentinel is in the chain, and falls
// back to the coarse code otherwise.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}

	slug := string(code)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		slug = "record_not_found"
	case errors.Is(err, sentinel.ErrEmptyStore):
		slug = "empty_store"
	case errors.Is(err, sentinel.ErrNotOwner):
		slug = "not_owner"
	case errors.Is(err, sentinel.ErrNotDelegate):
		slug = "not_delegate"
	case errors.Is(err, sentinel.ErrInvalidState):
		slug = "invalid_state"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   slug,
		"message": message,
	})
}
