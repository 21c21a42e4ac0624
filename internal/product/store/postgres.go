package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"custodia/internal/product/models"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Postgres persists custody records durably. It implements the same Store
// contract as InMemory: dense sequential ids and atomic validate-then-mutate.
// Appends take an exclusive table lock to keep the id space gapless under
// concurrent writers; mutations lock the single row with FOR UPDATE.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Schema creates the products table. Called at startup and by integration
// tests; guarded with IF NOT EXISTS so repeated boots are safe.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
    id         BIGINT PRIMARY KEY,
    code       INTEGER NOT NULL,
    owner      TEXT NOT NULL,
    state      TEXT NOT NULL,
    delegate   TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// EnsureSchema applies the schema.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure products schema: %w", err)
	}
	return nil
}

func (s *Postgres) Append(ctx context.Context, p *models.Product) (domain.ProductID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	// The table lock serializes id assignment; MAX(id)+1 stays gapless
	// because rows are never deleted.
	if _, err := tx.Exec(ctx, `LOCK TABLE products IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("lock products: %w", err)
	}

	var next int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id)+1, 0) FROM products`).Scan(&next); err != nil {
		return 0, fmt.Errorf("next product id: %w", err)
	}

	rec := p.Snapshot()
	rec.ID = domain.ProductID(next)
	if _, err := tx.Exec(ctx,
		`INSERT INTO products (id, code, owner, state, delegate, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		int64(rec.ID), int32(rec.Code), rec.Owner.String(), string(rec.State),
		delegateText(rec.Delegate), rec.CreatedAt, rec.UpdatedAt,
	); err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return rec.ID, nil
}

func (s *Postgres) Last(ctx context.Context) (models.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, code, owner, state, delegate, created_at, updated_at
		 FROM products ORDER BY id DESC LIMIT 1`)
	rec, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, sentinel.ErrEmptyStore
		}
		return models.Product{}, fmt.Errorf("find last product: %w", err)
	}
	return rec, nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ProductID) (models.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, code, owner, state, delegate, created_at, updated_at
		 FROM products WHERE id = $1`, int64(id))
	rec, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, sentinel.ErrNotFound
		}
		return models.Product{}, fmt.Errorf("find product %d: %w", id, err)
	}
	return rec, nil
}

func (s *Postgres) Len(ctx context.Context) (uint32, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return uint32(n), nil
}

// Execute locks the row with FOR UPDATE for the duration of validation and
// mutation, mirroring the mutex discipline of the in-memory store.
func (s *Postgres) Execute(ctx context.Context, id domain.ProductID, validate func(*models.Product) error, mutate func(*models.Product)) (models.Product, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Product{}, fmt.Errorf("begin execute: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, code, owner, state, delegate, created_at, updated_at
		 FROM products WHERE id = $1 FOR UPDATE`, int64(id))
	rec, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, sentinel.ErrNotFound
		}
		return models.Product{}, fmt.Errorf("lock product %d: %w", id, err)
	}

	if err := validate(&rec); err != nil {
		return models.Product{}, err
	}
	mutate(&rec)

	if _, err := tx.Exec(ctx,
		`UPDATE products SET owner = $2, state = $3, delegate = $4, updated_at = $5 WHERE id = $1`,
		int64(rec.ID), rec.Owner.String(), string(rec.State),
		delegateText(rec.Delegate), rec.UpdatedAt,
	); err != nil {
		return models.Product{}, fmt.Errorf("update product %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Product{}, fmt.Errorf("commit execute: %w", err)
	}
	return rec, nil
}

func delegateText(p *domain.Principal) *string {
	if p == nil {
		return nil
	}
	s := p.String()
	return &s
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		rec      models.Product
		id       int64
		code     int32
		owner    string
		state    string
		delegate *string
	)
	if err := row.Scan(&id, &code, &owner, &state, &delegate, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return models.Product{}, err
	}
	rec.ID = domain.ProductID(id)
	rec.Code = domain.Code(code)
	rec.State = models.CustodyState(state)

	parsedOwner, err := domain.ParsePrincipal(owner)
	if err != nil {
		return models.Product{}, fmt.Errorf("corrupt owner column: %w", err)
	}
	rec.Owner = parsedOwner

	if delegate != nil {
		d, err := domain.ParsePrincipal(*delegate)
		if err != nil {
			return models.Product{}, fmt.Errorf("corrupt delegate column: %w", err)
		}
		rec.Delegate = &d
	}
	return rec, nil
}
