//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custodia/internal/product/models"
	"custodia/internal/product/store"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.Postgres
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.pg.Pool)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.pg.Terminate(s.ctx)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "products"))
}

func (s *PostgresStoreSuite) newProduct(code domain.Code) *models.Product {
	return models.NewProduct(code, domain.NewPrincipal(), time.Now().UTC())
}

func (s *PostgresStoreSuite) TestAppendAssignsDenseSequentialIDs() {
	for i := 0; i < 5; i++ {
		id, err := s.store.Append(s.ctx, s.newProduct(domain.Code(i)))
		s.Require().NoError(err)
		s.Equal(domain.ProductID(i), id)
	}

	length, err := s.store.Len(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint32(5), length)
}

func (s *PostgresStoreSuite) TestLastOnEmptyStore() {
	_, err := s.store.Last(s.ctx)
	s.Require().ErrorIs(err, sentinel.ErrEmptyStore)
}

func (s *PostgresStoreSuite) TestRoundTripPreservesRecord() {
	owner := domain.NewPrincipal()
	rec := models.NewProduct(42, owner, time.Now().UTC())
	id, err := s.store.Append(s.ctx, rec)
	s.Require().NoError(err)

	found, err := s.store.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.Code(42), found.Code)
	s.Equal(owner, found.Owner)
	s.Equal(models.StateOwned, found.State)
	s.Nil(found.Delegate)

	last, err := s.store.Last(s.ctx)
	s.Require().NoError(err)
	s.Equal(id, last.ID)
}

func (s *PostgresStoreSuite) TestFindByIDUnknown() {
	_, err := s.store.FindByID(s.ctx, 99)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecuteRunsFullCustodyCycle() {
	alice := domain.NewPrincipal()
	bob := domain.NewPrincipal()
	id, err := s.store.Append(s.ctx, models.NewProduct(7, alice, time.Now().UTC()))
	s.Require().NoError(err)

	pending, err := s.store.Execute(s.ctx, id,
		func(p *models.Product) error { return p.CanDelegate(alice) },
		func(p *models.Product) { p.ApplyDelegation(bob, time.Now().UTC()) },
	)
	s.Require().NoError(err)
	s.Equal(models.StatePendingDelegate, pending.State)
	s.Require().NotNil(pending.Delegate)
	s.Equal(bob, *pending.Delegate)

	accepted, err := s.store.Execute(s.ctx, id,
		func(p *models.Product) error { return p.CanAccept(bob) },
		func(p *models.Product) { p.ApplyAcceptance(bob, time.Now().UTC()) },
	)
	s.Require().NoError(err)
	s.Equal(bob, accepted.Owner)
	s.Equal(models.StateOwned, accepted.State)
	s.Nil(accepted.Delegate)

	stored, err := s.store.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(bob, stored.Owner)
	s.Nil(stored.Delegate)
}

func (s *PostgresStoreSuite) TestExecuteValidationFailureRollsBack() {
	alice := domain.NewPrincipal()
	stranger := domain.NewPrincipal()
	id, err := s.store.Append(s.ctx, models.NewProduct(7, alice, time.Now().UTC()))
	s.Require().NoError(err)

	_, err = s.store.Execute(s.ctx, id,
		func(p *models.Product) error { return p.CanDelegate(stranger) },
		func(p *models.Product) { p.ApplyDelegation(stranger, time.Now().UTC()) },
	)
	s.Require().ErrorIs(err, sentinel.ErrNotOwner)

	stored, err := s.store.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(alice, stored.Owner)
	s.Equal(models.StateOwned, stored.State)
	s.Nil(stored.Delegate)
}

func (s *PostgresStoreSuite) TestExecuteUnknownID() {
	_, err := s.store.Execute(s.ctx, 0,
		func(*models.Product) error { return nil },
		func(*models.Product) {},
	)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentAppendsStayGapless() {
	const writers = 10
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			_, err := s.store.Append(s.ctx, s.newProduct(1))
			errs <- err
		}()
	}
	for i := 0; i < writers; i++ {
		s.Require().NoError(<-errs)
	}

	length, err := s.store.Len(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint32(writers), length)

	for id := domain.ProductID(0); id < domain.ProductID(writers); id++ {
		rec, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(id, rec.ID)
	}
}
