package postgres_test

import (
	"testing"
	"time"

	postgres_adapter "artfactory/internal/adapters/out/postgres"
	"artfactory/internal/adapters/out/postgres/pgtest"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/ports"
	"artfactory/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	pg      *pgtest.Database
	factory ports.UnitOfWorkFactory
}

func TestUnitOfWorkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}

func (s *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	s.pg = pgtest.Start(s.T().Context(), s.T())
	s.factory = postgres_adapter.NewGormUnitOfWorkFactory(s.pg.DB)
}

func (s *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	s.pg.Stop(s.T())
}

func (s *UnitOfWorkIntegrationTestSuite) SetupTest() {
	s.pg.Truncate(s.T())
}

func (s *UnitOfWorkIntegrationTestSuite) videoMachine() *machine.Definition {
	def, err := machine.NewDefinition(kernel.NewUUID(), machine.Attributes{
		Slug:       "fal-kling-video",
		Name:       "Kling",
		Provider:   machine.ProviderFal,
		Model:      "fal-ai/kling-video/v1/standard/text-to-video",
		MediaType:  kernel.MediaTypeVideo,
		CostPerRun: decimal.RequireFromString("0.25"),
	}, time.Now())
	s.Require().NoError(err)
	return def
}

func (s *UnitOfWorkIntegrationTestSuite) orderFor(def *machine.Definition) *order.Order {
	params, err := def.ResolveParameters(kernel.NewParameters(map[string]any{"prompt": "waves"}))
	s.Require().NoError(err)
	o, err := order.NewOrder(kernel.NewUUID(), "Waves", "waves", "carol", []order.ItemSpec{{
		MachineID: def.ID(), Prompt: "waves", Parameters: params, Cost: def.CostPerRun(),
	}}, time.Now())
	s.Require().NoError(err)
	return o
}

func (s *UnitOfWorkIntegrationTestSuite) TestCommit_PersistsAcrossRepositories() {
	ctx := s.T().Context()
	def := s.videoMachine()
	o := s.orderFor(def)

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.MachineRepository().Add(ctx, def))
	s.Require().NoError(uow.OrderRepository().Add(ctx, o))
	s.Require().NoError(uow.Commit(ctx))

	tracked := uow.(*postgres_adapter.GormUnitOfWork).TrackedAggregates()
	s.Equal([]kernel.UUID{def.ID(), o.ID()}, tracked)

	loaded, err := s.factory.Create().OrderRepository().Get(ctx, o.ID())
	s.Require().NoError(err)
	s.Equal(o.ID(), loaded.ID())
}

func (s *UnitOfWorkIntegrationTestSuite) TestRollback_DiscardsEverything() {
	ctx := s.T().Context()
	def := s.videoMachine()
	o := s.orderFor(def)

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.MachineRepository().Add(ctx, def))
	s.Require().NoError(uow.OrderRepository().Add(ctx, o))
	s.Require().NoError(uow.Rollback(ctx))

	reader := s.factory.Create()
	_, err := reader.OrderRepository().Get(ctx, o.ID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
	_, err = reader.MachineRepository().GetBySlug(ctx, def.Slug())
	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *UnitOfWorkIntegrationTestSuite) TestCommitWithoutBegin_InvalidTransaction() {
	uow := s.factory.Create()

	s.ErrorIs(uow.Commit(s.T().Context()), gorm.ErrInvalidTransaction)
	s.ErrorIs(uow.Rollback(s.T().Context()), gorm.ErrInvalidTransaction)
}

func (s *UnitOfWorkIntegrationTestSuite) TestBegin_IsIdempotent() {
	ctx := s.T().Context()
	def := s.videoMachine()

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.MachineRepository().Add(ctx, def))
	s.Require().NoError(uow.Commit(ctx))

	_, err := s.factory.Create().MachineRepository().Get(ctx, def.ID())
	s.NoError(err)
}

func (s *UnitOfWorkIntegrationTestSuite) TestRollbackAfterCommit_LeavesDataInPlace() {
	ctx := s.T().Context()
	def := s.videoMachine()

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.MachineRepository().Add(ctx, def))
	s.Require().NoError(uow.Commit(ctx))
	s.ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction)

	_, err := s.factory.Create().MachineRepository().Get(ctx, def.ID())
	s.NoError(err)
}
