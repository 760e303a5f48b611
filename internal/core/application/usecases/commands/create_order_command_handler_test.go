package commands_test

import (
	"errors"
	"testing"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/services"
	"artfactory/internal/core/ports"
	"artfactory/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCreateOrderCommand(t *testing.T, slug string, quantity int) commands.CreateOrderCommand {
	t.Helper()
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "Lighthouses", "a lighthouse at dusk", "alice",
		[]services.ItemRequest{{MachineSlug: slug, Quantity: quantity}})
	require.NoError(t, err)
	return cmd
}

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	def := fluxMachine(t)
	cmd := newCreateOrderCommand(t, def.Slug(), 3)

	var stored *order.Order
	orderRepo := new(MockOrderRepository)
	machineRepo := new(MockMachineRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("MachineRepository").Return(machineRepo).Once(),
		machineRepo.On("GetBySlugs", ctx, []string{def.Slug()}).
			Return(map[string]*machine.Definition{def.Slug(): def}, nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*order.Order) }).
			Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	publisher := new(MockEventPublisher)
	publisher.On("Publish", ctx, mock.MatchedBy(func(events []ports.OrderEvent) bool {
		return len(events) == 1 &&
			events[0].Type == ports.EventOrderCreated &&
			events[0].OrderID == cmd.OrderID().String() &&
			events[0].OrderStatus == "pending"
	})).Return(nil).Once()

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger())
	err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, cmd.OrderID(), stored.ID())
	assert.Len(t, stored.Items(), 3)
	assert.Equal(t, "0.009", stored.TotalCost().String())
	orderRepo.AssertExpectations(t)
	machineRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_UnknownMachine(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t, "missing-machine", 1)

	machineRepo := new(MockMachineRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("MachineRepository").Return(machineRepo).Once(),
		machineRepo.On("GetBySlugs", ctx, []string{"missing-machine"}).
			Return(map[string]*machine.Definition{}, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	publisher := new(MockEventPublisher)

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger())
	err := h.Handle(ctx, cmd)

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	uow.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_InactiveMachine(t *testing.T) {
	ctx := t.Context()
	def := fluxMachine(t)
	def.Deactivate(def.UpdatedAt())
	cmd := newCreateOrderCommand(t, def.Slug(), 1)

	machineRepo := new(MockMachineRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("MachineRepository").Return(machineRepo).Once()
	machineRepo.On("GetBySlugs", ctx, []string{def.Slug()}).
		Return(map[string]*machine.Definition{def.Slug(): def}, nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, new(MockEventPublisher), discardLogger())
	err := h.Handle(ctx, cmd)

	require.Error(t, err)
	assert.ErrorIs(t, err, machine.ErrMachineInactive)
}

func TestCreateOrderCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t, "fal-flux-schnell", 1)

	uow := new(MockUoW)
	factory := new(MockOrderUoWFactory)
	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(errors.New("begin error")).Once(),
	)

	h := commands.NewCreateOrderCommandHandler(factory, new(MockEventPublisher), discardLogger())
	err := h.Handle(ctx, cmd)
	require.Error(t, err)
}

func TestCreateOrderCommandHandler_Handle_CommitError(t *testing.T) {
	ctx := t.Context()
	def := fluxMachine(t)
	cmd := newCreateOrderCommand(t, def.Slug(), 1)

	orderRepo := new(MockOrderRepository)
	machineRepo := new(MockMachineRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("MachineRepository").Return(machineRepo).Once(),
		machineRepo.On("GetBySlugs", ctx, []string{def.Slug()}).
			Return(map[string]*machine.Definition{def.Slug(): def}, nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(errors.New("commit error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	publisher := new(MockEventPublisher)

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger())
	err := h.Handle(ctx, cmd)

	require.Error(t, err)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	uow.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_PublishErrorIsNotFatal(t *testing.T) {
	ctx := t.Context()
	def := fluxMachine(t)
	cmd := newCreateOrderCommand(t, def.Slug(), 1)

	orderRepo := new(MockOrderRepository)
	machineRepo := new(MockMachineRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("MachineRepository").Return(machineRepo).Once()
	machineRepo.On("GetBySlugs", ctx, []string{def.Slug()}).
		Return(map[string]*machine.Definition{def.Slug(): def}, nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	publisher := new(MockEventPublisher)
	publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down")).Once()

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger())
	err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_InvalidCommand(t *testing.T) {
	h := commands.NewCreateOrderCommandHandler(new(MockOrderUoWFactory), new(MockEventPublisher), discardLogger())
	err := h.Handle(t.Context(), commands.CreateOrderCommand{})
	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
}
