package commands_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/model/product"
	"artfactory/internal/core/domain/model/worker"
	"artfactory/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) LockNextPendingItem(ctx context.Context) (*order.Order, kernel.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, kernel.UUID{}, args.Error(2)
	}
	return args.Get(0).(*order.Order), args.Get(1).(kernel.UUID), args.Error(2)
}

func (m *MockOrderRepository) FindProcessingItems(ctx context.Context) ([]ports.ProcessingItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.ProcessingItem), args.Error(1)
}

type MockProductRepository struct{ mock.Mock }

func (m *MockProductRepository) Add(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Get(ctx context.Context, id kernel.UUID) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id kernel.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockMachineRepository struct{ mock.Mock }

func (m *MockMachineRepository) Add(ctx context.Context, def *machine.Definition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockMachineRepository) Update(ctx context.Context, def *machine.Definition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockMachineRepository) Get(ctx context.Context, id kernel.UUID) (*machine.Definition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*machine.Definition), args.Error(1)
}

func (m *MockMachineRepository) GetBySlug(ctx context.Context, slug string) (*machine.Definition, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*machine.Definition), args.Error(1)
}

func (m *MockMachineRepository) GetBySlugs(ctx context.Context, slugs []string) (map[string]*machine.Definition, error) {
	args := m.Called(ctx, slugs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*machine.Definition), args.Error(1)
}

// MockUoW satisfies every unit of work flavour used by the handlers.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) ProductRepository() ports.ProductRepository {
	args := m.Called()
	return args.Get(0).(ports.ProductRepository)
}

func (m *MockUoW) MachineRepository() ports.MachineRepository {
	args := m.Called()
	return args.Get(0).(ports.MachineRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockProductUoWFactory struct{ mock.Mock }

func (m *MockProductUoWFactory) Create() commands.ProductUoW {
	args := m.Called()
	return args.Get(0).(commands.ProductUoW)
}

type MockMachineUoWFactory struct{ mock.Mock }

func (m *MockMachineUoWFactory) Create() commands.MachineUoW {
	args := m.Called()
	return args.Get(0).(commands.MachineUoW)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, events ...ports.OrderEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockHeartbeatStore struct{ mock.Mock }

func (m *MockHeartbeatStore) Beat(ctx context.Context, hb worker.Heartbeat) error {
	args := m.Called(ctx, hb)
	return args.Error(0)
}

func (m *MockHeartbeatStore) List(ctx context.Context) ([]worker.Heartbeat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]worker.Heartbeat), args.Error(1)
}

func (m *MockHeartbeatStore) Remove(ctx context.Context, workerID string) error {
	args := m.Called(ctx, workerID)
	return args.Error(0)
}

type MockFactoryMachine struct{ mock.Mock }

func (m *MockFactoryMachine) Provider() machine.Provider {
	args := m.Called()
	return args.Get(0).(machine.Provider)
}

func (m *MockFactoryMachine) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.GenerationResult), args.Error(1)
}

type MockFactoryMachineRegistry struct{ mock.Mock }

func (m *MockFactoryMachineRegistry) Lookup(provider machine.Provider) (ports.FactoryMachine, error) {
	args := m.Called(provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.FactoryMachine), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fluxMachine(t *testing.T) *machine.Definition {
	t.Helper()
	def, err := machine.NewDefinition(kernel.NewUUID(), machine.Attributes{
		Slug:       "fal-flux-schnell",
		Name:       "FLUX schnell",
		Provider:   machine.ProviderFal,
		Model:      "fal-ai/flux/schnell",
		MediaType:  kernel.MediaTypeImage,
		CostPerRun: decimal.RequireFromString("0.003"),
		Defaults:   kernel.NewParameters(map[string]any{"width": 1024, "height": 1024}),
	}, time.Now())
	require.NoError(t, err)
	return def
}

func pendingOrder(t *testing.T, def *machine.Definition, n int) *order.Order {
	t.Helper()
	specs := make([]order.ItemSpec, n)
	for i := range specs {
		params, err := def.ResolveParameters(kernel.NewParameters(map[string]any{"prompt": "a lighthouse at dusk"}))
		require.NoError(t, err)
		specs[i] = order.ItemSpec{
			MachineID:  def.ID(),
			Prompt:     "a lighthouse at dusk",
			Parameters: params,
			Cost:       def.CostPerRun(),
		}
	}
	o, err := order.NewOrder(kernel.NewUUID(), "Lighthouses", "a lighthouse at dusk", "alice", specs, time.Now())
	require.NoError(t, err)
	return o
}
