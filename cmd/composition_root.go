package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"artfactory/internal/adapters/in/catalog"
	httpin "artfactory/internal/adapters/in/http"
	"artfactory/internal/adapters/out/postgres"
	"artfactory/internal/adapters/out/postgres/machinerepo"
	"artfactory/internal/adapters/out/providers"
	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/application/usecases/queries"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/ports"
	"artfactory/internal/jobs"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	registry   *providers.Registry
	publisher  ports.EventPublisher
	heartbeats ports.HeartbeatStore
	logger     *slog.Logger

	// instance tells this process's workers apart from those of an earlier
	// process that ran on the same host.
	instance string
}

func NewCompositionRoot(
	cfg Config,
	gormDB *gorm.DB,
	publisher ports.EventPublisher,
	heartbeats ports.HeartbeatStore,
	logger *slog.Logger,
) CompositionRoot {
	return CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		registry:   newProviderRegistry(cfg),
		publisher:  publisher,
		heartbeats: heartbeats,
		logger:     logger,
		instance:   kernel.NewUUID().String()[:8],
	}
}

// newProviderRegistry registers a client for every provider with credentials.
// Items of machines whose provider has none fail with ErrProviderNotConfigured.
func newProviderRegistry(cfg Config) *providers.Registry {
	client := &http.Client{Timeout: cfg.GenerationTimeout}

	var machines []ports.FactoryMachine
	if cfg.FalKey != "" {
		machines = append(machines, providers.NewFalClient(providers.FalConfig{APIKey: cfg.FalKey, HTTP: client}))
	}
	if cfg.ReplicateAPIToken != "" {
		machines = append(machines, providers.NewReplicateClient(providers.ReplicateConfig{APIToken: cfg.ReplicateAPIToken, HTTP: client}))
	}
	if cfg.CivitaiAPIToken != "" {
		machines = append(machines, providers.NewCivitaiClient(providers.CivitaiConfig{APIToken: cfg.CivitaiAPIToken, HTTP: client}))
	}
	return providers.NewRegistry(machines...)
}

func (c *CompositionRoot) Providers() *providers.Registry {
	return c.registry
}

// Orders

func (c *CompositionRoot) CreateCreateOrderCommandHandler() *commands.CreateOrderCommandHandler {
	h := commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.publisher, c.logger)
	return &h
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() *commands.CancelOrderCommandHandler {
	h := commands.NewCancelOrderCommandHandler(c.orderUoWFactory(), c.publisher, c.logger)
	return &h
}

func (c *CompositionRoot) CreateRetryOrderCommandHandler() *commands.RetryOrderCommandHandler {
	h := commands.NewRetryOrderCommandHandler(c.orderUoWFactory(), c.publisher, c.logger)
	return &h
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

// Products

func (c *CompositionRoot) CreateUpdateProductCommandHandler() *commands.UpdateProductCommandHandler {
	h := commands.NewUpdateProductCommandHandler(c.productUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateToggleProductFavoriteCommandHandler() *commands.ToggleProductFavoriteCommandHandler {
	h := commands.NewToggleProductFavoriteCommandHandler(c.productUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateDeleteProductCommandHandler() *commands.DeleteProductCommandHandler {
	h := commands.NewDeleteProductCommandHandler(c.productUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateGetProductQueryHandler() queries.GetProductQueryHandler {
	return queries.NewGetProductQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListProductsQueryHandler() queries.ListProductsQueryHandler {
	return queries.NewListProductsQueryHandler(c.gormDB)
}

// Machines

func (c *CompositionRoot) CreateCreateMachineCommandHandler() *commands.CreateMachineCommandHandler {
	h := commands.NewCreateMachineCommandHandler(c.machineUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateUpdateMachineCommandHandler() *commands.UpdateMachineCommandHandler {
	h := commands.NewUpdateMachineCommandHandler(c.machineUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateSetMachineActiveCommandHandler() *commands.SetMachineActiveCommandHandler {
	h := commands.NewSetMachineActiveCommandHandler(c.machineUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateSyncMachineCatalogCommandHandler() *commands.SyncMachineCatalogCommandHandler {
	h := commands.NewSyncMachineCatalogCommandHandler(c.machineUoWFactory())
	return &h
}

func (c *CompositionRoot) CreateGetMachineQueryHandler() queries.GetMachineQueryHandler {
	return queries.NewGetMachineQueryHandler(machinerepo.NewGormMachineRepository(c.gormDB, nil))
}

func (c *CompositionRoot) CreateListMachinesQueryHandler() queries.ListMachinesQueryHandler {
	return queries.NewListMachinesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateValidateMachineParametersQueryHandler() queries.ValidateMachineParametersQueryHandler {
	return queries.NewValidateMachineParametersQueryHandler(machinerepo.NewGormMachineRepository(c.gormDB, nil))
}

// Workers

func (c *CompositionRoot) CreateProcessNextItemCommandHandler() *commands.ProcessNextItemCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	h := commands.NewProcessNextItemCommandHandler(f, c.registry, c.publisher, commands.ProcessingPolicy{
		MaxAttempts:       c.cfg.MaxAttempts,
		GenerationTimeout: c.cfg.GenerationTimeout,
	}, c.logger)
	return &h
}

func (c *CompositionRoot) CreateRecoverStaleItemsCommandHandler() *commands.RecoverStaleItemsCommandHandler {
	h := commands.NewRecoverStaleItemsCommandHandler(c.orderUoWFactory(), c.heartbeats, c.publisher, commands.RecoveryPolicy{
		HeartbeatThreshold: c.cfg.HeartbeatThreshold,
		ClaimTimeout:       c.cfg.ClaimTimeout,
		MaxAttempts:        c.cfg.MaxAttempts,
	}, c.logger)
	return &h
}

func (c *CompositionRoot) CreateGetWorkersQueryHandler() queries.GetWorkersQueryHandler {
	return queries.NewGetWorkersQueryHandler(c.heartbeats, c.cfg.HeartbeatThreshold)
}

// UseCases assembles the handlers served over HTTP.
func (c *CompositionRoot) UseCases() httpin.UseCases {
	return httpin.UseCases{
		CreateOrder: c.CreateCreateOrderCommandHandler(),
		CancelOrder: c.CreateCancelOrderCommandHandler(),
		RetryOrder:  c.CreateRetryOrderCommandHandler(),
		GetOrder:    c.CreateGetOrderQueryHandler(),
		ListOrders:  c.CreateListOrdersQueryHandler(),

		ListProducts:          c.CreateListProductsQueryHandler(),
		GetProduct:            c.CreateGetProductQueryHandler(),
		UpdateProduct:         c.CreateUpdateProductCommandHandler(),
		ToggleProductFavorite: c.CreateToggleProductFavoriteCommandHandler(),
		DeleteProduct:         c.CreateDeleteProductCommandHandler(),

		ListMachines:              c.CreateListMachinesQueryHandler(),
		GetMachine:                c.CreateGetMachineQueryHandler(),
		CreateMachine:             c.CreateCreateMachineCommandHandler(),
		UpdateMachine:             c.CreateUpdateMachineCommandHandler(),
		SetMachineActive:          c.CreateSetMachineActiveCommandHandler(),
		ValidateMachineParameters: c.CreateValidateMachineParametersQueryHandler(),

		GetWorkers: c.CreateGetWorkersQueryHandler(),
	}
}

// Jobs returns the foreman followed by WORKER_COUNT workers.
func (c *CompositionRoot) Jobs(hostname string) []jobs.Job {
	list := []jobs.Job{
		jobs.NewForemanJob(c.CreateRecoverStaleItemsCommandHandler(), c.cfg.ForemanInterval, c.logger),
	}
	processor := c.CreateProcessNextItemCommandHandler()
	for i, id := range c.WorkerIDs(hostname) {
		list = append(list, jobs.NewWorkerJob(jobs.WorkerConfig{
			ID:           id,
			Name:         fmt.Sprintf("worker %d", i+1),
			PollInterval: c.cfg.WorkerPollInterval,
			BeatInterval: c.cfg.HeartbeatBeatInterval(),
			BatchSize:    c.cfg.WorkerBatchSize,
		}, processor, c.heartbeats, c.logger))
	}
	return list
}

// WorkerIDs returns the ids of this process's workers: hostname, process
// instance and worker number.
func (c *CompositionRoot) WorkerIDs(hostname string) []string {
	ids := make([]string, c.cfg.WorkerCount)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%s-%d", hostname, c.instance, i+1)
	}
	return ids
}

// CatalogWatcher returns nil when MACHINE_CATALOG_FILE is not set.
func (c *CompositionRoot) CatalogWatcher() *catalog.Watcher {
	if c.cfg.MachineCatalogFile == "" {
		return nil
	}
	return catalog.NewWatcher(c.cfg.MachineCatalogFile, c.CreateSyncMachineCatalogCommandHandler(), c.logger)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) productUoWFactory() commands.ProductUoWFactory {
	return FuncProductUoWFactory(func() commands.ProductUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) machineUoWFactory() commands.MachineUoWFactory {
	return FuncMachineUoWFactory(func() commands.MachineUoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncProductUoWFactory func() commands.ProductUoW

func (f FuncProductUoWFactory) Create() commands.ProductUoW {
	return f()
}

type FuncMachineUoWFactory func() commands.MachineUoW

func (f FuncMachineUoWFactory) Create() commands.MachineUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
