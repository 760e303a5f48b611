package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/model/product"
	"artfactory/internal/core/ports"
	"artfactory/internal/pkg/errs"
)

var (
	// ErrNoPendingItems is returned when there is nothing to claim.
	ErrNoPendingItems = errors.New("no pending items")

	// ErrNoOutputs is recorded when a provider answers without any media.
	ErrNoOutputs = errors.New("provider returned no outputs")
)

// ProcessingPolicy bounds a single generation attempt.
type ProcessingPolicy struct {
	MaxAttempts       int
	GenerationTimeout time.Duration
}

// ProcessNextItemResult describes what happened to the claimed item.
type ProcessNextItemResult struct {
	OrderID    kernel.UUID
	ItemID     kernel.UUID
	ItemStatus order.ItemStatus
	ProductIDs []kernel.UUID
	Cause      string
}

// Succeeded reports whether the item was completed.
func (r ProcessNextItemResult) Succeeded() bool {
	return r.ItemStatus == order.ItemCompleted
}

// ProcessNextItemCommandHandler runs one worker iteration. The claim and the
// outcome are stored in two short transactions; the provider call between
// them holds no database locks.
type ProcessNextItemCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.FactoryMachineRegistry
	publisher  ports.EventPublisher
	policy     ProcessingPolicy
	logger     *slog.Logger
}

func NewProcessNextItemCommandHandler(
	uowFactory UoWFactory,
	registry ports.FactoryMachineRegistry,
	publisher ports.EventPublisher,
	policy ProcessingPolicy,
	logger *slog.Logger,
) ProcessNextItemCommandHandler {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return ProcessNextItemCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		publisher:  publisher,
		policy:     policy,
		logger:     logger,
	}
}

// claimedItem is a snapshot of the item taken at claim time.
type claimedItem struct {
	orderID kernel.UUID
	item    order.ItemState
	machine *machine.Definition
}

// Handle claims the oldest pending item, generates it and records the outcome.
// It returns ErrNoPendingItems when the queue is empty and
// order.ErrItemNotClaimedByWorker when the item was taken away while generating.
func (h *ProcessNextItemCommandHandler) Handle(
	ctx context.Context,
	cmd ProcessNextItemCommand,
) (ProcessNextItemResult, error) {
	if err := cmd.Validate(); err != nil {
		return ProcessNextItemResult{}, err
	}

	claimed, err := h.claim(ctx, cmd.WorkerID())
	if err != nil {
		return ProcessNextItemResult{}, err
	}

	h.logger.InfoContext(ctx, "item claimed",
		"worker_id", cmd.WorkerID(),
		"order_id", claimed.orderID.String(),
		"item_id", claimed.item.ID.String(),
		"machine", claimed.machine.Slug(),
		"attempt", claimed.item.Attempts,
	)
	cmd.NotifyClaimed(claimed.item.ID)

	generated, genErr := h.generate(ctx, claimed)

	// The outcome must be stored even when the worker is shutting down,
	// otherwise the item waits for the foreman.
	return h.finish(context.WithoutCancel(ctx), cmd.WorkerID(), claimed, generated, genErr)
}

func (h *ProcessNextItemCommandHandler) claim(ctx context.Context, workerID string) (claimedItem, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return claimedItem{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, itemID, err := orderRepo.LockNextPendingItem(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return claimedItem{}, ErrNoPendingItems
		}
		return claimedItem{}, err
	}

	it, err := o.ClaimItem(itemID, workerID, time.Now().UTC())
	if err != nil {
		return claimedItem{}, err
	}

	def, err := uow.MachineRepository().Get(ctx, it.MachineID())
	if err != nil {
		return claimedItem{}, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return claimedItem{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return claimedItem{}, err
	}

	return claimedItem{orderID: o.ID(), item: it.State(), machine: def}, nil
}

func (h *ProcessNextItemCommandHandler) generate(ctx context.Context, claimed claimedItem) (ports.GenerationResult, error) {
	fm, err := h.registry.Lookup(claimed.machine.Provider())
	if err != nil {
		return ports.GenerationResult{}, err
	}

	genCtx, cancel := context.WithTimeout(ctx, h.policy.GenerationTimeout)
	defer cancel()

	result, err := fm.Generate(genCtx, ports.GenerationRequest{
		ItemID:     claimed.item.ID,
		Model:      claimed.machine.Model(),
		MediaType:  claimed.machine.MediaType(),
		Parameters: claimed.item.Parameters,
	})
	if err != nil {
		return ports.GenerationResult{}, err
	}
	if len(result.Outputs) == 0 {
		return ports.GenerationResult{}, ErrNoOutputs
	}
	return result, nil
}

func (h *ProcessNextItemCommandHandler) finish(
	ctx context.Context,
	workerID string,
	claimed claimedItem,
	generated ports.GenerationResult,
	genErr error,
) (ProcessNextItemResult, error) {
	now := time.Now().UTC()

	var products []*product.Product
	if genErr == nil {
		products, genErr = buildProducts(claimed, generated, now)
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ProcessNextItemResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.GetForUpdate(ctx, claimed.orderID)
	if err != nil {
		return ProcessNextItemResult{}, err
	}

	var (
		it         *order.Item
		productIDs []kernel.UUID
		eventType  ports.EventType
	)
	if genErr == nil {
		it, err = o.CompleteItem(claimed.item.ID, workerID, now)
		if err != nil {
			return ProcessNextItemResult{}, err
		}
		productRepo := uow.ProductRepository()
		for _, p := range products {
			if err = productRepo.Add(ctx, p); err != nil {
				return ProcessNextItemResult{}, err
			}
			productIDs = append(productIDs, p.ID())
		}
		eventType = ports.EventItemCompleted
	} else {
		it, err = o.FailItem(claimed.item.ID, workerID, genErr.Error(), now, h.policy.MaxAttempts)
		if err != nil {
			return ProcessNextItemResult{}, err
		}
		eventType = ports.EventItemFailed
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return ProcessNextItemResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ProcessNextItemResult{}, err
	}

	result := ProcessNextItemResult{
		OrderID:    o.ID(),
		ItemID:     it.ID(),
		ItemStatus: it.Status(),
		ProductIDs: productIDs,
	}
	if genErr != nil {
		result.Cause = genErr.Error()
		h.logger.WarnContext(ctx, "item generation failed",
			"worker_id", workerID,
			"order_id", result.OrderID.String(),
			"item_id", result.ItemID.String(),
			"item_status", it.Status().String(),
			"attempts", it.Attempts(),
			"error", genErr,
		)
	} else {
		h.logger.InfoContext(ctx, "item completed",
			"worker_id", workerID,
			"order_id", result.OrderID.String(),
			"item_id", result.ItemID.String(),
			"products", len(productIDs),
			"order_status", o.Status().String(),
		)
	}

	publish(ctx, h.publisher, h.logger, itemEvent(eventType, o, it, productIDs, now))
	return result, nil
}

func buildProducts(claimed claimedItem, generated ports.GenerationResult, now time.Time) ([]*product.Product, error) {
	metadata := maps.Clone(generated.Metadata)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if generated.RequestID != "" {
		metadata["request_id"] = generated.RequestID
	}

	origin := product.Origin{
		OrderID:    claimed.orderID,
		ItemID:     claimed.item.ID,
		MachineID:  claimed.machine.ID(),
		Provider:   claimed.machine.Provider().String(),
		Model:      claimed.machine.Model(),
		Parameters: claimed.item.Parameters,
	}

	products := make([]*product.Product, 0, len(generated.Outputs))
	for i, out := range generated.Outputs {
		p, err := product.NewProduct(kernel.NewUUID(), origin, product.Media{
			Type:        claimed.machine.MediaType(),
			URL:         out.URL,
			ContentType: out.ContentType,
			Width:       out.Width,
			Height:      out.Height,
			Seed:        generated.Seed,
			Metadata:    maps.Clone(metadata),
		}, claimed.item.Prompt, now)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}
