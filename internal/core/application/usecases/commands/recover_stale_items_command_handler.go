package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/model/worker"
	"artfactory/internal/core/ports"
)

// RecoveryPolicy decides when a claimed item is considered abandoned.
type RecoveryPolicy struct {
	// HeartbeatThreshold is the age after which a worker is presumed dead.
	HeartbeatThreshold time.Duration
	// ClaimTimeout bounds how long any single claim may last, even for a live worker.
	ClaimTimeout time.Duration
	MaxAttempts  int
}

// RecoverStaleItemsResult summarises one sweep.
type RecoverStaleItemsResult struct {
	Requeued       int
	Failed         int
	RemovedWorkers []string
}

// RecoverStaleItemsCommandHandler requeues items held by dead or stuck workers
// and forgets workers whose heartbeat went stale.
type RecoverStaleItemsCommandHandler struct {
	uowFactory OrderUoWFactory
	heartbeats ports.HeartbeatStore
	publisher  ports.EventPublisher
	policy     RecoveryPolicy
	logger     *slog.Logger
}

func NewRecoverStaleItemsCommandHandler(
	uowFactory OrderUoWFactory,
	heartbeats ports.HeartbeatStore,
	publisher ports.EventPublisher,
	policy RecoveryPolicy,
	logger *slog.Logger,
) RecoverStaleItemsCommandHandler {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return RecoverStaleItemsCommandHandler{
		uowFactory: uowFactory,
		heartbeats: heartbeats,
		publisher:  publisher,
		policy:     policy,
		logger:     logger,
	}
}

func (h *RecoverStaleItemsCommandHandler) Handle(
	ctx context.Context,
	cmd RecoverStaleItemsCommand,
) (RecoverStaleItemsResult, error) {
	if err := cmd.Validate(); err != nil {
		return RecoverStaleItemsResult{}, err
	}

	now := time.Now().UTC()
	beats, err := h.heartbeats.List(ctx)
	if err != nil {
		return RecoverStaleItemsResult{}, err
	}

	alive := make(map[string]bool, len(beats))
	var stale []string
	for _, hb := range beats {
		if hb.Health(now, h.policy.HeartbeatThreshold) == worker.Healthy {
			alive[hb.WorkerID] = true
			continue
		}
		stale = append(stale, hb.WorkerID)
	}

	processing, err := h.uowFactory.Create().OrderRepository().FindProcessingItems(ctx)
	if err != nil {
		return RecoverStaleItemsResult{}, err
	}

	var result RecoverStaleItemsResult
	for _, candidate := range processing {
		reason, abandoned := h.abandonReason(candidate, alive, now)
		if !abandoned {
			continue
		}

		it, recovered, recoverErr := h.requeue(ctx, candidate, reason)
		if recoverErr != nil {
			return result, fmt.Errorf("requeue item %s: %w", candidate.ItemID, recoverErr)
		}
		if !recovered {
			continue
		}
		if it.Status() == order.ItemFailed {
			result.Failed++
		} else {
			result.Requeued++
		}
	}

	for _, workerID := range stale {
		if err = h.heartbeats.Remove(ctx, workerID); err != nil {
			return result, err
		}
		result.RemovedWorkers = append(result.RemovedWorkers, workerID)
	}

	if result.Requeued+result.Failed+len(result.RemovedWorkers) > 0 {
		h.logger.InfoContext(ctx, "stale work recovered",
			"requeued", result.Requeued,
			"failed", result.Failed,
			"removed_workers", result.RemovedWorkers,
		)
	}
	return result, nil
}

func (h *RecoverStaleItemsCommandHandler) abandonReason(
	candidate ports.ProcessingItem,
	alive map[string]bool,
	now time.Time,
) (string, bool) {
	if !alive[candidate.WorkerID] {
		return fmt.Sprintf("worker %s stopped sending heartbeats", candidate.WorkerID), true
	}
	if h.policy.ClaimTimeout > 0 && now.Sub(candidate.ClaimedAt) > h.policy.ClaimTimeout {
		return fmt.Sprintf("claim by worker %s exceeded %s", candidate.WorkerID, h.policy.ClaimTimeout), true
	}
	return "", false
}

// requeue re-checks the item under the order lock, since the worker may have
// finished it after the candidates were listed.
func (h *RecoverStaleItemsCommandHandler) requeue(
	ctx context.Context,
	candidate ports.ProcessingItem,
	reason string,
) (*order.Item, bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.GetForUpdate(ctx, candidate.OrderID)
	if err != nil {
		return nil, false, err
	}

	current, err := o.Item(candidate.ItemID)
	if err != nil {
		return nil, false, err
	}
	if current.Status() != order.ItemProcessing || current.WorkerID() != candidate.WorkerID {
		return nil, false, nil
	}

	now := time.Now().UTC()
	it, err := o.RequeueItem(candidate.ItemID, reason, now, h.policy.MaxAttempts)
	if err != nil {
		return nil, false, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, false, err
	}

	eventType := ports.EventItemRequeued
	if it.Status() == order.ItemFailed {
		eventType = ports.EventItemFailed
	}
	h.logger.WarnContext(ctx, "item requeued",
		"order_id", o.ID().String(),
		"item_id", it.ID().String(),
		"worker_id", candidate.WorkerID,
		"item_status", it.Status().String(),
		"reason", reason,
	)
	publish(ctx, h.publisher, h.logger, itemEvent(eventType, o, it, nil, now))
	return it, true, nil
}
