package ports

import (
	"context"

	"artfactory/internal/core/domain/model/worker"
)

// HeartbeatStore keeps the latest heartbeat of every worker.
type HeartbeatStore interface {
	Beat(ctx context.Context, hb worker.Heartbeat) error
	List(ctx context.Context) ([]worker.Heartbeat, error)
	Remove(ctx context.Context, workerID string) error
}
