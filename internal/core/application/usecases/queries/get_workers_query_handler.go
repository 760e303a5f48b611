package queries

import (
	"context"
	"slices"
	"strings"
	"time"

	"artfactory/internal/core/domain/model/worker"
	"artfactory/internal/core/ports"
)

// GetWorkersQueryHandler lists worker heartbeats with the health the foreman
// would assign them right now.
type GetWorkersQueryHandler struct {
	heartbeats ports.HeartbeatStore
	threshold  time.Duration
	now        func() time.Time
}

func NewGetWorkersQueryHandler(heartbeats ports.HeartbeatStore, threshold time.Duration) GetWorkersQueryHandler {
	return GetWorkersQueryHandler{heartbeats: heartbeats, threshold: threshold, now: time.Now}
}

func (h GetWorkersQueryHandler) Handle(ctx context.Context, query GetWorkersQuery) (GetWorkersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetWorkersQueryResponse{}, err
	}

	beats, err := h.heartbeats.List(ctx)
	if err != nil {
		return GetWorkersQueryResponse{}, err
	}
	slices.SortFunc(beats, func(a, b worker.Heartbeat) int { return strings.Compare(a.WorkerID, b.WorkerID) })

	now := h.now()
	resp := GetWorkersQueryResponse{Workers: make([]WorkerView, 0, len(beats))}
	for _, hb := range beats {
		health := hb.Health(now, h.threshold)
		if health == worker.Healthy {
			resp.Healthy++
		} else {
			resp.Stale++
		}
		resp.Workers = append(resp.Workers, WorkerView{
			WorkerID:    hb.WorkerID,
			Name:        hb.Name,
			State:       string(hb.State),
			Health:      string(health),
			CurrentItem: hb.CurrentItem,
			Processed:   hb.Processed,
			Failed:      hb.Failed,
			StartedAt:   hb.StartedAt,
			LastSeen:    hb.LastSeen,
			Age:         hb.Age(now),
		})
	}
	return resp, nil
}
