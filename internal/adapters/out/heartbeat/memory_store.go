package heartbeat

import (
	"context"
	"sync"

	"artfactory/internal/core/domain/model/worker"
)

// MemoryStore keeps heartbeats in process. It only sees workers of the
// current process, which is all a single-instance deployment has.
type MemoryStore struct {
	mu    sync.RWMutex
	beats map[string]worker.Heartbeat
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{beats: make(map[string]worker.Heartbeat)}
}

func (s *MemoryStore) Beat(_ context.Context, hb worker.Heartbeat) error {
	if err := hb.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beats[hb.WorkerID] = hb
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]worker.Heartbeat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	beats := make([]worker.Heartbeat, 0, len(s.beats))
	for _, hb := range s.beats {
		beats = append(beats, hb)
	}
	return beats, nil
}

func (s *MemoryStore) Remove(_ context.Context, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.beats, workerID)
	return nil
}
