package heartbeat_test

import (
	"testing"
	"time"

	"artfactory/internal/adapters/out/heartbeat"
	"artfactory/internal/core/domain/model/worker"
	"artfactory/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := t.Context()
	store := heartbeat.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Beat(ctx, worker.Heartbeat{WorkerID: "w1", State: worker.StateIdle, LastSeen: now}))
	require.NoError(t, store.Beat(ctx, worker.Heartbeat{WorkerID: "w2", State: worker.StateBusy, LastSeen: now}))
	require.NoError(t, store.Beat(ctx, worker.Heartbeat{WorkerID: "w1", State: worker.StateBusy, Processed: 3, LastSeen: now}))

	beats, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, beats, 2)
	for _, hb := range beats {
		if hb.WorkerID == "w1" {
			assert.Equal(t, int64(3), hb.Processed)
			assert.Equal(t, worker.StateBusy, hb.State)
		}
	}

	require.NoError(t, store.Remove(ctx, "w1"))
	require.NoError(t, store.Remove(ctx, "unknown"))
	beats, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, beats, 1)
	assert.Equal(t, "w2", beats[0].WorkerID)
}

func TestMemoryStore_RejectsInvalidHeartbeat(t *testing.T) {
	err := heartbeat.NewMemoryStore().Beat(t.Context(), worker.Heartbeat{State: worker.StateIdle})

	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}
