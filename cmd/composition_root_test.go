package cmd

import (
	"log/slog"
	"strings"
	"testing"

	"artfactory/internal/adapters/out/events"
	"artfactory/internal/adapters/out/heartbeat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositionRoot_WorkerIDs(t *testing.T) {
	cfg := Config{WorkerCount: 3}
	logger := slog.New(slog.DiscardHandler)
	newRoot := func() CompositionRoot {
		return NewCompositionRoot(cfg, nil, events.NoopPublisher{}, heartbeat.NewMemoryStore(), logger)
	}

	first := newRoot()
	ids := first.WorkerIDs("render-0")
	require.Len(t, ids, 3)
	for i, id := range ids {
		assert.True(t, strings.HasPrefix(id, "render-0-"), id)
		assert.True(t, strings.HasSuffix(id, []string{"-1", "-2", "-3"}[i]), id)
	}
	assert.Equal(t, ids, first.WorkerIDs("render-0"))

	restarted := newRoot()
	for _, id := range restarted.WorkerIDs("render-0") {
		assert.NotContains(t, ids, id)
	}
}
