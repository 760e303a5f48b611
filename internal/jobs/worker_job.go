package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/model/worker"
	"artfactory/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// ItemProcessor runs one claim-generate-store iteration.
type ItemProcessor interface {
	Handle(ctx context.Context, cmd commands.ProcessNextItemCommand) (commands.ProcessNextItemResult, error)
}

type WorkerConfig struct {
	ID   string
	Name string
	// PollInterval is the cron period between ticks.
	PollInterval time.Duration
	// BeatInterval is how often the heartbeat is refreshed while a tick runs.
	BeatInterval time.Duration
	// BatchSize caps the items processed in one tick.
	BatchSize int
}

// WorkerJob is one factory worker. Every tick it beats its heartbeat and
// processes items until the queue is empty or the batch is done. A tick that
// is still running when the next one is due is skipped.
type WorkerJob struct {
	cfg        WorkerConfig
	processor  ItemProcessor
	heartbeats ports.HeartbeatStore
	cron       *cron.Cron
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	hb worker.Heartbeat
}

func NewWorkerJob(
	cfg WorkerConfig,
	processor ItemProcessor,
	heartbeats ports.HeartbeatStore,
	logger *slog.Logger,
) *WorkerJob {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	logger = logger.With("component", "worker_job", "worker_id", cfg.ID)

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerJob{
		cfg:        cfg,
		processor:  processor,
		heartbeats: heartbeats,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger(logger)))),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		hb: worker.Heartbeat{
			WorkerID:  cfg.ID,
			Name:      cfg.Name,
			State:     worker.StateIdle,
			StartedAt: time.Now().UTC(),
		},
	}
}

func (j *WorkerJob) Name() string { return "worker " + j.cfg.ID }

// Start registers the worker heartbeat and schedules the ticks.
func (j *WorkerJob) Start() error {
	if j.cfg.PollInterval <= 0 {
		return fmt.Errorf("worker %s: poll interval must be positive", j.cfg.ID)
	}
	if err := j.beat(j.ctx); err != nil {
		return fmt.Errorf("worker %s: first heartbeat: %w", j.cfg.ID, err)
	}

	_, err := j.cron.AddFunc("@every "+j.cfg.PollInterval.String(), func() {
		j.tick(j.ctx)
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(j.ctx, "Worker started", "poll_interval", j.cfg.PollInterval.String(), "batch_size", j.cfg.BatchSize)
	return nil
}

// Stop cancels the running generation, waits for the tick to store its
// outcome and removes the heartbeat so the foreman does not wait for it to
// go stale.
func (j *WorkerJob) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := j.heartbeats.Remove(ctx, j.cfg.ID); err != nil {
		j.logger.WarnContext(ctx, "Failed to remove heartbeat", "error", err)
	}
	j.logger.InfoContext(ctx, "Worker stopped")
}

func (j *WorkerJob) tick(ctx context.Context) {
	stop := j.keepAlive(ctx)
	defer stop()

	for range j.cfg.BatchSize {
		if ctx.Err() != nil {
			return
		}

		cmd, err := commands.NewProcessNextItemCommand(j.cfg.ID)
		if err != nil {
			j.logger.ErrorContext(ctx, "Invalid worker command", "error", err)
			return
		}
		cmd = cmd.WithClaimObserver(func(itemID kernel.UUID) {
			j.update(func(hb *worker.Heartbeat) {
				hb.State = worker.StateBusy
				hb.CurrentItem = itemID.String()
			})
			_ = j.beat(ctx)
		})

		res, err := j.processor.Handle(ctx, cmd)
		j.update(func(hb *worker.Heartbeat) {
			hb.State = worker.StateIdle
			hb.CurrentItem = ""
		})

		switch {
		case errors.Is(err, commands.ErrNoPendingItems):
			return
		case errors.Is(err, order.ErrItemNotClaimedByWorker):
			j.logger.WarnContext(ctx, "Item was requeued while generating", "error", err)
			continue
		case err != nil:
			j.logger.ErrorContext(ctx, "Worker iteration failed", "error", err)
			return
		}

		j.update(func(hb *worker.Heartbeat) {
			if res.Succeeded() {
				hb.Processed++
			} else {
				hb.Failed++
			}
		})
	}
}

// keepAlive beats immediately and then every BeatInterval until stop is called.
func (j *WorkerJob) keepAlive(ctx context.Context) (stop func()) {
	if err := j.beat(ctx); err != nil {
		j.logger.WarnContext(ctx, "Heartbeat failed", "error", err)
	}
	if j.cfg.BeatInterval <= 0 {
		return func() { _ = j.beat(context.WithoutCancel(ctx)) }
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(j.cfg.BeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := j.beat(ctx); err != nil {
					j.logger.WarnContext(ctx, "Heartbeat failed", "error", err)
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		_ = j.beat(context.WithoutCancel(ctx))
	}
}

func (j *WorkerJob) update(fn func(hb *worker.Heartbeat)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.hb)
}

func (j *WorkerJob) beat(ctx context.Context) error {
	j.mu.Lock()
	hb := j.hb
	hb.LastSeen = time.Now().UTC()
	j.mu.Unlock()
	return j.heartbeats.Beat(ctx, hb)
}

// Heartbeat returns the worker's current report.
func (j *WorkerJob) Heartbeat() worker.Heartbeat {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.hb
}
