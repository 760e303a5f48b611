package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"artfactory/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// StaleItemRecoverer requeues items abandoned by dead or stuck workers.
type StaleItemRecoverer interface {
	Handle(ctx context.Context, cmd commands.RecoverStaleItemsCommand) (commands.RecoverStaleItemsResult, error)
}

// ForemanJob periodically recovers items held by workers that stopped beating.
type ForemanJob struct {
	handler  StaleItemRecoverer
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewForemanJob(handler StaleItemRecoverer, interval time.Duration, logger *slog.Logger) *ForemanJob {
	logger = logger.With("component", "foreman_job")
	return &ForemanJob{
		handler:  handler,
		interval: interval,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger(logger)))),
		logger:   logger,
	}
}

func (j *ForemanJob) Name() string { return "foreman" }

func (j *ForemanJob) Start() error {
	if j.interval <= 0 {
		return fmt.Errorf("foreman: interval must be positive")
	}
	_, err := j.cron.AddFunc("@every "+j.interval.String(), func() {
		j.run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Foreman started", "interval", j.interval.String())
	return nil
}

func (j *ForemanJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Foreman stopped")
}

func (j *ForemanJob) run(ctx context.Context) {
	res, err := j.handler.Handle(ctx, commands.NewRecoverStaleItemsCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Foreman run failed", "error", err)
		return
	}
	if res.Requeued > 0 || res.Failed > 0 || len(res.RemovedWorkers) > 0 {
		j.logger.InfoContext(ctx, "Recovered stale items",
			"requeued", res.Requeued,
			"failed", res.Failed,
			"removed_workers", res.RemovedWorkers,
		)
	}
}
