// Package jobs provides scheduled background tasks for the art factory.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. WorkerJob - one per configured worker. Beats its heartbeat and processes
// pending order items until the queue is empty or its batch is done.
// 2. ForemanJob - requeues items held by workers whose heartbeat went stale
// or whose claim outlived the claim timeout.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(logger, foreman, worker1, worker2)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Jobs run "@every <interval>" wrapped in cron.SkipIfStillRunning, so a long
// generation delays the worker's next tick instead of overlapping it.
//
// # Error Handling
//
// - An empty queue ends the tick silently
// - An item requeued by the foreman while generating is logged as a warning
// - Failed job starts stop any already running jobs
package jobs
