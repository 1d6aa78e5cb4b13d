package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/andthens/BluePrint/internal/config"
)

// Orchestrator owns the report registry and runs jobs, either inline for
// HTTP requests or through a bounded queue for the watch command.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the registry and makes sure the upload and output
// directories exist.
func NewOrchestrator(cfg config.Config, log *slog.Logger) (*Orchestrator, error) {
	for _, dir := range []string{cfg.OutputDir, cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.ReportTTL, cfg.PurgeOutputs),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: NewWorker(cfg.OutputDir, cfg.UploadDir, cfg.KeepUploads, log),
		log:    log,
		cfg:    cfg,
	}, nil
}

// Start launches queue workers and the registry janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					// Errors are recorded on the job and logged by the worker.
					_ = o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := o.jobs.Cleanup(); n > 0 {
					o.log.Info("evicted expired reports", "count", n)
				}
			}
		}
	}()
}

// Stop gracefully shuts down the workers and the janitor.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Run registers a job and processes it on the caller's goroutine.
func (o *Orchestrator) Run(ctx context.Context, job *Job) error {
	o.jobs.Put(job)
	return o.worker.Process(ctx, job)
}

// Submit queues a job for a background worker.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// ListJobs returns snapshots of all registered jobs, newest first.
func (o *Orchestrator) ListJobs() []JobSnapshot {
	return o.jobs.List()
}

// DeleteJob removes a job and its output file.
func (o *Orchestrator) DeleteJob(id string) bool {
	return o.jobs.Delete(id)
}

// Timings returns generation times of recently completed reports.
func (o *Orchestrator) Timings() TimingSnapshot {
	return o.worker.Timings()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
