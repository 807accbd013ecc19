// Package queue runs the durable job queue: a bounded worker pool polling the
// store, per-job heartbeats, stalled-job reclamation and terminal-job
// archival. Durability lives in the store; this package is only the runtime.
package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/internal/store"
)

// Outcome is a job's terminal result as decided by the processor.
type Outcome struct {
	State  model.JobState
	Result *model.JobResult
}

// ProcessFunc executes one claimed job. Returning an error marks the attempt
// failed: the job is retried with backoff while attempts remain, then failed
// terminally.
type ProcessFunc func(ctx context.Context, job *model.EnrichmentJob) (*Outcome, error)

// Options tunes the worker pool.
type Options struct {
	Concurrency   int
	PollInterval  time.Duration
	StallTimeout  time.Duration
	ArchiveGrace  time.Duration
	ArchiveEvery  time.Duration
	HeartbeatBeat time.Duration
	Backoff       resilience.RetryConfig
}

func (o *Options) withDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.StallTimeout <= 0 {
		o.StallTimeout = 5 * time.Minute
	}
	if o.ArchiveGrace <= 0 {
		o.ArchiveGrace = 72 * time.Hour
	}
	if o.ArchiveEvery <= 0 {
		o.ArchiveEvery = time.Hour
	}
	if o.HeartbeatBeat <= 0 {
		o.HeartbeatBeat = 30 * time.Second
	}
	if o.Backoff.MaxAttempts == 0 {
		o.Backoff = resilience.DefaultRetryConfig()
	}
}

// Worker polls the store and drives jobs through the processor.
type Worker struct {
	store   store.Store
	process ProcessFunc
	opts    Options
}

// NewWorker creates a Worker.
func NewWorker(st store.Store, process ProcessFunc, opts Options) *Worker {
	opts.withDefaults()
	return &Worker{store: st, process: process, opts: opts}
}

// Run blocks until ctx is cancelled, polling for jobs and dispatching them to
// the pool. In-flight jobs get a drain window on shutdown.
func (w *Worker) Run(ctx context.Context) error {
	zap.L().Info("queue: worker starting",
		zap.Int("concurrency", w.opts.Concurrency),
		zap.Duration("poll_interval", w.opts.PollInterval),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)

	maintDone := make(chan struct{})
	go func() {
		defer close(maintDone)
		w.maintenanceLoop(ctx)
	}()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

poll:
	for {
		select {
		case <-ctx.Done():
			break poll
		case <-ticker.C:
		}

		// Drain everything runnable before sleeping again.
		for {
			job, err := w.store.DequeueJob(gCtx)
			if err != nil {
				zap.L().Error("queue: dequeue failed", zap.Error(err))
				break
			}
			if job == nil {
				break
			}
			g.Go(func() error {
				w.runJob(gCtx, job)
				return nil
			})
		}
	}

	err := g.Wait()
	<-maintDone
	zap.L().Info("queue: worker stopped")
	return err
}

// runJob executes one claimed job with a heartbeat loop alongside.
func (w *Worker) runJob(ctx context.Context, job *model.EnrichmentJob) {
	log := zap.L().With(zap.String("job_id", job.ID), zap.String("review_id", job.ReviewID))
	log.Info("queue: job started",
		zap.Int("attempt", job.Attempts),
		zap.Int("bottles", len(job.Guesses)),
	)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.heartbeatLoop(hbCtx, job.ID)
	}()

	outcome, err := w.process(ctx, job)
	stopHeartbeat()
	wg.Wait()

	// A job that finishes during shutdown still needs its terminal write to
	// land, or the stall reclaimer re-runs it on the next start.
	writeCtx := context.WithoutCancel(ctx)

	if err != nil {
		w.handleFailure(writeCtx, job, err, log)
		return
	}

	if err := w.store.CompleteJob(writeCtx, job.ID, outcome.State, outcome.Result); err != nil {
		log.Error("queue: complete failed", zap.Error(err))
		return
	}
	log.Info("queue: job finished", zap.String("state", string(outcome.State)))
}

// handleFailure retries with backoff while attempts remain, else fails
// terminally. The backoff grows with the attempt number already consumed.
func (w *Worker) handleFailure(ctx context.Context, job *model.EnrichmentJob, procErr error, log *zap.Logger) {
	if job.Attempts >= job.MaxAttempts {
		log.Error("queue: job failed terminally",
			zap.Int("attempts", job.Attempts),
			zap.Error(procErr),
		)
		if err := w.store.FailJob(ctx, job.ID, procErr.Error()); err != nil {
			log.Error("queue: fail write failed", zap.Error(err))
		}
		return
	}

	delay := resilience.Backoff(job.Attempts, w.opts.Backoff)
	log.Warn("queue: job attempt failed, retrying",
		zap.Int("attempt", job.Attempts),
		zap.Duration("backoff", delay),
		zap.Error(procErr),
	)
	if err := w.store.RetryJob(ctx, job.ID, procErr.Error(), time.Now().Add(delay)); err != nil {
		log.Error("queue: retry write failed", zap.Error(err))
	}
}

func (w *Worker) heartbeatLoop(ctx context.Context, jobID string) {
	ticker := time.NewTicker(w.opts.HeartbeatBeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.HeartbeatJob(ctx, jobID); err != nil && ctx.Err() == nil {
				zap.L().Warn("queue: heartbeat failed",
					zap.String("job_id", jobID),
					zap.Error(err),
				)
			}
		}
	}
}

// maintenanceLoop reclaims stalled jobs and archives terminal ones.
func (w *Worker) maintenanceLoop(ctx context.Context) {
	reclaim := time.NewTicker(w.opts.StallTimeout / 2)
	archive := time.NewTicker(w.opts.ArchiveEvery)
	defer reclaim.Stop()
	defer archive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reclaim.C:
			n, err := w.store.ReclaimStalled(ctx, w.opts.StallTimeout)
			if err != nil {
				zap.L().Error("queue: reclaim failed", zap.Error(err))
			} else if n > 0 {
				zap.L().Warn("queue: reclaimed stalled jobs", zap.Int("count", n))
			}
		case <-archive.C:
			n, err := w.store.ArchiveTerminalJobs(ctx, w.opts.ArchiveGrace)
			if err != nil {
				zap.L().Error("queue: archive failed", zap.Error(err))
			} else if n > 0 {
				zap.L().Info("queue: archived terminal jobs", zap.Int("count", n))
			}
		}
	}
}
