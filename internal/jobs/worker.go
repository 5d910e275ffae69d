package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"picvault/internal/config"
	"picvault/internal/logging"
	"picvault/internal/metrics"
	"picvault/internal/store"
)

// Pool drains the job queue with a fixed set of polling workers.
type Pool struct {
	store       *store.Store
	thumbnailer *Thumbnailer
	exif        *ExifExtractor
	captioner   *Captioner
	logger      *slog.Logger

	workers      int
	pollInterval time.Duration
	maxAttempts  int
}

// NewPool wires a worker pool over the store and job handlers. captioner
// may be nil when captioning is disabled.
func NewPool(cfg *config.Config, s *store.Store, captioner *Captioner, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pool{
		store:        s,
		thumbnailer:  NewThumbnailer(cfg, s),
		exif:         NewExifExtractor(s),
		captioner:    captioner,
		logger:       logger.With(slog.String(logging.FieldComponent, "jobs")),
		workers:      cfg.Workers.Count,
		pollInterval: time.Duration(cfg.Workers.PollIntervalSeconds) * time.Second,
		maxAttempts:  cfg.Workers.MaxAttempts,
	}
}

// Run starts the workers and blocks until ctx is cancelled and all workers
// have drained their in-flight job.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	logger := p.logger.With(slog.Int("worker", id))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		// Drain everything available before going back to sleep.
		for {
			if ctx.Err() != nil {
				return
			}
			claimed, err := p.runOne(ctx, logger)
			if err != nil {
				logger.Error("claim job", logging.Error(err))
				break
			}
			if !claimed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runOne claims and executes a single job. Returns false when the queue is
// empty.
func (p *Pool) runOne(ctx context.Context, logger *slog.Logger) (bool, error) {
	job, err := p.store.ClaimNextJob(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	jobLogger := logger.With(
		slog.String(logging.FieldJobKind, job.Kind),
		slog.String(logging.FieldHash, job.SHA256),
		slog.Int64("job_id", job.ID))

	start := time.Now()
	execErr := p.execute(ctx, job)
	if execErr == nil {
		metrics.JobsTotal.WithLabelValues(job.Kind, "ok").Inc()
		jobLogger.Info("job completed", slog.Duration("elapsed", time.Since(start)))
		if err := p.store.CompleteJob(ctx, job.ID); err != nil {
			jobLogger.Error("mark job done", logging.Error(err))
		}
		return true, nil
	}

	retry := job.Attempts < p.maxAttempts
	metrics.JobsTotal.WithLabelValues(job.Kind, "error").Inc()
	jobLogger.Warn("job failed",
		logging.Error(execErr),
		slog.Int("attempts", job.Attempts),
		slog.Bool("retry", retry))
	if err := p.store.FailJob(ctx, job.ID, execErr.Error(), retry); err != nil {
		jobLogger.Error("mark job failed", logging.Error(err))
	}
	return true, nil
}

func (p *Pool) execute(ctx context.Context, job *store.Job) error {
	switch job.Kind {
	case KindThumbnailSmall, KindThumbnailMedium:
		return p.thumbnailer.Render(ctx, job.SHA256, thumbnailSize(job.Kind))
	case KindExif:
		return p.exif.Extract(ctx, job.SHA256)
	case KindCaption:
		if p.captioner == nil {
			return fmt.Errorf("captioning is disabled")
		}
		return p.captioner.Caption(ctx, job.SHA256)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
