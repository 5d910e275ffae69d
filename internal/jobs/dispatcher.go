package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"picvault/internal/logging"
)

// Dispatcher fans out the enrichment set for newly observed content.
type Dispatcher struct {
	queue          Queue
	captionEnabled bool
	logger         *slog.Logger
}

// NewDispatcher builds a Dispatcher over a queue. When captionEnabled is
// false the caption job is skipped entirely rather than queued to fail.
func NewDispatcher(queue Queue, captionEnabled bool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{queue: queue, captionEnabled: captionEnabled, logger: logger}
}

// OnNewContent submits one job of each kind for the hash. Submission is
// all-or-nothing from the caller's point of view: the first queue error is
// returned, but the queue's idempotent inserts make a retry safe.
func (d *Dispatcher) OnNewContent(ctx context.Context, sha256 string) error {
	kinds := []string{KindThumbnailSmall, KindThumbnailMedium, KindExif}
	if d.captionEnabled {
		kinds = append(kinds, KindCaption)
	}

	for _, kind := range kinds {
		if err := d.queue.Submit(ctx, kind, sha256); err != nil {
			return fmt.Errorf("submit %s job: %w", kind, err)
		}
		d.logger.Debug("job dispatched",
			slog.String(logging.FieldJobKind, kind),
			slog.String(logging.FieldHash, sha256))
	}
	return nil
}
