package jobs

import (
	"context"

	"picvault/internal/store"
)

// Job kinds fanned out for each newly observed content hash.
const (
	KindThumbnailSmall  = "thumbnail_small"
	KindThumbnailMedium = "thumbnail_medium"
	KindExif            = "exif"
	KindCaption         = "caption"
)

// Queue accepts enrichment work. The dispatcher only needs Submit; the
// database-backed implementation lives behind this so transports can be
// swapped without touching ingestion.
type Queue interface {
	Submit(ctx context.Context, kind, sha256 string) error
}

// StoreQueue is the database-backed Queue.
type StoreQueue struct {
	store *store.Store
}

// NewStoreQueue returns a Queue persisting jobs in the picvault database.
func NewStoreQueue(s *store.Store) *StoreQueue {
	return &StoreQueue{store: s}
}

// Submit enqueues one job. Duplicate submissions for the same (kind, hash)
// are absorbed by the queue.
func (q *StoreQueue) Submit(ctx context.Context, kind, sha256 string) error {
	return q.store.EnqueueJob(ctx, kind, sha256)
}
