package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"picvault/internal/contenthash"
	"picvault/internal/jobs"
	"picvault/internal/logging"
	"picvault/internal/metrics"
	"picvault/internal/originals"
	"picvault/internal/store"
	"picvault/internal/validate"
)

// Receipt is the outcome of one upload attempt. Exactly one of Upload and
// Rejection describes the result: rejected uploads still get a ledger row,
// carried in Upload, with Rejection explaining why.
type Receipt struct {
	Upload    *store.UploadRecord
	Rejection *validate.Rejection
	Duplicate bool

	// DispatchFailed is set when the upload committed but its enrichment
	// jobs could not be queued. Enqueuing is idempotent, so a later upload
	// of the same content or an operator retry can fill the gap.
	DispatchFailed bool
}

// Accepted reports whether the payload was stored.
func (r Receipt) Accepted() bool {
	return r.Rejection == nil
}

// Pipeline processes uploads end to end.
type Pipeline struct {
	validator  *validate.Validator
	store      *store.Store
	originals  *originals.Store
	dispatcher *jobs.Dispatcher
	logger     *slog.Logger
}

// New wires an upload pipeline.
func New(validator *validate.Validator, s *store.Store, o *originals.Store, d *jobs.Dispatcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		validator:  validator,
		store:      s,
		originals:  o,
		dispatcher: d,
		logger:     logger.With(slog.String(logging.FieldComponent, "ingest")),
	}
}

// Process validates and ingests one upload. A validation rejection is
// recorded in the ledger and returned in the receipt with a nil error.
// A non-nil error wraps ErrPersistence and means nothing was committed.
func (p *Pipeline) Process(ctx context.Context, filename, declaredMIME string, data []byte) (Receipt, error) {
	started := time.Now().UTC()
	uploadID := newUploadID()
	logger := p.logger.With(
		slog.String(logging.FieldUploadID, uploadID),
		slog.String("filename", filename))

	result, err := p.validator.Validate(data, filename, declaredMIME)
	if err != nil {
		rejection, ok := validate.AsRejection(err)
		if !ok {
			return Receipt{}, fmt.Errorf("validate upload: %w", err)
		}
		logger.Info("upload rejected", slog.String(logging.FieldReason, string(rejection.Reason)))

		upload, recordErr := p.store.RecordFailure(ctx, uploadID, filename, rejection.Error(), started)
		if recordErr != nil {
			metrics.UploadsTotal.WithLabelValues("failed").Inc()
			return Receipt{}, fmt.Errorf("%w: record rejection: %v", ErrPersistence, recordErr)
		}
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return Receipt{Upload: upload, Rejection: rejection}, nil
	}

	hash := contenthash.Digest(data)
	logger = logger.With(slog.String(logging.FieldHash, hash))

	meta, isNew, err := p.store.UpsertMetadata(ctx, store.MetadataRecord{
		SHA256:    hash,
		Width:     result.Width,
		Height:    result.Height,
		Format:    result.Format,
		SizeBytes: int64(len(data)),
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return Receipt{}, fmt.Errorf("%w: register metadata: %v", ErrPersistence, err)
	}

	path, err := p.originals.Save(uploadID, strings.ToLower(filepath.Ext(filename)), data)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return Receipt{}, fmt.Errorf("%w: store original: %v", ErrPersistence, err)
	}

	upload, err := p.store.RecordSuccess(ctx, uploadID, filename, path, hash, started)
	if err != nil {
		if removeErr := p.originals.Remove(path); removeErr != nil {
			logger.Warn("orphaned original after ledger failure", logging.Error(removeErr))
		}
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return Receipt{}, fmt.Errorf("%w: record upload: %v", ErrPersistence, err)
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	if !isNew {
		metrics.DuplicateHitsTotal.Inc()
		logger.Info("duplicate content",
			slog.Time("first_upload", meta.FirstUpload))
		return Receipt{Upload: upload, Duplicate: true}, nil
	}

	logger.Info("new content ingested",
		slog.String("format", result.Format),
		slog.Int("width", result.Width),
		slog.Int("height", result.Height))
	if err := p.dispatcher.OnNewContent(ctx, hash); err != nil {
		logger.Warn("dispatch enrichment", logging.Error(err))
		return Receipt{Upload: upload, DispatchFailed: true}, nil
	}
	return Receipt{Upload: upload}, nil
}

func newUploadID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
