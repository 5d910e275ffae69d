package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"picvault/internal/config"
	"picvault/internal/ingest"
	"picvault/internal/jobs"
	"picvault/internal/metrics"
	"picvault/internal/originals"
	"picvault/internal/store"
	"picvault/internal/testsupport"
	"picvault/internal/validate"
)

type env struct {
	cfg      *config.Config
	store    *store.Store
	pipeline *ingest.Pipeline
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	pipeline := ingest.New(
		validate.New(cfg.Validation),
		s,
		originals.New(cfg.OriginalsDir()),
		jobs.NewDispatcher(jobs.NewStoreQueue(s), false, nil),
		nil,
	)
	return &env{cfg: cfg, store: s, pipeline: pipeline}
}

func TestProcessAcceptsAndDispatches(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	data := testsupport.PNGBytes(t, 120, 90)

	receipt, err := e.pipeline.Process(ctx, "photo.png", "image/png", data)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !receipt.Accepted() || receipt.Duplicate {
		t.Fatalf("expected fresh accepted upload, got %+v", receipt)
	}
	if receipt.Upload == nil || receipt.Upload.Metadata == nil {
		t.Fatal("receipt missing upload or metadata")
	}
	if receipt.Upload.Metadata.Width != 120 || receipt.Upload.Metadata.Height != 90 {
		t.Fatalf("unexpected dimensions: %+v", receipt.Upload.Metadata)
	}
	if _, err := os.Stat(receipt.Upload.ImagePath); err != nil {
		t.Fatalf("original not on disk: %v", err)
	}

	queued, err := e.store.ListJobs(ctx, receipt.Upload.MetadataSHA256)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(queued) != 3 {
		t.Fatalf("expected 3 enrichment jobs, got %d", len(queued))
	}
}

func TestProcessDuplicateSkipsDispatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	data := testsupport.PNGBytes(t, 60, 60)

	first, err := e.pipeline.Process(ctx, "one.png", "image/png", data)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := e.pipeline.Process(ctx, "two.png", "image/png", data)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("expected duplicate receipt")
	}
	if second.Upload.UploadID == first.Upload.UploadID {
		t.Fatal("duplicate upload reused the upload id")
	}
	if second.Upload.MetadataSHA256 != first.Upload.MetadataSHA256 {
		t.Fatal("duplicate upload points at different metadata")
	}

	// Still exactly one job set: the duplicate must not re-dispatch.
	queued, err := e.store.ListJobs(ctx, first.Upload.MetadataSHA256)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(queued) != 3 {
		t.Fatalf("expected 3 jobs after duplicate, got %d", len(queued))
	}

	uploads, err := e.store.ListUploads(ctx, 0)
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(uploads))
	}
}

func TestProcessRecordsRejection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	receipt, err := e.pipeline.Process(ctx, "notes.txt", "text/plain", []byte("hello"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if receipt.Accepted() {
		t.Fatal("expected rejection")
	}
	if receipt.Rejection.Reason != validate.ReasonUnsupportedExtension {
		t.Fatalf("unexpected reason: %s", receipt.Rejection.Reason)
	}
	if receipt.Upload == nil || receipt.Upload.Succeeded() {
		t.Fatalf("expected failure ledger row, got %+v", receipt.Upload)
	}
	if receipt.Upload.ErrorMessage == "" {
		t.Fatal("failure row missing error message")
	}

	snap, err := e.store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if snap.Total != 1 || snap.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", snap)
	}
	if snap.SuccessRate != "0.00%" {
		t.Fatalf("unexpected success rate: %q", snap.SuccessRate)
	}
}

type refusingQueue struct{}

func (refusingQueue) Submit(context.Context, string, string) error {
	return errors.New("queue unreachable")
}

func TestProcessDispatchFailureIsNonFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	pipeline := ingest.New(
		validate.New(cfg.Validation),
		s,
		originals.New(cfg.OriginalsDir()),
		jobs.NewDispatcher(refusingQueue{}, false, nil),
		nil,
	)

	ctx := context.Background()
	receipt, err := pipeline.Process(ctx, "photo.png", "image/png", testsupport.PNGBytes(t, 50, 50))
	if err != nil {
		t.Fatalf("dispatch failure must not fail the upload: %v", err)
	}
	if !receipt.DispatchFailed {
		t.Fatal("expected dispatch-failed flag on receipt")
	}
	if receipt.Upload == nil || !receipt.Upload.Succeeded() {
		t.Fatalf("upload should have committed before dispatch, got %+v", receipt.Upload)
	}

	// The ledger row stands even though no jobs were queued.
	stored, err := s.GetUpload(ctx, receipt.Upload.UploadID)
	if err != nil {
		t.Fatalf("get upload: %v", err)
	}
	if stored == nil || !stored.Succeeded() {
		t.Fatalf("expected committed success row, got %+v", stored)
	}
	queued, err := s.ListJobs(ctx, receipt.Upload.MetadataSHA256)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(queued) != 0 {
		t.Fatalf("expected no queued jobs, got %d", len(queued))
	}
}

func TestProcessPersistenceFailureLeavesNoLedgerRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	// Point the original store at a directory that does not exist so the
	// exclusive create fails after validation and metadata registration.
	pipeline := ingest.New(
		validate.New(cfg.Validation),
		s,
		originals.New(filepath.Join(cfg.OriginalsDir(), "missing", "nested")),
		jobs.NewDispatcher(jobs.NewStoreQueue(s), false, nil),
		nil,
	)

	ctx := context.Background()
	_, err = pipeline.Process(ctx, "photo.png", "image/png", testsupport.PNGBytes(t, 40, 40))
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if !errors.Is(err, ingest.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	uploads, err := s.ListUploads(ctx, 0)
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 0 {
		t.Fatalf("persistence failure must leave no ledger row, got %d", len(uploads))
	}
}

func TestProcessRejectionCountedOnceWhenLedgerFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	pipeline := ingest.New(
		validate.New(cfg.Validation),
		s,
		originals.New(cfg.OriginalsDir()),
		jobs.NewDispatcher(jobs.NewStoreQueue(s), false, nil),
		nil,
	)

	// Closing the store makes the failure-row write itself fail.
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	rejectedBefore := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("rejected"))
	failedBefore := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("failed"))

	_, err = pipeline.Process(context.Background(), "notes.txt", "text/plain", []byte("nope"))
	if !errors.Is(err, ingest.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("rejected")); got != rejectedBefore {
		t.Fatalf("rejected counter moved on a request that was not recorded: %f -> %f", rejectedBefore, got)
	}
	if got := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("failed")); got != failedBefore+1 {
		t.Fatalf("expected failed counter to advance once: %f -> %f", failedBefore, got)
	}
}

func TestProcessStoresOriginalPerUpload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	data := testsupport.JPEGBytes(t, 80, 80)

	first, err := e.pipeline.Process(ctx, "a.jpg", "image/jpeg", data)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := e.pipeline.Process(ctx, "b.jpg", "image/jpeg", data)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if first.Upload.ImagePath == second.Upload.ImagePath {
		t.Fatal("expected distinct original files per upload")
	}
	for _, path := range []string{first.Upload.ImagePath, second.Upload.ImagePath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("original missing: %v", err)
		}
	}
}
