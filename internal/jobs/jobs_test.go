package jobs_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"picvault/internal/config"
	"picvault/internal/contenthash"
	"picvault/internal/jobs"
	"picvault/internal/originals"
	"picvault/internal/store"
	"picvault/internal/testsupport"
)

type fixture struct {
	cfg   *config.Config
	store *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return &fixture{cfg: cfg, store: s}
}

// seedOriginal stores a PNG as an accepted upload and returns its hash.
func (f *fixture) seedOriginal(t *testing.T, data []byte, width, height int) string {
	t.Helper()

	ctx := context.Background()
	hash := contenthash.Digest(data)

	path, err := originals.New(f.cfg.OriginalsDir()).Save("seed-"+hash[:8], ".png", data)
	if err != nil {
		t.Fatalf("save original: %v", err)
	}
	if _, _, err := f.store.UpsertMetadata(ctx, store.MetadataRecord{
		SHA256:    hash,
		Width:     width,
		Height:    height,
		Format:    "png",
		SizeBytes: int64(len(data)),
	}); err != nil {
		t.Fatalf("upsert metadata: %v", err)
	}
	if _, err := f.store.RecordSuccess(ctx, "seed-"+hash[:8], "seed.png", path, hash, time.Now().UTC()); err != nil {
		t.Fatalf("record success: %v", err)
	}
	return hash
}

type recordingQueue struct {
	submitted []string
	failKind  string
}

func (q *recordingQueue) Submit(_ context.Context, kind, sha256 string) error {
	if kind == q.failKind {
		return fmt.Errorf("queue refused %s", kind)
	}
	q.submitted = append(q.submitted, kind+":"+sha256)
	return nil
}

func TestDispatcherFanOut(t *testing.T) {
	q := &recordingQueue{}
	d := jobs.NewDispatcher(q, true, nil)

	if err := d.OnNewContent(context.Background(), "hash1"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []string{
		"thumbnail_small:hash1",
		"thumbnail_medium:hash1",
		"exif:hash1",
		"caption:hash1",
	}
	if len(q.submitted) != len(want) {
		t.Fatalf("expected %d jobs, got %v", len(want), q.submitted)
	}
	for i, kind := range want {
		if q.submitted[i] != kind {
			t.Fatalf("job %d: expected %s, got %s", i, kind, q.submitted[i])
		}
	}
}

func TestDispatcherSkipsCaptionWhenDisabled(t *testing.T) {
	q := &recordingQueue{}
	d := jobs.NewDispatcher(q, false, nil)

	if err := d.OnNewContent(context.Background(), "hash2"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	for _, entry := range q.submitted {
		if entry == "caption:hash2" {
			t.Fatal("caption job dispatched while disabled")
		}
	}
	if len(q.submitted) != 3 {
		t.Fatalf("expected 3 jobs, got %v", q.submitted)
	}
}

func TestDispatcherPropagatesQueueErrors(t *testing.T) {
	q := &recordingQueue{failKind: "exif"}
	d := jobs.NewDispatcher(q, true, nil)

	if err := d.OnNewContent(context.Background(), "hash3"); err == nil {
		t.Fatal("expected queue error")
	}
}

func TestThumbnailerRendersBothSizes(t *testing.T) {
	f := newFixture(t)
	hash := f.seedOriginal(t, testsupport.PNGBytes(t, 1200, 800), 1200, 800)

	thumbs := jobs.NewThumbnailer(f.cfg, f.store)
	for _, size := range []string{"small", "medium"} {
		if err := thumbs.Render(context.Background(), hash, size); err != nil {
			t.Fatalf("render %s: %v", size, err)
		}
		path := f.cfg.ThumbnailPath(size, hash)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s thumbnail: %v", size, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s thumbnail is empty", size)
		}
	}

	if err := thumbs.Render(context.Background(), hash, "huge"); err == nil {
		t.Fatal("expected error for unknown size")
	}
	if err := thumbs.Render(context.Background(), "missing", "small"); err == nil {
		t.Fatal("expected error for unknown hash")
	}
}

func TestExifExtractorStoresEmptyObjectWithoutTags(t *testing.T) {
	f := newFixture(t)
	hash := f.seedOriginal(t, testsupport.PNGBytes(t, 64, 64), 64, 64)

	if err := jobs.NewExifExtractor(f.store).Extract(context.Background(), hash); err != nil {
		t.Fatalf("extract: %v", err)
	}
	rec, err := f.store.GetMetadata(context.Background(), hash)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if rec.ExifJSON != "{}" {
		t.Fatalf("expected empty exif object, got %q", rec.ExifJSON)
	}
}

func TestPoolDrainsQueue(t *testing.T) {
	f := newFixture(t)
	f.cfg.Workers.Count = 2
	f.cfg.Workers.PollIntervalSeconds = 1
	hash := f.seedOriginal(t, testsupport.PNGBytes(t, 400, 300), 400, 300)

	ctx := context.Background()
	queue := jobs.NewStoreQueue(f.store)
	if err := jobs.NewDispatcher(queue, false, nil).OnNewContent(ctx, hash); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		jobs.NewPool(f.cfg, f.store, nil, nil).Run(runCtx)
		close(done)
	}()

	deadline := time.After(10 * time.Second)
	for {
		remaining, err := f.store.ListJobs(ctx, hash)
		if err != nil {
			t.Fatalf("list jobs: %v", err)
		}
		pending := 0
		for _, job := range remaining {
			if job.Status != store.JobDone {
				pending++
			}
		}
		if pending == 0 {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatalf("jobs did not drain: %+v", remaining)
		case <-time.After(50 * time.Millisecond):
		}
	}
	cancel()
	<-done

	for _, size := range []string{"small", "medium"} {
		if _, err := os.Stat(f.cfg.ThumbnailPath(size, hash)); err != nil {
			t.Fatalf("missing %s thumbnail after drain: %v", size, err)
		}
	}
	rec, err := f.store.GetMetadata(ctx, hash)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if rec.ExifJSON == "" {
		t.Fatal("exif job did not record a result")
	}
}
