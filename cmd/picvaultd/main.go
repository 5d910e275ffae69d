package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"picvault/internal/api"
	"picvault/internal/config"
	"picvault/internal/ingest"
	"picvault/internal/jobs"
	"picvault/internal/logging"
	"picvault/internal/originals"
	"picvault/internal/store"
	"picvault/internal/validate"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	lock := flock.New(cfg.LockPath())
	held, err := lock.TryLock()
	if err != nil {
		log.Fatalf("acquire instance lock: %v", err)
	}
	if !held {
		log.Fatalf("another picvaultd is already running (lock %s)", cfg.LockPath())
	}
	defer lock.Unlock() //nolint:errcheck

	st, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if reset, err := st.ResetStuckJobs(ctx); err != nil {
		logger.Warn("reset stuck jobs", logging.Error(err))
	} else if reset > 0 {
		logger.Info("requeued interrupted jobs", logging.Int64("count", reset))
	}

	captionEnabled := cfg.Caption.Enabled && cfg.Caption.APIKey != ""
	var captioner *jobs.Captioner
	if captionEnabled {
		captioner = jobs.NewCaptioner(cfg.Caption, st)
	}

	pipeline := ingest.New(
		validate.New(cfg.Validation),
		st,
		originals.New(cfg.OriginalsDir()),
		jobs.NewDispatcher(jobs.NewStoreQueue(st), captionEnabled, logger),
		logger,
	)

	pool := jobs.NewPool(cfg, st, captioner, logger)
	poolDone := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(poolDone)
	}()

	server := api.NewServer(cfg, pipeline, st, logger)
	if err := server.Start(ctx); err != nil {
		cancel()
		<-poolDone
		log.Fatalf("start api server: %v", err)
	}

	<-ctx.Done()
	server.Stop()
	<-poolDone
	logger.Info("picvaultd shutting down")
}
