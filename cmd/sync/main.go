package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/mercately-sync/internal/config"
	"github.com/ignite/mercately-sync/internal/mercately"
	"github.com/ignite/mercately-sync/internal/pkg/logger"
	"github.com/ignite/mercately-sync/internal/repository/postgres"
	"github.com/ignite/mercately-sync/internal/sync"
)

// Exit codes: 0 success, 1 run failure, 2 run committed but the integrity
// check detected a row-count decrease.
const (
	exitOK        = 0
	exitFailure   = 1
	exitIntegrity = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("loading config", "path", *configPath, "error", err)
		return exitFailure
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("opening database", "error", err)
		return exitFailure
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("pinging database", "error", err)
		return exitFailure
	}

	policy, err := sync.ParsePolicy(cfg.Sync.Policy)
	if err != nil {
		logger.Error("invalid policy", "error", err)
		return exitFailure
	}

	var checkpoints sync.CheckpointStore
	if cfg.Checkpoint.S3Bucket != "" {
		checkpoints, err = sync.NewS3CheckpointStore(ctx, cfg.Checkpoint)
		if err != nil {
			logger.Error("configuring S3 checkpoint store", "error", err)
			return exitFailure
		}
	} else {
		checkpoints = sync.NewFileCheckpointStore(cfg.Checkpoint.Path)
	}

	client := mercately.NewClient(cfg.Mercately)
	fetcher := mercately.NewFetcher(client, cfg.Mercately.PageDelay())
	store := postgres.NewCustomerStore(db)

	runner := sync.NewRunner(fetcher, store, sync.NewVerifier(store), checkpoints,
		store, policy, cfg.Sync.LookbackDays)

	report, err := runner.Run(ctx, time.Now().UTC())
	if err != nil {
		logger.Error("sync run failed", "run_id", report.ID, "error", err)
		return exitFailure
	}
	if !report.Result.IntegrityOK {
		return exitIntegrity
	}
	return exitOK
}
