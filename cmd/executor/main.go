package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldserve/jobrunner/internal/config"
	"github.com/fieldserve/jobrunner/internal/executor"
	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/fieldserve/jobrunner/internal/queue"
	"github.com/fieldserve/jobrunner/internal/storage/postgres"
	"github.com/fieldserve/jobrunner/migrations"
)

func main() {
	log.Println("Starting Executor...")

	if err := StartExecutor(context.Background()); err != nil {
		log.Fatal("Executor failed: ", err)
	}

	log.Println("Shutdown complete.")
}

// StartExecutor is the explicit entry point for the polling executor
// process: load config, connect, migrate, register handlers, poll until
// a shutdown signal arrives.
func StartExecutor(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if cfg.DeliveryMode != config.DeliveryTable {
		// In push mode work arrives through the external dispatcher;
		// there is nothing for this process to poll.
		log.Printf("Delivery mode is %q; no poll loop to run.", cfg.DeliveryMode)
		return nil
	}

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		return err
	}

	db, err := postgres.ConnectDB(dbCfg)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := migrations.Up(sqlDB); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	registry := jobs.NewRegistry()
	jobs.RegisterBuiltins(registry)

	auditRepo := postgres.NewAuditRepository(db, logger)
	tableQueue := queue.NewTableQueue(postgres.NewQueueRepository(db), cfg.MaxAttempts, logger)

	exec := executor.New(
		tableQueue,
		registry,
		postgres.NewRunLogRepository(db),
		auditRepo,
		auditRepo,
		logger,
		cfg.PollInterval,
		cfg.LockTTL,
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	log.Println("Executor active. Press Ctrl+C to stop.")
	exec.Run(runCtx)
	return nil
}
