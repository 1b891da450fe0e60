package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/config"
	"github.com/feral-file/anky-indexer/internal/leaderboard"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/metrics"
	"github.com/feral-file/anky-indexer/internal/providers/temporal"
	"github.com/feral-file/anky-indexer/internal/store"
	"github.com/feral-file/anky-indexer/internal/workflows"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadWorkerCoreConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "worker-core",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Worker Core")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)
	logger.InfoCtx(ctx, "Connected to database")

	clockAdapter := adapter.NewClock()

	rebuilder := leaderboard.NewRebuilder(leaderboard.Config{
		Size:        cfg.Leaderboard.Size,
		Concurrency: cfg.Leaderboard.Concurrency,
	}, dataStore, clockAdapter)
	executor := workflows.NewExecutor(rebuilder, adapter.NewActivity())

	// Connect to Temporal
	temporalClient, err := temporal.Dial(ctx, temporal.ClientConfig{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Identity:  "anky-worker-core",
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Temporal", zap.Error(err))
	}
	defer temporalClient.Close()
	logger.InfoCtx(ctx, "Connected to Temporal", zap.String("namespace", cfg.Temporal.Namespace))

	temporalWorker := worker.New(
		temporalClient,
		cfg.Temporal.TaskQueue,
		worker.Options{
			MaxConcurrentActivityExecutionSize: cfg.Temporal.MaxConcurrentActivityExecutionSize,
			WorkerActivitiesPerSecond:          cfg.Temporal.WorkerActivitiesPerSecond,
			Interceptors:                       []interceptor.WorkerInterceptor{temporal.NewSentryActivityInterceptor()},
		})

	workerCore := workflows.NewWorkerCore(executor, workflows.WorkerCoreConfig{})
	temporalWorker.RegisterWorkflow(workerCore.RebuildLeaderboard)
	temporalWorker.RegisterActivity(executor.RebuildLeaderboard)
	logger.InfoCtx(ctx, "Registered workflows and activities", zap.String("taskQueue", cfg.Temporal.TaskQueue))

	if err := workflows.ScheduleRebuildLeaderboard(ctx, temporalClient, cfg.Temporal.TaskQueue, cfg.Leaderboard.CronSchedule); err != nil {
		logger.FatalCtx(ctx, "Failed to schedule leaderboard rebuild", zap.Error(err))
	}

	if err := temporalWorker.Start(); err != nil {
		logger.FatalCtx(ctx, "Failed to start worker", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Worker started and listening for tasks")

	errCh := make(chan error, 1)
	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "metrics"))
	}
	cancel()

	temporalWorker.Stop()
	logger.Info("Worker stopped")
}
