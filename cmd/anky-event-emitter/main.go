package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/block"
	"github.com/feral-file/anky-indexer/internal/config"
	"github.com/feral-file/anky-indexer/internal/emitter"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/providers/ethereum"
	"github.com/feral-file/anky-indexer/internal/providers/jetstream"
	"github.com/feral-file/anky-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadEmitterConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "anky-event-emitter",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Anky Event Emitter", zap.String("chain", string(cfg.Chain.ChainID)))

	// Connect to database; only the block cursor is stored here
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	cursorStore := store.NewCursorStore(db)
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Initialize chain client
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Chain.WebSocketURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial chain websocket", zap.Error(err), zap.String("websocket_url", cfg.Chain.WebSocketURL))
	}
	defer ethClient.Close()

	blockProvider := block.NewBlockProvider(ethereum.NewBlockFetcher(ethClient), block.Config{
		TTL:                 2 * time.Second,
		StaleWindow:         time.Minute,
		MaxCachedTimestamps: 10000,
	}, clockAdapter)
	ankyClient := ethereum.NewClient(cfg.Chain.ChainID, cfg.Chain.ContractAddress, ethClient, blockProvider)
	logger.InfoCtx(ctx, "Connected to chain", zap.String("contract", cfg.Chain.ContractAddress))

	// Initialize NATS publisher
	natsPublisher, err := jetstream.NewPublisher(
		ctx,
		jetstream.Config{
			URL:             cfg.NATS.URL,
			StreamName:      cfg.NATS.StreamName,
			MaxReconnects:   cfg.NATS.MaxReconnects,
			ReconnectWait:   cfg.NATS.ReconnectWait,
			ConnectionName:  cfg.NATS.ConnectionName,
			DuplicateWindow: 24 * time.Hour,
		}, natsJS, jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	subscriber := ethereum.NewSubscriber(ethereum.Config{
		WebSocketURL:    cfg.Chain.WebSocketURL,
		ChainID:         cfg.Chain.ChainID,
		ContractAddress: cfg.Chain.ContractAddress,
	}, ankyClient)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	eventEmitter := emitter.NewEmitter(
		subscriber,
		natsPublisher,
		cursorStore,
		emitter.Config{
			ChainID:              cfg.Chain.ChainID,
			StartBlock:           cfg.Chain.StartBlock,
			CursorSaveFreq:       2,                // Save every 2 blocks
			CursorSaveDelay:      30 * time.Second, // Or every 30 seconds
			RetryInitialInterval: time.Second,
			RetryMaxInterval:     time.Minute,
		},
		clockAdapter,
	)
	defer eventEmitter.Close()

	errCh := make(chan error, 1)
	go func() {
		if err := eventEmitter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case <-natsPublisher.CloseChan():
		logger.WarnCtx(ctx, "NATS connection closed unexpectedly")
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "emitter"))
	}
	cancel()

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Anky Event Emitter stopped")
}
