package emitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/messaging"
	"github.com/feral-file/anky-indexer/internal/store"
)

// ErrPublisherClosed is returned when the broker connection is gone for good
var ErrPublisherClosed = errors.New("publisher closed")

// Config holds the configuration for the event emitter
type Config struct {
	ChainID         domain.Chain
	StartBlock      uint64        // Lower bound of the first block to read
	CursorSaveFreq  uint64        // Save cursor every N blocks
	CursorSaveDelay time.Duration // Or save cursor every N seconds

	RetryInitialInterval time.Duration // First wait before resubscribing
	RetryMaxInterval     time.Duration // Cap of the wait between resubscriptions
	RetryMaxElapsedTime  time.Duration // Give up after this long without progress, 0 retries forever
}

// Emitter defines the interface for the event emitter
//
//go:generate mockgen -source=emitter.go -destination=../mocks/emitter.go -package=mocks -mock_names=Emitter=MockEmitter
type Emitter interface {
	// Run streams contract events into the broker until the context is done
	Run(ctx context.Context) error
	// Close closes the emitter and cleans up resources
	Close()
}

// emitter reads contract events and publishes them to NATS
type emitter struct {
	subscriber messaging.Subscriber
	publisher  messaging.Publisher
	cursors    store.CursorStore
	config     Config
	clock      adapter.Clock

	// nextBlock is the first block the next subscription reads
	nextBlock      uint64
	lastSavedBlock uint64
	lastSaveTime   time.Time
}

// NewEmitter creates a new event emitter
func NewEmitter(
	sub messaging.Subscriber,
	pub messaging.Publisher,
	cursors store.CursorStore,
	cfg Config,
	clock adapter.Clock,
) Emitter {
	if cfg.CursorSaveFreq == 0 {
		cfg.CursorSaveFreq = 1
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = time.Second
	}
	if cfg.RetryMaxInterval <= 0 {
		cfg.RetryMaxInterval = time.Minute
	}

	return &emitter{
		subscriber: sub,
		publisher:  pub,
		cursors:    cursors,
		config:     cfg,
		clock:      clock,
	}
}

// Run resolves the start block, then subscribes and resubscribes with exponential backoff
func (e *emitter) Run(ctx context.Context) error {
	startBlock, err := e.resolveStartBlock(ctx)
	if err != nil {
		return err
	}
	e.nextBlock = startBlock
	if startBlock > 0 {
		e.lastSavedBlock = startBlock - 1
	}
	e.lastSaveTime = e.clock.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.config.RetryInitialInterval
	b.MaxInterval = e.config.RetryMaxInterval
	b.MaxElapsedTime = e.config.RetryMaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	operation := func() error {
		from := e.nextBlock
		err := e.subscribeOnce(ctx)

		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		select {
		case <-e.publisher.CloseChan():
			return backoff.Permanent(ErrPublisherClosed)
		default:
		}

		if e.nextBlock > from {
			b.Reset()
		}
		return err
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Subscription failed, resubscribing",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Uint64("fromBlock", e.nextBlock),
			zap.Duration("next_retry_in", duration),
		)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError)
}

// resolveStartBlock resumes after the stored cursor, never earlier than the configured start block.
// Without either, it starts at the chain head.
func (e *emitter) resolveStartBlock(ctx context.Context) (uint64, error) {
	chain := string(e.config.ChainID)

	lastBlock, err := e.cursors.GetBlockCursor(ctx, chain)
	if err != nil {
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	if lastBlock > 0 && lastBlock+1 >= e.config.StartBlock {
		logger.InfoCtx(ctx, "Resuming from last processed block", zap.String("chain", chain), zap.Uint64("block", lastBlock+1))
		return lastBlock + 1, nil
	}

	if e.config.StartBlock > 0 {
		logger.InfoCtx(ctx, "Starting from configured block", zap.String("chain", chain), zap.Uint64("block", e.config.StartBlock))
		return e.config.StartBlock, nil
	}

	latestBlock, err := e.subscriber.GetLatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	logger.InfoCtx(ctx, "Starting from latest block", zap.String("chain", chain), zap.Uint64("block", latestBlock))
	return latestBlock, nil
}

// subscribeOnce runs one subscription from nextBlock until it fails
func (e *emitter) subscribeOnce(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting event subscription", zap.String("chain", string(e.config.ChainID)), zap.Uint64("fromBlock", e.nextBlock))

	handler := func(event *domain.AnkyEvent) error {
		if err := e.publisher.PublishEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.ID(), err)
		}

		// A log from a later block means every earlier block is fully published
		if event.BlockNumber > e.nextBlock {
			e.saveCursor(ctx, event.BlockNumber-1)
			e.nextBlock = event.BlockNumber
		}

		return nil
	}

	err := e.subscriber.SubscribeEvents(ctx, e.nextBlock, handler)
	if err == nil {
		return errors.New("subscription ended unexpectedly")
	}
	return err
}

// saveCursor stores completedBlock every CursorSaveFreq blocks or CursorSaveDelay
func (e *emitter) saveCursor(ctx context.Context, completedBlock uint64) {
	if completedBlock <= e.lastSavedBlock {
		return
	}

	shouldSave := completedBlock-e.lastSavedBlock >= e.config.CursorSaveFreq ||
		e.clock.Since(e.lastSaveTime) >= e.config.CursorSaveDelay
	if !shouldSave {
		return
	}

	if err := e.cursors.SetBlockCursor(ctx, string(e.config.ChainID), completedBlock); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to save block cursor"), zap.Uint64("block", completedBlock))
		return
	}

	e.lastSavedBlock = completedBlock
	e.lastSaveTime = e.clock.Now()
}

// Close closes the emitter and cleans up resources
func (e *emitter) Close() {
	e.subscriber.Close()
	e.publisher.Close()
}
