package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/reconciler"
)

// FilterSubject is the subject the durable consumer reads
const FilterSubject = "events.anky.>"

// Config holds the configuration for the event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// Bridge defines the interface for the event bridge
type Bridge interface {
	// Run consumes the stream until the context is done
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type bridge struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	reconciler reconciler.Reconciler
	json       adapter.JSON
	config     Config
}

// NewBridge connects to NATS and returns a bridge feeding the reconciler
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	rec reconciler.Reconciler,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:         nc,
		js:         js,
		reconciler: rec,
		json:       jsonAdapter,
		config:     cfg,
	}, nil
}

// ConsumerConfig returns the durable consumer definition.
// MaxAckPending of one keeps delivery in stream order, redeliveries included.
func (c Config) ConsumerConfig() jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       c.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.AckWaitTimeout,
		MaxDeliver:    c.MaxDeliver,
		MaxAckPending: 1,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: FilterSubject,
	}
}

// Run consumes the stream and applies one event at a time
func (b *bridge) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting event bridge", zap.String("stream", b.config.StreamName), zap.String("consumer", b.config.ConsumerName))

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, b.config.ConsumerConfig())
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved",
		zap.String("consumer", consumerInfo.Name),
		zap.Uint64("pending", consumerInfo.NumPending))

	msgChan := make(chan adapter.Message, 1)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		select {
		case msgChan <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.InfoCtx(ctx, "Started consuming messages")

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Shutting down event bridge")
			return ctx.Err()
		case msg := <-msgChan:
			b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage applies a single message and settles it
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var deliveries uint64
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		deliveries = metadata.NumDelivered
		if deliveries > 1 {
			redeliveriesTotal.Inc()
		}
	}

	var event domain.AnkyEvent
	if err := b.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to unmarshal event"))
		b.settle(ctx, msg, outcomeTerm)
		return
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID()),
		zap.String("event_type", string(event.EventType)),
		zap.Int64("fid", event.FID),
		zap.Uint64("block_number", event.BlockNumber),
		zap.Uint64("delivery_count", deliveries),
	}
	logger.InfoCtx(ctx, "Received event", fields...)

	if err := b.reconciler.Handle(ctx, &event); err != nil {
		if errors.Is(err, domain.ErrInvalidEvent) || errors.Is(err, domain.ErrUnknownEventType) {
			logger.ErrorCtx(ctx, err, append(fields, zap.String("message", "Dropping invalid event"))...)
			b.settle(ctx, msg, outcomeTerm)
			return
		}

		logger.ErrorCtx(ctx, err, append(fields, zap.String("message", "Failed to apply event"))...)
		b.settle(ctx, msg, outcomeNak)
		return
	}

	b.settle(ctx, msg, outcomeAck)
}

func (b *bridge) settle(ctx context.Context, msg adapter.Message, outcome string) {
	var err error
	switch outcome {
	case outcomeAck:
		err = msg.Ack()
	case outcomeNak:
		err = msg.Nak()
	case outcomeTerm:
		err = msg.Term()
	}
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to settle message"), zap.String("outcome", outcome))
		return
	}

	messagesTotal.WithLabelValues(outcome).Inc()
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
