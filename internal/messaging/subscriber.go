package messaging

import (
	"context"

	"github.com/feral-file/anky-indexer/internal/domain"
)

// EventHandler is called for each decoded contract event, in chain order
type EventHandler func(event *domain.AnkyEvent) error

// Subscriber streams contract events starting at a given block
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// SubscribeEvents backfills events from fromBlock to the chain head, then follows new blocks.
	// It returns when the context is done, the subscription fails, or handler returns an error.
	SubscribeEvents(ctx context.Context, fromBlock uint64, handler EventHandler) error

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}
