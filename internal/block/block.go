package block

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/logger"
)

// DefaultMaxCachedTimestamps bounds the timestamp cache when Config leaves it unset
const DefaultMaxCachedTimestamps = 4096

// head is the cached chain head
type head struct {
	Number    uint64
	FetchedAt time.Time
}

// BlockProvider provides cached access to the chain head and block timestamps.
// Timestamps of confirmed blocks never change, so they are kept until evicted by newer blocks.
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockProvider=MockBlockProvider
type BlockProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)

	// GetBlockTimestamp returns the unix timestamp of a block, potentially from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (int64, error)
}

// BlockFetcher fetches block information from the chain
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockFetcher=MockBlockFetcher
type BlockFetcher interface {
	// FetchLatestBlock fetches the latest block number
	FetchLatestBlock(ctx context.Context) (uint64, error)

	// FetchBlockTimestamp fetches the unix timestamp of a block
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (int64, error)
}

// Config holds configuration for the BlockProvider
type Config struct {
	// TTL is how long the chain head stays cached
	TTL time.Duration

	// StaleWindow is how long a cached head may still be served when fetching fails
	StaleWindow time.Duration

	// MaxCachedTimestamps bounds the number of cached block timestamps; the lowest blocks are evicted first
	MaxCachedTimestamps int
}

type blockProvider struct {
	fetcher BlockFetcher
	config  Config
	clock   adapter.Clock

	mu         sync.RWMutex
	head       *head
	timestamps map[uint64]int64
}

// NewBlockProvider creates a new BlockProvider with caching
func NewBlockProvider(fetcher BlockFetcher, config Config, clock adapter.Clock) BlockProvider {
	if config.MaxCachedTimestamps <= 0 {
		config.MaxCachedTimestamps = DefaultMaxCachedTimestamps
	}

	return &blockProvider{
		fetcher:    fetcher,
		config:     config,
		clock:      clock,
		timestamps: make(map[uint64]int64),
	}
}

// GetLatestBlock returns the latest block number, using cache if valid
func (p *blockProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()
	if cached != nil && now.Sub(cached.FetchedAt) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached block number", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	blockNumber, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.FetchedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Using stale block number", zap.Uint64("block_number", cached.Number), zap.Error(err))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.mu.Lock()
	p.head = &head{Number: blockNumber, FetchedAt: now}
	p.mu.Unlock()

	return blockNumber, nil
}

// GetBlockTimestamp returns the unix timestamp of a block, using cache if present
func (p *blockProvider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (int64, error) {
	p.mu.RLock()
	ts, ok := p.timestamps[blockNumber]
	p.mu.RUnlock()
	if ok {
		return ts, nil
	}

	ts, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch timestamp of block %d: %w", blockNumber, err)
	}

	p.mu.Lock()
	p.timestamps[blockNumber] = ts
	p.evictLocked()
	p.mu.Unlock()

	return ts, nil
}

// evictLocked drops the lowest block numbers until the cache fits
func (p *blockProvider) evictLocked() {
	excess := len(p.timestamps) - p.config.MaxCachedTimestamps
	if excess <= 0 {
		return
	}

	blocks := make([]uint64, 0, len(p.timestamps))
	for n := range p.timestamps {
		blocks = append(blocks, n)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
	for _, n := range blocks[:excess] {
		delete(p.timestamps, n)
	}
}
