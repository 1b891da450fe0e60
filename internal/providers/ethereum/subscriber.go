package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/messaging"
)

// logBufferSize is the capacity of the live log channel while the backfill runs
const logBufferSize = 1024

// Config holds the configuration for the contract subscription
type Config struct {
	WebSocketURL    string       // WebSocket URL of a Degen chain node
	ChainID         domain.Chain // e.g., "eip155:666666666"
	ContractAddress string       // AnkyFramesgiving contract address
}

type subscriber struct {
	client   AnkyClient
	contract common.Address
}

// NewSubscriber creates a new contract event subscriber
func NewSubscriber(cfg Config, client AnkyClient) messaging.Subscriber {
	return &subscriber{
		client:   client,
		contract: common.HexToAddress(cfg.ContractAddress),
	}
}

func (s *subscriber) query(fromBlock, toBlock *big.Int) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: []common.Address{s.contract},
		Topics:    [][]common.Hash{EventSignatures},
	}
}

// SubscribeEvents opens the live subscription first, backfills fromBlock..head with eth_getLogs,
// then drains the live logs that are newer than the backfill
func (s *subscriber) SubscribeEvents(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
	logs := make(chan types.Log, logBufferSize)
	sub, err := s.client.SubscribeFilterLogs(ctx, s.query(nil, nil), logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to filter logs: %w", err)
	}
	defer func() {
		logger.InfoCtx(ctx, "Unsubscribing from contract logs")
		sub.Unsubscribe()
	}()

	head, err := s.client.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}

	if fromBlock <= head {
		logger.InfoCtx(ctx, "Backfilling contract logs", zap.Uint64("fromBlock", fromBlock), zap.Uint64("toBlock", head))

		history, err := s.client.FilterLogs(ctx, s.query(new(big.Int).SetUint64(fromBlock), new(big.Int).SetUint64(head)))
		if err != nil {
			return fmt.Errorf("failed to backfill logs: %w", err)
		}

		for _, vLog := range history {
			if err := s.dispatch(ctx, vLog, handler); err != nil {
				return err
			}
		}

		logger.InfoCtx(ctx, "Backfill completed", zap.Int("logs", len(history)))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)
		case vLog := <-logs:
			if vLog.BlockNumber <= head || vLog.BlockNumber < fromBlock {
				continue
			}
			if err := s.dispatch(ctx, vLog, handler); err != nil {
				return err
			}
		}
	}
}

// dispatch decodes a log and hands it to the handler. Undecodable logs are skipped.
func (s *subscriber) dispatch(ctx context.Context, vLog types.Log, handler messaging.EventHandler) error {
	event, err := s.client.ParseEventLog(ctx, vLog)
	if err != nil {
		if IsDecodeError(err) {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Skipping undecodable log"),
				zap.String("txHash", vLog.TxHash.Hex()),
				zap.Uint("logIndex", vLog.Index))
			return nil
		}
		return fmt.Errorf("failed to parse log %s:%d: %w", vLog.TxHash.Hex(), vLog.Index, err)
	}

	if event == nil {
		return nil
	}

	if err := handler(event); err != nil {
		return fmt.Errorf("failed to handle event %s: %w", event.ID(), err)
	}

	return nil
}

// GetLatestBlock returns the latest block number
func (s *subscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	return s.client.GetLatestBlock(ctx)
}

// Close closes the connection
func (s *subscriber) Close() {
	if s.client == nil {
		return
	}

	s.client.Close()
	logger.Info("Degen WebSocket connection closed")
}
