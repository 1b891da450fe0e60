package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/block"
	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/logger"
)

const (
	// filterLogsStepSize is the initial block span of one eth_getLogs call
	filterLogsStepSize = uint64(100000)

	// filterLogsTimeout bounds a whole paginated FilterLogs call
	filterLogsTimeout = 5 * time.Minute
)

// AnkyClient reads the AnkyFramesgiving contract on the Degen chain
//
//go:generate mockgen -source=client.go -destination=../../mocks/anky_client.go -package=mocks -mock_names=AnkyClient=MockAnkyClient
type AnkyClient interface {
	// ParseEventLog decodes a contract log into a lifecycle event.
	// It returns nil without error for logs that are not indexed.
	ParseEventLog(ctx context.Context, vLog types.Log) (*domain.AnkyEvent, error)

	// SubscribeFilterLogs subscribes to filter logs
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// FilterLogs retrieves historical logs, splitting the block range when the node refuses large results
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// CompletedSessionCount returns getCompletedSessionCount(fid) as of blockNumber
	CompletedSessionCount(ctx context.Context, fid int64, blockNumber uint64) (uint64, error)

	// CompletedSessionAt returns completedSessions(fid, index) as of blockNumber
	CompletedSessionAt(ctx context.Context, fid int64, index uint64, blockNumber uint64) (string, error)

	// Close closes the connection
	Close()
}

type ankyClient struct {
	chainID       domain.Chain
	contract      common.Address
	client        adapter.EthClient
	blockProvider block.BlockProvider
}

// NewClient creates a client bound to one deployment of the contract
func NewClient(chainID domain.Chain, contractAddress string, client adapter.EthClient, blockProvider block.BlockProvider) AnkyClient {
	return &ankyClient{
		chainID:       chainID,
		contract:      common.HexToAddress(contractAddress),
		client:        client,
		blockProvider: blockProvider,
	}
}

// SubscribeFilterLogs subscribes to filter logs
func (c *ankyClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

// GetLatestBlock returns the latest block number, through the block cache
func (c *ankyClient) GetLatestBlock(ctx context.Context) (uint64, error) {
	return c.blockProvider.GetLatestBlock(ctx)
}

// FilterLogs retrieves logs in ranges of filterLogsStepSize blocks
func (c *ankyClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, filterLogsTimeout)
	defer cancel()

	if query.BlockHash != nil {
		return c.client.FilterLogs(timeoutCtx, query)
	}

	fromBlock := big.NewInt(0)
	if query.FromBlock != nil {
		fromBlock = new(big.Int).Set(query.FromBlock)
	}

	toBlock := query.ToBlock
	if toBlock == nil {
		latest, err := c.blockProvider.GetLatestBlock(timeoutCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest block: %w", err)
		}
		toBlock = new(big.Int).SetUint64(latest)
	}

	if fromBlock.Cmp(toBlock) > 0 {
		return nil, nil
	}

	rangeQuery := query
	rangeQuery.FromBlock = fromBlock
	rangeQuery.ToBlock = new(big.Int).Set(toBlock)

	return c.getLogsWithRetry(timeoutCtx, rangeQuery, filterLogsStepSize)
}

// getLogsWithRetry walks query.FromBlock..query.ToBlock in chunks,
// halving the chunk whenever the node reports too many results
func (c *ankyClient) getLogsWithRetry(ctx context.Context, query ethereum.FilterQuery, stepSize uint64) ([]types.Log, error) {
	currentStepSize := stepSize

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(query.FromBlock)

	for currentFrom.Cmp(query.ToBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(currentStepSize-1))
		if currentTo.Cmp(query.ToBlock) > 0 {
			currentTo.Set(query.ToBlock)
		}

		chunk := query
		chunk.FromBlock = new(big.Int).Set(currentFrom)
		chunk.ToBlock = new(big.Int).Set(currentTo)

		logs, err := c.client.FilterLogs(ctx, chunk)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom.SetUint64(currentTo.Uint64() + 1)
			continue
		}

		if !isTooManyResultsError(err) || currentStepSize == 1 {
			return nil, err
		}

		currentStepSize = currentStepSize / 2

		logger.WarnCtx(ctx, "Too many results, reducing step size",
			zap.Uint64("oldStepSize", currentStepSize*2),
			zap.Uint64("newStepSize", currentStepSize),
			zap.Uint64("fromBlock", currentFrom.Uint64()),
			zap.Uint64("toBlock", currentTo.Uint64()))
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum") ||
		strings.Contains(errStr, "block range")
}

// ParseEventLog decodes a contract log into a lifecycle event
func (c *ankyClient) ParseEventLog(ctx context.Context, vLog types.Log) (*domain.AnkyEvent, error) {
	if vLog.Removed {
		logger.InfoCtx(ctx, "Skipping removed log",
			zap.String("txHash", vLog.TxHash.Hex()),
			zap.Uint("logIndex", vLog.Index))
		return nil, nil
	}

	if vLog.Address != c.contract {
		logger.DebugCtx(ctx, "Skipping log of another contract", zap.String("contract", vLog.Address.Hex()))
		return nil, nil
	}

	if len(vLog.Topics) == 0 {
		return nil, fmt.Errorf("%w: log without topics", domain.ErrInvalidEvent)
	}

	abiEvent, err := AnkyABI.EventByID(vLog.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: unknown event signature %s", domain.ErrUnknownEventType, vLog.Topics[0].Hex())
	}

	args, err := unpackLog(abiEvent, vLog)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", abiEvent.Name, err)
	}

	fid, err := bigIntArg(args, "fid")
	if err != nil {
		return nil, err
	}
	if !fid.IsInt64() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFID, fid.String())
	}

	timestamp, err := c.blockProvider.GetBlockTimestamp(ctx, vLog.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get block timestamp: %w", err)
	}

	event := &domain.AnkyEvent{
		Chain:          c.chainID,
		FID:            fid.Int64(),
		TxHash:         vLog.TxHash.Hex(),
		LogIndex:       vLog.Index,
		BlockNumber:    vLog.BlockNumber,
		BlockTimestamp: timestamp,
	}

	switch abiEvent.Name {
	case eventSessionStarted:
		event.EventType = domain.EventTypeSessionStarted
		if event.SessionID, err = stringArg(args, "sessionId"); err != nil {
			return nil, err
		}
		if event.StartTime, err = int64Arg(args, "startTime"); err != nil {
			return nil, err
		}

	case eventSessionEndedAbruptly:
		event.EventType = domain.EventTypeSessionEndedAbruptly
		if event.SessionID, err = stringArg(args, "sessionId"); err != nil {
			return nil, err
		}

	case eventSessionEnded:
		event.EventType = domain.EventTypeSessionEnded
		isAnky, ok := args["isAnky"].(bool)
		if !ok {
			return nil, fmt.Errorf("%w: isAnky is not a bool", domain.ErrInvalidEvent)
		}
		event.IsAnky = isAnky

	case eventAnkyWritten:
		event.EventType = domain.EventTypeAnkyWritten
		if event.SessionID, err = stringArg(args, "sessionId"); err != nil {
			return nil, err
		}
		if event.IpfsHash, err = stringArg(args, "ipfsHash"); err != nil {
			return nil, err
		}
		if event.WrittenAt, err = int64Arg(args, "writtenAt"); err != nil {
			return nil, err
		}

	case eventAnkyMinted:
		event.EventType = domain.EventTypeAnkyMinted
		if event.IpfsHash, err = stringArg(args, "ipfsHash"); err != nil {
			return nil, err
		}
		tokenID, err := bigIntArg(args, "tokenId")
		if err != nil {
			return nil, err
		}
		event.TokenID = tokenID.String()

		from, err := c.transactionSender(ctx, vLog)
		if err != nil {
			return nil, err
		}
		event.TxFrom = from

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEventType, abiEvent.Name)
	}

	return event, nil
}

// transactionSender resolves the sender of the transaction that emitted the log
func (c *ankyClient) transactionSender(ctx context.Context, vLog types.Log) (string, error) {
	tx, _, err := c.client.TransactionByHash(ctx, vLog.TxHash)
	if err != nil {
		return "", fmt.Errorf("failed to get transaction %s: %w", vLog.TxHash.Hex(), err)
	}

	sender, err := c.client.TransactionSender(ctx, tx, vLog.BlockHash, vLog.TxIndex)
	if err != nil {
		return "", fmt.Errorf("failed to get sender of transaction %s: %w", vLog.TxHash.Hex(), err)
	}

	return sender.Hex(), nil
}

// CompletedSessionCount calls getCompletedSessionCount(fid) at blockNumber
func (c *ankyClient) CompletedSessionCount(ctx context.Context, fid int64, blockNumber uint64) (uint64, error) {
	var count *big.Int
	if err := c.call(ctx, blockNumber, &count, methodCompletedSessionCount, big.NewInt(fid)); err != nil {
		return 0, err
	}
	if !count.IsUint64() {
		return 0, fmt.Errorf("completed session count of fid %d overflows: %s", fid, count.String())
	}
	return count.Uint64(), nil
}

// CompletedSessionAt calls completedSessions(fid, index) at blockNumber
func (c *ankyClient) CompletedSessionAt(ctx context.Context, fid int64, index uint64, blockNumber uint64) (string, error) {
	var ipfsHash string
	if err := c.call(ctx, blockNumber, &ipfsHash, methodCompletedSessions, big.NewInt(fid), new(big.Int).SetUint64(index)); err != nil {
		return "", err
	}
	return ipfsHash, nil
}

// call runs a view method of the contract pinned to a block and unpacks its single output
func (c *ankyClient) call(ctx context.Context, blockNumber uint64, out interface{}, method string, args ...interface{}) error {
	data, err := AnkyABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	if err := AnkyABI.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s: %w", method, err)
	}

	return nil
}

// Close closes the connection
func (c *ankyClient) Close() {
	c.client.Close()
}

// unpackLog decodes both the indexed topics and the data section of a log
func unpackLog(abiEvent *abi.Event, vLog types.Log) (map[string]interface{}, error) {
	args := make(map[string]interface{})

	var indexed abi.Arguments
	for _, input := range abiEvent.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(vLog.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%w: expected %d topics, got %d", domain.ErrInvalidEvent, len(indexed)+1, len(vLog.Topics))
	}

	if err := abi.ParseTopicsIntoMap(args, indexed, vLog.Topics[1:]); err != nil {
		return nil, err
	}

	if err := abiEvent.Inputs.UnpackIntoMap(args, vLog.Data); err != nil {
		return nil, err
	}

	return args, nil
}

func bigIntArg(args map[string]interface{}, name string) (*big.Int, error) {
	v, ok := args[name].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s is not a uint256", domain.ErrInvalidEvent, name)
	}
	return v, nil
}

func int64Arg(args map[string]interface{}, name string) (int64, error) {
	v, err := bigIntArg(args, name)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("%w: %s overflows int64", domain.ErrInvalidEvent, name)
	}
	return v.Int64(), nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", domain.ErrInvalidEvent, name)
	}
	return v, nil
}

// IsDecodeError reports whether err came from a malformed or foreign log
func IsDecodeError(err error) bool {
	return errors.Is(err, domain.ErrInvalidEvent) ||
		errors.Is(err, domain.ErrUnknownEventType) ||
		errors.Is(err, domain.ErrInvalidFID)
}
