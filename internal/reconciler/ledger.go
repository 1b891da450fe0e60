package reconciler

import (
	"context"
)

// Ledger reads the writing contract's completed session bookkeeping
//
//go:generate mockgen -source=ledger.go -destination=../mocks/ledger.go -package=mocks -mock_names=Ledger=MockLedger
type Ledger interface {
	// CompletedSessionCount returns the number of sessions the contract recorded as completed for fid at blockNumber
	CompletedSessionCount(ctx context.Context, fid int64, blockNumber uint64) (uint64, error)
	// CompletedSessionAt returns the content hash of the completed session at index for fid at blockNumber
	CompletedSessionAt(ctx context.Context, fid int64, index uint64, blockNumber uint64) (string, error)
}
