package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"
)

// WorkerCore defines the interface for the core workflows
//
//go:generate mockgen -source=worker.go -destination=../mocks/worker_core.go -package=mocks -mock_names=WorkerCore=MockCoreWorker
type WorkerCore interface {
	// RebuildLeaderboard recomputes the leaderboard from the current writer and session state
	RebuildLeaderboard(ctx workflow.Context) (*RebuildLeaderboardResult, error)
}

type WorkerCoreConfig struct {
	// LeaderboardRebuildTimeout bounds a single rebuild activity
	LeaderboardRebuildTimeout time.Duration
	// LeaderboardRebuildMaxAttempts is the number of times the rebuild activity is tried
	LeaderboardRebuildMaxAttempts int32
}

// workerCore is the concrete implementation of WorkerCore
type workerCore struct {
	config   WorkerCoreConfig
	executor Executor
}

// NewWorkerCore creates a new worker core instance
func NewWorkerCore(executor Executor, config WorkerCoreConfig) WorkerCore {
	if config.LeaderboardRebuildTimeout <= 0 {
		config.LeaderboardRebuildTimeout = 10 * time.Minute
	}
	if config.LeaderboardRebuildMaxAttempts <= 0 {
		config.LeaderboardRebuildMaxAttempts = 3
	}

	return &workerCore{
		executor: executor,
		config:   config,
	}
}
