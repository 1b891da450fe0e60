package workflows

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/leaderboard"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/store/schema"
)

// Executor defines the interface for executing activities
//
//go:generate mockgen -source=executor.go -destination=../mocks/executor_core.go -package=mocks -mock_names=Executor=MockCoreExecutor
type Executor interface {
	// RebuildLeaderboard recomputes every writer's streaks and replaces the leaderboard
	RebuildLeaderboard(ctx context.Context) ([]schema.LeaderboardEntry, error)
}

// executor is the concrete implementation of Executor
type executor struct {
	rebuilder        leaderboard.Rebuilder
	temporalActivity adapter.Activity
}

// NewExecutor creates a new executor instance
func NewExecutor(rebuilder leaderboard.Rebuilder, temporalActivity adapter.Activity) Executor {
	return &executor{
		rebuilder:        rebuilder,
		temporalActivity: temporalActivity,
	}
}

// RebuildLeaderboard recomputes every writer's streaks and replaces the leaderboard
func (e *executor) RebuildLeaderboard(ctx context.Context) ([]schema.LeaderboardEntry, error) {
	attempt := e.temporalActivity.GetAttempt(ctx)
	logger.InfoCtx(ctx, "Executing leaderboard rebuild activity", zap.Int32("attempt", attempt))

	entries, err := e.rebuilder.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}
	e.temporalActivity.RecordHeartbeat(ctx, len(entries))

	return entries, nil
}
