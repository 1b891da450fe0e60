package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/store/schema"
)

// RebuildLeaderboardResult is the outcome of a leaderboard rebuild workflow
type RebuildLeaderboardResult struct {
	Entries []schema.LeaderboardEntry
	// RebuiltAt is the unix time the workflow finished
	RebuiltAt int64
}

// RebuildLeaderboard recomputes the leaderboard from the current writer and session state
func (w *workerCore) RebuildLeaderboard(ctx workflow.Context) (*RebuildLeaderboardResult, error) {
	logger.InfoWf(ctx, "Starting leaderboard rebuild")

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: w.config.LeaderboardRebuildTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    w.config.LeaderboardRebuildMaxAttempts,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var entries []schema.LeaderboardEntry
	err := workflow.ExecuteActivity(ctx, w.executor.RebuildLeaderboard).Get(ctx, &entries)
	if err != nil {
		logger.ErrorWf(ctx,
			fmt.Errorf("failed to rebuild leaderboard"),
			zap.Error(err),
		)
		return nil, err
	}

	result := &RebuildLeaderboardResult{
		Entries:   entries,
		RebuiltAt: workflow.Now(ctx).Unix(),
	}

	logger.InfoWf(ctx, "Leaderboard rebuilt", zap.Int("entries", len(entries)))

	return result, nil
}
