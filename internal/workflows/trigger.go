package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/providers/temporal"
)

const (
	// RebuildLeaderboardWorkflowID is shared by every on-demand rebuild so concurrent triggers join one run
	RebuildLeaderboardWorkflowID = "rebuild-leaderboard"
	// RebuildLeaderboardCronWorkflowID identifies the scheduled rebuild
	RebuildLeaderboardCronWorkflowID = "rebuild-leaderboard-cron"

	rebuildLeaderboardExecutionTimeout = 30 * time.Minute
)

// TriggerRebuildLeaderboard starts a leaderboard rebuild, or joins the one already running, and waits for its result
func TriggerRebuildLeaderboard(ctx context.Context, orchestrator temporal.TemporalOrchestrator, taskQueue string) (*RebuildLeaderboardResult, error) {
	w := NewWorkerCore(nil, WorkerCoreConfig{})
	opts := client.StartWorkflowOptions{
		ID:                       RebuildLeaderboardWorkflowID,
		TaskQueue:                taskQueue,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
		WorkflowExecutionTimeout: rebuildLeaderboardExecutionTimeout,
	}

	run, err := orchestrator.ExecuteWorkflow(ctx, opts, w.RebuildLeaderboard)
	if err != nil {
		return nil, fmt.Errorf("failed to start leaderboard rebuild workflow: %w", err)
	}

	logger.InfoCtx(ctx, "Leaderboard rebuild workflow started",
		zap.String("workflowID", run.GetID()),
		zap.String("runID", run.GetRunID()),
	)

	var result RebuildLeaderboardResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("leaderboard rebuild workflow failed: %w", err)
	}

	return &result, nil
}

// ScheduleRebuildLeaderboard registers the cron rebuild; an existing schedule is left untouched
func ScheduleRebuildLeaderboard(ctx context.Context, orchestrator temporal.TemporalOrchestrator, taskQueue string, cronSchedule string) error {
	if cronSchedule == "" {
		return nil
	}

	w := NewWorkerCore(nil, WorkerCoreConfig{})
	opts := client.StartWorkflowOptions{
		ID:                       RebuildLeaderboardCronWorkflowID,
		TaskQueue:                taskQueue,
		CronSchedule:             cronSchedule,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}

	run, err := orchestrator.ExecuteWorkflow(ctx, opts, w.RebuildLeaderboard)
	if err != nil {
		return fmt.Errorf("failed to schedule leaderboard rebuild: %w", err)
	}

	logger.InfoCtx(ctx, "Leaderboard rebuild scheduled",
		zap.String("workflowID", run.GetID()),
		zap.String("cron", cronSchedule),
	)

	return nil
}
