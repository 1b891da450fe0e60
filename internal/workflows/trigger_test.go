package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/feral-file/anky-indexer/internal/mocks"
	"github.com/feral-file/anky-indexer/internal/store/schema"
	"github.com/feral-file/anky-indexer/internal/workflows"
)

func TestTriggerRebuildLeaderboard_JoinsSharedWorkflow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
	ctx := context.Background()

	run := &temporalmocks.WorkflowRun{}
	run.On("GetID").Return(workflows.RebuildLeaderboardWorkflowID)
	run.On("GetRunID").Return("run-1")
	run.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		result := args.Get(1).(*workflows.RebuildLeaderboardResult)
		result.Entries = []schema.LeaderboardEntry{{FID: 9}}
		result.RebuiltAt = 1732780000
	}).Return(nil)

	orchestrator.EXPECT().
		ExecuteWorkflow(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, workflows.RebuildLeaderboardWorkflowID, opts.ID)
			assert.Equal(t, "anky-indexing", opts.TaskQueue)
			assert.Equal(t, enums.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING, opts.WorkflowIDConflictPolicy)
			return run, nil
		})

	result, err := workflows.TriggerRebuildLeaderboard(ctx, orchestrator, "anky-indexing")

	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Entries[0].FID)
	assert.Equal(t, int64(1732780000), result.RebuiltAt)
	run.AssertExpectations(t)
}

func TestTriggerRebuildLeaderboard_StartError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
	ctx := context.Background()

	startErr := errors.New("temporal unavailable")
	orchestrator.EXPECT().ExecuteWorkflow(ctx, gomock.Any(), gomock.Any()).Return(nil, startErr)

	result, err := workflows.TriggerRebuildLeaderboard(ctx, orchestrator, "anky-indexing")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, startErr)
}

func TestScheduleRebuildLeaderboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
	ctx := context.Background()

	// empty schedule registers nothing
	require.NoError(t, workflows.ScheduleRebuildLeaderboard(ctx, orchestrator, "anky-indexing", ""))

	run := &temporalmocks.WorkflowRun{}
	run.On("GetID").Return(workflows.RebuildLeaderboardCronWorkflowID)
	orchestrator.EXPECT().
		ExecuteWorkflow(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, workflows.RebuildLeaderboardCronWorkflowID, opts.ID)
			assert.Equal(t, "*/15 * * * *", opts.CronSchedule)
			return run, nil
		})

	require.NoError(t, workflows.ScheduleRebuildLeaderboard(ctx, orchestrator, "anky-indexing", "*/15 * * * *"))
}
