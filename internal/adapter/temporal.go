package adapter

import (
	"context"

	"go.temporal.io/sdk/activity"
)

// Activity defines an interface for activity context operations to enable mocking
//
//go:generate mockgen -source=temporal.go -destination=../mocks/temporal.go -package=mocks -mock_names=Activity=MockActivity
type Activity interface {
	// GetAttempt returns the current attempt of the running activity, starting at 1
	GetAttempt(ctx context.Context) int32

	// RecordHeartbeat records a heartbeat for the running activity
	RecordHeartbeat(ctx context.Context, details ...interface{})
}

// RealActivity implements Activity using the standard activity package
type RealActivity struct{}

// NewActivity creates a new real activity implementation
func NewActivity() Activity {
	return &RealActivity{}
}

func (a *RealActivity) GetAttempt(ctx context.Context) int32 {
	return activity.GetInfo(ctx).Attempt
}

func (a *RealActivity) RecordHeartbeat(ctx context.Context, details ...interface{}) {
	activity.RecordHeartbeat(ctx, details...)
}
