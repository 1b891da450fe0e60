package domain

import "errors"

var (
	// ErrSubscriptionFailed is returned when subscription to events fails
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrInvalidEvent is returned when an event is missing fields required by its type
	ErrInvalidEvent = errors.New("invalid event")

	// ErrUnknownEventType is returned when an event type is not one of the Anky lifecycle events
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrInvalidFID is returned when a fid does not fit the supported range
	ErrInvalidFID = errors.New("invalid fid")
)
