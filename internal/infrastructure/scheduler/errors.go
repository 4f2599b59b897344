package scheduler

import "errors"

var (
	// ErrTriggerNotRunning is returned when triggering a sync on a stopped trigger
	ErrTriggerNotRunning = errors.New("sync trigger is not running")

	// ErrSyncInProgress is returned when a sync pass is already running
	ErrSyncInProgress = errors.New("sync pass already in progress")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid sync trigger configuration")
)
