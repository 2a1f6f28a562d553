package jobs

import "errors"

var (
	ErrDisabled   = errors.New("jobs service disabled")
	ErrStopped    = errors.New("jobs service stopped")
	ErrQueueFull  = errors.New("jobs queue full")
	ErrUnknownJob = errors.New("unknown job")
)
