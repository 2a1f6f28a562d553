package sequence

import "errors"

var (
	// ErrBranchedTask is returned when a branch-tagged task is offered to a
	// committed-chain attachment point (AddHead/AddTail/InsertBest).
	ErrBranchedTask = errors.New("task belongs to a branch")

	// ErrNoResource is returned by Merge on a node that was never attached
	// to a resource (or was dropped from one).
	ErrNoResource = errors.New("task has no resource")
)
