package jobs

import (
	"time"

	"schedd/internal/planning"
)

// Config controls the solve job runner.
type Config struct {
	Enabled        bool
	Workers        int
	QueueSize      int
	DefaultTimeout time.Duration
	HistorySize    int
}

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusFinished  Status = "finished"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// JobEvent is emitted on the event bus for job lifecycle events.
type JobEvent struct {
	ID       string        `json:"id"`
	Status   Status        `json:"status"`
	Started  time.Time     `json:"started,omitzero"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// View is the externally visible state of one job.
type View struct {
	ID          string
	Status      Status
	SubmittedAt time.Time
	Started     time.Time
	Finished    time.Time
	StatusText  string
	Tasks       int
	Lateness    int
	Error       string
}

// Result carries a finished job's response. Valid only for StatusFinished.
type Result struct {
	View     View
	Response planning.Response
}

// Snapshot is a lightweight view for diagnostics.
type Snapshot struct {
	Enabled  bool
	Workers  int
	QueueLen int
	QueueCap int
	Dropped  uint64
	Jobs     []View
}

// job is the internal record; mutable fields are guarded by Service.jobsMu.
type job struct {
	id        string
	req       planning.Request
	submitted time.Time
	timeout   time.Duration

	status          Status
	started         time.Time
	finished        time.Time
	resp            planning.Response
	errText         string
	cancel          func()
	cancelRequested bool
}

func (j *job) view() View {
	v := View{
		ID:          j.id,
		Status:      j.status,
		SubmittedAt: j.submitted,
		Started:     j.started,
		Finished:    j.finished,
		Error:       j.errText,
	}
	if j.status == StatusFinished {
		v.StatusText = j.resp.SolverStatus.StatusText
		v.Tasks = len(j.resp.Solution)
		if obj := j.resp.SolverStatus.ObjectiveValue; obj != nil {
			v.Lateness = int(*obj)
		}
	}
	return v
}
