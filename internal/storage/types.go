package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl, periodically compacted)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	KeepRuns    int           // retained history depth; 0 means default (500)
}

func (c Config) keepRuns() int {
	if c.KeepRuns <= 0 {
		return 500
	}
	return c.KeepRuns
}

// RunRecord records one finished solve job.
// Keep it compact and schema-stable.
type RunRecord struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Status      string    `json:"status"`
	StatusText  string    `json:"status_text,omitempty"`
	Tasks       int       `json:"tasks"`
	Lateness    int       `json:"lateness"`
	Error       string    `json:"error,omitempty"`
	TookMS      int64     `json:"took_ms"`
}
