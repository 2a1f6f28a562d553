package config

// Config is the daemon configuration.
//
// Files may be JSON or YAML; YAML is coerced to JSON so both formats go
// through the same strict decoder.
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Engine tunes the sequencing engine itself.
	Engine EngineConfig `json:"engine"`

	// Jobs controls the solve job runner. If omitted, the runner defaults to
	// enabled with a small pool.
	Jobs *JobsConfig `json:"jobs,omitempty"`

	// Storage controls optional run-history persistence. Nil means disabled.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Resolve controls periodic re-solving in watch mode.
	Resolve *ResolveConfig `json:"resolve,omitempty"`

	// Debug controls the optional debug HTTP server (pprof, job and run
	// status). Nil means disabled.
	Debug *DebugConfig `json:"debug,omitempty"`
}

type LoggingConfig struct {
	Level   string       `json:"level"`
	Console bool         `json:"console"`
	File    LoggingFile  `json:"file"`
	Trace   LoggingTrace `json:"trace"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTrace controls the engine trace channel (per-node recompute events).
// RatePerSec caps trace throughput; 0 means the default (200/s).
type LoggingTrace struct {
	Enabled    bool `json:"enabled"`
	RatePerSec int  `json:"rate_per_sec,omitempty"`
}

// EngineConfig tunes the greedy sequencer.
//
// Defaults (when fields are omitted/zero):
//   - max_improve_passes: 4
type EngineConfig struct {
	MaxImprovePasses int `json:"max_improve_passes,omitempty"`
}

// JobsConfig controls the solve job runner.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Enabled is a pointer so we can distinguish "omitted" (default true) from an
// explicit false.
//
// Defaults (when fields are omitted/zero):
//   - enabled: true
//   - workers: 2
//   - queue_size: 64
//   - default_timeout: "0s" (disabled)
//   - history_size: 200
type JobsConfig struct {
	Enabled   *bool `json:"enabled,omitempty"`
	Workers   int   `json:"workers,omitempty"`
	QueueSize int   `json:"queue_size,omitempty"`

	// DefaultTimeout is a Go duration string (e.g. "10s", "1m").
	// Use "0s" to disable a global default timeout. A request's time_limit
	// takes precedence.
	DefaultTimeout string `json:"default_timeout,omitempty"`

	HistorySize int `json:"history_size,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./schedd_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	KeepRuns    int    `json:"keep_runs,omitempty"`
}

// DebugConfig controls the debug HTTP server.
//
// Addr defaults to "127.0.0.1:6060". Binding to a non-loopback address
// requires a token. All durations are Go duration strings.
type DebugConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
	Token   string `json:"token,omitempty"`

	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

// ResolveConfig controls periodic re-solving of the watched scenario.
//
// Cron is a standard 5-field cron expression; empty disables the schedule
// (the scenario is then only re-solved when its file changes).
type ResolveConfig struct {
	Cron string `json:"cron,omitempty"`
}
