package daemon

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"schedd/internal/config"
	"schedd/internal/services/debughttp"
	"schedd/internal/services/jobs"
	"schedd/internal/storage"
	logx "schedd/pkg/logx"
)

// defaultConfig is used when no config file is given.
func defaultConfig() *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{Level: "info", Console: true},
	}
}

func logxConfig(c config.LoggingConfig) (logx.Config, error) {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
		Trace: logx.TraceConfig{
			Enabled:    c.Trace.Enabled,
			RatePerSec: c.Trace.RatePerSec,
		},
	}, nil
}

func storageConfig(c *config.StorageConfig) (storage.Config, error) {
	if c == nil {
		return storage.Config{}, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", c.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      c.Driver,
		Path:        c.Path,
		BusyTimeout: busy,
		KeepRuns:    c.KeepRuns,
	}, nil
}

func jobsConfig(c *config.JobsConfig) (jobs.Config, error) {
	out := jobs.Config{Enabled: true}
	if c == nil {
		return out, nil
	}
	if c.Enabled != nil {
		out.Enabled = *c.Enabled
	}
	out.Workers = c.Workers
	out.QueueSize = c.QueueSize
	out.HistorySize = c.HistorySize
	timeout, err := config.ParseDurationField("jobs.default_timeout", c.DefaultTimeout)
	if err != nil {
		return jobs.Config{}, err
	}
	out.DefaultTimeout = timeout
	return out, nil
}

func debugConfig(c *config.DebugConfig) (debughttp.Config, error) {
	if c == nil {
		return debughttp.Config{}, nil
	}
	out := debughttp.Config{
		Enabled: c.Enabled,
		Addr:    c.Addr,
		Token:   c.Token,
	}
	var err error
	if out.ReadTimeout, err = config.ParseDurationField("debug.read_timeout", c.ReadTimeout); err != nil {
		return debughttp.Config{}, err
	}
	if out.WriteTimeout, err = config.ParseDurationField("debug.write_timeout", c.WriteTimeout); err != nil {
		return debughttp.Config{}, err
	}
	if out.IdleTimeout, err = config.ParseDurationField("debug.idle_timeout", c.IdleTimeout); err != nil {
		return debughttp.Config{}, err
	}
	return out, nil
}

// validateConfig is the Watch() hook: reject a reloaded config before it is
// published rather than warn about the pieces afterwards.
func validateConfig(_ context.Context, cfg *config.Config) error {
	if _, err := jobsConfig(cfg.Jobs); err != nil {
		return err
	}
	if _, err := storageConfig(cfg.Storage); err != nil {
		return err
	}
	if _, err := debugConfig(cfg.Debug); err != nil {
		return err
	}
	if cfg.Engine.MaxImprovePasses < 0 {
		return fmt.Errorf("engine.max_improve_passes must not be negative")
	}
	if cfg.Resolve != nil {
		if spec := strings.TrimSpace(cfg.Resolve.Cron); spec != "" {
			if _, err := cron.ParseStandard(spec); err != nil {
				return fmt.Errorf("resolve.cron: %w", err)
			}
		}
	}
	return nil
}
