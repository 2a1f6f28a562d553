package config

import (
	logx "schedd/pkg/logx"
	"reflect"
	"sort"
	"strings"
)

// SummarizeConfigChange returns a compact list of changed sections and safe
// structured attrs for logging.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 16)

	// Logging
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.trace_enabled", newCfg.Logging.Trace.Enabled),
		)
	}

	// Engine
	if oldCfg.Engine != newCfg.Engine {
		changed = append(changed, "engine")
		attrs = append(attrs,
			logx.Int("engine.max_improve_passes", newCfg.Engine.MaxImprovePasses),
		)
	}

	// Jobs. Section may be nil (omitted); treat nil as runtime defaults so the
	// summary reflects effective changes.
	defJ := &JobsConfig{Workers: 2, QueueSize: 64, HistorySize: 200}
	oldJ := oldCfg.Jobs
	newJ := newCfg.Jobs
	if oldJ == nil {
		oldJ = defJ
	}
	if newJ == nil {
		newJ = defJ
	}
	if !reflect.DeepEqual(*oldJ, *newJ) {
		changed = append(changed, "jobs")
		enabled := true
		if newJ.Enabled != nil {
			enabled = *newJ.Enabled
		}
		attrs = append(attrs,
			logx.Bool("jobs.enabled", enabled),
			logx.Int("jobs.workers", newJ.Workers),
			logx.Int("jobs.queue_size", newJ.QueueSize),
			logx.String("jobs.default_timeout", strings.TrimSpace(newJ.DefaultTimeout)),
			logx.Int("jobs.history_size", newJ.HistorySize),
		)
	}

	// Storage (persistence). Nil means disabled.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	var oKeep, nKeep int
	if s := oldCfg.Storage; s != nil {
		oDriver = strings.TrimSpace(s.Driver)
		oBusy = strings.TrimSpace(s.BusyTimeout)
		oPathSet = strings.TrimSpace(s.Path) != ""
		oKeep = s.KeepRuns
	}
	if s := newCfg.Storage; s != nil {
		nDriver = strings.TrimSpace(s.Driver)
		nBusy = strings.TrimSpace(s.BusyTimeout)
		nPathSet = strings.TrimSpace(s.Path) != ""
		nKeep = s.KeepRuns
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet || oKeep != nKeep {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	// Debug server. Nil means disabled; never log the token itself.
	var oDbg, nDbg DebugConfig
	if oldCfg.Debug != nil {
		oDbg = *oldCfg.Debug
	}
	if newCfg.Debug != nil {
		nDbg = *newCfg.Debug
	}
	if oDbg != nDbg {
		changed = append(changed, "debug")
		attrs = append(attrs,
			logx.Bool("debug.enabled", nDbg.Enabled),
			logx.String("debug.addr", strings.TrimSpace(nDbg.Addr)),
			logx.Bool("debug.token_set", strings.TrimSpace(nDbg.Token) != ""),
		)
	}

	// Resolve schedule.
	var oCron, nCron string
	if oldCfg.Resolve != nil {
		oCron = strings.TrimSpace(oldCfg.Resolve.Cron)
	}
	if newCfg.Resolve != nil {
		nCron = strings.TrimSpace(newCfg.Resolve.Cron)
	}
	if oCron != nCron {
		changed = append(changed, "resolve")
		attrs = append(attrs, logx.String("resolve.cron", nCron))
	}

	sort.Strings(changed)
	return changed, attrs
}
