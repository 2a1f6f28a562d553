package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "schedd.json", `{
		"logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}, "trace": {"enabled": true, "rate_per_sec": 50}},
		"engine": {"max_improve_passes": 8},
		"jobs": {"workers": 4, "queue_size": 16, "default_timeout": "30s"},
		"storage": {"driver": "file", "path": "./store"}
	}`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Trace.Enabled {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Engine.MaxImprovePasses != 8 {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Jobs == nil || cfg.Jobs.Workers != 4 {
		t.Fatalf("jobs = %+v", cfg.Jobs)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "schedd.yaml", `
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
  trace:
    enabled: false
engine:
  max_improve_passes: 2
resolve:
  cron: "*/10 * * * *"
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxImprovePasses != 2 {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Resolve == nil || cfg.Resolve.Cron != "*/10 * * * *" {
		t.Fatalf("resolve = %+v", cfg.Resolve)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "schedd.json", `{"logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}, "trace": {"enabled": false}}, "engine": {}, "bogus": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "schedd.json", `{"logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}, "trace": {"enabled": false}}, "engine": {}}{"x":1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("jobs.default_timeout", "10s"); err != nil || d.Seconds() != 10 {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("jobs.default_timeout", ""); err != nil || d != 0 {
		t.Fatalf("empty: got %v, %v", d, err)
	}
	if _, err := ParseDurationField("jobs.default_timeout", "-3s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if _, err := ParseDurationField("jobs.default_timeout", "soon"); err == nil {
		t.Fatal("expected error for junk duration")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{}
	newCfg := &Config{
		Logging: LoggingConfig{Level: "debug"},
		Engine:  EngineConfig{MaxImprovePasses: 8},
		Storage: &StorageConfig{Driver: "file", Path: "./store"},
	}
	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	want := []string{"engine", "logging", "storage"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs for changed sections")
	}

	// Same effective config produces no changes.
	if changed, _ := SummarizeConfigChange(newCfg, newCfg); len(changed) != 0 {
		t.Fatalf("unexpected changes: %v", changed)
	}
}
