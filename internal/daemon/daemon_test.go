package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"schedd/internal/config"
	"schedd/internal/planning"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const scenarioJSON = `{
	"resources": [{"id": 1, "name": "line-a"}],
	"projects": [{
		"id": "p1",
		"target_date": 20,
		"tasks": {
			"t1": {"id": "t1", "duration": 3, "target": 5, "alternative_resources": [1]},
			"t2": {"id": "t2", "duration": 2, "target": 12, "alternative_resources": [1]}
		}
	}]
}`

func TestRunOnceWritesSolution(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "scenario.json", scenarioJSON)
	out := filepath.Join(dir, "solution.json")

	d, err := New(Options{ScenarioPath: scenario, OutPath: out})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	resp, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if resp.SolverStatus.StatusCode != planning.StatusOptimal {
		t.Fatalf("status = %+v", resp.SolverStatus)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var written planning.Response
	if err := json.Unmarshal(b, &written); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(written.Solution) != 2 {
		t.Fatalf("solution = %+v", written.Solution)
	}
	for _, sol := range written.Solution {
		if sol.ResourceAssigned != "line-a" {
			t.Fatalf("resource = %q", sol.ResourceAssigned)
		}
	}
}

func TestRunOnceRejectsBadScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "scenario.json", `{"resources": [], "bogus": true}`)

	d, err := New(Options{ScenarioPath: scenario})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if _, err := d.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error for unknown scenario field")
	}
}

func TestJobsConfigDefaults(t *testing.T) {
	t.Parallel()
	jc, err := jobsConfig(nil)
	if err != nil {
		t.Fatalf("nil: %v", err)
	}
	if !jc.Enabled {
		t.Fatal("nil jobs config should default to enabled")
	}

	off := false
	jc, err = jobsConfig(&config.JobsConfig{Enabled: &off, Workers: 3, DefaultTimeout: "45s"})
	if err != nil {
		t.Fatalf("explicit: %v", err)
	}
	if jc.Enabled || jc.Workers != 3 || jc.DefaultTimeout.Seconds() != 45 {
		t.Fatalf("jc = %+v", jc)
	}

	if _, err := jobsConfig(&config.JobsConfig{DefaultTimeout: "soon"}); err == nil {
		t.Fatal("expected error for junk timeout")
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{name: "empty", cfg: config.Config{}},
		{name: "good cron", cfg: config.Config{Resolve: &config.ResolveConfig{Cron: "*/5 * * * *"}}},
		{name: "bad cron", cfg: config.Config{Resolve: &config.ResolveConfig{Cron: "every tuesday"}}, wantErr: true},
		{name: "bad timeout", cfg: config.Config{Jobs: &config.JobsConfig{DefaultTimeout: "-1s"}}, wantErr: true},
		{name: "negative passes", cfg: config.Config{Engine: config.EngineConfig{MaxImprovePasses: -1}}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := validateConfig(context.Background(), &tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}
