package planning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRequestJSON(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, "s.json", `{
		"resources": [{"id": 1, "name": "mill"}],
		"projects": [{
			"id": "p1",
			"target_date": 10,
			"tasks": {"a": {"id": "a", "duration": 2, "alternative_resources": [1]}}
		}],
		"horizon": 30
	}`)
	req, err := LoadRequest(path)
	if err != nil {
		t.Fatalf("LoadRequest: %v", err)
	}
	if req.Horizon != 30 || len(req.Projects) != 1 || len(req.Resources) != 1 {
		t.Fatalf("req = %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadRequestYAML(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, "s.yaml", `
resources:
  - id: 1
    name: mill
projects:
  - id: p1
    target_date: 10
    tasks:
      a:
        id: a
        duration: 2
        target: 4
        alternative_resources: [1]
`)
	req, err := LoadRequest(path)
	if err != nil {
		t.Fatalf("LoadRequest: %v", err)
	}
	if got := req.Projects[0].Tasks["a"].Target; got != 4 {
		t.Fatalf("target = %d", got)
	}
}

func TestLoadRequestRejectsUnknownField(t *testing.T) {
	t.Parallel()
	path := writeScenario(t, "s.json", `{"resources": [], "projects": [], "surprise": 1}`)
	if _, err := LoadRequest(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
