package planning

import (
	"fmt"
	"os"
	"path/filepath"

	"schedd/internal/config"
)

// LoadRequest reads a scenario file into a Request. JSON and YAML are both
// accepted; unknown fields are rejected so a typoed scenario fails loudly
// instead of sequencing the wrong model.
func LoadRequest(path string) (Request, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := config.DecodeStrict(path, b, &req); err != nil {
		return Request{}, fmt.Errorf("scenario %s: %w", filepath.Base(path), err)
	}
	return req, nil
}
