package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"botcheck/internal/features"
	"botcheck/internal/model"
)

// SidecarPath is where an exported model may declare its input columns.
func SidecarPath(modelPath string) string { return modelPath + ".features.json" }

// ReadFeatureNames parses a sidecar: either a JSON array of column names or
// an object with a "features" array.
func ReadFeatureNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(b, &names); err == nil {
		return names, nil
	}
	var obj struct {
		Features []string `json:"features"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if obj.Features == nil {
		return nil, fmt.Errorf("parse %s: no features list", path)
	}
	return obj.Features, nil
}

// checkSidecar validates the model's declared columns against schema. A
// model without a sidecar is accepted.
func checkSidecar(modelPath string, schema *features.Schema) error {
	names, err := ReadFeatureNames(SidecarPath(modelPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &model.ModelError{Op: "load", Err: err}
	}
	if err := schema.Validate(names); err != nil {
		return &model.ModelError{Op: "load", Err: err}
	}
	return nil
}
