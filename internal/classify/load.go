package classify

import (
	"fmt"
	"time"

	"botcheck/internal/config"
	"botcheck/internal/features"
	"botcheck/internal/model"
)

// Load opens the configured model backend once; the returned Predictor is
// meant to be shared for the life of the process. A feature sidecar next to
// the model, if present, must match schema.
func Load(cfg config.ModelConfig, schema *features.Schema) (Predictor, error) {
	if schema == nil {
		schema = features.Default
	}
	if cfg.Path == "" {
		return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("no model path configured")}
	}
	if err := checkSidecar(cfg.Path, schema); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case config.ModelBackendONNX, "":
		return NewONNXPredictor(cfg.Path, cfg.RuntimeLibrary, schema.Len())
	case config.ModelBackendExec:
		if cfg.ExecBinary == "" {
			return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("exec backend needs model.execBinary")}
		}
		return NewExecPredictor(cfg.ExecBinary, cfg.Path, time.Duration(cfg.ExecTimeoutSeconds)*time.Second), nil
	default:
		return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("unknown model backend %q", cfg.Backend)}
	}
}
