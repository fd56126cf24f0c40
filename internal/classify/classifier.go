// Package classify runs the pretrained bot classifier over assembled
// feature vectors.
package classify

import (
	"context"
	"errors"

	"botcheck/internal/features"
	"botcheck/internal/model"
)

// Predictor scores a single feature row. Implementations must be safe for
// concurrent use; they are loaded once and shared.
type Predictor interface {
	Predict(ctx context.Context, x []float64) (float64, error)
	Close() error
}

// Classifier adapts a Predictor to the feature schema and label contract.
type Classifier struct {
	predictor Predictor
	schema    *features.Schema
}

func New(p Predictor, schema *features.Schema) *Classifier {
	if schema == nil {
		schema = features.Default
	}
	return &Classifier{predictor: p, schema: schema}
}

// Classify checks v against the schema, runs one prediction and maps the
// output to a Label.
func (c *Classifier) Classify(ctx context.Context, v features.Vector) (model.Label, error) {
	if v.Len() != c.schema.Len() {
		return "", &model.SchemaDriftError{Want: c.schema.Len(), Got: v.Len()}
	}
	if c.predictor == nil {
		return "", &model.ModelError{Op: "predict", Err: errors.New("no model loaded")}
	}
	out, err := c.predictor.Predict(ctx, v.Values)
	if err != nil {
		var me *model.ModelError
		if errors.As(err, &me) {
			return "", err
		}
		return "", &model.ModelError{Op: "predict", Err: err}
	}
	return model.LabelFromPrediction(out), nil
}
