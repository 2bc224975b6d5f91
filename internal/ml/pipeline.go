package ml

import (
	"encoding/gob"
	"fmt"
	"io"
)

// Pipeline chains feature standardization with the forest classifier. It is
// the opaque trained artifact the rest of the service handles: immutable once
// fitted, serializable as a whole, replaced wholesale on retrain.
type Pipeline struct {
	Scaler *StandardScaler
	Forest *RandomForest
}

// PredictProba standardizes the rows and returns per-class probabilities.
func (p *Pipeline) PredictProba(x [][]float64) [][]float64 {
	return p.Forest.PredictProba(p.Scaler.Transform(x))
}

// Classes returns the class labels the underlying classifier was fitted on.
func (p *Pipeline) Classes() []int {
	return p.Forest.Classes
}

// Encode serializes the fitted pipeline. The format is opaque: the only
// guarantee is that DecodePipeline of the same bytes restores an artifact
// producing identical probabilities.
func (p *Pipeline) Encode(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("pipeline: encode: %w", err)
	}
	return nil
}

// DecodePipeline restores a pipeline previously written by Encode.
func DecodePipeline(r io.Reader) (*Pipeline, error) {
	var p Pipeline
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("pipeline: decode: %w", err)
	}
	if p.Scaler == nil || p.Forest == nil || len(p.Forest.Nodes) == 0 {
		return nil, fmt.Errorf("pipeline: decoded artifact is incomplete")
	}
	return &p, nil
}
