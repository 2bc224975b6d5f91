package ml

import (
	"fmt"

	"github.com/slasentry/prediction-service/internal/domain/model"
)

// Predictor scores feature vectors against a model handle. Batch scoring is
// the primary path; single scoring delegates to it.
type Predictor struct{}

// NewPredictor creates a Predictor.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// ScoreOne returns the breach probability for a single feature vector.
func (p *Predictor) ScoreOne(pipe *Pipeline, v model.FeatureVector) (float64, error) {
	probs, err := p.ScoreMany(pipe, []model.FeatureVector{v})
	if err != nil {
		return 0, err
	}
	return probs[0], nil
}

// ScoreMany returns breach probabilities for the given vectors, in input
// order. Every vector is validated before any scoring happens; a malformed
// vector rejects the whole batch so callers never receive partial results.
func (p *Predictor) ScoreMany(pipe *Pipeline, vs []model.FeatureVector) ([]float64, error) {
	if pipe == nil {
		return nil, fmt.Errorf("predictor: nil model handle")
	}
	if len(vs) == 0 {
		return []float64{}, nil
	}

	x := make([][]float64, len(vs))
	for i, v := range vs {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("predictor: vector %d: %w", i, err)
		}
		x[i] = v.Row()
	}

	proba := pipe.PredictProba(x)
	col := breachColumn(pipe.Classes())

	probs := make([]float64, len(vs))
	for i, row := range proba {
		probs[i] = clamp01(row[col])
	}
	return probs, nil
}

// breachColumn picks the probability column of the breached class. With both
// classes learned that is column 1; a classifier degenerately trained on a
// single class only has column 0.
func breachColumn(classes []int) int {
	if len(classes) > 1 {
		return 1
	}
	return 0
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
