// Package ml owns the trained classifier and its lifecycle: fitting a
// standardize-then-classify pipeline from historical outcomes, deciding when
// the model is stale, and scoring feature vectors into breach probabilities.
package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each feature column to zero mean and unit variance.
// It must be fitted before transforming; a constant column keeps scale 1 so
// transformation stays defined.
type StandardScaler struct {
	Means  []float64
	Scales []float64
}

// FitScaler computes per-column means and standard deviations from the
// feature matrix.
func FitScaler(x [][]float64) (*StandardScaler, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("scaler: empty feature matrix")
	}

	cols := len(x[0])
	means := make([]float64, cols)
	scales := make([]float64, cols)

	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			if len(row) != cols {
				return nil, fmt.Errorf("scaler: ragged feature matrix at row %d", i)
			}
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		means[j] = mean
		scales[j] = std
	}

	return &StandardScaler{Means: means, Scales: scales}, nil
}

// Transform returns a standardized copy of the feature matrix.
func (s *StandardScaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Means[j]) / s.Scales[j]
		}
		out[i] = scaled
	}
	return out
}
