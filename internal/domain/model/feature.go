package model

import "fmt"

// ErrInvalidFeature marks feature vectors rejected before reaching the model.
type ErrInvalidFeature struct {
	Reason string
}

func (e *ErrInvalidFeature) Error() string {
	return fmt.Sprintf("invalid feature input: %s", e.Reason)
}

// FeatureVector is the fixed three-feature input consumed by the classifier:
// days elapsed since the request was opened, the SLA threshold in days, and
// the identifier of the responsible role.
type FeatureVector struct {
	ElapsedDays   float64
	ThresholdDays float64
	RoleID        int64
}

// Validate rejects malformed inputs before any model interaction.
// A threshold of zero or less makes breach undefined and is never coerced.
func (v FeatureVector) Validate() error {
	if v.ThresholdDays <= 0 {
		return &ErrInvalidFeature{Reason: fmt.Sprintf("threshold_days must be positive, got %g", v.ThresholdDays)}
	}
	if v.ElapsedDays < 0 {
		return &ErrInvalidFeature{Reason: fmt.Sprintf("elapsed_days must not be negative, got %g", v.ElapsedDays)}
	}
	return nil
}

// Row returns the vector in the column order the classifier was trained on.
func (v FeatureVector) Row() []float64 {
	return []float64{v.ElapsedDays, v.ThresholdDays, float64(v.RoleID)}
}
