package model

// TrainingRecord is one fully resolved historical outcome used for training.
// Records are produced by the training data provider from requests whose SLA
// outcome is final (met or breached); in-progress requests are never included.
type TrainingRecord struct {
	ElapsedDays   float64
	ThresholdDays float64
	RoleID        int64
	Breached      bool
}

// Features returns the record's inputs as a FeatureVector.
func (r TrainingRecord) Features() FeatureVector {
	return FeatureVector{
		ElapsedDays:   r.ElapsedDays,
		ThresholdDays: r.ThresholdDays,
		RoleID:        r.RoleID,
	}
}

// Label returns the class label: 1 for breached, 0 for met.
func (r TrainingRecord) Label() int {
	if r.Breached {
		return 1
	}
	return 0
}
