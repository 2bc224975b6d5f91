package service

// Factor messages surfaced to callers alongside a prediction.
const (
	FactorTimeAlmostExhausted = "time almost exhausted (>90%)"
	FactorElevatedTimeUsage   = "elevated time consumption (>70%)"
	FactorHighHistoricalRisk  = "high historical breach probability"
	FactorShortWindow         = "commitment window is very short"
)

// FactorExplainer derives the human-readable factors contributing to a
// prediction from the raw inputs and the breach probability.
type FactorExplainer struct{}

// NewFactorExplainer creates a new FactorExplainer.
func NewFactorExplainer() *FactorExplainer {
	return &FactorExplainer{}
}

// Explain returns the contributing risk factors in evaluation order. The two
// time-pressure factors are mutually exclusive; the remaining rules apply
// independently. An empty slice means no factor triggered. Callers must have
// validated thresholdDays > 0 already; a non-positive threshold contributes
// no time-pressure factor.
func (e *FactorExplainer) Explain(elapsedDays, thresholdDays, probability float64) []string {
	factors := make([]string, 0, 3)

	timeUsedPct := 0.0
	if thresholdDays > 0 {
		timeUsedPct = elapsedDays / thresholdDays * 100
	}

	switch {
	case timeUsedPct >= 90:
		factors = append(factors, FactorTimeAlmostExhausted)
	case timeUsedPct >= 70:
		factors = append(factors, FactorElevatedTimeUsage)
	}

	if probability >= 0.80 {
		factors = append(factors, FactorHighHistoricalRisk)
	}

	if thresholdDays <= 3 {
		factors = append(factors, FactorShortWindow)
	}

	return factors
}
