package valueobject

import "fmt"

// RiskLevel is an immutable value object representing the breach risk
// classification of an in-flight service request.
type RiskLevel struct {
	value string
}

var (
	RiskLevelLow      = RiskLevel{value: "LOW"}
	RiskLevelMedium   = RiskLevel{value: "MEDIUM"}
	RiskLevelHigh     = RiskLevel{value: "HIGH"}
	RiskLevelCritical = RiskLevel{value: "CRITICAL"}
)

// RiskLevelFromString reconstructs a RiskLevel from its string representation.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch s {
	case "LOW":
		return RiskLevelLow, nil
	case "MEDIUM":
		return RiskLevelMedium, nil
	case "HIGH":
		return RiskLevelHigh, nil
	case "CRITICAL":
		return RiskLevelCritical, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %s", s)
	}
}

// RiskLevelFromProbability derives the RiskLevel from a breach probability
// in [0,1]. Band lower bounds are inclusive: p >= 0.80 is CRITICAL,
// p >= 0.60 is HIGH, p >= 0.40 is MEDIUM, anything below is LOW.
func RiskLevelFromProbability(p float64) RiskLevel {
	switch {
	case p >= 0.80:
		return RiskLevelCritical
	case p >= 0.60:
		return RiskLevelHigh
	case p >= 0.40:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return r.value
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}
