package model

import (
	"time"

	"github.com/slasentry/prediction-service/internal/domain/valueobject"
)

// PredictionResult is the annotated outcome of scoring one feature vector.
// Probability carries full precision; rounding happens at the DTO boundary.
type PredictionResult struct {
	Probability float64
	RiskLevel   valueobject.RiskLevel
	Factors     []string
	PredictedAt time.Time
}

// ActiveRequest is an in-flight service request eligible for prediction,
// joined with its SLA policy and responsible role.
type ActiveRequest struct {
	ID            int64
	ElapsedDays   float64
	ThresholdDays float64
	RoleID        int64
	PolicyCode    string
	RoleName      string
	TechBlock     string
	DaysRemaining float64
	Status        string
}

// Features returns the request's prediction inputs.
func (r ActiveRequest) Features() FeatureVector {
	return FeatureVector{
		ElapsedDays:   r.ElapsedDays,
		ThresholdDays: r.ThresholdDays,
		RoleID:        r.RoleID,
	}
}

// TrendPoint aggregates breach outcomes for one calendar month.
type TrendPoint struct {
	Period        string // "2026-08"
	TotalRequests int64
	Breached      int64
	BreachRatePct float64
}

// RoleStats aggregates breach outcomes per responsible role.
type RoleStats struct {
	RoleName      string
	TechBlock     string
	TotalRequests int64
	Breached      int64
	BreachRatePct float64
	AvgDays       float64
}

// PolicyStats aggregates breach outcomes per SLA policy.
type PolicyStats struct {
	PolicyCode    string
	Description   string
	ThresholdDays float64
	RequestType   string
	TotalRequests int64
	Breached      int64
	BreachRatePct float64
}

// PolicyOption is one selectable SLA policy exposed to filtering clients.
type PolicyOption struct {
	Code          string
	Description   string
	ThresholdDays float64
	RequestType   string
}

// RoleOption is one selectable role exposed to filtering clients.
type RoleOption struct {
	ID        int64
	Name      string
	TechBlock string
}

// FilterOptions holds the values available for list filtering.
type FilterOptions struct {
	Policies   []PolicyOption
	Roles      []RoleOption
	TechBlocks []string
}
