package dto

import (
	"math"
	"time"
)

// PredictionRequest carries the features of a single request to score.
type PredictionRequest struct {
	RequestID     int64   `json:"request_id"`
	ElapsedDays   float64 `json:"elapsed_days"`
	ThresholdDays float64 `json:"threshold_days"`
	RoleID        int64   `json:"role_id"`
}

// PredictionResponse is the scored view of a request. Probabilities are
// rounded to four decimals at this boundary; internal computations keep
// full precision.
type PredictionResponse struct {
	RequestID         int64     `json:"request_id"`
	PolicyCode        string    `json:"policy_code,omitempty"`
	RoleName          string    `json:"role_name,omitempty"`
	TechBlock         string    `json:"tech_block,omitempty"`
	Status            string    `json:"status,omitempty"`
	ElapsedDays       float64   `json:"elapsed_days"`
	ThresholdDays     float64   `json:"threshold_days"`
	DaysRemaining     *float64  `json:"days_remaining,omitempty"`
	BreachProbability float64   `json:"breach_probability"`
	RiskLevel         string    `json:"risk_level"`
	RiskFactors       []string  `json:"risk_factors"`
	PredictedAt       time.Time `json:"predicted_at"`
}

// PagedPredictionsResponse wraps a page of scored requests.
type PagedPredictionsResponse struct {
	Data         []PredictionResponse `json:"data"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	TotalRecords int64                `json:"total_records"`
	TotalPages   int64                `json:"total_pages"`
}

// RiskSummaryResponse aggregates the current risk posture.
type RiskSummaryResponse struct {
	TotalAnalyzed int     `json:"total_analyzed"`
	Critical      int     `json:"critical"`
	High          int     `json:"high"`
	Medium        int     `json:"medium"`
	Low           int     `json:"low"`
	MeanRiskPct   float64 `json:"mean_risk_pct"`
	MaxRiskPct    float64 `json:"max_risk_pct"`
}

// TrendItem is one month of SLA outcomes.
type TrendItem struct {
	Month    string  `json:"month"`
	Total    int64   `json:"total"`
	Breached int64   `json:"breached"`
	Met      int64   `json:"met"`
	Rate     float64 `json:"breach_rate_pct"`
}

// RoleStatsItem summarizes SLA performance for one role.
type RoleStatsItem struct {
	RoleName      string  `json:"role_name"`
	TechBlock     string  `json:"tech_block,omitempty"`
	Total         int64   `json:"total"`
	Breached      int64   `json:"breached"`
	BreachPct     float64 `json:"breach_pct"`
	AvgActualDays float64 `json:"avg_actual_days"`
}

// PolicyStatsItem summarizes SLA performance for one policy.
type PolicyStatsItem struct {
	PolicyCode    string  `json:"policy_code"`
	PolicyName    string  `json:"policy_name"`
	ThresholdDays float64 `json:"threshold_days"`
	Total         int64   `json:"total"`
	Breached      int64   `json:"breached"`
	BreachPct     float64 `json:"breach_pct"`
}

// FilterOption is a selectable value exposed to clients for list filtering.
type FilterOption struct {
	ID    int64  `json:"id,omitempty"`
	Code  string `json:"code,omitempty"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// FilterOptionsResponse lists the available list filters.
type FilterOptionsResponse struct {
	Policies   []FilterOption `json:"policies"`
	Roles      []FilterOption `json:"roles"`
	TechBlocks []FilterOption `json:"tech_blocks"`
}

// RetrainResponse reports the outcome of a forced retraining run.
type RetrainResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	SamplesUsed int       `json:"samples_used"`
	Accuracy    *float64  `json:"accuracy"`
	TrainedAt   time.Time `json:"trained_at"`
}

// ModelInfoResponse describes the model currently serving predictions.
type ModelInfoResponse struct {
	Loaded      bool       `json:"loaded"`
	TrainedAt   *time.Time `json:"trained_at,omitempty"`
	Accuracy    *float64   `json:"accuracy,omitempty"`
	SampleCount int        `json:"sample_count"`
	Path        string     `json:"path"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Round4 rounds a probability to four decimal places for presentation.
func Round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}

// Round1 rounds a percentage to one decimal place for presentation.
func Round1(p float64) float64 {
	return math.Round(p*10) / 10
}
