package usecase

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/domain/valueobject"
)

// summaryLimit caps how many at-risk requests feed the summary aggregates.
const summaryLimit = 100

// SummarizeRisk aggregates the current risk posture across the most
// time-consumed in-flight requests.
type SummarizeRisk struct {
	repo  port.RequestRepository
	batch *PredictBatch
}

// NewSummarizeRisk creates a new SummarizeRisk use case.
func NewSummarizeRisk(repo port.RequestRepository, batch *PredictBatch) *SummarizeRisk {
	return &SummarizeRisk{repo: repo, batch: batch}
}

// Execute scores the current at-risk set and aggregates counts per level
// plus mean and max risk. An empty set yields an all-zero summary.
func (uc *SummarizeRisk) Execute(ctx context.Context) (dto.RiskSummaryResponse, error) {
	requests, err := uc.repo.FindCritical(ctx, port.CriticalFilter{Limit: summaryLimit})
	if err != nil {
		return dto.RiskSummaryResponse{}, fmt.Errorf("failed to fetch at-risk requests: %w", err)
	}

	scored, err := uc.batch.Execute(ctx, requests)
	if err != nil {
		return dto.RiskSummaryResponse{}, err
	}
	if len(scored) == 0 {
		return dto.RiskSummaryResponse{}, nil
	}

	summary := dto.RiskSummaryResponse{TotalAnalyzed: len(scored)}
	probs := make([]float64, len(scored))
	for i, s := range scored {
		probs[i] = s.BreachProbability
		switch s.RiskLevel {
		case valueobject.RiskLevelCritical.String():
			summary.Critical++
		case valueobject.RiskLevelHigh.String():
			summary.High++
		case valueobject.RiskLevelMedium.String():
			summary.Medium++
		default:
			summary.Low++
		}
	}

	mean, err := stats.Mean(probs)
	if err != nil {
		return dto.RiskSummaryResponse{}, fmt.Errorf("failed to compute mean risk: %w", err)
	}
	max, err := stats.Max(probs)
	if err != nil {
		return dto.RiskSummaryResponse{}, fmt.Errorf("failed to compute max risk: %w", err)
	}
	summary.MeanRiskPct = dto.Round1(mean * 100)
	summary.MaxRiskPct = dto.Round1(max * 100)
	return summary, nil
}
