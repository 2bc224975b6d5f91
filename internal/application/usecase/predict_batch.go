package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/domain/model"
	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/domain/service"
	"github.com/slasentry/prediction-service/internal/domain/valueobject"
	"github.com/slasentry/prediction-service/internal/ml"
	"github.com/slasentry/prediction-service/internal/observability"
)

// PredictBatch scores a set of in-flight requests in one vectorized pass.
// It is the shared scoring core behind the list and summary use cases.
type PredictBatch struct {
	store     *ml.ModelStore
	predictor *ml.Predictor
	explainer *service.FactorExplainer
	clock     port.Clock
}

// NewPredictBatch creates a new PredictBatch use case.
func NewPredictBatch(
	store *ml.ModelStore,
	predictor *ml.Predictor,
	explainer *service.FactorExplainer,
	clock port.Clock,
) *PredictBatch {
	return &PredictBatch{
		store:     store,
		predictor: predictor,
		explainer: explainer,
		clock:     clock,
	}
}

// Execute scores all requests against the same model snapshot. The batch is
// all-or-nothing: one invalid row rejects the whole call before any scoring.
func (uc *PredictBatch) Execute(ctx context.Context, requests []model.ActiveRequest) ([]dto.PredictionResponse, error) {
	if len(requests) == 0 {
		return []dto.PredictionResponse{}, nil
	}

	start := time.Now()

	m, err := uc.store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain current model: %w", err)
	}

	vectors := make([]model.FeatureVector, len(requests))
	for i, r := range requests {
		vectors[i] = r.Features()
	}

	probs, err := uc.predictor.ScoreMany(m.Pipeline, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to score batch: %w", err)
	}

	predictedAt := uc.clock.Now()
	out := make([]dto.PredictionResponse, len(requests))
	for i, r := range requests {
		level := valueobject.RiskLevelFromProbability(probs[i])
		remaining := r.DaysRemaining
		out[i] = dto.PredictionResponse{
			RequestID:         r.ID,
			PolicyCode:        r.PolicyCode,
			RoleName:          r.RoleName,
			TechBlock:         r.TechBlock,
			Status:            r.Status,
			ElapsedDays:       r.ElapsedDays,
			ThresholdDays:     r.ThresholdDays,
			DaysRemaining:     &remaining,
			BreachProbability: dto.Round4(probs[i]),
			RiskLevel:         level.String(),
			RiskFactors:       uc.explainer.Explain(r.ElapsedDays, r.ThresholdDays, probs[i]),
			PredictedAt:       predictedAt,
		}
		observability.CountPrediction(level.String())
	}

	// The whole batch shares one model pass; record its duration once.
	observability.ObservePredictionDuration(time.Since(start))
	return out, nil
}
