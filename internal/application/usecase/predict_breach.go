package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/domain/event"
	"github.com/slasentry/prediction-service/internal/domain/model"
	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/domain/service"
	"github.com/slasentry/prediction-service/internal/domain/valueobject"
	"github.com/slasentry/prediction-service/internal/ml"
	"github.com/slasentry/prediction-service/internal/observability"
)

// PredictBreach is the use case for scoring a single ad hoc feature vector.
type PredictBreach struct {
	store     *ml.ModelStore
	predictor *ml.Predictor
	explainer *service.FactorExplainer
	publisher port.EventPublisher
	clock     port.Clock
	logger    *slog.Logger
}

// NewPredictBreach creates a new PredictBreach use case.
func NewPredictBreach(
	store *ml.ModelStore,
	predictor *ml.Predictor,
	explainer *service.FactorExplainer,
	publisher port.EventPublisher,
	clock port.Clock,
	logger *slog.Logger,
) *PredictBreach {
	return &PredictBreach{
		store:     store,
		predictor: predictor,
		explainer: explainer,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Execute validates the input, scores it against the current model, derives
// the risk level and contributing factors, and emits a high-risk event when
// the prediction is CRITICAL.
func (uc *PredictBreach) Execute(ctx context.Context, req dto.PredictionRequest) (dto.PredictionResponse, error) {
	start := time.Now()

	vector := model.FeatureVector{
		ElapsedDays:   req.ElapsedDays,
		ThresholdDays: req.ThresholdDays,
		RoleID:        req.RoleID,
	}
	if err := vector.Validate(); err != nil {
		return dto.PredictionResponse{}, err
	}

	m, err := uc.store.Current(ctx)
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to obtain current model: %w", err)
	}

	prob, err := uc.predictor.ScoreOne(m.Pipeline, vector)
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to score request: %w", err)
	}

	level := valueobject.RiskLevelFromProbability(prob)
	factors := uc.explainer.Explain(req.ElapsedDays, req.ThresholdDays, prob)
	predictedAt := uc.clock.Now()

	observability.CountPrediction(level.String())
	observability.ObservePredictionDuration(time.Since(start))

	if level.Equal(valueobject.RiskLevelCritical) {
		uc.publishHighRisk(ctx, req.RequestID, prob, level, factors, predictedAt)
	}

	remaining := req.ThresholdDays - req.ElapsedDays
	return dto.PredictionResponse{
		RequestID:         req.RequestID,
		ElapsedDays:       req.ElapsedDays,
		ThresholdDays:     req.ThresholdDays,
		DaysRemaining:     &remaining,
		BreachProbability: dto.Round4(prob),
		RiskLevel:         level.String(),
		RiskFactors:       factors,
		PredictedAt:       predictedAt,
	}, nil
}

// publishHighRisk emits the alert event. Publishing is best-effort: a broker
// failure must never fail the prediction that triggered it.
func (uc *PredictBreach) publishHighRisk(
	ctx context.Context,
	requestID int64,
	prob float64,
	level valueobject.RiskLevel,
	factors []string,
	predictedAt time.Time,
) {
	evt := event.HighRiskPredicted{
		EventID:     uuid.New(),
		RequestID:   requestID,
		Probability: dto.Round4(prob),
		RiskLevel:   level.String(),
		Factors:     factors,
		PredictedAt: predictedAt,
	}
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.Warn("failed to publish high-risk event",
			slog.Int64("request_id", requestID),
			slog.String("error", err.Error()))
	}
}
