package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/application/usecase"
	"github.com/slasentry/prediction-service/internal/domain/event"
	"github.com/slasentry/prediction-service/internal/domain/model"
	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/domain/service"
	"github.com/slasentry/prediction-service/internal/ml"
)

func newPredictBreach(provider port.TrainingDataProvider, publisher port.EventPublisher) *usecase.PredictBreach {
	return usecase.NewPredictBreach(
		newTestStore(provider),
		ml.NewPredictor(),
		service.NewFactorExplainer(),
		publisher,
		fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		discardLogger(),
	)
}

func TestPredictBreach_Execute(t *testing.T) {
	t.Run("scores a valid request", func(t *testing.T) {
		provider := &mockTrainingProvider{fetchFunc: func(_ context.Context, _ int) ([]model.TrainingRecord, error) {
			return makeTrainingRecords(200), nil
		}}
		uc := newPredictBreach(provider, &mockEventPublisher{})

		resp, err := uc.Execute(context.Background(), dto.PredictionRequest{
			RequestID:     42,
			ElapsedDays:   3,
			ThresholdDays: 10,
			RoleID:        1,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(42), resp.RequestID)
		assert.GreaterOrEqual(t, resp.BreachProbability, 0.0)
		assert.LessOrEqual(t, resp.BreachProbability, 1.0)
		assert.Contains(t, []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}, resp.RiskLevel)
		require.NotNil(t, resp.DaysRemaining)
		assert.InDelta(t, 7.0, *resp.DaysRemaining, 1e-9)
		assert.NotNil(t, resp.RiskFactors)
	})

	t.Run("rejects a non-positive threshold before touching the model", func(t *testing.T) {
		provider := &mockTrainingProvider{}
		uc := newPredictBreach(provider, &mockEventPublisher{})

		_, err := uc.Execute(context.Background(), dto.PredictionRequest{
			ElapsedDays:   3,
			ThresholdDays: 0,
			RoleID:        1,
		})

		var invalid *model.ErrInvalidFeature
		require.ErrorAs(t, err, &invalid)
		assert.Zero(t, provider.fetchCalls)
	})

	t.Run("rejects negative elapsed days", func(t *testing.T) {
		uc := newPredictBreach(&mockTrainingProvider{}, &mockEventPublisher{})

		_, err := uc.Execute(context.Background(), dto.PredictionRequest{
			ElapsedDays:   -1,
			ThresholdDays: 5,
			RoleID:        1,
		})

		var invalid *model.ErrInvalidFeature
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("publishes a high-risk event exactly when the prediction is critical", func(t *testing.T) {
		provider := &mockTrainingProvider{fetchFunc: func(_ context.Context, _ int) ([]model.TrainingRecord, error) {
			return makeTrainingRecords(200), nil
		}}
		publisher := &mockEventPublisher{}
		uc := newPredictBreach(provider, publisher)

		resp, err := uc.Execute(context.Background(), dto.PredictionRequest{
			RequestID:     7,
			ElapsedDays:   14,
			ThresholdDays: 5,
			RoleID:        2,
		})
		require.NoError(t, err)

		if resp.RiskLevel == "CRITICAL" {
			require.Len(t, publisher.publishedEvents, 1)
			evt, ok := publisher.publishedEvents[0].(event.HighRiskPredicted)
			require.True(t, ok)
			assert.Equal(t, int64(7), evt.RequestID)
			assert.Equal(t, "CRITICAL", evt.RiskLevel)
		} else {
			assert.Empty(t, publisher.publishedEvents)
		}
	})

	t.Run("a publish failure never fails the prediction", func(t *testing.T) {
		publisher := &mockEventPublisher{publishFunc: func(_ context.Context, _ ...any) error {
			return errors.New("broker down")
		}}
		uc := newPredictBreach(&mockTrainingProvider{}, publisher)

		_, err := uc.Execute(context.Background(), dto.PredictionRequest{
			ElapsedDays:   10,
			ThresholdDays: 5,
			RoleID:        1,
		})
		assert.NoError(t, err)
	})

	t.Run("serves from the bootstrap model when history is thin", func(t *testing.T) {
		provider := &mockTrainingProvider{fetchFunc: func(_ context.Context, _ int) ([]model.TrainingRecord, error) {
			return makeTrainingRecords(10), nil
		}}
		uc := newPredictBreach(provider, &mockEventPublisher{})

		resp, err := uc.Execute(context.Background(), dto.PredictionRequest{
			ElapsedDays:   2,
			ThresholdDays: 5,
			RoleID:        1,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, resp.BreachProbability, 0.0)
		assert.LessOrEqual(t, resp.BreachProbability, 1.0)
	})
}
