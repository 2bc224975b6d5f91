package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slasentry/prediction-service/internal/application/usecase"
	"github.com/slasentry/prediction-service/internal/domain/event"
)

func TestRetrainModel_Execute(t *testing.T) {
	t.Run("retrains and publishes the retrained event", func(t *testing.T) {
		store := newTestStore(trainedProvider())
		publisher := &mockEventPublisher{}
		uc := usecase.NewRetrainModel(store, publisher, discardLogger())

		resp, err := uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, 200, resp.SamplesUsed)
		require.NotNil(t, resp.Accuracy)
		assert.GreaterOrEqual(t, *resp.Accuracy, 0.0)
		assert.LessOrEqual(t, *resp.Accuracy, 1.0)

		require.Len(t, publisher.publishedEvents, 1)
		evt, ok := publisher.publishedEvents[0].(event.ModelRetrained)
		require.True(t, ok)
		assert.Equal(t, 200, evt.SampleCount)
		assert.Equal(t, resp.TrainedAt, evt.TrainedAt)
	})

	t.Run("thin history retrains onto the bootstrap model with zero accuracy", func(t *testing.T) {
		store := newTestStore(&mockTrainingProvider{})
		uc := usecase.NewRetrainModel(store, &mockEventPublisher{}, discardLogger())

		resp, err := uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Zero(t, resp.SamplesUsed)
		require.NotNil(t, resp.Accuracy)
		assert.Zero(t, *resp.Accuracy)
	})
}

func TestGetModelInfo_Execute(t *testing.T) {
	t.Run("reports unloaded before any training", func(t *testing.T) {
		store := newTestStore(&mockTrainingProvider{})
		uc := usecase.NewGetModelInfo(store)

		info := uc.Execute(context.Background())
		assert.False(t, info.Loaded)
		assert.Nil(t, info.TrainedAt)
		assert.Equal(t, "models/test.gob", info.Path)
	})

	t.Run("reports the published model after a retrain", func(t *testing.T) {
		store := newTestStore(trainedProvider())
		_, err := store.ForceRetrain(context.Background())
		require.NoError(t, err)

		info := usecase.NewGetModelInfo(store).Execute(context.Background())
		assert.True(t, info.Loaded)
		require.NotNil(t, info.TrainedAt)
		assert.Equal(t, 200, info.SampleCount)
	})
}
