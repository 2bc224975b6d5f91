package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slasentry/prediction-service/internal/domain/model"
)

func TestFeatureVector_Validate(t *testing.T) {
	t.Run("accepts well-formed vector", func(t *testing.T) {
		v := model.FeatureVector{ElapsedDays: 3, ThresholdDays: 5, RoleID: 7}
		require.NoError(t, v.Validate())
	})

	t.Run("rejects zero threshold", func(t *testing.T) {
		v := model.FeatureVector{ElapsedDays: 3, ThresholdDays: 0, RoleID: 7}
		err := v.Validate()
		require.Error(t, err)

		var invalid *model.ErrInvalidFeature
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("rejects negative threshold", func(t *testing.T) {
		v := model.FeatureVector{ElapsedDays: 3, ThresholdDays: -1, RoleID: 7}
		assert.Error(t, v.Validate())
	})

	t.Run("rejects negative elapsed days", func(t *testing.T) {
		v := model.FeatureVector{ElapsedDays: -0.5, ThresholdDays: 5, RoleID: 7}
		assert.Error(t, v.Validate())
	})

	t.Run("accepts zero elapsed days", func(t *testing.T) {
		v := model.FeatureVector{ElapsedDays: 0, ThresholdDays: 5, RoleID: 7}
		assert.NoError(t, v.Validate())
	})
}

func TestFeatureVector_Row(t *testing.T) {
	v := model.FeatureVector{ElapsedDays: 2.5, ThresholdDays: 10, RoleID: 4}
	assert.Equal(t, []float64{2.5, 10, 4}, v.Row())
}

func TestTrainingRecord_Label(t *testing.T) {
	assert.Equal(t, 1, model.TrainingRecord{Breached: true}.Label())
	assert.Equal(t, 0, model.TrainingRecord{Breached: false}.Label())
}
