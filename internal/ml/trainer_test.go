package ml

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slasentry/prediction-service/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func outcomeHistory(n int) []model.TrainingRecord {
	records := make([]model.TrainingRecord, n)
	for i := range records {
		threshold := float64(5 + i%10)
		elapsed := float64(i % 15)
		records[i] = model.TrainingRecord{
			ElapsedDays:   elapsed,
			ThresholdDays: threshold,
			RoleID:        int64(1 + i%4),
			Breached:      elapsed > threshold,
		}
	}
	return records
}

func TestTrainer_Train(t *testing.T) {
	trainer := NewTrainer(testLogger())

	t.Run("fits a scorable model on real history", func(t *testing.T) {
		pipe, accuracy, err := trainer.Train(outcomeHistory(200))
		require.NoError(t, err)
		require.NotNil(t, pipe)
		assert.Equal(t, []int{0, 1}, pipe.Classes())
		assert.GreaterOrEqual(t, accuracy, 0.5)
		assert.LessOrEqual(t, accuracy, 1.0)

		proba := pipe.PredictProba([][]float64{{14, 5, 1}, {0, 14, 2}})
		// Way past the threshold must look riskier than barely started.
		assert.Greater(t, proba[0][1], proba[1][1])
	})

	t.Run("too few records falls back to the bootstrap model", func(t *testing.T) {
		for _, n := range []int{0, 1, MinTrainingRecords - 1} {
			pipe, accuracy, err := trainer.Train(outcomeHistory(n))
			require.NoError(t, err)
			require.NotNil(t, pipe)
			assert.Equal(t, 0.0, accuracy)

			// The bootstrap model must still produce usable probabilities.
			proba := pipe.PredictProba([][]float64{{5, 5, 1}})
			require.Len(t, proba, 1)
			assert.GreaterOrEqual(t, proba[0][len(proba[0])-1], 0.0)
		}
	})

	t.Run("exactly the minimum trains on real data", func(t *testing.T) {
		_, accuracy, err := trainer.Train(outcomeHistory(MinTrainingRecords))
		require.NoError(t, err)
		assert.Greater(t, accuracy, 0.0)
	})

	t.Run("training is deterministic for the same records", func(t *testing.T) {
		records := outcomeHistory(120)
		p1, a1, err := trainer.Train(records)
		require.NoError(t, err)
		p2, a2, err := trainer.Train(records)
		require.NoError(t, err)

		assert.Equal(t, a1, a2)
		probe := [][]float64{{3, 10, 1}, {9, 10, 2}, {12, 6, 3}}
		assert.Equal(t, p1.PredictProba(probe), p2.PredictProba(probe))
	})
}

func TestHoldoutSplit(t *testing.T) {
	t.Run("stratified split covers both classes", func(t *testing.T) {
		y := make([]int, 100)
		for i := 80; i < 100; i++ {
			y[i] = 1
		}
		train, test := holdoutSplit(y, 0.2, 42)

		assert.Len(t, train, 80)
		assert.Len(t, test, 20)

		seen := map[int]bool{}
		for _, i := range test {
			seen[y[i]] = true
		}
		assert.True(t, seen[0])
		assert.True(t, seen[1])

		// No index appears on both sides.
		inTrain := map[int]bool{}
		for _, i := range train {
			inTrain[i] = true
		}
		for _, i := range test {
			assert.False(t, inTrain[i])
		}
	})

	t.Run("small classes never drain the training side", func(t *testing.T) {
		y := []int{0, 0, 0, 0, 0, 0, 0, 1, 1, 1}
		train, test := holdoutSplit(y, 0.2, 42)
		assert.Len(t, train, 8)
		assert.Len(t, test, 2)
	})

	t.Run("single-class labels fall back to a plain split", func(t *testing.T) {
		y := []int{0, 0, 0, 0, 0}
		train, test := holdoutSplit(y, 0.2, 42)
		assert.Len(t, train, 4)
		assert.Len(t, test, 1)
	})
}
