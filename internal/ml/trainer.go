package ml

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/slasentry/prediction-service/internal/domain/model"
)

const (
	// MinTrainingRecords is the smallest real dataset worth fitting on;
	// anything below falls back to the bootstrap model.
	MinTrainingRecords = 50

	// trainingSeed fixes every randomized step so retraining on the same
	// records reproduces the same model and accuracy.
	trainingSeed = 42

	holdoutFraction = 0.2
)

// bootstrapX is the fixed synthetic dataset used when too little real data
// exists: five rows against a 5-day threshold with increasing elapsed days,
// the last two labeled breached. It gives the classifier a minimally valid
// decision surface.
var (
	bootstrapX = [][]float64{
		{1, 5, 1},
		{2, 5, 1},
		{3, 5, 1},
		{4, 5, 1},
		{5, 5, 1},
	}
	bootstrapY = []int{0, 0, 0, 1, 1}
)

func fullConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Balanced:        true,
		Seed:            trainingSeed,
	}
}

func bootstrapConfig() ForestConfig {
	return ForestConfig{
		Trees:    10,
		MaxDepth: 5,
		Seed:     trainingSeed,
	}
}

// Trainer fits a standardize-then-classify pipeline from historical outcome
// records and evaluates its holdout accuracy. It never mutates shared state;
// publishing the result is the ModelStore's job.
type Trainer struct {
	logger *slog.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(logger *slog.Logger) *Trainer {
	return &Trainer{logger: logger}
}

// Train fits a pipeline on the given records and returns it with its holdout
// accuracy. Fewer than MinTrainingRecords records yields the bootstrap model
// with accuracy 0.0 by convention, signaling "untrained on real data".
func (t *Trainer) Train(records []model.TrainingRecord) (*Pipeline, float64, error) {
	if len(records) < MinTrainingRecords {
		t.logger.Warn("too few records for training, fitting bootstrap model",
			slog.Int("records", len(records)),
			slog.Int("required", MinTrainingRecords),
		)
		pipe, err := fit(bootstrapX, bootstrapY, bootstrapConfig())
		if err != nil {
			return nil, 0, err
		}
		return pipe, 0.0, nil
	}

	x := make([][]float64, len(records))
	y := make([]int, len(records))
	for i, r := range records {
		x[i] = r.Features().Row()
		y[i] = r.Label()
	}

	trainIdx, testIdx := holdoutSplit(y, holdoutFraction, trainingSeed)

	pipe, err := fit(subsetRows(x, trainIdx), subsetLabels(y, trainIdx), fullConfig())
	if err != nil {
		return nil, 0, err
	}

	accuracy := evaluate(pipe, subsetRows(x, testIdx), subsetLabels(y, testIdx))

	t.logger.Info("model trained",
		slog.Int("samples", len(records)),
		slog.Int("holdout", len(testIdx)),
		slog.Float64("accuracy", accuracy),
	)

	return pipe, accuracy, nil
}

func fit(x [][]float64, y []int, cfg ForestConfig) (*Pipeline, error) {
	scaler, err := FitScaler(x)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	forest, err := FitForest(scaler.Transform(x), y, cfg)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	return &Pipeline{Scaler: scaler, Forest: forest}, nil
}

// holdoutSplit partitions indices into train and test sets. When both classes
// are present the split is stratified so each class keeps roughly the holdout
// fraction; otherwise a plain shuffled split is used.
func holdoutSplit(y []int, fraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	if len(byClass) < 2 {
		all := rng.Perm(len(y))
		cut := testCount(len(y), fraction)
		return all[cut:], all[:cut]
	}

	// Iterate classes in ascending label order for determinism.
	for _, c := range []int{0, 1} {
		idx, ok := byClass[c]
		if !ok {
			continue
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		cut := testCount(len(idx), fraction)
		test = append(test, idx[:cut]...)
		train = append(train, idx[cut:]...)
	}
	return train, test
}

func testCount(n int, fraction float64) int {
	cut := int(float64(n) * fraction)
	if cut < 1 {
		cut = 1
	}
	if cut >= n {
		cut = n - 1
	}
	return cut
}

func evaluate(pipe *Pipeline, x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	predicted := pipe.Forest.Predict(pipe.Scaler.Transform(x))
	correct := 0
	for i, p := range predicted {
		if p == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func subsetRows(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func subsetLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
