package ml

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slasentry/prediction-service/internal/domain/model"
	"github.com/slasentry/prediction-service/internal/domain/port"
)

type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	records []model.TrainingRecord
	err     error
}

func (f *fakeProvider) FetchTrainingData(_ context.Context, _ int) ([]model.TrainingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.records, f.err
}

func (f *fakeProvider) fetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeArtifacts struct {
	mu        sync.Mutex
	loadCalls int
	saveCalls int
	pipe      *Pipeline
	loadErr   error
	saveErr   error
}

func (f *fakeArtifacts) Load(_ string) (*Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.pipe, nil
}

func (f *fakeArtifacts) Save(_ string, pipe *Pipeline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	f.pipe = pipe
	return f.saveErr
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStoreUnderTest(provider *fakeProvider, artifacts *fakeArtifacts, clock port.Clock) *ModelStore {
	return NewModelStore(
		NewTrainer(testLogger()),
		provider,
		artifacts,
		clock,
		StoreConfig{Path: "models/test.gob", ReloadInterval: time.Hour, MaxTrainingSamples: 10000},
		testLogger(),
	)
}

func trainedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	records := outcomeHistory(100)
	x := make([][]float64, len(records))
	y := make([]int, len(records))
	for i, r := range records {
		x[i] = r.Features().Row()
		y[i] = r.Label()
	}
	pipe, err := fit(x, y, ForestConfig{Trees: 5, MaxDepth: 5, Seed: 42})
	require.NoError(t, err)
	return pipe
}

func TestModelStore_Current(t *testing.T) {
	t.Run("cold start with no artifact trains a model", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m, err := store.Current(context.Background())
		require.NoError(t, err)
		require.NotNil(t, m.Pipeline)
		assert.Equal(t, 100, m.SampleCount)
		require.NotNil(t, m.Accuracy)
		assert.Equal(t, 1, provider.fetchCalls())
		assert.Equal(t, 1, artifacts.saveCalls)
	})

	t.Run("cold start adopts a persisted artifact without training", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{pipe: trainedPipeline(t)}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m, err := store.Current(context.Background())
		require.NoError(t, err)
		assert.Zero(t, provider.fetchCalls())
		assert.Nil(t, m.Accuracy) // unknown for a disk artifact
		assert.Equal(t, clock.Now(), m.TrainedAt)
	})

	t.Run("fresh model is served without reloading", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m1, err := store.Current(context.Background())
		require.NoError(t, err)

		clock.advance(30 * time.Minute)
		m2, err := store.Current(context.Background())
		require.NoError(t, err)

		assert.Equal(t, m1.ID, m2.ID)
		assert.Equal(t, 1, provider.fetchCalls())
	})

	t.Run("stale model retrains instead of re-reading the artifact", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m1, err := store.Current(context.Background())
		require.NoError(t, err)
		loadsAfterColdStart := artifacts.loadCalls

		clock.advance(2 * time.Hour)
		m2, err := store.Current(context.Background())
		require.NoError(t, err)

		assert.NotEqual(t, m1.ID, m2.ID)
		assert.Equal(t, 2, provider.fetchCalls())
		assert.Equal(t, loadsAfterColdStart, artifacts.loadCalls)
	})

	t.Run("concurrent cold readers share one training run", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		const readers = 16
		models := make([]*Model, readers)
		var wg sync.WaitGroup
		for i := 0; i < readers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m, err := store.Current(context.Background())
				assert.NoError(t, err)
				models[i] = m
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, provider.fetchCalls())
		for i := 1; i < readers; i++ {
			assert.Same(t, models[0], models[i])
		}
	})

	t.Run("corrupt artifact falls back to training", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{loadErr: errors.New("gob: corrupt stream")}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m, err := store.Current(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, m.Accuracy)
		assert.Equal(t, 1, provider.fetchCalls())
	})

	t.Run("provider failure degrades to the bootstrap model", func(t *testing.T) {
		provider := &fakeProvider{err: errors.New("db down")}
		artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m, err := store.Current(context.Background())
		require.NoError(t, err)
		assert.Zero(t, m.SampleCount)
		require.NotNil(t, m.Accuracy)
		assert.Zero(t, *m.Accuracy)
	})

	t.Run("save failure keeps the in-memory model authoritative", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound, saveErr: errors.New("disk full")}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m, err := store.Current(context.Background())
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.True(t, store.IsReady())
	})
}

func TestModelStore_ForceRetrain(t *testing.T) {
	t.Run("always trains, never adopts the artifact", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{pipe: trainedPipeline(t)}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m, err := store.ForceRetrain(context.Background())
		require.NoError(t, err)
		assert.Zero(t, artifacts.loadCalls)
		assert.Equal(t, 1, provider.fetchCalls())
		require.NotNil(t, m.Accuracy)
	})

	t.Run("publishes a new model each time", func(t *testing.T) {
		provider := &fakeProvider{records: outcomeHistory(100)}
		artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound}
		clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := newStoreUnderTest(provider, artifacts, clock)

		m1, err := store.ForceRetrain(context.Background())
		require.NoError(t, err)
		m2, err := store.ForceRetrain(context.Background())
		require.NoError(t, err)

		assert.NotEqual(t, m1.ID, m2.ID)
	})
}

func TestModelStore_Info(t *testing.T) {
	provider := &fakeProvider{records: outcomeHistory(100)}
	artifacts := &fakeArtifacts{loadErr: ErrArtifactNotFound}
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newStoreUnderTest(provider, artifacts, clock)

	info := store.Info()
	assert.False(t, info.Loaded)
	assert.Equal(t, "models/test.gob", info.Path)
	assert.False(t, store.IsReady())

	_, err := store.Current(context.Background())
	require.NoError(t, err)

	info = store.Info()
	assert.True(t, info.Loaded)
	assert.Equal(t, 100, info.SampleCount)
	assert.True(t, store.IsReady())
}

func TestPipeline_EncodeDecode(t *testing.T) {
	t.Run("round trip preserves probabilities", func(t *testing.T) {
		pipe := trainedPipeline(t)

		var buf bytes.Buffer
		require.NoError(t, pipe.Encode(&buf))

		restored, err := DecodePipeline(&buf)
		require.NoError(t, err)

		probe := [][]float64{{3, 10, 1}, {12, 5, 2}, {7, 7, 3}}
		assert.Equal(t, pipe.PredictProba(probe), restored.PredictProba(probe))
	})

	t.Run("rejects truncated input", func(t *testing.T) {
		_, err := DecodePipeline(bytes.NewReader([]byte{0x01, 0x02}))
		assert.Error(t, err)
	})
}
