package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/slasentry/prediction-service/internal/domain/model"
	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/ml"
)

// --- Mock implementations ---

type mockTrainingProvider struct {
	fetchFunc  func(ctx context.Context, limit int) ([]model.TrainingRecord, error)
	fetchCalls int
}

func (m *mockTrainingProvider) FetchTrainingData(ctx context.Context, limit int) ([]model.TrainingRecord, error) {
	m.fetchCalls++
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, limit)
	}
	return nil, nil
}

type mockArtifactStore struct {
	loadFunc func(path string) (*ml.Pipeline, error)
	saveFunc func(path string, pipe *ml.Pipeline) error
}

func (m *mockArtifactStore) Load(path string) (*ml.Pipeline, error) {
	if m.loadFunc != nil {
		return m.loadFunc(path)
	}
	return nil, ml.ErrArtifactNotFound
}

func (m *mockArtifactStore) Save(path string, pipe *ml.Pipeline) error {
	if m.saveFunc != nil {
		return m.saveFunc(path, pipe)
	}
	return nil
}

type mockEventPublisher struct {
	publishedEvents []any
	publishFunc     func(ctx context.Context, events ...any) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...any) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, events...)
	}
	m.publishedEvents = append(m.publishedEvents, events...)
	return nil
}

type mockRequestRepository struct {
	critical     []model.ActiveRequest
	page         []model.ActiveRequest
	pageTotal    int64
	trends       []model.TrendPoint
	roleStats    []model.RoleStats
	policyStats  []model.PolicyStats
	filters      model.FilterOptions
	findCritical func(ctx context.Context, filter port.CriticalFilter) ([]model.ActiveRequest, error)
	findPage     func(ctx context.Context, filter port.PageFilter) ([]model.ActiveRequest, int64, error)
}

func (m *mockRequestRepository) FindCritical(ctx context.Context, filter port.CriticalFilter) ([]model.ActiveRequest, error) {
	if m.findCritical != nil {
		return m.findCritical(ctx, filter)
	}
	return m.critical, nil
}

func (m *mockRequestRepository) FindPage(ctx context.Context, filter port.PageFilter) ([]model.ActiveRequest, int64, error) {
	if m.findPage != nil {
		return m.findPage(ctx, filter)
	}
	return m.page, m.pageTotal, nil
}

func (m *mockRequestRepository) MonthlyTrends(_ context.Context, _ int) ([]model.TrendPoint, error) {
	return m.trends, nil
}

func (m *mockRequestRepository) RoleStats(_ context.Context, _ int) ([]model.RoleStats, error) {
	return m.roleStats, nil
}

func (m *mockRequestRepository) PolicyStats(_ context.Context) ([]model.PolicyStats, error) {
	return m.policyStats, nil
}

func (m *mockRequestRepository) FilterOptions(_ context.Context) (model.FilterOptions, error) {
	return m.filters, nil
}

func (m *mockRequestRepository) Ping(_ context.Context) error { return nil }

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) port.Clock {
	return port.ClockFunc(func() time.Time { return t })
}

// newTestStore builds a ModelStore backed by the given provider and a no-op
// artifact store.
func newTestStore(provider port.TrainingDataProvider) *ml.ModelStore {
	return ml.NewModelStore(
		ml.NewTrainer(discardLogger()),
		provider,
		&mockArtifactStore{},
		fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		ml.StoreConfig{Path: "models/test.gob", ReloadInterval: time.Hour, MaxTrainingSamples: 10000},
		discardLogger(),
	)
}

// makeTrainingRecords generates a separable outcome history: requests that
// ran past their threshold breached, the rest met.
func makeTrainingRecords(n int) []model.TrainingRecord {
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
