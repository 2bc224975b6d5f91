package ml

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/observability"
)

// ErrArtifactNotFound is returned by an ArtifactStore when no persisted
// artifact exists at the given path.
var ErrArtifactNotFound = errors.New("ml: no persisted model artifact")

// ArtifactStore persists the trained pipeline as an opaque artifact.
// Load and Save are best-effort collaborators: the store treats any load
// failure as "nothing persisted" and a save failure as non-fatal.
type ArtifactStore interface {
	Load(path string) (*Pipeline, error)
	Save(path string, pipe *Pipeline) error
}

// Model is one published trained artifact with its metadata. Models are
// immutable; a retrain publishes a brand-new Model, and in-flight predictions
// holding a reference to the old one keep working against it.
type Model struct {
	ID          uuid.UUID
	Pipeline    *Pipeline
	TrainedAt   time.Time
	Accuracy    *float64 // nil when the artifact was loaded from disk
	SampleCount int
}

// ModelInfo is the read-only metadata snapshot exposed by Info.
type ModelInfo struct {
	Loaded      bool
	TrainedAt   time.Time
	Accuracy    *float64
	SampleCount int
	Path        string
}

// StoreConfig configures the model lifecycle policy.
type StoreConfig struct {
	Path               string
	ReloadInterval     time.Duration
	MaxTrainingSamples int
}

// ModelStore owns the currently active model and its reload policy. Readers
// take the published model through an atomic pointer and never block; stale
// observers serialize behind a single in-flight reload, so at most one
// retrain or artifact load runs at a time.
type ModelStore struct {
	trainer   *Trainer
	provider  port.TrainingDataProvider
	artifacts ArtifactStore
	clock     port.Clock
	logger    *slog.Logger
	cfg       StoreConfig

	mu      sync.Mutex // serializes reload decisions
	current atomic.Pointer[Model]
}

// NewModelStore creates a ModelStore. No model is loaded until the first
// Current or ForceRetrain call.
func NewModelStore(
	trainer *Trainer,
	provider port.TrainingDataProvider,
	artifacts ArtifactStore,
	clock port.Clock,
	cfg StoreConfig,
	logger *slog.Logger,
) *ModelStore {
	return &ModelStore{
		trainer:   trainer,
		provider:  provider,
		artifacts: artifacts,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Current returns a usable model, reloading first when none has ever been
// published or the published one outlived the reload interval. Concurrent
// callers observing staleness block behind the single in-flight reload and
// are served its result.
func (s *ModelStore) Current(ctx context.Context) (*Model, error) {
	if m := s.current.Load(); m != nil && !s.stale(m) {
		return m, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A reload may have finished while this caller waited for the lock.
	if m := s.current.Load(); m != nil && !s.stale(m) {
		return m, nil
	}
	return s.reloadLocked(ctx)
}

// ForceRetrain bypasses the staleness check and always trains a fresh model;
// it never adopts a persisted artifact.
func (s *ModelStore) ForceRetrain(ctx context.Context) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrainLocked(ctx)
}

// IsReady reports whether a model has been published. Lock-free.
func (s *ModelStore) IsReady() bool {
	return s.current.Load() != nil
}

// Info returns the last-published model metadata. Lock-free.
func (s *ModelStore) Info() ModelInfo {
	info := ModelInfo{Path: s.cfg.Path}
	if m := s.current.Load(); m != nil {
		info.Loaded = true
		info.TrainedAt = m.TrainedAt
		info.Accuracy = m.Accuracy
		info.SampleCount = m.SampleCount
	}
	return info
}

func (s *ModelStore) stale(m *Model) bool {
	return s.clock.Now().Sub(m.TrainedAt) > s.cfg.ReloadInterval
}

// reloadLocked adopts a persisted artifact on cold start, otherwise retrains.
// A freshly loaded artifact is stamped current; its real staleness is decided
// on the next cycle. Caller must hold s.mu.
func (s *ModelStore) reloadLocked(ctx context.Context) (*Model, error) {
	if s.current.Load() == nil {
		pipe, err := s.artifacts.Load(s.cfg.Path)
		switch {
		case err == nil:
			m := &Model{
				ID:        uuid.New(),
				Pipeline:  pipe,
				TrainedAt: s.clock.Now(),
			}
			s.current.Store(m)
			s.logger.Info("model adopted from persisted artifact",
				slog.String("path", s.cfg.Path),
				slog.String("model_id", m.ID.String()),
			)
			return m, nil
		case errors.Is(err, ErrArtifactNotFound):
			// Nothing persisted yet; train from scratch.
		default:
			s.logger.Warn("persisted model artifact unusable, training fresh",
				slog.String("path", s.cfg.Path),
				slog.String("error", err.Error()),
			)
		}
	}
	return s.retrainLocked(ctx)
}

// retrainLocked fetches fresh training data, fits a new model, publishes it
// and persists it best-effort. Caller must hold s.mu.
func (s *ModelStore) retrainLocked(ctx context.Context) (*Model, error) {
	records, err := s.provider.FetchTrainingData(ctx, s.cfg.MaxTrainingSamples)
	if err != nil {
		// Data sourcing failures degrade to the bootstrap path.
		s.logger.Error("training data unavailable, falling back to bootstrap model",
			slog.String("error", err.Error()),
		)
		records = nil
	}

	start := time.Now()
	pipe, accuracy, err := s.trainer.Train(records)
	if err != nil {
		if prev := s.current.Load(); prev != nil {
			s.logger.Error("retrain failed, previous model stays current",
				slog.String("model_id", prev.ID.String()),
				slog.String("error", err.Error()),
			)
			return prev, nil
		}
		return nil, fmt.Errorf("model store: train: %w", err)
	}
	observability.ObserveTraining(time.Since(start), len(records), accuracy)

	m := &Model{
		ID:          uuid.New(),
		Pipeline:    pipe,
		TrainedAt:   s.clock.Now(),
		Accuracy:    &accuracy,
		SampleCount: len(records),
	}
	s.current.Store(m)

	if err := s.artifacts.Save(s.cfg.Path, pipe); err != nil {
		s.logger.Error("model save failed, in-memory model remains authoritative",
			slog.String("path", s.cfg.Path),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("model persisted",
			slog.String("path", s.cfg.Path),
			slog.String("model_id", m.ID.String()),
		)
	}

	return m, nil
}
