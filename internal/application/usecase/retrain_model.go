package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/domain/event"
	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/ml"
)

// RetrainModel forces a fresh training run regardless of model age.
type RetrainModel struct {
	store     *ml.ModelStore
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewRetrainModel creates a new RetrainModel use case.
func NewRetrainModel(store *ml.ModelStore, publisher port.EventPublisher, logger *slog.Logger) *RetrainModel {
	return &RetrainModel{store: store, publisher: publisher, logger: logger}
}

// Execute retrains, publishes the retrained event, and reports the new
// model's metadata. Event publishing is best-effort.
func (uc *RetrainModel) Execute(ctx context.Context) (dto.RetrainResponse, error) {
	m, err := uc.store.ForceRetrain(ctx)
	if err != nil {
		return dto.RetrainResponse{}, fmt.Errorf("failed to retrain model: %w", err)
	}

	accuracy := 0.0
	if m.Accuracy != nil {
		accuracy = *m.Accuracy
	}
	evt := event.ModelRetrained{
		ModelID:     m.ID,
		SampleCount: m.SampleCount,
		Accuracy:    accuracy,
		TrainedAt:   m.TrainedAt,
	}
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.Warn("failed to publish model retrained event",
			slog.String("model_id", m.ID.String()),
			slog.String("error", err.Error()))
	}

	return dto.RetrainResponse{
		Status:      "ok",
		Message:     "model retrained",
		SamplesUsed: m.SampleCount,
		Accuracy:    m.Accuracy,
		TrainedAt:   m.TrainedAt,
	}, nil
}

// GetModelInfo exposes the metadata of the model currently serving traffic.
type GetModelInfo struct {
	store *ml.ModelStore
}

// NewGetModelInfo creates a new GetModelInfo use case.
func NewGetModelInfo(store *ml.ModelStore) *GetModelInfo {
	return &GetModelInfo{store: store}
}

// Execute returns a snapshot without triggering a load or retrain.
func (uc *GetModelInfo) Execute(_ context.Context) dto.ModelInfoResponse {
	info := uc.store.Info()
	resp := dto.ModelInfoResponse{
		Loaded:      info.Loaded,
		Accuracy:    info.Accuracy,
		SampleCount: info.SampleCount,
		Path:        info.Path,
	}
	if info.Loaded {
		trainedAt := info.TrainedAt
		resp.TrainedAt = &trainedAt
	}
	return resp
}
