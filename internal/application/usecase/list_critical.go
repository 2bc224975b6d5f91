package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/domain/port"
)

const (
	defaultCriticalLimit = 20
	maxCriticalLimit     = 100
)

// ListCritical returns the in-flight requests that have consumed most of
// their SLA window, scored and ordered by breach probability.
type ListCritical struct {
	repo  port.RequestRepository
	batch *PredictBatch
}

// NewListCritical creates a new ListCritical use case.
func NewListCritical(repo port.RequestRepository, batch *PredictBatch) *ListCritical {
	return &ListCritical{repo: repo, batch: batch}
}

// Execute fetches candidates from storage, scores them in one pass, and
// returns them most at risk first.
func (uc *ListCritical) Execute(ctx context.Context, limit int) ([]dto.PredictionResponse, error) {
	if limit <= 0 {
		limit = defaultCriticalLimit
	}
	if limit > maxCriticalLimit {
		limit = maxCriticalLimit
	}

	requests, err := uc.repo.FindCritical(ctx, port.CriticalFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch critical requests: %w", err)
	}

	scored, err := uc.batch.Execute(ctx, requests)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].BreachProbability > scored[j].BreachProbability
	})
	return scored, nil
}
