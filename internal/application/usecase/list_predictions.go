package usecase

import (
	"context"
	"fmt"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/domain/port"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// ListPredictions returns one scored page of service requests.
type ListPredictions struct {
	repo  port.RequestRepository
	batch *PredictBatch
}

// NewListPredictions creates a new ListPredictions use case.
func NewListPredictions(repo port.RequestRepository, batch *PredictBatch) *ListPredictions {
	return &ListPredictions{repo: repo, batch: batch}
}

// Execute pages through requests and scores the returned page in one pass.
// Out-of-range paging inputs are clamped rather than rejected.
func (uc *ListPredictions) Execute(ctx context.Context, filter port.PageFilter) (dto.PagedPredictionsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	requests, total, err := uc.repo.FindPage(ctx, filter)
	if err != nil {
		return dto.PagedPredictionsResponse{}, fmt.Errorf("failed to fetch requests page: %w", err)
	}

	scored, err := uc.batch.Execute(ctx, requests)
	if err != nil {
		return dto.PagedPredictionsResponse{}, err
	}

	pageSize := int64(filter.PageSize)
	totalPages := (total + pageSize - 1) / pageSize
	return dto.PagedPredictionsResponse{
		Data:         scored,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages,
	}, nil
}
