package usecase

import (
	"context"
	"fmt"

	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/domain/port"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 24
)

// GetTrends returns monthly breach aggregates for dashboarding.
type GetTrends struct {
	repo port.RequestRepository
}

// NewGetTrends creates a new GetTrends use case.
func NewGetTrends(repo port.RequestRepository) *GetTrends {
	return &GetTrends{repo: repo}
}

// Execute returns per-month totals for the last n months, oldest first.
func (uc *GetTrends) Execute(ctx context.Context, months int) ([]dto.TrendItem, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}
	if months > maxTrendMonths {
		months = maxTrendMonths
	}

	points, err := uc.repo.MonthlyTrends(ctx, months)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly trends: %w", err)
	}

	items := make([]dto.TrendItem, len(points))
	for i, p := range points {
		items[i] = dto.TrendItem{
			Month:    p.Period,
			Total:    p.TotalRequests,
			Breached: p.Breached,
			Met:      p.TotalRequests - p.Breached,
			Rate:     dto.Round1(p.BreachRatePct),
		}
	}
	return items, nil
}

// GetRoleStats returns per-role breach aggregates.
type GetRoleStats struct {
	repo port.RequestRepository
}

// NewGetRoleStats creates a new GetRoleStats use case.
func NewGetRoleStats(repo port.RequestRepository) *GetRoleStats {
	return &GetRoleStats{repo: repo}
}

// Execute returns per-role aggregates for the last n months.
func (uc *GetRoleStats) Execute(ctx context.Context, months int) ([]dto.RoleStatsItem, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}

	rows, err := uc.repo.RoleStats(ctx, months)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch role stats: %w", err)
	}

	items := make([]dto.RoleStatsItem, len(rows))
	for i, r := range rows {
		items[i] = dto.RoleStatsItem{
			RoleName:      r.RoleName,
			TechBlock:     r.TechBlock,
			Total:         r.TotalRequests,
			Breached:      r.Breached,
			BreachPct:     dto.Round1(r.BreachRatePct),
			AvgActualDays: dto.Round1(r.AvgDays),
		}
	}
	return items, nil
}

// GetPolicyStats returns per-policy breach aggregates.
type GetPolicyStats struct {
	repo port.RequestRepository
}

// NewGetPolicyStats creates a new GetPolicyStats use case.
func NewGetPolicyStats(repo port.RequestRepository) *GetPolicyStats {
	return &GetPolicyStats{repo: repo}
}

// Execute returns one aggregate row per SLA policy.
func (uc *GetPolicyStats) Execute(ctx context.Context) ([]dto.PolicyStatsItem, error) {
	rows, err := uc.repo.PolicyStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch policy stats: %w", err)
	}

	items := make([]dto.PolicyStatsItem, len(rows))
	for i, r := range rows {
		items[i] = dto.PolicyStatsItem{
			PolicyCode:    r.PolicyCode,
			PolicyName:    r.Description,
			ThresholdDays: r.ThresholdDays,
			Total:         r.TotalRequests,
			Breached:      r.Breached,
			BreachPct:     dto.Round1(r.BreachRatePct),
		}
	}
	return items, nil
}

// GetFilters returns the values clients may filter lists by.
type GetFilters struct {
	repo port.RequestRepository
}

// NewGetFilters creates a new GetFilters use case.
func NewGetFilters(repo port.RequestRepository) *GetFilters {
	return &GetFilters{repo: repo}
}

// Execute returns the distinct policies, roles, and tech blocks in storage.
func (uc *GetFilters) Execute(ctx context.Context) (dto.FilterOptionsResponse, error) {
	opts, err := uc.repo.FilterOptions(ctx)
	if err != nil {
		return dto.FilterOptionsResponse{}, fmt.Errorf("failed to fetch filter options: %w", err)
	}

	resp := dto.FilterOptionsResponse{
		Policies:   make([]dto.FilterOption, len(opts.Policies)),
		Roles:      make([]dto.FilterOption, len(opts.Roles)),
		TechBlocks: make([]dto.FilterOption, len(opts.TechBlocks)),
	}
	for i, p := range opts.Policies {
		resp.Policies[i] = dto.FilterOption{Code: p.Code, Name: p.Description}
	}
	for i, r := range opts.Roles {
		resp.Roles[i] = dto.FilterOption{ID: r.ID, Name: r.Name}
	}
	for i, tb := range opts.TechBlocks {
		resp.TechBlocks[i] = dto.FilterOption{Name: tb}
	}
	return resp, nil
}
