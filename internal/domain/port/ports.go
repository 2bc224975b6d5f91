package port

import (
	"context"
	"time"

	"github.com/slasentry/prediction-service/internal/domain/model"
)

// TrainingDataProvider supplies fully resolved historical outcomes for
// training, most recent first, truncated at limit.
type TrainingDataProvider interface {
	FetchTrainingData(ctx context.Context, limit int) ([]model.TrainingRecord, error)
}

// CriticalFilter selects in-flight requests that have consumed at least 70%
// of their SLA window.
type CriticalFilter struct {
	Limit int
}

// PageFilter selects a page of in-flight (and optionally resolved) requests.
type PageFilter struct {
	Page            int
	PageSize        int
	IncludeResolved bool
	PolicyCode      string
}

// RequestRepository reads service requests and SLA aggregates for the
// surrounding API surface.
type RequestRepository interface {
	// FindCritical returns requests with >=70% of their window consumed,
	// most time-consumed first.
	FindCritical(ctx context.Context, filter CriticalFilter) ([]model.ActiveRequest, error)

	// FindPage returns one page of requests plus the total row count.
	FindPage(ctx context.Context, filter PageFilter) ([]model.ActiveRequest, int64, error)

	// MonthlyTrends returns per-month breach aggregates for the last n months.
	MonthlyTrends(ctx context.Context, months int) ([]model.TrendPoint, error)

	// RoleStats returns per-role breach aggregates for the last n months.
	RoleStats(ctx context.Context, months int) ([]model.RoleStats, error)

	// PolicyStats returns per-policy breach aggregates.
	PolicyStats(ctx context.Context) ([]model.PolicyStats, error)

	// FilterOptions returns the values available for list filtering.
	FilterOptions(ctx context.Context) (model.FilterOptions, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// EventPublisher publishes domain events to the messaging infrastructure.
// Publishing is best-effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, events ...any) error
}

// Clock abstracts "now" so time-to-live decisions are testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return ClockFunc(time.Now) }
