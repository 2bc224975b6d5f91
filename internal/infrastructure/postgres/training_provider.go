package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slasentry/prediction-service/internal/domain/model"
)

// TrainingDataProvider implements port.TrainingDataProvider against the
// service_requests tables. Only fully resolved outcomes qualify: requests
// whose SLA outcome is final (met or breached), most recent first.
type TrainingDataProvider struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTrainingDataProvider creates a PostgreSQL-backed training data provider.
func NewTrainingDataProvider(pool *pgxpool.Pool, logger *slog.Logger) *TrainingDataProvider {
	return &TrainingDataProvider{pool: pool, logger: logger}
}

// FetchTrainingData returns up to limit resolved outcome records, newest
// first. Elapsed days falls back to the request's age when the resolution
// duration was never recorded.
func (p *TrainingDataProvider) FetchTrainingData(ctx context.Context, limit int) ([]model.TrainingRecord, error) {
	query := `
		SELECT
			COALESCE(r.resolution_days,
				EXTRACT(EPOCH FROM now() - r.requested_at) / 86400)::float8 AS elapsed_days,
			p.threshold_days,
			r.role_id,
			(r.sla_outcome = 'BREACHED') AS breached
		FROM service_requests r
		JOIN sla_policies p ON p.id = r.policy_id
		WHERE r.sla_outcome IN ('MET', 'BREACHED')
		ORDER BY r.created_at DESC
		LIMIT $1
	`

	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch training data: %w", err)
	}
	defer rows.Close()

	records := make([]model.TrainingRecord, 0, limit)
	for rows.Next() {
		var r model.TrainingRecord
		if err := rows.Scan(&r.ElapsedDays, &r.ThresholdDays, &r.RoleID, &r.Breached); err != nil {
			return nil, fmt.Errorf("scan training record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training records: %w", err)
	}

	p.logger.Info("fetched training records", slog.Int("count", len(records)))
	return records, nil
}
