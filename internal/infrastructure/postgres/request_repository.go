package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slasentry/prediction-service/internal/domain/model"
	"github.com/slasentry/prediction-service/internal/domain/port"
)

// requestColumns is the projection shared by all active-request queries.
// Elapsed and remaining days are computed from the request age so the
// prediction inputs are always current.
const requestColumns = `
	r.id,
	EXTRACT(EPOCH FROM now() - r.requested_at) / 86400 AS elapsed_days,
	p.threshold_days,
	r.role_id,
	p.code,
	ro.name,
	COALESCE(ro.tech_block, ''),
	p.threshold_days - EXTRACT(EPOCH FROM now() - r.requested_at) / 86400 AS days_remaining,
	r.status`

// RequestRepository implements port.RequestRepository using PostgreSQL.
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a PostgreSQL-backed request repository.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

// FindCritical returns in-flight requests that have consumed at least 70% of
// their SLA window, most time-consumed first.
func (r *RequestRepository) FindCritical(ctx context.Context, filter port.CriticalFilter) ([]model.ActiveRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM service_requests r
		JOIN sla_policies p ON p.id = r.policy_id
		JOIN roles ro ON ro.id = r.role_id
		WHERE p.active
			AND r.status NOT IN ('COMPLETED', 'CANCELLED')
			AND EXTRACT(EPOCH FROM now() - r.requested_at) / 86400 >= p.threshold_days * 0.7
		ORDER BY elapsed_days DESC
		LIMIT $1
	`, requestColumns)

	rows, err := r.pool.Query(ctx, query, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("find critical requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// FindPage returns one page of requests plus the total matching row count.
// Unfiltered listings are ordered by urgency (fewest days remaining first);
// a policy-code filter switches to newest first.
func (r *RequestRepository) FindPage(ctx context.Context, filter port.PageFilter) ([]model.ActiveRequest, int64, error) {
	conds := []string{"p.active"}
	args := []any{}

	if !filter.IncludeResolved {
		conds = append(conds, "r.status NOT IN ('COMPLETED', 'CANCELLED')")
	}
	if filter.PolicyCode != "" {
		args = append(args, filter.PolicyCode)
		conds = append(conds, fmt.Sprintf("p.code = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	orderBy := "days_remaining ASC, p.code"
	if filter.PolicyCode != "" {
		orderBy = "r.requested_at DESC"
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM service_requests r
		JOIN sla_policies p ON p.id = r.policy_id
		WHERE %s
	`, where)

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM service_requests r
		JOIN sla_policies p ON p.id = r.policy_id
		JOIN roles ro ON ro.id = r.role_id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, requestColumns, where, orderBy, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find request page: %w", err)
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// MonthlyTrends returns per-month breach aggregates over resolved requests
// for the last n months, newest month first.
func (r *RequestRepository) MonthlyTrends(ctx context.Context, months int) ([]model.TrendPoint, error) {
	query := `
		SELECT
			to_char(r.requested_at, 'YYYY-MM') AS period,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE r.sla_outcome = 'BREACHED') AS breached,
			(100.0 * COUNT(*) FILTER (WHERE r.sla_outcome = 'BREACHED')
				/ NULLIF(COUNT(*), 0))::float8 AS breach_rate_pct
		FROM service_requests r
		WHERE r.requested_at >= now() - make_interval(months => $1)
			AND r.sla_outcome IN ('MET', 'BREACHED')
		GROUP BY to_char(r.requested_at, 'YYYY-MM')
		ORDER BY period DESC
	`

	rows, err := r.pool.Query(ctx, query, months)
	if err != nil {
		return nil, fmt.Errorf("monthly trends: %w", err)
	}
	defer rows.Close()

	var trends []model.TrendPoint
	for rows.Next() {
		var t model.TrendPoint
		if err := rows.Scan(&t.Period, &t.TotalRequests, &t.Breached, &t.BreachRatePct); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trends: %w", err)
	}
	return trends, nil
}

// RoleStats returns per-role breach aggregates for the last n months, worst
// breach rate first.
func (r *RequestRepository) RoleStats(ctx context.Context, months int) ([]model.RoleStats, error) {
	query := `
		SELECT
			ro.name,
			COALESCE(ro.tech_block, ''),
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE r.sla_outcome = 'BREACHED') AS breached,
			(100.0 * COUNT(*) FILTER (WHERE r.sla_outcome = 'BREACHED')
				/ NULLIF(COUNT(*), 0))::float8 AS breach_rate_pct,
			AVG(COALESCE(r.resolution_days, 0))::float8 AS avg_days
		FROM service_requests r
		JOIN roles ro ON ro.id = r.role_id
		WHERE r.requested_at >= now() - make_interval(months => $1)
			AND r.sla_outcome IN ('MET', 'BREACHED')
		GROUP BY ro.name, ro.tech_block
		ORDER BY breach_rate_pct DESC
	`

	rows, err := r.pool.Query(ctx, query, months)
	if err != nil {
		return nil, fmt.Errorf("role stats: %w", err)
	}
	defer rows.Close()

	var stats []model.RoleStats
	for rows.Next() {
		var s model.RoleStats
		if err := rows.Scan(&s.RoleName, &s.TechBlock, &s.TotalRequests, &s.Breached, &s.BreachRatePct, &s.AvgDays); err != nil {
			return nil, fmt.Errorf("scan role stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role stats: %w", err)
	}
	return stats, nil
}

// PolicyStats returns per-policy breach aggregates, worst breach rate first.
func (r *RequestRepository) PolicyStats(ctx context.Context) ([]model.PolicyStats, error) {
	query := `
		SELECT
			p.code,
			p.description,
			p.threshold_days,
			p.request_type,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE r.sla_outcome = 'BREACHED') AS breached,
			(100.0 * COUNT(*) FILTER (WHERE r.sla_outcome = 'BREACHED')
				/ NULLIF(COUNT(*), 0))::float8 AS breach_rate_pct
		FROM service_requests r
		JOIN sla_policies p ON p.id = r.policy_id
		WHERE p.active
			AND r.sla_outcome IN ('MET', 'BREACHED')
		GROUP BY p.code, p.description, p.threshold_days, p.request_type
		ORDER BY breach_rate_pct DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("policy stats: %w", err)
	}
	defer rows.Close()

	var stats []model.PolicyStats
	for rows.Next() {
		var s model.PolicyStats
		if err := rows.Scan(&s.PolicyCode, &s.Description, &s.ThresholdDays, &s.RequestType, &s.TotalRequests, &s.Breached, &s.BreachRatePct); err != nil {
			return nil, fmt.Errorf("scan policy stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy stats: %w", err)
	}
	return stats, nil
}

// FilterOptions returns the active policies, roles and tech blocks available
// for list filtering.
func (r *RequestRepository) FilterOptions(ctx context.Context) (model.FilterOptions, error) {
	var opts model.FilterOptions

	policyRows, err := r.pool.Query(ctx, `
		SELECT p.code, p.description, p.threshold_days, p.request_type
		FROM sla_policies p
		WHERE p.active
		ORDER BY p.code
	`)
	if err != nil {
		return opts, fmt.Errorf("filter policies: %w", err)
	}
	defer policyRows.Close()

	for policyRows.Next() {
		var p model.PolicyOption
		if err := policyRows.Scan(&p.Code, &p.Description, &p.ThresholdDays, &p.RequestType); err != nil {
			return opts, fmt.Errorf("scan policy option: %w", err)
		}
		opts.Policies = append(opts.Policies, p)
	}
	if err := policyRows.Err(); err != nil {
		return opts, fmt.Errorf("iterate policy options: %w", err)
	}

	roleRows, err := r.pool.Query(ctx, `
		SELECT ro.id, ro.name, COALESCE(ro.tech_block, '')
		FROM roles ro
		WHERE ro.active
		ORDER BY ro.name
	`)
	if err != nil {
		return opts, fmt.Errorf("filter roles: %w", err)
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var ro model.RoleOption
		if err := roleRows.Scan(&ro.ID, &ro.Name, &ro.TechBlock); err != nil {
			return opts, fmt.Errorf("scan role option: %w", err)
		}
		opts.Roles = append(opts.Roles, ro)
	}
	if err := roleRows.Err(); err != nil {
		return opts, fmt.Errorf("iterate role options: %w", err)
	}

	blockRows, err := r.pool.Query(ctx, `
		SELECT DISTINCT tech_block
		FROM roles
		WHERE tech_block IS NOT NULL AND active
		ORDER BY tech_block
	`)
	if err != nil {
		return opts, fmt.Errorf("filter tech blocks: %w", err)
	}
	defer blockRows.Close()

	for blockRows.Next() {
		var block string
		if err := blockRows.Scan(&block); err != nil {
			return opts, fmt.Errorf("scan tech block: %w", err)
		}
		opts.TechBlocks = append(opts.TechBlocks, block)
	}
	if err := blockRows.Err(); err != nil {
		return opts, fmt.Errorf("iterate tech blocks: %w", err)
	}

	return opts, nil
}

// Ping reports whether the database is reachable.
func (r *RequestRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRequests(rows pgxRows) ([]model.ActiveRequest, error) {
	var requests []model.ActiveRequest
	for rows.Next() {
		var req model.ActiveRequest
		if err := rows.Scan(
			&req.ID,
			&req.ElapsedDays,
			&req.ThresholdDays,
			&req.RoleID,
			&req.PolicyCode,
			&req.RoleName,
			&req.TechBlock,
			&req.DaysRemaining,
			&req.Status,
		); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}
