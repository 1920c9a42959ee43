package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
)

// statsRepo computes locally what the managed backend exposes as named
// remote procedures, so dashboards behave identically against either driver.
type statsRepo struct {
	db *sql.DB
}

func (r *statsRepo) EndpointCounts(ctx context.Context, limit int) ([]domain.EndpointCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT endpoint, COUNT(*) AS cnt
		FROM api_logs
		GROUP BY endpoint
		ORDER BY cnt DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EndpointCount
	for rows.Next() {
		var ec domain.EndpointCount
		if err := rows.Scan(&ec.Endpoint, &ec.Count); err != nil {
			return nil, err
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

func (r *statsRepo) ToolUsageCounts(ctx context.Context, limit int) ([]domain.ToolUsageCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tool_name, COUNT(*) AS cnt
		FROM api_logs
		WHERE tool_name IS NOT NULL
		GROUP BY tool_name
		ORDER BY cnt DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ToolUsageCount
	for rows.Next() {
		var tc domain.ToolUsageCount
		if err := rows.Scan(&tc.ToolName, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (r *statsRepo) DailyRequestCounts(ctx context.Context, days int) ([]domain.DailyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', request_time) AS day, COUNT(*) AS cnt
		FROM api_logs
		WHERE request_time >= ?
		GROUP BY day
		ORDER BY day`,
		dayFloor(days),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyCount
	for rows.Next() {
		var dc domain.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *statsRepo) DailyErrorRates(ctx context.Context, days int) ([]domain.DailyErrorRate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', request_time) AS day,
		       ROUND(100.0 * SUM(CASE WHEN error_message IS NOT NULL THEN 1 ELSE 0 END) / COUNT(*), 1) AS rate
		FROM api_logs
		WHERE request_time >= ?
		GROUP BY day
		ORDER BY day`,
		dayFloor(days),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyErrorRate
	for rows.Next() {
		var er domain.DailyErrorRate
		if err := rows.Scan(&er.Date, &er.Rate); err != nil {
			return nil, err
		}
		out = append(out, er)
	}
	return out, rows.Err()
}

func (r *statsRepo) MostActiveUsers(ctx context.Context, limit int) ([]domain.ActiveUser, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.token_id, t.user_email, COUNT(*) AS cnt, MAX(l.request_time) AS last_active
		FROM api_logs l
		JOIN api_tokens t ON t.id = l.token_id
		GROUP BY l.token_id, t.user_email
		ORDER BY cnt DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActiveUser
	for rows.Next() {
		var au domain.ActiveUser
		if err := rows.Scan(&au.TokenID, &au.UserEmail, &au.RequestCount, &au.LastActive); err != nil {
			return nil, err
		}
		out = append(out, au)
	}
	return out, rows.Err()
}

func (r *statsRepo) UsageTotals(ctx context.Context) (domain.UsageTotals, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	week := today.AddDate(0, 0, -int(today.Weekday()))
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var totals domain.UsageTotals
	for _, q := range []struct {
		dst   *int64
		since *time.Time
	}{
		{&totals.Total, nil},
		{&totals.Today, &today},
		{&totals.ThisWeek, &week},
		{&totals.ThisMonth, &month},
	} {
		query := `SELECT COUNT(*) FROM api_logs`
		args := []any{}
		if q.since != nil {
			query += ` WHERE request_time >= ?`
			args = append(args, *q.since)
		}
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(q.dst); err != nil {
			return domain.UsageTotals{}, fmt.Errorf("usage totals: %w", err)
		}
	}
	return totals, nil
}

func (r *statsRepo) TokenTotals(ctx context.Context) (domain.TokenTotals, error) {
	var totals domain.TokenTotals
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_active = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_active = 0 THEN 1 ELSE 0 END), 0)
		FROM api_tokens`,
	).Scan(&totals.Total, &totals.Active, &totals.Revoked)
	if err != nil {
		return domain.TokenTotals{}, err
	}
	return totals, nil
}

func dayFloor(days int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(days - 1))
}
