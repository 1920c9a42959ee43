package postgrest

import (
	"context"
	"net/url"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

// statsRepo calls the backend's stored procedures, which do the grouping
// server-side over the full log table.
type statsRepo struct {
	c *client
}

func (r *statsRepo) EndpointCounts(ctx context.Context, limit int) ([]domain.EndpointCount, error) {
	var rows []struct {
		Endpoint string `json:"endpoint"`
		Count    int64  `json:"count"`
	}
	err := r.c.rpc(ctx, "get_endpoint_counts", map[string]any{"limit_count": limit}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.EndpointCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.EndpointCount{Endpoint: row.Endpoint, Count: row.Count})
	}
	return out, nil
}

func (r *statsRepo) ToolUsageCounts(ctx context.Context, limit int) ([]domain.ToolUsageCount, error) {
	var rows []struct {
		ToolName string `json:"tool_name"`
		Count    int64  `json:"count"`
	}
	err := r.c.rpc(ctx, "get_tool_usage_counts", map[string]any{"limit_count": limit}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ToolUsageCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ToolUsageCount{ToolName: row.ToolName, Count: row.Count})
	}
	return out, nil
}

func (r *statsRepo) DailyRequestCounts(ctx context.Context, days int) ([]domain.DailyCount, error) {
	var rows []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}
	err := r.c.rpc(ctx, "get_daily_requests", map[string]any{"days_count": days}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DailyCount{Date: row.Date, Count: row.Count})
	}
	return out, nil
}

func (r *statsRepo) DailyErrorRates(ctx context.Context, days int) ([]domain.DailyErrorRate, error) {
	var rows []struct {
		Date string  `json:"date"`
		Rate float64 `json:"error_rate"`
	}
	err := r.c.rpc(ctx, "get_daily_error_rates", map[string]any{"days_count": days}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyErrorRate, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DailyErrorRate{Date: row.Date, Rate: row.Rate})
	}
	return out, nil
}

func (r *statsRepo) MostActiveUsers(ctx context.Context, limit int) ([]domain.ActiveUser, error) {
	var rows []struct {
		TokenID      string    `json:"token_id"`
		UserEmail    string    `json:"user_email"`
		RequestCount int64     `json:"request_count"`
		LastActive   time.Time `json:"last_active"`
	}
	err := r.c.rpc(ctx, "get_active_users", map[string]any{"limit_count": limit}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ActiveUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ActiveUser{
			TokenID:      row.TokenID,
			UserEmail:    row.UserEmail,
			RequestCount: row.RequestCount,
			LastActive:   row.LastActive,
		})
	}
	return out, nil
}

// UsageTotals issues four exact-count HEAD requests instead of pulling log
// rows over the wire.
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
		filters := url.Values{}
		if q.since != nil {
			filters.Set("request_time", "gte."+q.since.Format(time.RFC3339))
		}
		n, err := r.c.count(ctx, "api_logs", filters)
		if err != nil {
			return domain.UsageTotals{}, err
		}
		*q.dst = n
	}
	return totals, nil
}

func (r *statsRepo) TokenTotals(ctx context.Context) (domain.TokenTotals, error) {
	total, err := r.c.count(ctx, "api_tokens", nil)
	if err != nil {
		return domain.TokenTotals{}, err
	}

	filters := url.Values{}
	filters.Set("is_active", "eq.true")
	active, err := r.c.count(ctx, "api_tokens", filters)
	if err != nil {
		return domain.TokenTotals{}, err
	}

	return domain.TokenTotals{
		Total:   total,
		Active:  active,
		Revoked: total - active,
	}, nil
}

var _ store.Stats = (*statsRepo)(nil)
