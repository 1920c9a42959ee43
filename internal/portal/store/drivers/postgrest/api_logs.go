package postgrest

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type logsRepo struct {
	c *client
}

type apiLogRow struct {
	ID           string    `json:"id"`
	TokenID      string    `json:"token_id"`
	Endpoint     string    `json:"endpoint"`
	ToolName     *string   `json:"tool_name"`
	IPAddress    *string   `json:"ip_address"`
	UserAgent    *string   `json:"user_agent"`
	RequestTime  time.Time `json:"request_time"`
	ResponseTime *float64  `json:"response_time"`
	Status       *string   `json:"status"`
	ErrorMessage *string   `json:"error_message"`

	// Owner embedded via the foreign key on token_id.
	Token struct {
		UserEmail string `json:"user_email"`
	} `json:"api_tokens"`
}

func (r *logsRepo) ListRecent(ctx context.Context, limit, offset int) ([]domain.APILog, error) {
	filters := url.Values{}
	filters.Set("select", "*,api_tokens(user_email)")
	filters.Set("order", "request_time.desc")
	filters.Set("limit", strconv.Itoa(limit))
	filters.Set("offset", strconv.Itoa(offset))

	var rows []apiLogRow
	if err := r.c.get(ctx, "api_logs", filters, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.APILog, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.APILog{
			ID:           row.ID,
			TokenID:      row.TokenID,
			UserEmail:    row.Token.UserEmail,
			Endpoint:     row.Endpoint,
			ToolName:     deref(row.ToolName),
			IPAddress:    deref(row.IPAddress),
			UserAgent:    deref(row.UserAgent),
			RequestTime:  row.RequestTime,
			ResponseTime: row.ResponseTime,
			Status:       deref(row.Status),
			ErrorMessage: deref(row.ErrorMessage),
		})
	}
	return out, nil
}

var _ store.Logs = (*logsRepo)(nil)
