package sqlite

import (
	"context"
	"database/sql"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
)

type logsRepo struct {
	db *sql.DB
}

func (r *logsRepo) ListRecent(ctx context.Context, limit, offset int) ([]domain.APILog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.token_id, t.user_email, l.endpoint, l.tool_name, l.ip_address,
		       l.user_agent, l.request_time, l.response_time, l.status, l.error_message
		FROM api_logs l
		JOIN api_tokens t ON t.id = l.token_id
		ORDER BY l.request_time DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.APILog
	for rows.Next() {
		var (
			l                                   domain.APILog
			toolName, ipAddr, userAgent, status sql.NullString
			errorMessage                        sql.NullString
			responseTime                        sql.NullFloat64
		)
		err := rows.Scan(&l.ID, &l.TokenID, &l.UserEmail, &l.Endpoint, &toolName,
			&ipAddr, &userAgent, &l.RequestTime, &responseTime, &status, &errorMessage)
		if err != nil {
			return nil, err
		}
		l.ToolName = mapNullString(toolName)
		l.IPAddress = mapNullString(ipAddr)
		l.UserAgent = mapNullString(userAgent)
		l.Status = mapNullString(status)
		l.ErrorMessage = mapNullString(errorMessage)
		if responseTime.Valid {
			v := responseTime.Float64
			l.ResponseTime = &v
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
