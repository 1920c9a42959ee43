package http

import (
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
)

// Wire representations of the domain entities. The raw token value only
// appears where the caller is its owner (verify response, owner listing,
// admin listing).

type TokenResponse struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	UserEmail    string     `json:"user_email"`
	InviteCodeID string     `json:"invite_code_id,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func newTokenResponse(t domain.APIToken) TokenResponse {
	return TokenResponse{
		ID:           t.ID,
		Token:        t.Token,
		UserEmail:    t.UserEmail,
		InviteCodeID: t.InviteCodeID,
		Status:       t.Status(),
		CreatedAt:    t.CreatedAt,
		ExpiresAt:    t.ExpiresAt,
	}
}

func newTokenListResponse(tokens []domain.APIToken) []TokenResponse {
	out := make([]TokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, newTokenResponse(t))
	}
	return out
}

type InviteCodeResponse struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	CreatedBy   string     `json:"created_by"`
	IsUsed      bool       `json:"is_used"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	UsedBy      string     `json:"used_by,omitempty"`
	Description string     `json:"description,omitempty"`
}

func newInviteCodeResponse(c domain.InviteCode) InviteCodeResponse {
	return InviteCodeResponse{
		ID:          c.ID,
		Code:        c.Code,
		CreatedBy:   c.CreatedBy,
		IsUsed:      c.IsUsed,
		CreatedAt:   c.CreatedAt,
		ExpiresAt:   c.ExpiresAt,
		UsedAt:      c.UsedAt,
		UsedBy:      c.UsedBy,
		Description: c.Description,
	}
}

type APILogResponse struct {
	ID           string    `json:"id"`
	TokenID      string    `json:"token_id"`
	UserEmail    string    `json:"user_email"`
	Endpoint     string    `json:"endpoint"`
	ToolName     string    `json:"tool_name,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	RequestTime  time.Time `json:"request_time"`
	ResponseTime *float64  `json:"response_time,omitempty"`
	Status       string    `json:"status,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func newAPILogResponse(l domain.APILog) APILogResponse {
	return APILogResponse{
		ID:           l.ID,
		TokenID:      l.TokenID,
		UserEmail:    l.UserEmail,
		Endpoint:     l.Endpoint,
		ToolName:     l.ToolName,
		IPAddress:    l.IPAddress,
		UserAgent:    l.UserAgent,
		RequestTime:  l.RequestTime,
		ResponseTime: l.ResponseTime,
		Status:       l.Status,
		ErrorMessage: l.ErrorMessage,
	}
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
