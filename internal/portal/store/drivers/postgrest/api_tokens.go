package postgrest

import (
	"context"
	"net/url"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type apiTokensRepo struct {
	c *client
}

type apiTokenRow struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	UserEmail    string     `json:"user_email"`
	InviteCodeID *string    `json:"invite_code_id"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	IsActive     bool       `json:"is_active"`
}

func (r apiTokenRow) toDomain() domain.APIToken {
	return domain.APIToken{
		ID:           r.ID,
		Token:        r.Token,
		UserEmail:    r.UserEmail,
		InviteCodeID: deref(r.InviteCodeID),
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
		IsActive:     r.IsActive,
	}
}

func (r *apiTokensRepo) Create(ctx context.Context, t domain.APIToken) error {
	row := apiTokenRow{
		ID:           t.ID,
		Token:        t.Token,
		UserEmail:    t.UserEmail,
		InviteCodeID: optional(t.InviteCodeID),
		CreatedAt:    t.CreatedAt,
		ExpiresAt:    t.ExpiresAt,
		IsActive:     t.IsActive,
	}
	var rows []apiTokenRow
	if err := r.c.insert(ctx, "api_tokens", row, &rows); err != nil {
		return err
	}
	_, err := one(rows)
	return err
}

func (r *apiTokensRepo) ListByEmail(ctx context.Context, email string) ([]domain.APIToken, error) {
	filters := url.Values{}
	filters.Set("user_email", "eq."+email)
	filters.Set("order", "created_at.desc")
	return r.list(ctx, filters)
}

func (r *apiTokensRepo) List(ctx context.Context) ([]domain.APIToken, error) {
	filters := url.Values{}
	filters.Set("order", "created_at.desc")
	return r.list(ctx, filters)
}

func (r *apiTokensRepo) list(ctx context.Context, filters url.Values) ([]domain.APIToken, error) {
	var rows []apiTokenRow
	if err := r.c.get(ctx, "api_tokens", filters, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.APIToken, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Deactivate patches by id alone, without an is_active filter. Revoking an
// already-revoked token matches the row again and returns the same state,
// keeping revocation idempotent.
func (r *apiTokensRepo) Deactivate(ctx context.Context, id string) (domain.APIToken, error) {
	filters := url.Values{}
	filters.Set("id", "eq."+id)

	patch := map[string]any{"is_active": false}
	var rows []apiTokenRow
	if err := r.c.update(ctx, "api_tokens", filters, patch, &rows); err != nil {
		return domain.APIToken{}, err
	}
	row, err := one(rows)
	if err != nil {
		return domain.APIToken{}, err
	}
	return row.toDomain(), nil
}

var _ store.APITokens = (*apiTokensRepo)(nil)
