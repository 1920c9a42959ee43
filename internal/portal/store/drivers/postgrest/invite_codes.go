package postgrest

import (
	"context"
	"net/url"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type inviteCodesRepo struct {
	c *client
}

type inviteCodeRow struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	CreatedBy   string     `json:"created_by"`
	IsUsed      bool       `json:"is_used"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at"`
	UsedBy      *string    `json:"used_by"`
	Description *string    `json:"description"`
}

func (r inviteCodeRow) toDomain() domain.InviteCode {
	return domain.InviteCode{
		ID:          r.ID,
		Code:        r.Code,
		CreatedBy:   r.CreatedBy,
		IsUsed:      r.IsUsed,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
		UsedAt:      r.UsedAt,
		UsedBy:      deref(r.UsedBy),
		Description: deref(r.Description),
	}
}

func inviteCodeFromDomain(c domain.InviteCode) inviteCodeRow {
	return inviteCodeRow{
		ID:          c.ID,
		Code:        c.Code,
		CreatedBy:   c.CreatedBy,
		IsUsed:      c.IsUsed,
		CreatedAt:   c.CreatedAt,
		ExpiresAt:   c.ExpiresAt,
		UsedAt:      c.UsedAt,
		UsedBy:      optional(c.UsedBy),
		Description: optional(c.Description),
	}
}

func (r *inviteCodesRepo) Create(ctx context.Context, c domain.InviteCode) error {
	var rows []inviteCodeRow
	if err := r.c.insert(ctx, "invite_codes", inviteCodeFromDomain(c), &rows); err != nil {
		return err
	}
	_, err := one(rows)
	return err
}

func (r *inviteCodesRepo) GetActiveByCode(ctx context.Context, code string) (domain.InviteCode, error) {
	filters := url.Values{}
	filters.Set("code", "eq."+code)
	filters.Set("is_used", "eq.false")
	filters.Set("limit", "1")

	var rows []inviteCodeRow
	if err := r.c.get(ctx, "invite_codes", filters, &rows); err != nil {
		return domain.InviteCode{}, err
	}
	row, err := one(rows)
	if err != nil {
		return domain.InviteCode{}, err
	}
	return row.toDomain(), nil
}

// Consume flips is_used under a filter that only matches the still-unused
// row, so of two racing verifications exactly one gets the representation
// back and the other sees ErrNotFound.
func (r *inviteCodesRepo) Consume(ctx context.Context, id, usedBy string) (domain.InviteCode, error) {
	filters := url.Values{}
	filters.Set("id", "eq."+id)
	filters.Set("is_used", "eq.false")

	patch := map[string]any{
		"is_used": true,
		"used_at": time.Now().UTC(),
		"used_by": usedBy,
	}
	var rows []inviteCodeRow
	if err := r.c.update(ctx, "invite_codes", filters, patch, &rows); err != nil {
		return domain.InviteCode{}, err
	}
	row, err := one(rows)
	if err != nil {
		return domain.InviteCode{}, err
	}
	return row.toDomain(), nil
}

func (r *inviteCodesRepo) List(ctx context.Context) ([]domain.InviteCode, error) {
	filters := url.Values{}
	filters.Set("order", "created_at.desc")

	var rows []inviteCodeRow
	if err := r.c.get(ctx, "invite_codes", filters, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.InviteCode, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

var _ store.InviteCodes = (*inviteCodesRepo)(nil)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
