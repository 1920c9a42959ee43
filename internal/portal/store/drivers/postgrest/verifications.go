package postgrest

import (
	"context"
	"net/url"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type verificationsRepo struct {
	c *client
}

type verificationRow struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Token        string     `json:"token"`
	InviteCodeID string     `json:"invite_code_id"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	VerifiedAt   *time.Time `json:"verified_at"`
}

func (r verificationRow) toDomain() domain.VerificationRequest {
	return domain.VerificationRequest{
		ID:           r.ID,
		Email:        r.Email,
		Token:        r.Token,
		InviteCodeID: r.InviteCodeID,
		IsVerified:   r.IsVerified,
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
		VerifiedAt:   r.VerifiedAt,
	}
}

func (r *verificationsRepo) Create(ctx context.Context, v domain.VerificationRequest) error {
	row := verificationRow{
		ID:           v.ID,
		Email:        v.Email,
		Token:        v.Token,
		InviteCodeID: v.InviteCodeID,
		IsVerified:   v.IsVerified,
		CreatedAt:    v.CreatedAt,
		ExpiresAt:    v.ExpiresAt,
		VerifiedAt:   v.VerifiedAt,
	}
	var rows []verificationRow
	if err := r.c.insert(ctx, "verification_requests", row, &rows); err != nil {
		return err
	}
	_, err := one(rows)
	return err
}

func (r *verificationsRepo) GetByToken(ctx context.Context, token string) (domain.VerificationRequest, error) {
	filters := url.Values{}
	filters.Set("token", "eq."+token)
	filters.Set("limit", "1")

	var rows []verificationRow
	if err := r.c.get(ctx, "verification_requests", filters, &rows); err != nil {
		return domain.VerificationRequest{}, err
	}
	row, err := one(rows)
	if err != nil {
		return domain.VerificationRequest{}, err
	}
	return row.toDomain(), nil
}

// Consume marks the request verified only while it is unverified and
// unexpired. The expiry bound lives in the filter itself so the check and
// the write are one backend round trip.
func (r *verificationsRepo) Consume(ctx context.Context, token string) (domain.VerificationRequest, error) {
	now := time.Now().UTC()
	filters := url.Values{}
	filters.Set("token", "eq."+token)
	filters.Set("is_verified", "eq.false")
	filters.Set("expires_at", "gt."+now.Format(time.RFC3339))

	patch := map[string]any{
		"is_verified": true,
		"verified_at": now,
	}
	var rows []verificationRow
	if err := r.c.update(ctx, "verification_requests", filters, patch, &rows); err != nil {
		return domain.VerificationRequest{}, err
	}
	row, err := one(rows)
	if err != nil {
		return domain.VerificationRequest{}, err
	}
	return row.toDomain(), nil
}

var _ store.Verifications = (*verificationsRepo)(nil)
