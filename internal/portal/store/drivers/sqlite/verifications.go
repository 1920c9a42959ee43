package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type verificationsRepo struct {
	db *sql.DB
}

func (r *verificationsRepo) Create(ctx context.Context, v domain.VerificationRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_requests (id, email, token, invite_code_id, is_verified, created_at, expires_at, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Email, v.Token, v.InviteCodeID, v.IsVerified, v.CreatedAt,
		v.ExpiresAt, mapOptionalTime(v.VerifiedAt),
	)
	return mapConstraint(err)
}

func (r *verificationsRepo) GetByToken(ctx context.Context, token string) (domain.VerificationRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, token, invite_code_id, is_verified, created_at, expires_at, verified_at
		FROM verification_requests
		WHERE token = ?`,
		token,
	)
	return scanVerification(row)
}

// Consume is the single-use guard for verification links: the conditional
// update succeeds at most once per token, so a replayed link cannot mint a
// second API token.
func (r *verificationsRepo) Consume(ctx context.Context, token string) (domain.VerificationRequest, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_requests
		SET is_verified = 1, verified_at = ?
		WHERE token = ? AND is_verified = 0 AND expires_at > ?`,
		now, token, now,
	)
	if err != nil {
		return domain.VerificationRequest{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.VerificationRequest{}, err
	} else if n == 0 {
		return domain.VerificationRequest{}, store.ErrNotFound
	}

	return r.GetByToken(ctx, token)
}

func scanVerification(row rowScanner) (domain.VerificationRequest, error) {
	var (
		v          domain.VerificationRequest
		verifiedAt sql.NullTime
	)
	err := row.Scan(&v.ID, &v.Email, &v.Token, &v.InviteCodeID, &v.IsVerified,
		&v.CreatedAt, &v.ExpiresAt, &verifiedAt)
	if err != nil {
		return domain.VerificationRequest{}, mapNotFound(err)
	}
	v.VerifiedAt = mapNullTimePtr(verifiedAt)
	return v, nil
}
