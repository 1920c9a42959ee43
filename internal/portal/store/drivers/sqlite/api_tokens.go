package sqlite

import (
	"context"
	"database/sql"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
)

type apiTokensRepo struct {
	db *sql.DB
}

func (r *apiTokensRepo) Create(ctx context.Context, t domain.APIToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_tokens (id, token, user_email, invite_code_id, created_at, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Token, t.UserEmail, mapStringNull(t.InviteCodeID),
		t.CreatedAt, mapOptionalTime(t.ExpiresAt), t.IsActive,
	)
	return mapConstraint(err)
}

func (r *apiTokensRepo) ListByEmail(ctx context.Context, email string) ([]domain.APIToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token, user_email, invite_code_id, created_at, expires_at, is_active
		FROM api_tokens
		WHERE user_email = ?
		ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

func (r *apiTokensRepo) List(ctx context.Context) ([]domain.APIToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token, user_email, invite_code_id, created_at, expires_at, is_active
		FROM api_tokens
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

// Deactivate has no is_active guard on purpose: revoking a revoked token is
// a no-op that still returns the row, which keeps revocation idempotent.
func (r *apiTokensRepo) Deactivate(ctx context.Context, id string) (domain.APIToken, error) {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE api_tokens SET is_active = 0 WHERE id = ?`,
		id,
	); err != nil {
		return domain.APIToken{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, token, user_email, invite_code_id, created_at, expires_at, is_active
		FROM api_tokens WHERE id = ?`,
		id,
	)
	return scanToken(row)
}

func collectTokens(rows *sql.Rows) ([]domain.APIToken, error) {
	defer rows.Close()

	var out []domain.APIToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanToken(row rowScanner) (domain.APIToken, error) {
	var (
		t            domain.APIToken
		inviteCodeID sql.NullString
		expiresAt    sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Token, &t.UserEmail, &inviteCodeID,
		&t.CreatedAt, &expiresAt, &t.IsActive)
	if err != nil {
		return domain.APIToken{}, mapNotFound(err)
	}
	t.InviteCodeID = mapNullString(inviteCodeID)
	t.ExpiresAt = mapNullTimePtr(expiresAt)
	return t, nil
}
