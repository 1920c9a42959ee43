package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type inviteCodesRepo struct {
	db *sql.DB
}

func (r *inviteCodesRepo) Create(ctx context.Context, c domain.InviteCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invite_codes (id, code, created_by, is_used, created_at, expires_at, used_at, used_by, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.CreatedBy, c.IsUsed, c.CreatedAt,
		mapOptionalTime(c.ExpiresAt), mapOptionalTime(c.UsedAt),
		mapStringNull(c.UsedBy), mapStringNull(c.Description),
	)
	return mapConstraint(err)
}

func (r *inviteCodesRepo) GetActiveByCode(ctx context.Context, code string) (domain.InviteCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, created_by, is_used, created_at, expires_at, used_at, used_by, description
		FROM invite_codes
		WHERE code = ? AND is_used = 0`,
		code,
	)
	return scanInviteCode(row)
}

func (r *inviteCodesRepo) Consume(ctx context.Context, id, usedBy string) (domain.InviteCode, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE invite_codes
		SET is_used = 1, used_at = ?, used_by = ?
		WHERE id = ? AND is_used = 0
		  AND (expires_at IS NULL OR expires_at > ?)`,
		now, usedBy, id, now,
	)
	if err != nil {
		return domain.InviteCode{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.InviteCode{}, err
	} else if n == 0 {
		return domain.InviteCode{}, store.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, created_by, is_used, created_at, expires_at, used_at, used_by, description
		FROM invite_codes WHERE id = ?`,
		id,
	)
	return scanInviteCode(row)
}

func (r *inviteCodesRepo) List(ctx context.Context) ([]domain.InviteCode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, created_by, is_used, created_at, expires_at, used_at, used_by, description
		FROM invite_codes
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InviteCode
	for rows.Next() {
		c, err := scanInviteCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInviteCode(row rowScanner) (domain.InviteCode, error) {
	var (
		c                   domain.InviteCode
		expiresAt, usedAt   sql.NullTime
		usedBy, description sql.NullString
	)
	err := row.Scan(&c.ID, &c.Code, &c.CreatedBy, &c.IsUsed, &c.CreatedAt,
		&expiresAt, &usedAt, &usedBy, &description)
	if err != nil {
		return domain.InviteCode{}, mapNotFound(err)
	}
	c.ExpiresAt = mapNullTimePtr(expiresAt)
	c.UsedAt = mapNullTimePtr(usedAt)
	c.UsedBy = mapNullString(usedBy)
	c.Description = mapNullString(description)
	return c, nil
}

func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}
