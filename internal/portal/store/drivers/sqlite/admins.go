package sqlite

import (
	"context"
	"database/sql"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
)

type adminsRepo struct {
	db *sql.DB
}

func (r *adminsRepo) Create(ctx context.Context, a domain.Admin) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, created_at) VALUES (?, ?, ?)`,
		a.ID, a.Email, a.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *adminsRepo) IsAdmin(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admins WHERE email = ?`, email,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
