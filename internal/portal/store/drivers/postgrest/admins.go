package postgrest

import (
	"context"
	"net/url"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type adminsRepo struct {
	c *client
}

type adminRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *adminsRepo) Create(ctx context.Context, a domain.Admin) error {
	row := adminRow{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt}
	var rows []adminRow
	if err := r.c.insert(ctx, "admins", row, &rows); err != nil {
		return err
	}
	_, err := one(rows)
	return err
}

func (r *adminsRepo) IsAdmin(ctx context.Context, email string) (bool, error) {
	filters := url.Values{}
	filters.Set("email", "eq."+email)

	n, err := r.c.count(ctx, "admins", filters)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ store.Admins = (*adminsRepo)(nil)
