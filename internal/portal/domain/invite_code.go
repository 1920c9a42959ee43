package domain

import "time"

// InviteCode is a single-use credential gating who may apply for an API
// token. Codes are minted by admins and consumed exactly once when a
// verification completes.
type InviteCode struct {
	ID          string
	Code        string
	CreatedBy   string
	IsUsed      bool
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	UsedAt      *time.Time
	UsedBy      string // email of the applicant, empty until used
	Description string
}

// Expired reports whether the code's expiry has passed at the given time.
// Codes without an expiry never expire.
func (c InviteCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
