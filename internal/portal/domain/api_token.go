package domain

import "time"

// Token status filter values used by listings.
const (
	TokenStatusActive  = "active"
	TokenStatusRevoked = "revoked"
)

// APIToken is the long-lived secret string granting access to the SFIN
// query service. The owner is identified solely by email; there is no
// account entity on this side.
type APIToken struct {
	ID           string
	Token        string
	UserEmail    string
	InviteCodeID string // provenance link, empty for admin-issued tokens
	CreatedAt    time.Time
	ExpiresAt    *time.Time
	IsActive     bool
}

// Status returns the listing status string for the token.
func (t APIToken) Status() string {
	if t.IsActive {
		return TokenStatusActive
	}
	return TokenStatusRevoked
}
