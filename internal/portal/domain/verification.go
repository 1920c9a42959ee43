package domain

import "time"

// VerificationRequest links an applicant email and an invite code to a
// time-boxed, single-use confirmation token delivered by email.
type VerificationRequest struct {
	ID           string
	Email        string
	Token        string
	InviteCodeID string
	IsVerified   bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
	VerifiedAt   *time.Time
}

// Expired reports whether the request's expiry has passed at the given time.
func (v VerificationRequest) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
