// Package mailer delivers the two transactional emails the portal sends:
// the verification link after an application and the API token after a
// completed verification. Delivery is pluggable; the function driver calls
// the managed backend's edge functions directly, the queue driver hands the
// message to a broker for the standalone mailer worker.
package mailer

import (
	"context"
	"errors"
	"time"
)

// ErrDelivery is a failure to hand the message to the delivery backend.
// Callers treat it as terminal for the current attempt; nothing is retried
// here.
var ErrDelivery = errors.New("mailer: delivery failed")

// VerificationEmail carries the confirmation link for a pending
// application.
type VerificationEmail struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Token     string `json:"verificationToken"`
	VerifyURL string `json:"verificationUrl"`
}

// TokenEmail carries a freshly issued API token to its owner.
type TokenEmail struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Mailer interface {
	SendVerification(ctx context.Context, msg VerificationEmail) error
	SendAPIToken(ctx context.Context, msg TokenEmail) error
}
