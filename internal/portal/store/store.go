package store

import (
	"context"
	"errors"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrPermissionDenied means the backend rejected the caller's store-level
	// credentials (401/403). Terminal for the current user action.
	ErrPermissionDenied = errors.New("store: permission denied")
	// ErrUnavailable is a transient backend or network fault. Callers surface
	// a generic retry-later message; nothing is retried automatically.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Store is the root data access interface over the managed credential
// backend. Concrete drivers (postgrest, sqlite) implement it. The backend
// offers no cross-row transactions, so the state transitions that must be
// race-free are expressed as single-row conditional updates (Consume
// operations) rather than read-then-write sequences.
type Store interface {
	InviteCodes() InviteCodes
	Verifications() Verifications
	APITokens() APITokens
	Admins() Admins
	Logs() Logs
	Stats() Stats

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

type InviteCodes interface {
	// Create writes a new invite code. Fails with ErrAlreadyExists when the
	// code string collides.
	Create(ctx context.Context, c domain.InviteCode) error

	// GetActiveByCode returns an unused invite code by its literal code
	// string. Used or unknown codes yield ErrNotFound; expiry is checked by
	// the caller since codes without expiry are common.
	GetActiveByCode(ctx context.Context, code string) (domain.InviteCode, error)

	// Consume atomically marks the code used (is_used, used_at, used_by) only
	// if it is still unused, returning the updated row. A code already
	// consumed by a concurrent verification yields ErrNotFound.
	Consume(ctx context.Context, id, usedBy string) (domain.InviteCode, error)

	// List returns all invite codes, newest first.
	List(ctx context.Context) ([]domain.InviteCode, error)
}

type Verifications interface {
	// Create persists a pending verification request (is_verified=false).
	// Fails with ErrAlreadyExists on a token collision.
	Create(ctx context.Context, v domain.VerificationRequest) error

	// GetByToken returns a verification request by its token value.
	GetByToken(ctx context.Context, token string) (domain.VerificationRequest, error)

	// Consume atomically marks the request verified (is_verified,
	// verified_at) only if it is unverified and unexpired, returning the
	// updated row. Expired, already-verified, or unknown tokens yield
	// ErrNotFound, which makes a second verify attempt with the same token
	// fail without minting anything.
	Consume(ctx context.Context, token string) (domain.VerificationRequest, error)
}

type APITokens interface {
	// Create persists a freshly minted token record.
	Create(ctx context.Context, t domain.APIToken) error

	// ListByEmail returns the tokens owned by an email, newest first.
	ListByEmail(ctx context.Context, email string) ([]domain.APIToken, error)

	// List returns all tokens, newest first (admin listing).
	List(ctx context.Context) ([]domain.APIToken, error)

	// Deactivate sets is_active=false and returns the updated row. It is
	// idempotent: deactivating an already-revoked token succeeds and returns
	// the same state.
	Deactivate(ctx context.Context, id string) (domain.APIToken, error)
}

type Admins interface {
	// Create adds an email to the admin set.
	Create(ctx context.Context, a domain.Admin) error

	// IsAdmin reports whether the email has a row in the admin set.
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type Logs interface {
	// ListRecent returns request log rows, newest first, joined with the
	// owning token's email. Read-only; the portal never writes logs.
	ListRecent(ctx context.Context, limit, offset int) ([]domain.APILog, error)
}

// Stats exposes the backend's pre-aggregation procedures. Each call maps to
// one named remote procedure (or its SQL equivalent in the sqlite driver).
type Stats interface {
	EndpointCounts(ctx context.Context, limit int) ([]domain.EndpointCount, error)
	ToolUsageCounts(ctx context.Context, limit int) ([]domain.ToolUsageCount, error)
	DailyRequestCounts(ctx context.Context, days int) ([]domain.DailyCount, error)
	DailyErrorRates(ctx context.Context, days int) ([]domain.DailyErrorRate, error)
	MostActiveUsers(ctx context.Context, limit int) ([]domain.ActiveUser, error)
	UsageTotals(ctx context.Context) (domain.UsageTotals, error)
	TokenTotals(ctx context.Context) (domain.TokenTotals, error)
}
