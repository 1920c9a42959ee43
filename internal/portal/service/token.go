package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/pkg/cryptox"
	"github.com/ZhengkaiWang/sfin-admin/pkg/idx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenFilter narrows a token listing. Zero values mean no filtering.
type TokenFilter struct {
	Email  string
	Status string // domain.TokenStatusActive or domain.TokenStatusRevoked
}

// TokenService owns the API token lifecycle. Tokens are minted by the
// verification pipeline or directly by an admin, listed by their owner, and
// revoked but never reactivated.
type TokenService struct {
	Store store.Store
}

// Issue mints a new token for an email. inviteCodeID records provenance and
// is empty for admin-issued tokens; validity <= 0 means the token never
// expires.
func (s *TokenService) Issue(ctx context.Context, email, inviteCodeID string, validity time.Duration) (domain.APIToken, error) {
	log := slogx.FromContext(ctx)

	// 1. Generate the secret.
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate api token", slog.Any("error", err))
		return domain.APIToken{}, err
	}

	now := time.Now().UTC()
	token := domain.APIToken{
		ID:           idx.New().String(),
		Token:        secret,
		UserEmail:    email,
		InviteCodeID: inviteCodeID,
		CreatedAt:    now,
		IsActive:     true,
	}
	if validity > 0 {
		expires := now.Add(validity)
		token.ExpiresAt = &expires
	}

	// 2. Persist.
	if err := s.Store.APITokens().Create(ctx, token); err != nil {
		log.Error("failed to persist api token",
			slog.String("token_id", token.ID),
			slog.Any("error", err),
		)
		return domain.APIToken{}, mapStoreErr(err)
	}

	log.Info("api token issued",
		slog.String("token_id", token.ID),
		slog.String("email", email),
		slog.String("token_fingerprint", cryptox.FingerprintToken(secret)),
	)
	return token, nil
}

// Revoke deactivates a token. Revoking an already-revoked token succeeds
// and returns the same state.
func (s *TokenService) Revoke(ctx context.Context, id string) (domain.APIToken, error) {
	log := slogx.FromContext(ctx)

	token, err := s.Store.APITokens().Deactivate(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.APIToken{}, ErrTokenNotFound
		}
		log.Error("failed to revoke api token",
			slog.String("token_id", id),
			slog.Any("error", err),
		)
		return domain.APIToken{}, mapStoreErr(err)
	}

	log.Info("api token revoked", slog.String("token_id", token.ID))
	return token, nil
}

// List returns tokens newest first, optionally narrowed by owner email and
// status. Every call round-trips to the store; listings are not cached.
func (s *TokenService) List(ctx context.Context, f TokenFilter) ([]domain.APIToken, error) {
	var (
		tokens []domain.APIToken
		err    error
	)
	if f.Email != "" {
		tokens, err = s.Store.APITokens().ListByEmail(ctx, f.Email)
	} else {
		tokens, err = s.Store.APITokens().List(ctx)
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if f.Status == "" {
		return tokens, nil
	}
	filtered := tokens[:0]
	for _, t := range tokens {
		if t.Status() == f.Status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}
