package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/mailer"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/pkg/cryptox"
	"github.com/ZhengkaiWang/sfin-admin/pkg/idx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

var (
	ErrValidation          = errors.New("invalid request")
	ErrInviteInvalid       = errors.New("invite code invalid, used, or expired")
	ErrVerificationInvalid = errors.New("verification link invalid or expired")
	ErrEmailDelivery       = errors.New("verification email could not be sent")
	// ErrStoreUnavailable hides transient backend faults behind a generic
	// retry-later answer. Raw backend errors never reach clients.
	ErrStoreUnavailable = errors.New("backend temporarily unavailable")
)

// Defaults for the pipeline's two lifetimes.
const (
	DefaultVerificationTTL = 24 * time.Hour
	DefaultTokenValidity   = 365 * 24 * time.Hour
)

// ApplyRequest is a token application submitted against an invite code.
// Name, Organization and Purpose are context for the verification email and
// the admin reviewing logs; only code and email drive the pipeline.
type ApplyRequest struct {
	Code         string
	Email        string
	Name         string
	Organization string
	Purpose      string
}

// VerificationService runs the application pipeline: invite validation,
// email confirmation, and (on verify) token minting.
type VerificationService struct {
	Store  store.Store
	Mailer mailer.Mailer
	Tokens *TokenService

	// PublicURL is the externally reachable base used to build verification
	// links, e.g. https://portal.example.com.
	PublicURL string

	// VerificationTTL bounds how long a verification link stays usable.
	VerificationTTL time.Duration

	// TokenValidity is the lifetime of tokens minted on verification.
	TokenValidity time.Duration
}

// Apply validates the invite code, records a pending verification request
// and emails the confirmation link. The verification token never appears in
// the return value; it only travels by email.
func (s *VerificationService) Apply(ctx context.Context, req ApplyRequest) error {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	req.Code = strings.TrimSpace(req.Code)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Code == "" {
		return fmt.Errorf("%w: invite code is required", ErrValidation)
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	}

	// 2. Look up the invite code. Used and unknown codes are
	// indistinguishable to the caller.
	code, err := s.Store.InviteCodes().GetActiveByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("application with invalid invite code",
				slog.String("email", req.Email),
			)
			return ErrInviteInvalid
		}
		log.Error("failed to look up invite code", slog.Any("error", err))
		return mapStoreErr(err)
	}

	// 3. Expiry is checked here as well as at consumption, so an expired
	// code fails fast even when the store filter only excludes used ones.
	if code.Expired(time.Now().UTC()) {
		log.Warn("application with expired invite code",
			slog.String("email", req.Email),
			slog.String("invite_code_id", code.ID),
		)
		return ErrInviteInvalid
	}

	// 4. Generate the verification token and persist the pending request.
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate verification token", slog.Any("error", err))
		return err
	}

	now := time.Now().UTC()
	v := domain.VerificationRequest{
		ID:           idx.New().String(),
		Email:        req.Email,
		Token:        token,
		InviteCodeID: code.ID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.verificationTTL()),
	}
	if err := s.Store.Verifications().Create(ctx, v); err != nil {
		log.Error("failed to persist verification request",
			slog.String("verification_id", v.ID),
			slog.Any("error", err),
		)
		return mapStoreErr(err)
	}

	// 5. Send the confirmation link. The persisted request stays valid on
	// delivery failure; the applicant can simply apply again and unused
	// requests expire on their own.
	err = s.Mailer.SendVerification(ctx, mailer.VerificationEmail{
		Email:     req.Email,
		Name:      req.Name,
		Token:     token,
		VerifyURL: s.verifyURL(token),
	})
	if err != nil {
		log.Error("failed to send verification email",
			slog.String("verification_id", v.ID),
			slog.Any("error", err),
		)
		return ErrEmailDelivery
	}

	log.Info("verification email sent",
		slog.String("verification_id", v.ID),
		slog.String("invite_code_id", code.ID),
		slog.String("token_fingerprint", cryptox.FingerprintToken(token)),
	)
	return nil
}

// Verify consumes a verification token and mints the API token. Both the
// verification request and the invite code are consumed with single-use
// conditional updates, so a replayed link or a raced invite code fails
// without minting anything.
func (s *VerificationService) Verify(ctx context.Context, token string) (domain.APIToken, error) {
	log := slogx.FromContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return domain.APIToken{}, fmt.Errorf("%w: token is required", ErrValidation)
	}

	// 1. Consume the verification request. A second attempt with the same
	// token fails here and never reaches minting.
	v, err := s.Store.Verifications().Consume(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("verification with invalid or expired token",
				slog.String("token_fingerprint", cryptox.FingerprintToken(token)),
			)
			return domain.APIToken{}, ErrVerificationInvalid
		}
		log.Error("failed to consume verification request", slog.Any("error", err))
		return domain.APIToken{}, mapStoreErr(err)
	}

	// 2. Consume the invite code. Losing the race to a concurrent
	// verification of the same code means no token.
	code, err := s.Store.InviteCodes().Consume(ctx, v.InviteCodeID, v.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("invite code already consumed",
				slog.String("invite_code_id", v.InviteCodeID),
				slog.String("email", v.Email),
			)
			return domain.APIToken{}, ErrInviteInvalid
		}
		log.Error("failed to consume invite code",
			slog.String("invite_code_id", v.InviteCodeID),
			slog.Any("error", err),
		)
		return domain.APIToken{}, mapStoreErr(err)
	}

	// 3. Mint the API token.
	apiToken, err := s.Tokens.Issue(ctx, v.Email, code.ID, s.tokenValidity())
	if err != nil {
		return domain.APIToken{}, err
	}

	// 4. Email the token. Delivery failure is logged only; the token is
	// already minted and returned for synchronous display.
	if apiToken.ExpiresAt != nil {
		err = s.Mailer.SendAPIToken(ctx, mailer.TokenEmail{
			Email:     v.Email,
			Token:     apiToken.Token,
			ExpiresAt: *apiToken.ExpiresAt,
		})
		if err != nil {
			log.Error("failed to send token email",
				slog.String("token_id", apiToken.ID),
				slog.Any("error", err),
			)
		}
	}

	log.Info("verification completed",
		slog.String("verification_id", v.ID),
		slog.String("invite_code_id", code.ID),
		slog.String("token_id", apiToken.ID),
	)
	return apiToken, nil
}

// verifyURL builds the link included in verification emails.
func (s *VerificationService) verifyURL(token string) string {
	return strings.TrimRight(s.PublicURL, "/") + "/v1/verify?token=" + url.QueryEscape(token)
}

func (s *VerificationService) verificationTTL() time.Duration {
	if s.VerificationTTL > 0 {
		return s.VerificationTTL
	}
	return DefaultVerificationTTL
}

func (s *VerificationService) tokenValidity() time.Duration {
	if s.TokenValidity > 0 {
		return s.TokenValidity
	}
	return DefaultTokenValidity
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return ErrStoreUnavailable
	}
	return err
}
