package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZhengkaiWang/sfin-admin/internal/mailer"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store/drivers/sqlite"
	"github.com/ZhengkaiWang/sfin-admin/pkg/idx"
)

type fakeMailer struct {
	verifications []mailer.VerificationEmail
	tokens        []mailer.TokenEmail
	failNext      error
}

func (f *fakeMailer) SendVerification(_ context.Context, msg mailer.VerificationEmail) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.verifications = append(f.verifications, msg)
	return nil
}

func (f *fakeMailer) SendAPIToken(_ context.Context, msg mailer.TokenEmail) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.tokens = append(f.tokens, msg)
	return nil
}

type testEnv struct {
	store  *sqlite.Store
	mail   *fakeMailer
	verify *VerificationService
	tokens *TokenService
	admin  *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mail := &fakeMailer{}
	tokens := &TokenService{Store: st}
	return &testEnv{
		store:  st,
		mail:   mail,
		tokens: tokens,
		admin:  &AdminService{Store: st},
		verify: &VerificationService{
			Store:     st,
			Mailer:    mail,
			Tokens:    tokens,
			PublicURL: "https://portal.example.com",
		},
	}
}

func (e *testEnv) mintInvite(t *testing.T, expiresAt *time.Time) domain.InviteCode {
	t.Helper()

	code, err := e.admin.MintInvite(context.Background(), "admin@example.com", "test batch", expiresAt)
	require.NoError(t, err)
	return code
}

func TestApplySendsVerificationEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.mintInvite(t, nil)

	err := env.verify.Apply(ctx, ApplyRequest{
		Code:  code.Code,
		Email: "Alice@Example.com",
		Name:  "Alice",
	})
	require.NoError(t, err)

	require.Len(t, env.mail.verifications, 1)
	sent := env.mail.verifications[0]
	require.Equal(t, "alice@example.com", sent.Email)
	require.NotEmpty(t, sent.Token)
	require.Contains(t, sent.VerifyURL, "https://portal.example.com/v1/verify?token=")
}

func TestApplyRejectsUnknownCode(t *testing.T) {
	env := newTestEnv(t)

	err := env.verify.Apply(context.Background(), ApplyRequest{
		Code:  "NOSUCHCODE99",
		Email: "alice@example.com",
	})
	require.ErrorIs(t, err, ErrInviteInvalid)
	require.Empty(t, env.mail.verifications)
}

func TestApplyRejectsUsedCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.mintInvite(t, nil)

	_, err := env.store.InviteCodes().Consume(ctx, code.ID, "someone@example.com")
	require.NoError(t, err)

	err = env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"})
	require.ErrorIs(t, err, ErrInviteInvalid)
}

func TestApplyRejectsExpiredCodeEvenIfUnused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Seed directly: MintInvite refuses past expiries.
	past := time.Now().UTC().Add(-time.Hour)
	code := domain.InviteCode{
		ID:        idx.New().String(),
		Code:      "EXPIREDCODE2",
		CreatedBy: "admin@example.com",
		CreatedAt: past.Add(-time.Hour),
		ExpiresAt: &past,
	}
	require.NoError(t, env.store.InviteCodes().Create(ctx, code))

	err := env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"})
	require.ErrorIs(t, err, ErrInviteInvalid)
}

func TestApplyValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.verify.Apply(ctx, ApplyRequest{Email: "alice@example.com"})
	require.ErrorIs(t, err, ErrValidation)

	err = env.verify.Apply(ctx, ApplyRequest{Code: "SOMECODE", Email: "not-an-email"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestApplyKeepsRequestOnDeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.mintInvite(t, nil)

	env.mail.failNext = mailer.ErrDelivery
	err := env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"})
	require.ErrorIs(t, err, ErrEmailDelivery)

	// A second application succeeds; the stranded request just expires.
	err = env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, env.mail.verifications, 1)
}

func TestVerifyMintsTokenAndConsumesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.mintInvite(t, nil)

	require.NoError(t, env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"}))
	verificationToken := env.mail.verifications[0].Token

	token, err := env.verify.Verify(ctx, verificationToken)
	require.NoError(t, err)
	require.True(t, token.IsActive)
	require.Equal(t, "alice@example.com", token.UserEmail)
	require.Equal(t, code.ID, token.InviteCodeID)
	require.NotNil(t, token.ExpiresAt)
	require.WithinDuration(t, time.Now().Add(DefaultTokenValidity), *token.ExpiresAt, time.Minute)

	// The code is consumed and attributed.
	_, err = env.store.InviteCodes().GetActiveByCode(ctx, code.Code)
	require.ErrorIs(t, err, store.ErrNotFound)

	// The token email went out.
	require.Len(t, env.mail.tokens, 1)
	require.Equal(t, token.Token, env.mail.tokens[0].Token)
}

func TestVerifyIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.mintInvite(t, nil)

	require.NoError(t, env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"}))
	verificationToken := env.mail.verifications[0].Token

	_, err := env.verify.Verify(ctx, verificationToken)
	require.NoError(t, err)

	// Replaying the link fails and mints nothing.
	_, err = env.verify.Verify(ctx, verificationToken)
	require.ErrorIs(t, err, ErrVerificationInvalid)

	tokens, err := env.tokens.List(ctx, TokenFilter{Email: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.verify.Verify(context.Background(), "bogus-token")
	require.ErrorIs(t, err, ErrVerificationInvalid)
}

func TestVerifyFailsWhenCodeLostRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.mintInvite(t, nil)

	require.NoError(t, env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"}))
	verificationToken := env.mail.verifications[0].Token

	// Another verification consumed the code first.
	_, err := env.store.InviteCodes().Consume(ctx, code.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = env.verify.Verify(ctx, verificationToken)
	require.ErrorIs(t, err, ErrInviteInvalid)

	tokens, err := env.tokens.List(ctx, TokenFilter{Email: "alice@example.com"})
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestVerifyReturnsTokenWhenTokenEmailFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.mintInvite(t, nil)

	require.NoError(t, env.verify.Apply(ctx, ApplyRequest{Code: code.Code, Email: "alice@example.com"}))
	verificationToken := env.mail.verifications[0].Token

	env.mail.failNext = errors.New("smtp down")
	token, err := env.verify.Verify(ctx, verificationToken)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
}
