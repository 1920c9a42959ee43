package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedInvite(t *testing.T, s *Store, expiresAt *time.Time) domain.InviteCode {
	t.Helper()

	code := domain.InviteCode{
		ID:        idx.New().String(),
		Code:      "TESTCODE" + idx.New().String()[20:],
		CreatedBy: "admin@example.com",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	require.NoError(t, s.InviteCodes().Create(context.Background(), code))
	return code
}

func TestInviteCodeConsumeIsSingleUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	code := seedInvite(t, s, nil)

	got, err := s.InviteCodes().Consume(ctx, code.ID, "alice@example.com")
	require.NoError(t, err)
	require.True(t, got.IsUsed)
	require.Equal(t, "alice@example.com", got.UsedBy)
	require.NotNil(t, got.UsedAt)

	_, err = s.InviteCodes().Consume(ctx, code.ID, "bob@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInviteCodeConsumeRejectsExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)
	code := seedInvite(t, s, &past)

	_, err := s.InviteCodes().Consume(ctx, code.ID, "alice@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInviteCodeUniqueCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	code := seedInvite(t, s, nil)

	dup := code
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.InviteCodes().Create(ctx, dup), store.ErrAlreadyExists)
}

func TestGetActiveByCodeSkipsUsed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	code := seedInvite(t, s, nil)

	got, err := s.InviteCodes().GetActiveByCode(ctx, code.Code)
	require.NoError(t, err)
	require.Equal(t, code.ID, got.ID)

	_, err = s.InviteCodes().Consume(ctx, code.ID, "alice@example.com")
	require.NoError(t, err)

	_, err = s.InviteCodes().GetActiveByCode(ctx, code.Code)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func seedVerification(t *testing.T, s *Store, expiresAt time.Time) domain.VerificationRequest {
	t.Helper()

	code := seedInvite(t, s, nil)
	v := domain.VerificationRequest{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		Token:        "verify-" + idx.New().String(),
		InviteCodeID: code.ID,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    expiresAt,
	}
	require.NoError(t, s.Verifications().Create(context.Background(), v))
	return v
}

func TestVerificationConsumeIsSingleUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := seedVerification(t, s, time.Now().UTC().Add(24*time.Hour))

	got, err := s.Verifications().Consume(ctx, v.Token)
	require.NoError(t, err)
	require.True(t, got.IsVerified)
	require.NotNil(t, got.VerifiedAt)

	_, err = s.Verifications().Consume(ctx, v.Token)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerificationConsumeRejectsExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := seedVerification(t, s, time.Now().UTC().Add(-time.Minute))

	_, err := s.Verifications().Consume(ctx, v.Token)
	require.ErrorIs(t, err, store.ErrNotFound)

	// The row survives untouched for inspection.
	got, err := s.Verifications().GetByToken(ctx, v.Token)
	require.NoError(t, err)
	require.False(t, got.IsVerified)
}

func seedToken(t *testing.T, s *Store, email string, active bool) domain.APIToken {
	t.Helper()

	tok := domain.APIToken{
		ID:        idx.New().String(),
		Token:     "sfin-" + idx.New().String(),
		UserEmail: email,
		CreatedAt: time.Now().UTC(),
		IsActive:  active,
	}
	require.NoError(t, s.APITokens().Create(context.Background(), tok))
	return tok
}

func TestDeactivateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tok := seedToken(t, s, "alice@example.com", true)

	got, err := s.APITokens().Deactivate(ctx, tok.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	again, err := s.APITokens().Deactivate(ctx, tok.ID)
	require.NoError(t, err)
	require.False(t, again.IsActive)
}

func TestListByEmailNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := domain.APIToken{
		ID: idx.New().String(), Token: "t1", UserEmail: "alice@example.com",
		CreatedAt: time.Now().UTC().Add(-time.Hour), IsActive: true,
	}
	second := domain.APIToken{
		ID: idx.New().String(), Token: "t2", UserEmail: "alice@example.com",
		CreatedAt: time.Now().UTC(), IsActive: true,
	}
	require.NoError(t, s.APITokens().Create(ctx, first))
	require.NoError(t, s.APITokens().Create(ctx, second))
	seedToken(t, s, "bob@example.com", true)

	got, err := s.APITokens().ListByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, second.ID, got[0].ID)
	require.Equal(t, first.ID, got[1].ID)
}

func TestIsAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, created_at) VALUES (?, ?, ?)`,
		idx.New().String(), "admin@example.com", time.Now().UTC())
	require.NoError(t, err)

	ok, err := s.Admins().IsAdmin(ctx, "admin@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Admins().IsAdmin(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStatsAggregation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tok := seedToken(t, s, "alice@example.com", true)
	seedToken(t, s, "bob@example.com", false)

	now := time.Now().UTC()
	insert := func(endpoint, tool string, at time.Time, errMsg string) {
		var errVal any
		if errMsg != "" {
			errVal = errMsg
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO api_logs (id, token_id, endpoint, tool_name, request_time, error_message)
			VALUES (?, ?, ?, ?, ?, ?)`,
			idx.New().String(), tok.ID, endpoint, tool, at, errVal)
		require.NoError(t, err)
	}
	insert("/api/query", "quote", now, "")
	insert("/api/query", "quote", now.Add(-time.Minute), "")
	insert("/api/report", "income", now.Add(-2*time.Minute), "upstream timeout")

	endpoints, err := s.Stats().EndpointCounts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	require.Equal(t, "/api/query", endpoints[0].Endpoint)
	require.EqualValues(t, 2, endpoints[0].Count)

	tools, err := s.Stats().ToolUsageCounts(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "quote", tools[0].ToolName)

	daily, err := s.Stats().DailyRequestCounts(ctx, 7)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	require.EqualValues(t, 3, daily[0].Count)

	rates, err := s.Stats().DailyErrorRates(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.InDelta(t, 33.3, rates[0].Rate, 0.1)

	users, err := s.Stats().MostActiveUsers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "alice@example.com", users[0].UserEmail)
	require.EqualValues(t, 3, users[0].RequestCount)

	usage, err := s.Stats().UsageTotals(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, usage.Total)

	tokens, err := s.Stats().TokenTotals(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, tokens.Total)
	require.EqualValues(t, 1, tokens.Active)
	require.EqualValues(t, 1, tokens.Revoked)
}

func TestListRecentLogsJoinsEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tok := seedToken(t, s, "alice@example.com", true)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_logs (id, token_id, endpoint, request_time, status)
		VALUES (?, ?, ?, ?, ?)`,
		idx.New().String(), tok.ID, "/api/query", time.Now().UTC(), "200")
	require.NoError(t, err)

	logs, err := s.Logs().ListRecent(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "alice@example.com", logs[0].UserEmail)
	require.Equal(t, "200", logs[0].Status)
}
