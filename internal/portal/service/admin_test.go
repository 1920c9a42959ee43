package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZhengkaiWang/sfin-admin/pkg/cryptox"
)

func TestMintInviteGeneratesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	code, err := env.admin.MintInvite(ctx, "admin@example.com", "Q3 partners", nil)
	require.NoError(t, err)
	require.Len(t, code.Code, cryptox.InviteCodeLength)
	require.Equal(t, "admin@example.com", code.CreatedBy)
	require.Equal(t, "Q3 partners", code.Description)
	require.False(t, code.IsUsed)
	require.Nil(t, code.ExpiresAt)
}

func TestMintInviteRejectsPastExpiry(t *testing.T) {
	env := newTestEnv(t)

	past := time.Now().UTC().Add(-time.Minute)
	_, err := env.admin.MintInvite(context.Background(), "admin@example.com", "", &past)
	require.ErrorIs(t, err, ErrValidation)
}

func TestListInvitesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.admin.MintInvite(ctx, "admin@example.com", "first", nil)
	require.NoError(t, err)
	second, err := env.admin.MintInvite(ctx, "admin@example.com", "second", nil)
	require.NoError(t, err)

	codes, err := env.admin.ListInvites(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	require.Equal(t, second.ID, codes[0].ID)
	require.Equal(t, first.ID, codes[1].ID)
}

func TestLogsClampLimit(t *testing.T) {
	env := newTestEnv(t)

	// Zero and negative limits fall back to the default; the call succeeds
	// against an empty table.
	logs, err := env.admin.Logs(context.Background(), -5, -1)
	require.NoError(t, err)
	require.Empty(t, logs)
}

func TestStatsOnEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	usage, err := env.admin.UsageTotals(ctx)
	require.NoError(t, err)
	require.Zero(t, usage.Total)

	totals, err := env.admin.TokenTotals(ctx)
	require.NoError(t, err)
	require.Zero(t, totals.Total)

	counts, err := env.admin.EndpointCounts(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, counts)
}
