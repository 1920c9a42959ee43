package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/pkg/cryptox"
	"github.com/ZhengkaiWang/sfin-admin/pkg/idx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

// Listing bounds for logs and stats queries.
const (
	defaultLogLimit   = 50
	maxLogLimit       = 500
	defaultStatsLimit = 10
	maxStatsLimit     = 100
	defaultStatsDays  = 30
	maxStatsDays      = 365
)

// mintAttempts bounds retries on invite code collisions, which are already
// vanishingly rare at 12 characters.
const mintAttempts = 3

// AdminService backs the dashboard surfaces: invite code minting and
// listing, request logs, and usage statistics.
type AdminService struct {
	Store store.Store
}

// MintInvite creates a new invite code. expiresAt may be nil for codes that
// never expire.
func (s *AdminService) MintInvite(ctx context.Context, createdBy, description string, expiresAt *time.Time) (domain.InviteCode, error) {
	log := slogx.FromContext(ctx)

	if expiresAt != nil && expiresAt.Before(time.Now().UTC()) {
		return domain.InviteCode{}, fmt.Errorf("%w: expiry must be in the future", ErrValidation)
	}

	for attempt := 0; attempt < mintAttempts; attempt++ {
		code, err := cryptox.GenerateInviteCode()
		if err != nil {
			log.Error("failed to generate invite code", slog.Any("error", err))
			return domain.InviteCode{}, err
		}

		invite := domain.InviteCode{
			ID:          idx.New().String(),
			Code:        code,
			CreatedBy:   createdBy,
			CreatedAt:   time.Now().UTC(),
			ExpiresAt:   expiresAt,
			Description: description,
		}
		err = s.Store.InviteCodes().Create(ctx, invite)
		if err == nil {
			log.Info("invite code minted",
				slog.String("invite_code_id", invite.ID),
				slog.String("created_by", createdBy),
			)
			return invite, nil
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		log.Error("failed to persist invite code", slog.Any("error", err))
		return domain.InviteCode{}, mapStoreErr(err)
	}
	return domain.InviteCode{}, fmt.Errorf("invite code collision after %d attempts", mintAttempts)
}

// ListInvites returns all invite codes, newest first.
func (s *AdminService) ListInvites(ctx context.Context) ([]domain.InviteCode, error) {
	codes, err := s.Store.InviteCodes().List(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return codes, nil
}

// Logs returns recent request log rows. limit and offset are clamped.
func (s *AdminService) Logs(ctx context.Context, limit, offset int) ([]domain.APILog, error) {
	limit = clamp(limit, defaultLogLimit, maxLogLimit)
	if offset < 0 {
		offset = 0
	}
	logs, err := s.Store.Logs().ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return logs, nil
}

func (s *AdminService) EndpointCounts(ctx context.Context, limit int) ([]domain.EndpointCount, error) {
	out, err := s.Store.Stats().EndpointCounts(ctx, clamp(limit, defaultStatsLimit, maxStatsLimit))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

func (s *AdminService) ToolUsageCounts(ctx context.Context, limit int) ([]domain.ToolUsageCount, error) {
	out, err := s.Store.Stats().ToolUsageCounts(ctx, clamp(limit, defaultStatsLimit, maxStatsLimit))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

func (s *AdminService) DailyRequestCounts(ctx context.Context, days int) ([]domain.DailyCount, error) {
	out, err := s.Store.Stats().DailyRequestCounts(ctx, clamp(days, defaultStatsDays, maxStatsDays))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

func (s *AdminService) DailyErrorRates(ctx context.Context, days int) ([]domain.DailyErrorRate, error) {
	out, err := s.Store.Stats().DailyErrorRates(ctx, clamp(days, defaultStatsDays, maxStatsDays))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

func (s *AdminService) MostActiveUsers(ctx context.Context, limit int) ([]domain.ActiveUser, error) {
	out, err := s.Store.Stats().MostActiveUsers(ctx, clamp(limit, defaultStatsLimit, maxStatsLimit))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

func (s *AdminService) UsageTotals(ctx context.Context) (domain.UsageTotals, error) {
	out, err := s.Store.Stats().UsageTotals(ctx)
	if err != nil {
		return domain.UsageTotals{}, mapStoreErr(err)
	}
	return out, nil
}

func (s *AdminService) TokenTotals(ctx context.Context) (domain.TokenTotals, error) {
	out, err := s.Store.Stats().TokenTotals(ctx)
	if err != nil {
		return domain.TokenTotals{}, mapStoreErr(err)
	}
	return out, nil
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
