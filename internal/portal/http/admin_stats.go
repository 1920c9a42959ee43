package http

import (
	"errors"
	"net/http"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

// StatsHandler serves the dashboard metrics. The metric name is the last
// path segment; limits and day windows come from query parameters and are
// clamped by the service.
type StatsHandler struct {
	AdminService *service.AdminService
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var (
		payload any
		err     error
	)
	switch metric := r.PathValue("metric"); metric {
	case "usage":
		payload, err = h.AdminService.UsageTotals(ctx)
	case "tokens":
		payload, err = h.AdminService.TokenTotals(ctx)
	case "endpoints":
		payload, err = h.AdminService.EndpointCounts(ctx, queryInt(r, "limit"))
	case "tool-usage":
		payload, err = h.AdminService.ToolUsageCounts(ctx, queryInt(r, "limit"))
	case "daily-requests":
		payload, err = h.AdminService.DailyRequestCounts(ctx, queryInt(r, "days"))
	case "error-rates":
		payload, err = h.AdminService.DailyErrorRates(ctx, queryInt(r, "days"))
	case "active-users":
		payload, err = h.AdminService.MostActiveUsers(ctx, queryInt(r, "limit"))
	default:
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"Unknown statistics metric: "+metric)
		return
	}

	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
				"Please try again later")
			return
		}
		log.Error("failed to compute statistics", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Failed to compute statistics")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, payload)
}
