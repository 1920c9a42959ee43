package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

type LogListHandler struct {
	AdminService *service.AdminService
}

func (h *LogListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	logs, err := h.AdminService.Logs(ctx, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
				"Please try again later")
			return
		}
		log.Error("failed to list request logs", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Failed to list request logs")
		return
	}

	out := make([]APILogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, newAPILogResponse(l))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// queryInt parses an integer query parameter, returning zero when absent or
// malformed. The services clamp to sane bounds.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}
