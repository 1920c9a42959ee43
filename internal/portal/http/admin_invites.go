package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

type InviteListHandler struct {
	AdminService *service.AdminService
}

func (h *InviteListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	codes, err := h.AdminService.ListInvites(ctx)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
				"Please try again later")
			return
		}
		log.Error("failed to list invite codes", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Failed to list invite codes")
		return
	}

	out := make([]InviteCodeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, newInviteCodeResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type InviteMintHandler struct {
	AdminService *service.AdminService
}

type inviteMintRequest struct {
	Description string `json:"description"`
	// ExpiresAt is optional; omitted means the code never expires.
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *InviteMintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req inviteMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	code, err := h.AdminService.MintInvite(ctx, httpx.UserEmail(ctx), req.Description, req.ExpiresAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
				"Please try again later")
		default:
			log.Error("failed to mint invite code", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error",
				"Failed to create invite code")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newInviteCodeResponse(code))
}
