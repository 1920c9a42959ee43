package http

import (
	"errors"
	"net/http"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

type VerifyHandler struct {
	VerificationService *service.VerificationService
}

// ServeHTTP completes a verification. The minted token is returned in the
// body for synchronous display; a copy goes out by email.
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, err := h.VerificationService.Verify(ctx, r.URL.Query().Get("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrVerificationInvalid):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_verification",
				"Verification link is invalid or has expired")
		case errors.Is(err, service.ErrInviteInvalid):
			httpx.WriteError(w, http.StatusConflict, "invite_consumed",
				"The invite code has already been used")
		case errors.Is(err, service.ErrStoreUnavailable):
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
				"Please try again later")
		default:
			log.Error("verify failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error",
				"Failed to complete verification")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(token))
}
