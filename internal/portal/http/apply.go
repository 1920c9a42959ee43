package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

type ApplyHandler struct {
	VerificationService *service.VerificationService
}

type applyRequest struct {
	Code         string `json:"code"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Purpose      string `json:"purpose"`
}

type applyResponse struct {
	Message string `json:"message"`
}

// ServeHTTP accepts a token application. On success the response carries
// only a confirmation message; the verification token travels by email.
func (h *ApplyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	err := h.VerificationService.Apply(ctx, service.ApplyRequest{
		Code:         req.Code,
		Email:        req.Email,
		Name:         req.Name,
		Organization: req.Organization,
		Purpose:      req.Purpose,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrInviteInvalid):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_invite",
				"Invite code is invalid, used, or expired")
		case errors.Is(err, service.ErrEmailDelivery):
			httpx.WriteError(w, http.StatusBadGateway, "delivery_failed",
				"Could not send the verification email, please try again")
		case errors.Is(err, service.ErrStoreUnavailable):
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
				"Please try again later")
		default:
			log.Error("apply failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error",
				"Failed to process application")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, applyResponse{
		Message: "Check your email for a verification link",
	})
}
