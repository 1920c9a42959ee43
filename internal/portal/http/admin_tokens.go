package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

// AdminTokenListHandler lists every token, optionally filtered by owner
// email or status.
type AdminTokenListHandler struct {
	TokenService *service.TokenService
}

func (h *AdminTokenListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	status := r.URL.Query().Get("status")
	if status != "" && status != domain.TokenStatusActive && status != domain.TokenStatusRevoked {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"status must be active or revoked")
		return
	}

	tokens, err := h.TokenService.List(ctx, service.TokenFilter{
		Email:  r.URL.Query().Get("email"),
		Status: status,
	})
	if err != nil {
		writeTokenError(w, log, err, "failed to list tokens")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTokenListResponse(tokens))
}

// AdminTokenCreateHandler mints a token directly, bypassing the invite and
// verification pipeline.
type AdminTokenCreateHandler struct {
	TokenService *service.TokenService
}

type adminTokenCreateRequest struct {
	Email string `json:"email"`
	// ValidityDays defaults to a year; zero or negative uses the default,
	// -1 means no expiry.
	ValidityDays int `json:"validity_days"`
}

func (h *AdminTokenCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req adminTokenCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"a valid email is required")
		return
	}

	validity := service.DefaultTokenValidity
	switch {
	case req.ValidityDays > 0:
		validity = time.Duration(req.ValidityDays) * 24 * time.Hour
	case req.ValidityDays < 0:
		validity = 0 // never expires
	}

	token, err := h.TokenService.Issue(ctx, req.Email, "", validity)
	if err != nil {
		writeTokenError(w, log, err, "failed to issue token")
		return
	}

	log.Info("admin issued token",
		"token_id", token.ID,
		"email", req.Email,
		"admin", httpx.UserEmail(ctx),
	)
	httpx.WriteJSON(w, http.StatusCreated, newTokenResponse(token))
}

// AdminTokenRevokeHandler revokes any token by id.
type AdminTokenRevokeHandler struct {
	TokenService *service.TokenService
}

func (h *AdminTokenRevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, err := h.TokenService.Revoke(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrTokenNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "Token not found")
			return
		}
		writeTokenError(w, log, err, "failed to revoke token")
		return
	}

	log.Info("admin revoked token",
		"token_id", token.ID,
		"admin", httpx.UserEmail(ctx),
	)
	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(token))
}
