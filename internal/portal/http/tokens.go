package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/domain"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

// TokenListHandler lists the caller's own tokens.
type TokenListHandler struct {
	TokenService *service.TokenService
}

func (h *TokenListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	email := httpx.UserEmail(ctx)
	if email == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && status != domain.TokenStatusActive && status != domain.TokenStatusRevoked {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"status must be active or revoked")
		return
	}

	tokens, err := h.TokenService.List(ctx, service.TokenFilter{Email: email, Status: status})
	if err != nil {
		writeTokenError(w, log, err, "failed to list tokens")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTokenListResponse(tokens))
}

// TokenRevokeHandler revokes one of the caller's own tokens.
type TokenRevokeHandler struct {
	TokenService *service.TokenService
}

func (h *TokenRevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	email := httpx.UserEmail(ctx)
	if email == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	id := r.PathValue("id")

	// Ownership check before the state change; the revoke itself is
	// idempotent.
	owned, err := h.TokenService.List(ctx, service.TokenFilter{Email: email})
	if err != nil {
		writeTokenError(w, log, err, "failed to list tokens")
		return
	}
	if !containsToken(owned, id) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Token not found")
		return
	}

	token, err := h.TokenService.Revoke(ctx, id)
	if err != nil {
		writeTokenError(w, log, err, "failed to revoke token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(token))
}

func containsToken(tokens []domain.APIToken, id string) bool {
	for _, t := range tokens {
		if t.ID == id {
			return true
		}
	}
	return false
}

func writeTokenError(w http.ResponseWriter, log *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrTokenNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Token not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"Please try again later")
	default:
		log.Error(msg, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", msg)
	}
}
