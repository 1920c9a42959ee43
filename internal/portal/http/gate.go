package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/session"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

// Gate defaults.
const (
	DefaultSessionCookie = "sb-access-token"
	DefaultLoginPath     = "/login"
	DefaultManagePath    = "/manage"
)

// IdentityResolver turns an access token into a verified identity.
// Implemented by session.Client.
type IdentityResolver interface {
	Resolve(ctx context.Context, accessToken string) (session.Identity, error)
}

// Gate is the access-control middleware ahead of the router. It resolves
// the caller's identity from the session cookie (or a bearer header), loads
// the admin flag, and enforces the protected and admin path prefixes.
//
// Resolution faults are handled asymmetrically: plain protected paths fail
// open (the request proceeds without identity and the handler answers for
// itself), admin paths fail closed with a generic 503.
type Gate struct {
	Resolver IdentityResolver
	Store    store.Store

	// CookieName is the session cookie holding the access token.
	CookieName string
	// LoginPath receives unauthenticated callers, with the original path in
	// a redirectTo query parameter.
	LoginPath string
	// ManagePath receives authenticated non-admins who hit an admin path.
	ManagePath string

	// ProtectedPrefixes require a signed-in identity. AdminPrefixes
	// additionally require the admin flag; every admin prefix should also
	// be listed as protected.
	ProtectedPrefixes []string
	AdminPrefixes     []string
}

func (g *Gate) cookieName() string {
	if g.CookieName != "" {
		return g.CookieName
	}
	return DefaultSessionCookie
}

func (g *Gate) loginPath() string {
	if g.LoginPath != "" {
		return g.LoginPath
	}
	return DefaultLoginPath
}

func (g *Gate) managePath() string {
	if g.ManagePath != "" {
		return g.ManagePath
	}
	return DefaultManagePath
}

func (g *Gate) protectedPrefixes() []string {
	if len(g.ProtectedPrefixes) > 0 {
		return g.ProtectedPrefixes
	}
	return []string{"/v1/tokens", "/v1/admin"}
}

func (g *Gate) adminPrefixes() []string {
	if len(g.AdminPrefixes) > 0 {
		return g.AdminPrefixes
	}
	return []string{"/v1/admin"}
}

// Middleware returns the gate as a chainable middleware.
func (g *Gate) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !hasPrefix(path, g.protectedPrefixes()) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := slogx.FromContext(ctx)
			isAdminPath := hasPrefix(path, g.adminPrefixes())

			id, err := g.Resolver.Resolve(ctx, g.accessToken(r))
			switch {
			case err == nil:
				// resolved, fall through to the admin check
			case errors.Is(err, session.ErrUnauthenticated):
				g.redirectToLogin(w, r)
				return
			default:
				// Auth provider fault, not a bad credential.
				if isAdminPath {
					log.Error("identity resolution failed on admin path",
						slog.String("path", path),
						slog.Any("error", err),
					)
					httpx.WriteError(w, http.StatusServiceUnavailable,
						"unavailable", "Please try again later")
					return
				}
				log.Warn("identity resolution failed, continuing without identity",
					slog.String("path", path),
					slog.Any("error", err),
				)
				next.ServeHTTP(w, r)
				return
			}

			admin := false
			if isAdminPath {
				admin, err = g.Store.Admins().IsAdmin(ctx, id.Email)
				if err != nil {
					log.Error("admin lookup failed",
						slog.String("email", id.Email),
						slog.Any("error", err),
					)
					httpx.WriteError(w, http.StatusServiceUnavailable,
						"unavailable", "Please try again later")
					return
				}
				if !admin {
					log.Warn("non-admin attempted admin path",
						slog.String("email", id.Email),
						slog.String("path", path),
					)
					http.Redirect(w, r, g.managePath(), http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(httpx.WithIdentity(ctx, id.Email, admin)))
		})
	}
}

// accessToken extracts the token from the bearer header or the session
// cookie, in that order.
func (g *Gate) accessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(g.cookieName()); err == nil {
		return c.Value
	}
	return ""
}

func (g *Gate) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := g.loginPath() + "?redirectTo=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
