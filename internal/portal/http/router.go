package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/service"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
	"github.com/ZhengkaiWang/sfin-admin/pkg/httpx"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	VerificationService *service.VerificationService
	TokenService        *service.TokenService
	AdminService        *service.AdminService
}

func NewRouter(st store.Store, gate *Gate, logger *slog.Logger, buildVersion string) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
	}

	// Request logging runs outermost; the gate sees every request after it.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		gate.Middleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPipeline()
	r.registerTokens()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPipeline() {
	// POST /apply - strict rate limit by IP (invite code guessing)
	applyHandler := &ApplyHandler{VerificationService: r.VerificationService}
	r.Mux.Handle("POST /v1/apply",
		httpx.Chain(applyHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /verify - strict rate limit by IP (token brute force)
	verifyHandler := &VerifyHandler{VerificationService: r.VerificationService}
	r.Mux.Handle("GET /v1/verify",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTokens() {
	listHandler := &TokenListHandler{TokenService: r.TokenService}
	r.Mux.Handle("GET /v1/tokens",
		httpx.Chain(listHandler,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	revokeHandler := &TokenRevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/tokens/{id}/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	tokens := &AdminTokenListHandler{TokenService: r.TokenService}
	r.Mux.Handle("GET /v1/admin/tokens",
		httpx.Chain(tokens,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	createToken := &AdminTokenCreateHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/admin/tokens",
		httpx.Chain(createToken,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	revokeToken := &AdminTokenRevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/admin/tokens/{id}/revoke",
		httpx.Chain(revokeToken,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	invites := &InviteListHandler{AdminService: r.AdminService}
	r.Mux.Handle("GET /v1/admin/invites",
		httpx.Chain(invites,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	mintInvite := &InviteMintHandler{AdminService: r.AdminService}
	r.Mux.Handle("POST /v1/admin/invites",
		httpx.Chain(mintInvite,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	logs := &LogListHandler{AdminService: r.AdminService}
	r.Mux.Handle("GET /v1/admin/logs",
		httpx.Chain(logs,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	stats := &StatsHandler{AdminService: r.AdminService}
	r.Mux.Handle("GET /v1/admin/stats/{metric}",
		httpx.Chain(stats,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
