package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserEmail holds the verified email of the signed-in user.
	CtxKeyUserEmail ctxKey = "user_email"
	// CtxKeyIsAdmin holds the admin flag resolved by the access gate.
	CtxKeyIsAdmin ctxKey = "is_admin"
)

// UserEmail returns the verified user email from the request context, or ""
// when the request is anonymous.
func UserEmail(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserEmail).(string); ok {
		return v
	}
	return ""
}

// IsAdmin reports whether the access gate resolved the caller as an admin.
func IsAdmin(ctx context.Context) bool {
	v, ok := ctx.Value(CtxKeyIsAdmin).(bool)
	return ok && v
}

// WithIdentity returns a context carrying the verified email and admin flag.
func WithIdentity(ctx context.Context, email string, admin bool) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserEmail, email)
	return context.WithValue(ctx, CtxKeyIsAdmin, admin)
}
