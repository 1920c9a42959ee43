package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key"

func signToken(t *testing.T, email string, expiresIn time.Duration, aud string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"email": email,
		"aud":   aud,
		"exp":   time.Now().Add(expiresIn).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		AuthURL:    srv.URL,
		JWTSecret:  testSecret,
		AnonKey:    "anon-key",
		HTTPClient: srv.Client(),
	})
}

func TestResolveValidSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		require.Equal(t, "anon-key", r.Header.Get("apikey"))
		_, _ = w.Write([]byte(`{"id":"u1","email":"alice@example.com"}`))
	})

	id, err := c.Resolve(context.Background(), signToken(t, "alice@example.com", time.Hour, "authenticated"))
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", id.Email)
}

func TestResolveRejectsMissingToken(t *testing.T) {
	c := NewClient(Config{AuthURL: "http://auth.invalid", JWTSecret: testSecret})

	_, err := c.Resolve(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for a locally invalid token")
	})

	_, err := c.Resolve(context.Background(), signToken(t, "alice@example.com", -time.Minute, "authenticated"))
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsWrongAudience(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for a locally invalid token")
	})

	_, err := c.Resolve(context.Background(), signToken(t, "alice@example.com", time.Hour, "anon"))
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsTamperedSignature(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for a locally invalid token")
	})

	claims := jwt.MapClaims{
		"email": "alice@example.com",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), signed)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsRevokedSession(t *testing.T) {
	// Locally valid token, but the provider no longer recognizes it.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Resolve(context.Background(), signToken(t, "alice@example.com", time.Hour, "authenticated"))
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsEmailMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","email":"mallory@example.com"}`))
	})

	_, err := c.Resolve(context.Background(), signToken(t, "alice@example.com", time.Hour, "authenticated"))
	require.ErrorIs(t, err, ErrUnauthenticated)
}
