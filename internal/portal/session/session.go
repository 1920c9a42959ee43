// Package session resolves the caller's identity from the access token the
// hosted auth provider sets after login. Verification is two-step: the JWT
// is checked locally against the shared signing secret, then confirmed with
// the provider so a token revoked server-side stops working immediately.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated means the access token is missing, malformed, expired,
// or no longer recognized by the auth provider.
var ErrUnauthenticated = errors.New("session: unauthenticated")

// Identity is the signed-in caller as far as the portal cares: users are
// identified by email only.
type Identity struct {
	Email string
}

type Config struct {
	// AuthURL is the provider root; the client appends /auth/v1 itself.
	AuthURL string
	// JWTSecret is the provider's HS256 signing secret.
	JWTSecret string
	// AnonKey identifies the project on provider requests.
	AnonKey    string
	HTTPClient *http.Client
}

type Client struct {
	authURL string
	secret  []byte
	anonKey string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		authURL: strings.TrimRight(cfg.AuthURL, "/"),
		secret:  []byte(cfg.JWTSecret),
		anonKey: cfg.AnonKey,
		http:    hc,
	}
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Resolve verifies the access token and returns the caller's identity.
// The local check catches expired or tampered tokens without a network
// round trip; the provider lookup catches sessions revoked after issue.
func (c *Client) Resolve(ctx context.Context, accessToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithAudience("authenticated"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: token has no email claim", ErrUnauthenticated)
	}

	if err := c.confirm(ctx, accessToken, claims.Email); err != nil {
		return Identity{}, err
	}
	return Identity{Email: claims.Email}, nil
}

// confirm asks the provider for the session's user and checks it still
// matches the token's email claim.
func (c *Client) confirm(ctx context.Context, accessToken, email string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL+"/auth/v1/user", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session: confirm: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to the body check
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthenticated
	default:
		return fmt.Errorf("session: confirm: status %d", resp.StatusCode)
	}

	var u struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return fmt.Errorf("session: confirm: %w", err)
	}
	if !strings.EqualFold(u.Email, email) {
		return ErrUnauthenticated
	}
	return nil
}
