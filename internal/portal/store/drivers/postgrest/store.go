// Package postgrest is the production driver. It speaks the managed
// backend's auto-generated REST surface: table endpoints under /rest/v1
// with query-string filters, and named procedures under /rest/v1/rpc. The
// backend offers no transactions over this surface, so race-free state
// transitions use filtered PATCH requests that match at most one unconsumed
// row.
package postgrest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

type Config struct {
	// BaseURL is the backend project root. The driver appends /rest/v1
	// itself.
	BaseURL string

	// ServiceKey authenticates the portal with full table access. It is sent
	// as both the apikey header and a bearer token, which is what the
	// backend's gateway expects from server-side callers.
	ServiceKey string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

type Store struct {
	client *client
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, errMissingBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Store{client: &client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		key:     cfg.ServiceKey,
		http:    hc,
	}}, nil
}

func (s *Store) Close() error { return nil }

// Ping issues a HEAD against the admins table, the cheapest request that
// still exercises auth and routing.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.count(ctx, "admins", nil)
	return err
}

func (s *Store) InviteCodes() store.InviteCodes     { return &inviteCodesRepo{c: s.client} }
func (s *Store) Verifications() store.Verifications { return &verificationsRepo{c: s.client} }
func (s *Store) APITokens() store.APITokens         { return &apiTokensRepo{c: s.client} }
func (s *Store) Admins() store.Admins               { return &adminsRepo{c: s.client} }
func (s *Store) Logs() store.Logs                   { return &logsRepo{c: s.client} }
func (s *Store) Stats() store.Stats                 { return &statsRepo{c: s.client} }
