package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFunctionMailerSendVerification(t *testing.T) {
	var got VerificationEmail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/functions/v1/send-verification-email", r.URL.Path)
		require.Equal(t, "Bearer svc-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	t.Cleanup(srv.Close)

	m := NewFunctionMailer(FunctionConfig{
		BaseURL:    srv.URL,
		ServiceKey: "svc-key",
		HTTPClient: srv.Client(),
	})

	err := m.SendVerification(context.Background(), VerificationEmail{
		Email:     "alice@example.com",
		Name:      "Alice",
		Token:     "tok-1",
		VerifyURL: "https://portal.example.com/v1/verify?token=tok-1",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "tok-1", got.Token)
	require.Contains(t, got.VerifyURL, "token=tok-1")
}

func TestFunctionMailerSendAPITokenPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/functions/v1/send-token-email", r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	m := NewFunctionMailer(FunctionConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
	err := m.SendAPIToken(context.Background(), TokenEmail{
		Email:     "alice@example.com",
		Token:     "sfin-token",
		ExpiresAt: time.Now().Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)
}

func TestFunctionMailerSurfacesBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "provider rejected recipient", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	m := NewFunctionMailer(FunctionConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
	err := m.SendVerification(context.Background(), VerificationEmail{Email: "x@example.com"})
	require.ErrorIs(t, err, ErrDelivery)
}

type recordingSender struct {
	verifications []VerificationEmail
	tokens        []TokenEmail
	err           error
}

func (r *recordingSender) SendVerification(_ context.Context, msg VerificationEmail) error {
	r.verifications = append(r.verifications, msg)
	return r.err
}

func (r *recordingSender) SendAPIToken(_ context.Context, msg TokenEmail) error {
	r.tokens = append(r.tokens, msg)
	return r.err
}

func TestWorkerDeliverDispatchesByKind(t *testing.T) {
	sender := &recordingSender{}
	w := &Worker{sender: sender, log: slog.Default()}

	raw, err := json.Marshal(VerificationEmail{Email: "alice@example.com", Token: "tok-1"})
	require.NoError(t, err)
	require.NoError(t, w.deliver(context.Background(), Envelope{Kind: KindVerification, Payload: raw}))
	require.Len(t, sender.verifications, 1)
	require.Equal(t, "alice@example.com", sender.verifications[0].Email)

	raw, err = json.Marshal(TokenEmail{Email: "alice@example.com", Token: "sfin-token"})
	require.NoError(t, err)
	require.NoError(t, w.deliver(context.Background(), Envelope{Kind: KindToken, Payload: raw}))
	require.Len(t, sender.tokens, 1)
}

func TestWorkerDeliverRejectsUnknownKind(t *testing.T) {
	w := &Worker{sender: &recordingSender{}, log: slog.Default()}
	err := w.deliver(context.Background(), Envelope{Kind: "newsletter"})
	require.Error(t, err)
}
