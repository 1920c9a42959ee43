package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FunctionMailer posts messages to the managed backend's edge functions,
// which render the templates and talk to the email provider.
type FunctionMailer struct {
	baseURL string
	key     string
	http    *http.Client
}

type FunctionConfig struct {
	// BaseURL is the project root; the driver appends /functions/v1 itself.
	BaseURL string
	// ServiceKey authorizes the function invocation.
	ServiceKey string
	HTTPClient *http.Client
}

func NewFunctionMailer(cfg FunctionConfig) *FunctionMailer {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &FunctionMailer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		key:     cfg.ServiceKey,
		http:    hc,
	}
}

func (m *FunctionMailer) SendVerification(ctx context.Context, msg VerificationEmail) error {
	return m.invoke(ctx, "send-verification-email", msg)
}

func (m *FunctionMailer) SendAPIToken(ctx context.Context, msg TokenEmail) error {
	return m.invoke(ctx, "send-token-email", msg)
}

func (m *FunctionMailer) invoke(ctx context.Context, fn string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	u := m.baseURL + "/functions/v1/" + fn
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.key)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDelivery, fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s",
			ErrDelivery, fn, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ Mailer = (*FunctionMailer)(nil)
