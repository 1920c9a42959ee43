package mailer

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPConfig configures the worker-side sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address on outgoing mail, e.g.
	// "SFIN Portal <noreply@example.com>".
	From string
}

// SMTPMailer renders and sends the emails over plain SMTP. It backs the
// mailer worker; the portal itself never dials SMTP.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, msg VerificationEmail) error {
	name := msg.Name
	if name == "" {
		name = msg.Email
	}
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Confirm your email address to receive your SFIN API token. The link is
valid for 24 hours and can be used once.</p>
<p><a href="%s">Verify email address</a></p>
<p>If you did not apply for access, you can ignore this message.</p>`,
		name, msg.VerifyURL)

	return m.send(ctx, msg.Email, "Confirm your email address", body)
}

func (m *SMTPMailer) SendAPIToken(ctx context.Context, msg TokenEmail) error {
	body := fmt.Sprintf(`<p>Your SFIN API token is ready:</p>
<pre><code>%s</code></pre>
<p>It expires on %s. Keep it secret; anyone holding the token can query on
your behalf.</p>`,
		msg.Token, msg.ExpiresAt.Format("2 January 2006"))

	return m.send(ctx, msg.Email, "Your SFIN API token", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.cfg.From)
	mail.SetHeader("To", to)
	mail.SetHeader("Subject", subject)
	mail.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("%w: smtp to %s: %v", ErrDelivery, to, err)
	}
	return nil
}

var _ Mailer = (*SMTPMailer)(nil)
