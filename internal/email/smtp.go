// Package email delivers outbound messages on the Email channel over SMTP.
package email

import (
	"context"
	"fmt"
	"html"
	"net"
	"strings"
	"time"

	"businesson_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers lead-facing messages via the configured SMTP server.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender. Returns nil when email delivery is
// disabled; callers must check before use.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	if !cfg.GetEmailEnabled() {
		return nil
	}

	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// SendMessage delivers a plain conversational message to a lead. The body
// is wrapped in a minimal HTML shell with paragraph breaks preserved.
func (s *SMTPSender) SendMessage(ctx context.Context, toEmail, subject, body string) error {
	if s == nil {
		return fmt.Errorf("email delivery is not configured")
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, renderBody(body))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func renderBody(body string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, paragraph := range strings.Split(body, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(paragraph), "\n", "<br>"))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
