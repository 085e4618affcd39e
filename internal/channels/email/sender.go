// Package email delivers outreach email over the tenant's SMTP server.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"leadflow_backend/platform/config"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers email via a direct SMTP connection using go-mail.
type Sender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSender creates an email sender. Returns nil when SMTP is not
// configured.
func NewSender(cfg config.EmailConfig) *Sender {
	if cfg.GetSMTPHost() == "" {
		return nil
	}

	return &Sender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// Send delivers a single message.
func (s *Sender) Send(ctx context.Context, message Message) error {
	if s == nil {
		return fmt.Errorf("smtp not configured")
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(message.Subject)
	if message.HTMLBody != "" {
		msg.SetBodyString(gomail.TypeTextHTML, message.HTMLBody)
		if message.TextBody != "" {
			msg.AddAlternativeString(gomail.TypeTextPlain, message.TextBody)
		}
	} else {
		msg.SetBodyString(gomail.TypeTextPlain, message.TextBody)
	}

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
