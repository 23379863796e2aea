package alert

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	mail "github.com/wneessen/go-mail"

	"github.com/nvbach/questwatch/internal/config"
)

// SMTPSender emails alerts through a configured SMTP relay.
type SMTPSender struct {
	cfg config.SMTPEnvConfig
}

// NewSMTPSender returns nil when SMTP is not configured. Callers must check
// for nil before storing the result in an EmailSender.
func NewSMTPSender(cfg config.SMTPEnvConfig) *SMTPSender {
	if cfg.Host == "" || cfg.From == "" || cfg.To == "" {
		return nil
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, subject, body string) error {
	if s == nil {
		return nil
	}
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", s.cfg.From, err)
	}
	if err := m.ToFromString(s.cfg.To); err != nil {
		return fmt.Errorf("invalid to address(es) %q: %w", s.cfg.To, err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSConfig(&tls.Config{
			ServerName:         s.cfg.Host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: s.cfg.InsecureSkipVerify,
		}),
	}

	switch strings.ToLower(strings.TrimSpace(s.cfg.TLSMode)) {
	case "disabled":
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	case "starttls":
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case "implicit":
		opts = append(opts, mail.WithSSLPort(false))
	default:
		// Port-based defaults: implicit TLS on 465, opportunistic otherwise.
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSLPort(false))
		} else {
			opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
		}
	}

	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}
