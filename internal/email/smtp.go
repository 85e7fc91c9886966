package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/mail.v2"

	"github.com/ymhc/dailyemail/internal/config"
)

const smtpTimeout = 30 * time.Second

// SMTPSender implements Sender through an SMTP relay. Port 465 uses implicit
// TLS; any other port must upgrade with STARTTLS before authenticating, and
// the send fails if the server does not offer it.
type SMTPSender struct {
	dialer *mail.Dialer
}

// NewSMTPSender creates a new SMTPSender. cfg must already be validated.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp: invalid port %d", cfg.Port)
	}

	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Port == 465
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.Timeout = smtpTimeout
	d.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	return &SMTPSender{dialer: d}, nil
}

// Send opens one connection, sends msg and closes the connection.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := BuildMIME(msg)
	if err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: failed to send email: %w", err)
	}

	return nil
}
