package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ymhc/dailyemail/internal/config"
)

// GmailSender implements Sender using the Gmail API. It uploads the same
// MIME tree the SMTP path would send.
type GmailSender struct {
	service *gmail.Service
}

// NewGmailSender creates a GmailSender from the configured credentials.
// A service account JSON with domain-wide delegation impersonates
// senderAddress; otherwise client id, secret and refresh token are used.
func NewGmailSender(ctx context.Context, cfg config.GmailEmailConfig, senderAddress string) (*GmailSender, error) {
	if senderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	var ts oauth2.TokenSource
	switch {
	case cfg.CredentialsJSON != "":
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
		if err != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
		}
		jwtConfig.Subject = senderAddress
		ts = jwtConfig.TokenSource(ctx)
	case cfg.ClientID != "" && cfg.RefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		ts = oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	default:
		return nil, fmt.Errorf("gmail: credentials JSON or client id and refresh token are required")
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return &GmailSender{service: svc}, nil
}

// Send sends an email via the Gmail API.
func (g *GmailSender) Send(ctx context.Context, msg *Message) error {
	raw, err := RawMIME(msg)
	if err != nil {
		return err
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}

	if _, err := g.service.Users.Messages.Send("me", gmailMsg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail: failed to send email: %w", err)
	}

	return nil
}
