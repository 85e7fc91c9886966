package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ymhc/dailyemail/internal/config"
	"github.com/ymhc/dailyemail/internal/content"
	"github.com/ymhc/dailyemail/internal/email"
	"github.com/ymhc/dailyemail/internal/logger"
	"github.com/ymhc/dailyemail/internal/runlock"
	"github.com/ymhc/dailyemail/internal/selection"
)

// ErrDeliveryFailed wraps any error raised while handing the message to the
// provider. The run is over; nothing retries it.
var ErrDeliveryFailed = errors.New("failed to send email")

// SubjectDateLayout formats the date in the subject line
const SubjectDateLayout = "January 02, 2006"

// SenderFactory builds the delivery provider once credentials are validated.
type SenderFactory func(ctx context.Context) (email.Sender, error)

// Draft is one rendered, not yet sent, daily email.
type Draft struct {
	Daily       *content.DailyContent
	Rendered    *email.Rendered
	PreviewPath string
}

// DailyEmailService runs the load, select, render and send pipeline.
type DailyEmailService struct {
	loader    *content.Loader
	selector  *selection.Selector
	renderer  *email.Renderer
	newSender SenderFactory
	guard     runlock.Guard
	cfg       *config.Config
	log       *logger.Logger
	now       func() time.Time
}

// NewDailyEmailService creates a new DailyEmailService. A nil guard lets
// every run send.
func NewDailyEmailService(
	selector *selection.Selector,
	newSender SenderFactory,
	guard runlock.Guard,
	cfg *config.Config,
	log *logger.Logger,
) *DailyEmailService {
	if guard == nil {
		guard = runlock.Noop{}
	}
	return &DailyEmailService{
		loader:    content.NewLoader(cfg.Content),
		selector:  selector,
		renderer:  email.NewRenderer(cfg.Content.BackgroundBaseURL, cfg.Email.CIDDomain, cfg.Email.ResourceQR),
		newSender: newSender,
		guard:     guard,
		cfg:       cfg,
		log:       log.WithComponent("daily_email"),
		now:       time.Now,
	}
}

// Prepare loads the data, picks today's content, renders it and writes the
// local preview file.
func (s *DailyEmailService) Prepare(ctx context.Context) (*Draft, error) {
	collections, err := s.loader.Load()
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("messages", len(collections.Messages)).
		Int("activities", len(collections.Activities)).
		Int("resources", len(collections.Resources)).
		Int("backgrounds", len(collections.Backgrounds)).
		Msg("content loaded")

	daily, err := s.selector.Pick(collections)
	if err != nil {
		return nil, fmt.Errorf("failed to pick daily content: %w", err)
	}

	rendered, err := s.renderer.Render(daily)
	if err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}

	draft := &Draft{Daily: daily, Rendered: rendered, PreviewPath: s.cfg.Email.PreviewPath}
	if err := s.writePreview(draft); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("background", daily.Background).
		Str("resource", daily.Resource.Title).
		Str("preview", draft.PreviewPath).
		Msg("daily email rendered")

	return draft, nil
}

func (s *DailyEmailService) writePreview(d *Draft) error {
	logoSrc, err := email.RelativeSrc(d.PreviewPath, s.cfg.Content.LogoFile)
	if err != nil {
		return fmt.Errorf("failed to resolve logo path: %w", err)
	}

	refs := map[string]string{d.Rendered.LogoCID: logoSrc}
	if d.Rendered.QR != nil {
		refs[d.Rendered.QR.ContentID] = email.DataURI(*d.Rendered.QR)
	}

	return email.WritePreview(d.PreviewPath, d.Rendered.HTML, refs)
}

// Subject returns the subject line for day
func (s *DailyEmailService) Subject(day time.Time) string {
	return fmt.Sprintf("%s - %s", s.cfg.Email.SubjectPrefix, day.Format(SubjectDateLayout))
}

// Compose builds the outbound message for d. A missing logo is logged and
// the message goes out without it.
func (s *DailyEmailService) Compose(d *Draft, day time.Time) *email.Message {
	msg := &email.Message{
		FromAddress: s.cfg.SMTP.User,
		FromName:    s.cfg.Email.SenderName,
		To:          s.cfg.SMTP.Recipient,
		Subject:     s.Subject(day),
		HTMLBody:    d.Rendered.HTML,
		TextBody:    d.Rendered.Text,
	}

	logo, err := os.ReadFile(s.cfg.Content.LogoFile)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.cfg.Content.LogoFile).Msg("logo image not found")
	} else {
		msg.Inline = append(msg.Inline, email.InlineImage{
			ContentID: d.Rendered.LogoCID,
			Filename:  filepath.Base(s.cfg.Content.LogoFile),
			Data:      logo,
		})
	}

	if d.Rendered.QR != nil {
		msg.Inline = append(msg.Inline, *d.Rendered.QR)
	}

	return msg
}

// Deliver validates the credentials and sends d exactly once. A
// *config.MissingEnvError is returned before any network activity; guard and
// provider failures are logged and returned wrapped in ErrDeliveryFailed.
func (s *DailyEmailService) Deliver(ctx context.Context, d *Draft) error {
	if err := s.cfg.SMTP.ValidateFor(s.cfg.Email.Provider); err != nil {
		return err
	}

	day := s.now()
	if err := s.guard.Acquire(ctx, day); err != nil {
		if errors.Is(err, runlock.ErrAlreadySent) {
			s.log.Info().Str("key", runlock.Key(day)).Msg("daily email already sent, skipping")
			return nil
		}
		s.log.Error().Err(err).Str("key", runlock.Key(day)).Msg("failed to claim send")
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	msg := s.Compose(d, day)

	err := s.send(ctx, msg)
	if err != nil {
		if relErr := s.guard.Release(ctx, day); relErr != nil {
			s.log.Warn().Err(relErr).Msg("failed to release send claim")
		}
		s.log.Error().Err(err).Msg("failed to send email")
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	s.log.Info().
		Str("provider", s.cfg.Email.Provider).
		Str("recipient", msg.To).
		Str("subject", msg.Subject).
		Msg("email sent successfully")

	return nil
}

func (s *DailyEmailService) send(ctx context.Context, msg *email.Message) error {
	sender, err := s.newSender(ctx)
	if err != nil {
		return err
	}
	return sender.Send(ctx, msg)
}

// Run prepares and delivers today's email.
func (s *DailyEmailService) Run(ctx context.Context) error {
	draft, err := s.Prepare(ctx)
	if err != nil {
		return err
	}
	return s.Deliver(ctx, draft)
}
