package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

type sendClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendgridSender delivers through the SendGrid v3 API.
type SendgridSender struct {
	client   sendClient
	from     *sgmail.Email
	renderer *Renderer
	logg     *logger.Logger
}

func NewSendgridSender(cfg config.SendgridConfig, renderer *Renderer, logg *logger.Logger) (*SendgridSender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, errors.New("sendgrid from email is required")
	}
	if renderer == nil {
		renderer = NewRenderer("")
	}
	return &SendgridSender{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     sgmail.NewEmail(cfg.FromName, cfg.DefaultFrom),
		renderer: renderer,
		logg:     logg,
	}, nil
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	out, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}
	email := sgmail.NewSingleEmail(s.from, out.Subject, sgmail.NewEmail(msg.Name, msg.To), out.Text, out.HTML)
	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send %s: %w", msg.Kind, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send %s: status %d: %s", msg.Kind, resp.StatusCode, resp.Body)
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"kind": string(msg.Kind), "status": resp.StatusCode})
		s.logg.Info(ctx, "mail.sent")
	}
	return nil
}

// LogSender is used when no provider is configured. It renders the message
// so template errors still surface, then only logs it.
type LogSender struct {
	renderer *Renderer
	logg     *logger.Logger
}

func NewLogSender(renderer *Renderer, logg *logger.Logger) *LogSender {
	if renderer == nil {
		renderer = NewRenderer("")
	}
	return &LogSender{renderer: renderer, logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	out, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"kind": string(msg.Kind), "to": msg.To, "subject": out.Subject})
		s.logg.Warn(ctx, "mail.provider_disabled")
	}
	return nil
}

// NewSender picks SendGrid when an API key is configured.
func NewSender(cfg config.SendgridConfig, appName string, logg *logger.Logger) (Sender, error) {
	renderer := NewRenderer(appName)
	if cfg.APIKey == "" {
		return NewLogSender(renderer, logg), nil
	}
	return NewSendgridSender(cfg, renderer, logg)
}
