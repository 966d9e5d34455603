package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

type Service interface {
	SendWelcome(ctx context.Context, email string, name string, clinic string) error
	SendPasswordChanged(ctx context.Context, email string, name string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	from   string
	dialer sender
}

// NewSMTPService delivers mail through an SMTP relay
func NewSMTPService(cfg Config) Service {
	return &smtpService{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendWelcome(ctx context.Context, email, name, clinic string) error {
	body := fmt.Sprintf("Hello %s,\n\nAn account has been created for you at %s. "+
		"Sign in with this email address and the password your administrator gave you.\n", name, clinic)
	return s.send(ctx, email, "Welcome to "+clinic, body)
}

func (s *smtpService) SendPasswordChanged(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour password was just changed. "+
		"If this was not you, contact your clinic administrator.\n", name)
	return s.send(ctx, email, "Your password was changed", body)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(newMessage(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func newMessage(from, to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}

type logService struct{}

// NewLogService only logs outgoing mail, for deployments without SMTP
func NewLogService() Service {
	return logService{}
}

func (logService) SendWelcome(ctx context.Context, email, name, clinic string) error {
	zerolog.Ctx(ctx).Info().Str("to", email).Str("clinic", clinic).Msg("welcome email skipped, smtp disabled")
	return nil
}

func (logService) SendPasswordChanged(ctx context.Context, email, _ string) error {
	zerolog.Ctx(ctx).Info().Str("to", email).Msg("password change email skipped, smtp disabled")
	return nil
}
