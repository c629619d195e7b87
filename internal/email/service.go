package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/pulse-api/internal/config"
)

// ErrDisabled is returned when SMTP delivery is turned off.
var ErrDisabled = errors.New("email delivery disabled")

// Service delivers plain-text notices to a single recipient.
type Service interface {
	Send(ctx context.Context, to, subject, body string) error
}

// sender abstracts the SMTP dial so tests can capture messages.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	from   string
	sender sender
}

// NewService returns an SMTP-backed Service, or a no-op one that reports
// ErrDisabled when cfg.Enabled is false.
func NewService(cfg config.SMTPConfig) (Service, error) {
	if !cfg.Enabled {
		return disabled{}, nil
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &smtpService{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

func (s *smtpService) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type disabled struct{}

func (disabled) Send(context.Context, string, string, string) error {
	return ErrDisabled
}
