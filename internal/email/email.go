package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"participium/api/internal/apperr"
	"participium/api/internal/config"
)

// Provider is the outbound transport. Implementations must not be assumed
// reliable; callers treat any failure as opaque.
type Provider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

type Service struct {
	provider Provider
	from     string
	fromName string
	log      zerolog.Logger
}

func NewService(cfg config.EmailConfig, log zerolog.Logger) (*Service, error) {
	var provider Provider
	switch cfg.Provider {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid api key required")
		}
		provider = NewSendGridProvider(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	case "smtp":
		provider = NewSMTPProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return &Service{
		provider: provider,
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
		log:      log,
	}, nil
}

// NewServiceWithProvider wires an explicit provider, used by tests.
func NewServiceWithProvider(provider Provider, log zerolog.Logger) *Service {
	return &Service{provider: provider, log: log}
}

// SendVerificationEmail delivers a signup code. The code is valid for 30
// minutes; the message says so. Transport failures are logged and collapsed
// into a single generic error so provider internals never reach callers.
func (s *Service) SendVerificationEmail(ctx context.Context, to, code string) error {
	subject := "Your Participium verification code"
	body := fmt.Sprintf(
		"Welcome to Participium!\r\n\r\n"+
			"Your verification code is: %s\r\n\r\n"+
			"The code expires in 30 minutes. If you did not request it, ignore this message.\r\n",
		code,
	)

	if err := s.provider.Send(ctx, to, subject, body, false); err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("verification email send failed")
		return apperr.FromKind(apperr.KindVerificationEmail)
	}

	s.log.Info().Str("to", to).Msg("verification email sent")
	return nil
}

// SendStatusUpdate notifies a reporter that their report changed status.
// Best-effort: callers log and continue on failure.
func (s *Service) SendStatusUpdate(ctx context.Context, to, reportTitle, status string) error {
	subject := fmt.Sprintf("Update on your report \"%s\"", reportTitle)
	body := fmt.Sprintf(
		"Your report \"%s\" is now %s.\r\n\r\n"+
			"Log in to Participium to see details and messages from municipal staff.\r\n",
		reportTitle, status,
	)

	if err := s.provider.Send(ctx, to, subject, body, false); err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("status update email send failed")
		return apperr.FromKind(apperr.KindVerificationEmail)
	}
	return nil
}
