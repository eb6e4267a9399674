package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridProvider struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridProvider(apiKey, from, fromName string) *SendGridProvider {
	return &SendGridProvider{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (p *SendGridProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	fromEmail := mail.NewEmail(p.fromName, p.from)
	toEmail := mail.NewEmail("", to)

	var message *mail.SGMailV3
	if isHTML {
		message = mail.NewSingleEmail(fromEmail, subject, toEmail, "", body)
	} else {
		message = mail.NewSingleEmail(fromEmail, subject, toEmail, body, "")
	}

	response, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
