// internal/mailer/mailer.go
// Outbound email delivery. All sends are best-effort: callers log and
// discard errors rather than failing the parent request.

package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Email is a single outbound message
type Email struct {
	To      string
	Subject string
	Body    string
}

// Provider defines the email provider interface
type Provider interface {
	Send(ctx context.Context, email *Email) error
}

// SMTPProvider implements Provider using SMTP
type SMTPProvider struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPProvider creates a new SMTP email provider
func NewSMTPProvider(host string, port int, username, password, from string) Provider {
	return &SMTPProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an email using SMTP
func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	message := fmt.Sprintf("From: %s\r\n", p.from)
	message += fmt.Sprintf("To: %s\r\n", email.To)
	message += fmt.Sprintf("Subject: %s\r\n", email.Subject)
	message += "MIME-version: 1.0;\r\n"
	message += "Content-Type: text/plain; charset=\"UTF-8\";\r\n"
	message += "\r\n"
	message += email.Body

	auth := smtp.PlainAuth("", p.username, p.password, p.host)
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	if err := smtp.SendMail(addr, auth, p.from, []string{email.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendGridProvider implements Provider using SendGrid
type SendGridProvider struct {
	apiKey string
	from   string
}

// NewSendGridProvider creates a new SendGrid email provider
func NewSendGridProvider(apiKey, from string) Provider {
	return &SendGridProvider{
		apiKey: apiKey,
		from:   from,
	}
}

// Send sends an email using SendGrid
func (p *SendGridProvider) Send(ctx context.Context, email *Email) error {
	from := mail.NewEmail("Matcha", p.from)
	to := mail.NewEmail("", email.To)

	message := mail.NewSingleEmail(from, email.Subject, to, email.Body, "")
	client := sendgrid.NewSendClient(p.apiKey)

	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}

	return nil
}

// MockProvider logs emails instead of sending them (development mode)
type MockProvider struct{}

// NewMockProvider creates a mock email provider
func NewMockProvider() Provider {
	return &MockProvider{}
}

// Send logs the email
func (p *MockProvider) Send(ctx context.Context, email *Email) error {
	log.Printf("[MOCK EMAIL] to=%s subject=%q body=%q", email.To, email.Subject, email.Body)
	return nil
}
