package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go-foodshare/config"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer picks the provider configured by EMAIL_PROVIDER.
func NewMailer(cfg config.EmailConfig) (Mailer, error) {
	switch cfg.Provider {
	case "postmark":
		return NewPostmarkMailer(cfg.PostmarkToken, cfg.Sender)
	case "sendgrid":
		return NewSendGridMailer(cfg.SendGridKey, cfg.Sender)
	case "log", "":
		return &LogMailer{}, nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Provider)
	}
}

// PostmarkMailer handles sending emails using Postmark
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(apiToken, from string) (*PostmarkMailer, error) {
	if apiToken == "" {
		return nil, errors.New("POSTMARK_API_TOKEN is not set in environment variables")
	}
	return &PostmarkMailer{
		client: postmark.NewClient(apiToken, ""),
		from:   from,
	}, nil
}

func (pm *PostmarkMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	_, err := pm.client.SendEmail(postmark.Email{
		From:     pm.from,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendGridMailer handles sending emails using SendGrid
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, errors.New("SENDGRID_API_KEY is not set in environment variables")
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Food Share", from),
	}, nil
}

func (sg *SendGridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	message := mail.NewSingleEmail(sg.from, subject, mail.NewEmail("", to), htmlBody, htmlBody)
	resp, err := sg.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer only logs messages. Used in development and tests.
type LogMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func (lm *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	lm.mu.Lock()
	lm.Sent = append(lm.Sent, SentMail{To: to, Subject: subject, Body: htmlBody})
	lm.mu.Unlock()
	log.Printf("Email to %s: %s", to, subject)
	return nil
}

// Messages returns a copy of everything sent so far.
func (lm *LogMailer) Messages() []SentMail {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return append([]SentMail(nil), lm.Sent...)
}
