package notifier

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
)

// Sender delivers one rendered email. Implementations must be safe for
// concurrent use; handlers call the notifier from request goroutines.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds SMTP connection and From identity settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// DisabledSender rejects every message. Used when SMTP is not
// configured so attempts still land in email_logs as failed.
type DisabledSender struct{}

// Send always fails.
func (DisabledSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	return fmt.Errorf("smtp is not configured")
}

// SMTPSender sends email over SMTP using go-mail.
type SMTPSender struct {
	client *mail.Client
	cfg    SMTPConfig
}

// NewSMTPSender builds an SMTP sender. Auth is enabled only when a
// username is configured, so local dev relays (mailhog) work unchanged.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: client, cfg: cfg}, nil
}

// Send delivers a single HTML message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
