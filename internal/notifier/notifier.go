package notifier

import (
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/models"
)

// LogStore records email delivery attempts.
type LogStore interface {
	Record(ctx context.Context, log *models.EmailLog) error
}

const dateLayout = "Monday, 2 January 2006 at 15:04"

// Notifier renders and sends transactional email. Every attempt is
// recorded in email_logs. Sends are best-effort: methods return false
// on failure and the caller decides whether that matters.
type Notifier struct {
	sender   Sender
	logs     LogStore
	logger   *zap.Logger
	fromName string
	baseURL  string
}

// New creates a Notifier. baseURL is the public site root used in
// generated links, without a trailing slash.
func New(sender Sender, logs LogStore, fromName, baseURL string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		sender:   sender,
		logs:     logs,
		logger:   logger,
		fromName: fromName,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// SendPending tells a registrant their spot awaits approval.
func (n *Notifier) SendPending(ctx context.Context, session *models.Session, reg *models.Registration, toEmail, toName string) bool {
	body, err := render("pending", templateData{
		FromName:     n.fromName,
		Name:         toName,
		SessionTitle: session.Title,
		SessionDate:  session.Date.Format(dateLayout),
	})
	subject := "Registration received: " + session.Title
	return n.deliver(ctx, models.EmailTypePending, toEmail, subject, body, err, &session.ID, &reg.ID)
}

// SendConfirmed sends the confirmation email with the check-in QR code.
func (n *Notifier) SendConfirmed(ctx context.Context, session *models.Session, reg *models.Registration, toEmail, toName, qrDataURI string) bool {
	body, err := render("confirmed", templateData{
		FromName:      n.fromName,
		Name:          toName,
		SessionTitle:  session.Title,
		SessionDate:   session.Date.Format(dateLayout),
		Location:      session.Location,
		CustomMessage: session.ConfirmationMessage,
		QRDataURI:     template.URL(qrDataURI),
	})
	subject := "You're confirmed for " + session.Title
	return n.deliver(ctx, models.EmailTypeConfirmed, toEmail, subject, body, err, &session.ID, &reg.ID)
}

// SendCompanionNotice tells a companion they were added by a registrant.
func (n *Notifier) SendCompanionNotice(ctx context.Context, session *models.Session, comp *models.Companion, hostName string) bool {
	if comp.Email == "" {
		return false
	}
	body, err := render("companion", templateData{
		FromName:     n.fromName,
		Name:         comp.Name,
		HostName:     hostName,
		SessionTitle: session.Title,
		SessionDate:  session.Date.Format(dateLayout),
		Location:     session.Location,
	})
	subject := "You're a companion for " + session.Title
	return n.deliver(ctx, models.EmailTypeCompanion, comp.Email, subject, body, err, &session.ID, &comp.RegistrationID)
}

// SendPasswordReset sends a one-hour reset link.
func (n *Notifier) SendPasswordReset(ctx context.Context, toEmail, toName, token string) bool {
	body, err := render("password_reset", templateData{
		FromName: n.fromName,
		Name:     toName,
		ResetURL: n.baseURL + "/reset-password?token=" + token,
	})
	return n.deliver(ctx, models.EmailTypePasswordReset, toEmail, "Reset your password", body, err, nil, nil)
}

// SendInvitation sends a single-use invite link for a session.
func (n *Notifier) SendInvitation(ctx context.Context, session *models.Session, invite *models.Invite) bool {
	body, err := render("invitation", templateData{
		FromName:      n.fromName,
		SessionTitle:  session.Title,
		SessionDate:   session.Date.Format(dateLayout),
		CustomMessage: session.InviteMessage,
		InviteURL:     n.baseURL + session.PublicURL() + "?invite=" + invite.Token,
		ExpiresAt:     invite.ExpiresAt.Format(dateLayout),
	})
	subject := "You're invited: " + session.Title
	return n.deliver(ctx, models.EmailTypeInvitation, invite.Email, subject, body, err, &session.ID, nil)
}

// SendWelcome greets a freshly created account.
func (n *Notifier) SendWelcome(ctx context.Context, user *models.User) bool {
	body, err := render("welcome", templateData{
		FromName:   n.fromName,
		Name:       user.Name,
		ProfileURL: n.baseURL + user.ProfileURL(),
	})
	return n.deliver(ctx, models.EmailTypeWelcome, user.Email, "Welcome!", body, err, nil, nil)
}

// deliver sends the rendered message and records the attempt. renderErr
// short-circuits straight to a failed log entry.
func (n *Notifier) deliver(ctx context.Context, emailType, to, subject, body string, renderErr error, sessionID, registrationID *uuid.UUID) bool {
	entry := &models.EmailLog{
		SessionID:      sessionID,
		RegistrationID: registrationID,
		EmailType:      emailType,
		RecipientEmail: to,
		Subject:        subject,
	}

	sendErr := renderErr
	if sendErr == nil {
		sendErr = n.sender.Send(ctx, to, subject, body)
	}

	if sendErr != nil {
		entry.Status = models.EmailLogStatusFailed
		entry.ErrorMessage = sendErr.Error()
		n.logger.Warn("email send failed",
			zap.String("email_type", emailType),
			zap.String("recipient", to),
			zap.Error(sendErr),
		)
	} else {
		now := time.Now()
		entry.Status = models.EmailLogStatusSent
		entry.SentAt = &now
	}

	if err := n.logs.Record(ctx, entry); err != nil {
		n.logger.Error("email log write failed", zap.String("email_type", emailType), zap.Error(err))
	}
	return sendErr == nil
}
