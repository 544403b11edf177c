package models

import (
	"time"

	"github.com/google/uuid"
)

// Email kinds dispatched by the notifier.
const (
	EmailTypePending       = "pending"
	EmailTypeConfirmed     = "confirmed"
	EmailTypeCompanion     = "companion"
	EmailTypePasswordReset = "password_reset"
	EmailTypeInvitation    = "invitation"
	EmailTypeWelcome       = "welcome"
)

// Email delivery outcomes.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records one transactional email attempt.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      *uuid.UUID `json:"session_id,omitempty"`
	RegistrationID *uuid.UUID `json:"registration_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
