package models

import (
	"time"

	"github.com/google/uuid"
)

// GuestDetails is the embedded contact bundle carried by a registration that
// has no user account. All fields are cleared when the registration is adopted
// by an account.
type GuestDetails struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Instagram    string `json:"instagram,omitempty"`
	Snapchat     string `json:"snapchat,omitempty"`
	Twitter      string `json:"twitter,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	Position     string `json:"position,omitempty"`
	ActivityType string `json:"activity_type,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Goal         string `json:"goal,omitempty"`
}

// Registration links a user or a guest contact bundle to a session.
// Exactly one of UserID or the guest bundle is populated.
type Registration struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     uuid.UUID  `json:"session_id"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	IsApproved    bool       `json:"is_approved"`
	ApprovalNotes string     `json:"approval_notes,omitempty"`
	Guest         GuestDetails `json:"guest"`
	RegisteredAt  time.Time    `json:"registered_at"`
}

// IsGuest reports whether the registration has no user account attached.
func (r *Registration) IsGuest() bool {
	return r.UserID == nil
}
