package models

import (
	"time"

	"github.com/google/uuid"
)

// Invite is a token-bound, time-limited, single-use grant allowing
// registration for a specific session and email. The used flag is one-way.
type Invite struct {
	ID        uuid.UUID  `json:"id"`
	SessionID uuid.UUID  `json:"session_id"`
	Email     string     `json:"email"`
	Token     string     `json:"token"`
	Used      bool       `json:"used"`
	ExpiresAt time.Time  `json:"expires_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsValid reports whether the invite can still be redeemed.
func (i *Invite) IsValid(now time.Time) bool {
	return !i.Used && now.Before(i.ExpiresAt)
}
