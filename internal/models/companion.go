package models

import (
	"time"

	"github.com/google/uuid"
)

// Companion is a plus-one attached to a registration. A companion with an
// email may be promoted into its own guest registration; the conversion link
// is set once and never changed.
type Companion struct {
	ID                      uuid.UUID  `json:"id"`
	RegistrationID          uuid.UUID  `json:"registration_id"`
	Name                    string     `json:"name"`
	Company                 string     `json:"company,omitempty"`
	Title                   string     `json:"title,omitempty"`
	Phone                   string     `json:"phone,omitempty"`
	Email                   string     `json:"email,omitempty"`
	ConvertedRegistrationID *uuid.UUID `json:"converted_registration_id,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

// IsConverted reports whether the companion already has its own registration.
func (c *Companion) IsConverted() bool {
	return c.ConvertedRegistrationID != nil
}
