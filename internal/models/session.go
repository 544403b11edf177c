package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an event session.
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionClosed    SessionStatus = "closed"
	SessionCompleted SessionStatus = "completed"
)

// Session is one instance of the recurring networking event.
type Session struct {
	ID                  uuid.UUID     `json:"id"`
	SessionNumber       int           `json:"session_number"`
	Title               string        `json:"title"`
	Description         string        `json:"description,omitempty"`
	Date                time.Time     `json:"date"`
	GuestName           string        `json:"guest_name,omitempty"`
	GuestProfile        string        `json:"guest_profile,omitempty"`
	MaxParticipants     int           `json:"max_participants"`
	MaxCompanions       int           `json:"max_companions"`
	Status              SessionStatus `json:"status"`
	RequiresApproval    bool          `json:"requires_approval"`
	ShowParticipants    bool          `json:"show_participant_count"`
	Location            string        `json:"location,omitempty"`
	RegistrationDeadline *time.Time   `json:"registration_deadline,omitempty"`
	ShowCountdown       bool          `json:"show_countdown"`
	EnableMiniView      bool          `json:"enable_mini_view"`
	ConfirmationMessage string        `json:"custom_confirmation_message,omitempty"`
	EmbedEnabled        bool          `json:"embed_enabled"`
	Slug                string        `json:"slug,omitempty"`
	InviteOnly          bool          `json:"invite_only"`
	InviteMessage       string        `json:"invite_message,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

// AcceptsRegistration reports whether the session can take a new registration
// given the current approved headcount. Evaluated fresh on every attempt; there
// is no reservation between the check and the insert.
func (s *Session) AcceptsRegistration(approvedCount int, now time.Time) bool {
	if s.Status != SessionOpen {
		return false
	}
	if approvedCount >= s.MaxParticipants {
		return false
	}
	if s.RegistrationDeadline != nil && now.After(*s.RegistrationDeadline) {
		return false
	}
	return true
}

// IsFull reports whether the approved headcount has reached capacity.
func (s *Session) IsFull(approvedCount int) bool {
	return approvedCount >= s.MaxParticipants
}

// PublicURL returns the public registration path, preferring the slug.
func (s *Session) PublicURL() string {
	if s.Slug != "" {
		return "/event/" + s.Slug
	}
	return "/sessions/" + s.ID.String()
}

// EmbedURL returns the embeddable widget path.
func (s *Session) EmbedURL() string {
	if s.Slug != "" {
		return "/event/" + s.Slug + "/embed"
	}
	return "/sessions/" + s.ID.String() + "/embed"
}

var (
	slugStrip    = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// GenerateSlug derives a URL slug from the title and session number.
// Existing slugs are kept as-is.
func (s *Session) GenerateSlug() string {
	if s.Slug != "" || s.Title == "" {
		return s.Slug
	}
	slug := slugStrip.ReplaceAllString(s.Title, "")
	slug = slugCollapse.ReplaceAllString(strings.TrimSpace(slug), "-")
	if r := []rune(slug); len(r) > 50 {
		slug = string(r[:50])
	}
	s.Slug = fmt.Sprintf("%s-%d", strings.ToLower(strings.Trim(slug, "-")), s.SessionNumber)
	return s.Slug
}
