package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance records check-in state for one (user, session) pair.
// At most one row exists per pair; marking attendance is an upsert.
type Attendance struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	SessionID   uuid.UUID  `json:"session_id"`
	Attended    bool       `json:"attended"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	QRVerified  bool       `json:"qr_verified"`
}
