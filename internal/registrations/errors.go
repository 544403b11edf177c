package registrations

import "errors"

// Sentinel errors mapped to HTTP statuses by the handler layer.
var (
	ErrNotFound           = errors.New("not found")
	ErrSessionClosed      = errors.New("session is not open for registration")
	ErrSessionFull        = errors.New("session is full")
	ErrDeadlinePassed     = errors.New("registration deadline has passed")
	ErrAlreadyRegistered  = errors.New("already registered for this session")
	ErrInviteRequired     = errors.New("an invitation is required for this session")
	ErrInviteInvalid      = errors.New("invitation is invalid, used, or expired")
	ErrCompanionLimit     = errors.New("companion limit exceeded for this session")
	ErrAlreadyApproved    = errors.New("registration is already approved")
	ErrCompanionConverted = errors.New("companion already has their own registration")
	ErrCompanionNoEmail   = errors.New("companion has no email address")
	ErrGuestContactMissing = errors.New("guest email or phone is required")
)
