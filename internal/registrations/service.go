package registrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/qr"
	"github.com/eventpilot/backend/pkg/utils"
)

// SessionStore reads session state for eligibility checks.
type SessionStore interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	CountApproved(ctx context.Context, sessionID uuid.UUID) (int, error)
}

// RegistrationStore persists registrations.
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	// FindByUser returns nil, nil when the user has no registration for the session.
	FindByUser(ctx context.Context, sessionID, userID uuid.UUID) (*models.Registration, error)
	// FindByGuestContact matches guest registrations by email OR phone; nil, nil when none.
	FindByGuestContact(ctx context.Context, sessionID uuid.UUID, email, phone string) (*models.Registration, error)
	// MarkApproved flips is_approved false -> true. Returns false when the
	// registration was already approved.
	MarkApproved(ctx context.Context, id uuid.UUID, notes string) (bool, error)
	// ApproveAllPending approves every pending registration for the session
	// and returns the rows that transitioned.
	ApproveAllPending(ctx context.Context, sessionID uuid.UUID) ([]models.Registration, error)
	// AdoptGuests assigns ownerless guest registrations matching email or
	// phone to the user, clearing all guest fields. Returns rows adopted.
	AdoptGuests(ctx context.Context, userID uuid.UUID, email, phone string) (int, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Registration, error)
}

// CompanionStore persists plus-ones.
type CompanionStore interface {
	CreateCompanion(ctx context.Context, comp *models.Companion) error
	GetCompanionByID(ctx context.Context, id uuid.UUID) (*models.Companion, error)
	ListCompanionsByRegistration(ctx context.Context, registrationID uuid.UUID) ([]models.Companion, error)
	CountCompanionsByRegistration(ctx context.Context, registrationID uuid.UUID) (int, error)
	// SetCompanionConverted records the promoted registration id. Returns
	// false when the companion is already converted; the link is never
	// overwritten.
	SetCompanionConverted(ctx context.Context, companionID, registrationID uuid.UUID) (bool, error)
}

// InviteStore reads and consumes invitation tokens.
type InviteStore interface {
	// GetByToken returns nil, nil when the token does not exist.
	GetByToken(ctx context.Context, token string) (*models.Invite, error)
	// Consume flips used false -> true. Returns false when already used.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserStore resolves accounts for email delivery and guest adoption.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// FindByContact matches an account by email or phone; nil, nil when none.
	FindByContact(ctx context.Context, email, phone string) (*models.User, error)
}

// Notifier sends registration lifecycle email, best-effort.
type Notifier interface {
	SendPending(ctx context.Context, session *models.Session, reg *models.Registration, toEmail, toName string) bool
	SendConfirmed(ctx context.Context, session *models.Session, reg *models.Registration, toEmail, toName, qrDataURI string) bool
	SendCompanionNotice(ctx context.Context, session *models.Session, comp *models.Companion, hostName string) bool
}

// CompanionInput is a plus-one supplied at registration time.
type CompanionInput struct {
	Name    string `json:"name" binding:"required"`
	Company string `json:"company"`
	Title   string `json:"title"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// GuestInput is the contact bundle for an accountless registration.
type GuestInput struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	Instagram    string `json:"instagram"`
	Snapchat     string `json:"snapchat"`
	Twitter      string `json:"twitter"`
	CompanyName  string `json:"company_name"`
	Position     string `json:"position"`
	ActivityType string `json:"activity_type"`
	Gender       string `json:"gender"`
	Goal         string `json:"goal"`
}

// Service is the registration state machine: eligibility, approval,
// guest identity, companions. Email failures never fail an operation.
type Service struct {
	sessions   SessionStore
	regs       RegistrationStore
	companions CompanionStore
	invites    InviteStore
	users      UserStore
	notifier   Notifier
	now        func() time.Time
	logger     *zap.Logger
}

// NewService wires the registration engine.
func NewService(sessions SessionStore, regs RegistrationStore, companions CompanionStore, invites InviteStore, users UserStore, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:   sessions,
		regs:       regs,
		companions: companions,
		invites:    invites,
		users:      users,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger,
	}
}

// checkEligibility mirrors Session.AcceptsRegistration but reports
// which gate failed. The count is re-read on every attempt; there is
// no reservation between check and insert.
func (s *Service) checkEligibility(ctx context.Context, session *models.Session) error {
	if session.Status != models.SessionOpen {
		return ErrSessionClosed
	}
	approved, err := s.sessions.CountApproved(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("count approved: %w", err)
	}
	if session.IsFull(approved) {
		return ErrSessionFull
	}
	if session.RegistrationDeadline != nil && s.now().After(*session.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	return nil
}

// RegisterUser registers an account holder for a session.
func (s *Service) RegisterUser(ctx context.Context, userID, sessionID uuid.UUID, companions []CompanionInput) (*models.Registration, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, session); err != nil {
		return nil, err
	}
	existing, err := s.regs.FindByUser(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup registration: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}
	if len(companions) > session.MaxCompanions {
		return nil, ErrCompanionLimit
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		SessionID:  sessionID,
		UserID:     &userID,
		IsApproved: !session.RequiresApproval,
	}
	if err := s.regs.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}
	created := s.createCompanions(ctx, reg, companions)
	s.sendRegistrationEmail(ctx, session, reg, user.Email, user.Name)
	s.sendCompanionNotices(ctx, session, created, user.Name)
	return reg, nil
}

// RegisterGuest registers a guest contact bundle for a session. When
// the contact matches an existing account the registration is created
// under that account instead.
func (s *Service) RegisterGuest(ctx context.Context, sessionID uuid.UUID, inviteToken string, guest GuestInput, companions []CompanionInput) (*models.Registration, error) {
	email := strings.ToLower(strings.TrimSpace(guest.Email))
	phone := utils.NormalizePhone(guest.Phone)
	if email == "" && phone == "" {
		return nil, ErrGuestContactMissing
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, session); err != nil {
		return nil, err
	}

	var invite *models.Invite
	if session.InviteOnly {
		if inviteToken == "" {
			return nil, ErrInviteRequired
		}
		invite, err = s.invites.GetByToken(ctx, inviteToken)
		if err != nil {
			return nil, fmt.Errorf("lookup invite: %w", err)
		}
		if invite == nil || invite.SessionID != sessionID || !invite.IsValid(s.now()) {
			return nil, ErrInviteInvalid
		}
	}

	if len(companions) > session.MaxCompanions {
		return nil, ErrCompanionLimit
	}

	dup, err := s.regs.FindByGuestContact(ctx, sessionID, email, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup guest registration: %w", err)
	}
	if dup != nil {
		return nil, ErrAlreadyRegistered
	}

	// A guest whose contact matches an account registers under it.
	account, err := s.users.FindByContact(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if account != nil {
		if existing, err := s.regs.FindByUser(ctx, sessionID, account.ID); err != nil {
			return nil, fmt.Errorf("lookup registration: %w", err)
		} else if existing != nil {
			return nil, ErrAlreadyRegistered
		}
	}

	reg := &models.Registration{
		SessionID:  sessionID,
		IsApproved: !session.RequiresApproval,
	}
	toEmail, toName := email, guest.Name
	if account != nil {
		reg.UserID = &account.ID
		toEmail, toName = account.Email, account.Name
	} else {
		reg.Guest = models.GuestDetails{
			Name:         guest.Name,
			Email:        email,
			Phone:        phone,
			Instagram:    guest.Instagram,
			Snapchat:     guest.Snapchat,
			Twitter:      guest.Twitter,
			CompanyName:  guest.CompanyName,
			Position:     guest.Position,
			ActivityType: guest.ActivityType,
			Gender:       guest.Gender,
			Goal:         guest.Goal,
		}
	}
	if err := s.regs.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}
	// The single-use token burns only once the registration exists; a
	// failed insert leaves it live.
	if invite != nil {
		if ok, err := s.invites.Consume(ctx, invite.ID); err != nil || !ok {
			s.logger.Warn("invite consume failed",
				zap.String("invite_id", invite.ID.String()),
				zap.String("registration_id", reg.ID.String()),
				zap.Error(err),
			)
		}
	}
	created := s.createCompanions(ctx, reg, companions)
	if toEmail != "" {
		s.sendRegistrationEmail(ctx, session, reg, toEmail, toName)
	}
	s.sendCompanionNotices(ctx, session, created, toName)
	return reg, nil
}

// Approve confirms a pending registration. Approval is one-way.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, notes string) (*models.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.regs.MarkApproved(ctx, id, notes)
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyApproved
	}
	reg.IsApproved = true
	reg.ApprovalNotes = notes

	session, err := s.sessions.GetSession(ctx, reg.SessionID)
	if err != nil {
		return reg, nil
	}
	toEmail, toName := s.contactFor(ctx, reg)
	if toEmail != "" {
		s.sendConfirmed(ctx, session, reg, toEmail, toName)
	}
	return reg, nil
}

// ApproveAll confirms every pending registration for a session and
// returns how many transitioned.
func (s *Service) ApproveAll(ctx context.Context, sessionID uuid.UUID) (int, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	approved, err := s.regs.ApproveAllPending(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("approve all: %w", err)
	}
	for i := range approved {
		reg := &approved[i]
		toEmail, toName := s.contactFor(ctx, reg)
		if toEmail != "" {
			s.sendConfirmed(ctx, session, reg, toEmail, toName)
		}
	}
	return len(approved), nil
}

// AdoptGuestRegistrations links ownerless guest registrations matching
// the user's email or phone to their new account. Safe to call more
// than once; rows already owned by any account are never touched.
func (s *Service) AdoptGuestRegistrations(ctx context.Context, user *models.User) (int, error) {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	phone := utils.NormalizePhone(user.Phone)
	if email == "" && phone == "" {
		return 0, nil
	}
	n, err := s.regs.AdoptGuests(ctx, user.ID, email, phone)
	if err != nil {
		return 0, fmt.Errorf("adopt guest registrations: %w", err)
	}
	if n > 0 {
		s.logger.Info("guest registrations adopted",
			zap.String("user_id", user.ID.String()),
			zap.Int("count", n),
		)
	}
	return n, nil
}

// AddCompanions attaches plus-ones to an existing registration,
// enforcing the session companion limit across all of them.
func (s *Service) AddCompanions(ctx context.Context, registrationID uuid.UUID, inputs []CompanionInput) ([]models.Companion, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetSession(ctx, reg.SessionID)
	if err != nil {
		return nil, err
	}
	current, err := s.companions.CountCompanionsByRegistration(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("count companions: %w", err)
	}
	if current+len(inputs) > session.MaxCompanions {
		return nil, ErrCompanionLimit
	}
	hostName := s.hostName(ctx, reg)
	created := s.createCompanions(ctx, reg, inputs)
	s.sendCompanionNotices(ctx, session, created, hostName)
	return created, nil
}

// PromoteCompanion turns a companion with an email into its own guest
// registration on the parent's session, inheriting the parent's
// approval state. The conversion link is set once.
func (s *Service) PromoteCompanion(ctx context.Context, companionID uuid.UUID) (*models.Registration, error) {
	comp, err := s.companions.GetCompanionByID(ctx, companionID)
	if err != nil {
		return nil, err
	}
	if comp.IsConverted() {
		return nil, ErrCompanionConverted
	}
	if comp.Email == "" {
		return nil, ErrCompanionNoEmail
	}
	parent, err := s.regs.GetByID(ctx, comp.RegistrationID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetSession(ctx, parent.SessionID)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		SessionID:  parent.SessionID,
		IsApproved: parent.IsApproved,
		Guest: models.GuestDetails{
			Name:        comp.Name,
			Email:       strings.ToLower(strings.TrimSpace(comp.Email)),
			Phone:       utils.NormalizePhone(comp.Phone),
			CompanyName: comp.Company,
			Position:    comp.Title,
		},
	}
	if err := s.regs.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create promoted registration: %w", err)
	}
	ok, err := s.companions.SetCompanionConverted(ctx, companionID, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("record conversion: %w", err)
	}
	if !ok {
		return nil, ErrCompanionConverted
	}
	s.sendRegistrationEmail(ctx, session, reg, reg.Guest.Email, comp.Name)
	return reg, nil
}

// ListBySession returns all registrations for a session.
func (s *Service) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Registration, error) {
	return s.regs.ListBySession(ctx, sessionID)
}

// GetByID returns one registration.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return s.regs.GetByID(ctx, id)
}

// FindUserRegistration returns the user's registration for a session,
// nil when none exists.
func (s *Service) FindUserRegistration(ctx context.Context, sessionID, userID uuid.UUID) (*models.Registration, error) {
	return s.regs.FindByUser(ctx, sessionID, userID)
}

// ListCompanions returns the plus-ones of a registration.
func (s *Service) ListCompanions(ctx context.Context, registrationID uuid.UUID) ([]models.Companion, error) {
	return s.companions.ListCompanionsByRegistration(ctx, registrationID)
}

func (s *Service) createCompanions(ctx context.Context, reg *models.Registration, inputs []CompanionInput) []models.Companion {
	var created []models.Companion
	for _, in := range inputs {
		comp := &models.Companion{
			RegistrationID: reg.ID,
			Name:           in.Name,
			Company:        in.Company,
			Title:          in.Title,
			Phone:          utils.NormalizePhone(in.Phone),
			Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		}
		if err := s.companions.CreateCompanion(ctx, comp); err != nil {
			s.logger.Error("create companion failed",
				zap.String("registration_id", reg.ID.String()),
				zap.Error(err),
			)
			continue
		}
		created = append(created, *comp)
	}
	return created
}

func (s *Service) sendRegistrationEmail(ctx context.Context, session *models.Session, reg *models.Registration, toEmail, toName string) {
	if reg.IsApproved {
		s.sendConfirmed(ctx, session, reg, toEmail, toName)
		return
	}
	s.notifier.SendPending(ctx, session, reg, toEmail, toName)
}

func (s *Service) sendConfirmed(ctx context.Context, session *models.Session, reg *models.Registration, toEmail, toName string) {
	code, err := qr.Encode(reg.ID, session.ID)
	if err != nil {
		s.logger.Error("qr encode failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
		code = ""
	}
	s.notifier.SendConfirmed(ctx, session, reg, toEmail, toName, code)
}

func (s *Service) sendCompanionNotices(ctx context.Context, session *models.Session, companions []models.Companion, hostName string) {
	for i := range companions {
		if companions[i].Email == "" {
			continue
		}
		s.notifier.SendCompanionNotice(ctx, session, &companions[i], hostName)
	}
}

// contactFor resolves the delivery email and display name for a
// registration, looking up the owning account when present.
func (s *Service) contactFor(ctx context.Context, reg *models.Registration) (string, string) {
	if reg.IsGuest() {
		return reg.Guest.Email, reg.Guest.Name
	}
	user, err := s.users.GetUser(ctx, *reg.UserID)
	if err != nil {
		s.logger.Warn("contact lookup failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
		return "", ""
	}
	return user.Email, user.Name
}

func (s *Service) hostName(ctx context.Context, reg *models.Registration) string {
	_, name := s.contactFor(ctx, reg)
	return name
}
