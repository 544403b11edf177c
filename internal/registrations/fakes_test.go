package registrations

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eventpilot/backend/internal/models"
)

// fakeStore is an in-memory implementation of every store interface
// the engine depends on.
type fakeStore struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*models.Session
	regs       map[uuid.UUID]*models.Registration
	companions map[uuid.UUID]*models.Companion
	invites    map[uuid.UUID]*models.Invite
	users      map[uuid.UUID]*models.User

	createErr error // returned by Create when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:   map[uuid.UUID]*models.Session{},
		regs:       map[uuid.UUID]*models.Registration{},
		companions: map[uuid.UUID]*models.Companion{},
		invites:    map[uuid.UUID]*models.Invite{},
		users:      map[uuid.UUID]*models.User{},
	}
}

func (f *fakeStore) addSession(s *models.Session) *models.Session {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.sessions[s.ID] = s
	return s
}

func (f *fakeStore) addUser(u *models.User) *models.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addInvite(i *models.Invite) *models.Invite {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	f.invites[i.ID] = i
	return i
}

func (f *fakeStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *s
	return &copy, nil
}

func (f *fakeStore) CountApproved(_ context.Context, sessionID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.regs {
		if r.SessionID == sessionID && r.IsApproved {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Create(_ context.Context, reg *models.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	reg.ID = uuid.New()
	copy := *reg
	f.regs[reg.ID] = &copy
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *r
	return &copy, nil
}

func (f *fakeStore) FindByUser(_ context.Context, sessionID, userID uuid.UUID) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.SessionID == sessionID && r.UserID != nil && *r.UserID == userID {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByGuestContact(_ context.Context, sessionID uuid.UUID, email, phone string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.SessionID != sessionID || r.UserID != nil {
			continue
		}
		if (email != "" && strings.EqualFold(r.Guest.Email, email)) ||
			(phone != "" && r.Guest.Phone == phone) {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) MarkApproved(_ context.Context, id uuid.UUID, notes string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.IsApproved {
		return false, nil
	}
	r.IsApproved = true
	r.ApprovalNotes = notes
	return true, nil
}

func (f *fakeStore) ApproveAllPending(_ context.Context, sessionID uuid.UUID) ([]models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Registration
	for _, r := range f.regs {
		if r.SessionID == sessionID && !r.IsApproved {
			r.IsApproved = true
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) AdoptGuests(_ context.Context, userID uuid.UUID, email, phone string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.regs {
		if r.UserID != nil {
			continue
		}
		match := (email != "" && strings.EqualFold(r.Guest.Email, email)) ||
			(phone != "" && r.Guest.Phone == phone)
		if !match {
			continue
		}
		uid := userID
		r.UserID = &uid
		r.Guest = models.GuestDetails{}
		n++
	}
	return n, nil
}

func (f *fakeStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Registration
	for _, r := range f.regs {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCompanion(_ context.Context, comp *models.Companion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comp.ID = uuid.New()
	copy := *comp
	f.companions[comp.ID] = &copy
	return nil
}

func (f *fakeStore) GetCompanionByID(_ context.Context, id uuid.UUID) (*models.Companion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (f *fakeStore) ListCompanionsByRegistration(_ context.Context, registrationID uuid.UUID) ([]models.Companion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Companion
	for _, c := range f.companions {
		if c.RegistrationID == registrationID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) CountCompanionsByRegistration(_ context.Context, registrationID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.companions {
		if c.RegistrationID == registrationID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) SetCompanionConverted(_ context.Context, companionID, registrationID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companions[companionID]
	if !ok || c.ConvertedRegistrationID != nil {
		return false, nil
	}
	rid := registrationID
	c.ConvertedRegistrationID = &rid
	return true, nil
}

func (f *fakeStore) GetByToken(_ context.Context, token string) (*models.Invite, error) {
	for _, i := range f.invites {
		if i.Token == token {
			copy := *i
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Consume(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.invites[id]
	if !ok || i.Used {
		return false, nil
	}
	i.Used = true
	return true, nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeStore) FindByContact(_ context.Context, email, phone string) (*models.User, error) {
	for _, u := range f.users {
		if (email != "" && strings.EqualFold(u.Email, email)) ||
			(phone != "" && u.Phone == phone) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

// fakeNotifier records every send.
type fakeNotifier struct {
	pending   []string // recipient emails
	confirmed []string
	qrCodes   []string
	companion []string
}

func (f *fakeNotifier) SendPending(_ context.Context, _ *models.Session, _ *models.Registration, toEmail, _ string) bool {
	f.pending = append(f.pending, toEmail)
	return true
}

func (f *fakeNotifier) SendConfirmed(_ context.Context, _ *models.Session, _ *models.Registration, toEmail, _, qrDataURI string) bool {
	f.confirmed = append(f.confirmed, toEmail)
	f.qrCodes = append(f.qrCodes, qrDataURI)
	return true
}

func (f *fakeNotifier) SendCompanionNotice(_ context.Context, _ *models.Session, comp *models.Companion, _ string) bool {
	f.companion = append(f.companion, comp.Email)
	return true
}
