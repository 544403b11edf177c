package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/registrations"
)

type attendanceKey struct {
	userID    uuid.UUID
	sessionID uuid.UUID
}

// fakeStore is an in-memory Store with the same merge rules as the
// attendance upsert: attended and qr_verified only ever flip to true,
// check_in_time is stamped once.
type fakeStore struct {
	mu   sync.Mutex
	rows map[attendanceKey]*models.Attendance
	now  func() time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows: map[attendanceKey]*models.Attendance{},
		now:  time.Now,
	}
}

func (f *fakeStore) Mark(_ context.Context, userID, sessionID uuid.UUID, attended, qrVerified bool) (*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := attendanceKey{userID: userID, sessionID: sessionID}
	a, ok := f.rows[key]
	if !ok {
		a = &models.Attendance{
			ID:        uuid.New(),
			UserID:    userID,
			SessionID: sessionID,
		}
		f.rows[key] = a
	}
	a.Attended = a.Attended || attended
	a.QRVerified = a.QRVerified || qrVerified
	if a.CheckInTime == nil && attended {
		t := f.now()
		a.CheckInTime = &t
	}
	copy := *a
	return &copy, nil
}

func (f *fakeStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]Row, Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []Row
	var stats Stats
	for _, a := range f.rows {
		if a.SessionID != sessionID {
			continue
		}
		list = append(list, Row{
			UserID:      a.UserID,
			Attended:    a.Attended,
			CheckInTime: a.CheckInTime,
			QRVerified:  a.QRVerified,
		})
		stats.Registered++
		if a.Attended {
			stats.CheckedIn++
		}
		if a.QRVerified {
			stats.QRVerified++
		}
	}
	return list, stats, nil
}

// fakeRegs is an in-memory RegistrationSource.
type fakeRegs struct {
	regs map[uuid.UUID]*models.Registration
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{regs: map[uuid.UUID]*models.Registration{}}
}

func (f *fakeRegs) add(reg *models.Registration) *models.Registration {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	f.regs[reg.ID] = reg
	return reg
}

func (f *fakeRegs) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, ok := f.regs[id]
	if !ok {
		return nil, registrations.ErrNotFound
	}
	copy := *reg
	return &copy, nil
}

func (f *fakeRegs) FindUserRegistration(_ context.Context, sessionID, userID uuid.UUID) (*models.Registration, error) {
	for _, reg := range f.regs {
		if reg.SessionID == sessionID && reg.UserID != nil && *reg.UserID == userID {
			copy := *reg
			return &copy, nil
		}
	}
	return nil, nil
}
