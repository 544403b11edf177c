package registrations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventpilot/backend/internal/models"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, notifier *fakeNotifier) *Service {
	s := NewService(store, store, store, store, store, notifier, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func openSession(store *fakeStore, mutate ...func(*models.Session)) *models.Session {
	s := &models.Session{
		SessionNumber:   1,
		Title:           "Networking Night",
		Date:            testNow.Add(48 * time.Hour),
		MaxParticipants: 50,
		MaxCompanions:   2,
		Status:          models.SessionOpen,
	}
	for _, m := range mutate {
		m(s)
	}
	return store.addSession(s)
}

func member(store *fakeStore) *models.User {
	return store.addUser(&models.User{
		Name:  "Sara Ahmed",
		Email: "sara@example.com",
		Phone: "+966501234567",
	})
}

func TestRegisterUserEligibility(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Session)
		wantErr error
	}{
		{"closed session", func(s *models.Session) { s.Status = models.SessionClosed }, ErrSessionClosed},
		{"completed session", func(s *models.Session) { s.Status = models.SessionCompleted }, ErrSessionClosed},
		{"zero capacity", func(s *models.Session) { s.MaxParticipants = 0 }, ErrSessionFull},
		{"deadline passed", func(s *models.Session) {
			d := testNow.Add(-time.Hour)
			s.RegistrationDeadline = &d
		}, ErrDeadlinePassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store, &fakeNotifier{})
			session := openSession(store, tt.mutate)
			user := member(store)

			_, err := svc.RegisterUser(context.Background(), user.ID, session.ID, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterUserFullCountsOnlyApproved(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)
	session := openSession(store, func(s *models.Session) {
		s.MaxParticipants = 1
		s.RequiresApproval = true
	})

	// A pending registration does not hold a spot.
	_, err := svc.RegisterUser(context.Background(), member(store).ID, session.ID, nil)
	require.NoError(t, err)

	second := store.addUser(&models.User{Name: "Omar", Email: "omar@example.com"})
	_, err = svc.RegisterUser(context.Background(), second.ID, session.ID, nil)
	assert.NoError(t, err)
}

func TestRegisterUserApprovalSplit(t *testing.T) {
	t.Run("auto approve sends confirmation with qr", func(t *testing.T) {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		svc := newTestService(store, notifier)
		session := openSession(store)
		user := member(store)

		reg, err := svc.RegisterUser(context.Background(), user.ID, session.ID, nil)
		require.NoError(t, err)
		assert.True(t, reg.IsApproved)
		require.NotNil(t, reg.UserID)
		assert.Equal(t, user.ID, *reg.UserID)
		assert.Equal(t, models.GuestDetails{}, reg.Guest, "account registration carries no guest bundle")

		require.Len(t, notifier.confirmed, 1)
		assert.Equal(t, "sara@example.com", notifier.confirmed[0])
		assert.Contains(t, notifier.qrCodes[0], "data:image/png;base64,")
		assert.Empty(t, notifier.pending)
	})

	t.Run("approval required sends pending", func(t *testing.T) {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		svc := newTestService(store, notifier)
		session := openSession(store, func(s *models.Session) { s.RequiresApproval = true })
		user := member(store)

		reg, err := svc.RegisterUser(context.Background(), user.ID, session.ID, nil)
		require.NoError(t, err)
		assert.False(t, reg.IsApproved)
		assert.Len(t, notifier.pending, 1)
		assert.Empty(t, notifier.confirmed)
	})
}

func TestRegisterUserDuplicate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{})
	session := openSession(store)
	user := member(store)

	_, err := svc.RegisterUser(context.Background(), user.ID, session.ID, nil)
	require.NoError(t, err)
	_, err = svc.RegisterUser(context.Background(), user.ID, session.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterUserCompanionLimit(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)
	session := openSession(store, func(s *models.Session) { s.MaxCompanions = 1 })
	user := member(store)

	_, err := svc.RegisterUser(context.Background(), user.ID, session.ID, []CompanionInput{
		{Name: "A"}, {Name: "B"},
	})
	assert.ErrorIs(t, err, ErrCompanionLimit)

	reg, err := svc.RegisterUser(context.Background(), user.ID, session.ID, []CompanionInput{
		{Name: "A", Email: "a@example.com"},
	})
	require.NoError(t, err)
	comps, err := svc.ListCompanions(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Len(t, comps, 1)
	assert.Equal(t, []string{"a@example.com"}, notifier.companion)
}

func TestRegisterGuest(t *testing.T) {
	t.Run("creates guest registration", func(t *testing.T) {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		svc := newTestService(store, notifier)
		session := openSession(store)

		reg, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name:  "Walk In",
			Email: "Walk.In@Example.com",
			Phone: "+966 50-999 8877",
		}, nil)
		require.NoError(t, err)
		assert.Nil(t, reg.UserID)
		assert.Equal(t, "walk.in@example.com", reg.Guest.Email)
		assert.Equal(t, "+966509998877", reg.Guest.Phone)
		assert.True(t, reg.IsApproved)
		assert.Equal(t, []string{"walk.in@example.com"}, notifier.confirmed)
	})

	t.Run("requires some contact", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, &fakeNotifier{})
		session := openSession(store)
		_, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{Name: "No Contact"}, nil)
		assert.ErrorIs(t, err, ErrGuestContactMissing)
	})

	t.Run("duplicate by email or phone", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, &fakeNotifier{})
		session := openSession(store)

		_, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name: "First", Email: "dup@example.com", Phone: "+966500000001",
		}, nil)
		require.NoError(t, err)

		_, err = svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name: "Same Email", Email: "DUP@example.com",
		}, nil)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)

		_, err = svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name: "Same Phone", Phone: "+966 50 000 0001",
		}, nil)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("matching account registers under it", func(t *testing.T) {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		svc := newTestService(store, notifier)
		session := openSession(store)
		user := member(store)

		reg, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name: "Sara As Guest", Email: "SARA@example.com",
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, reg.UserID)
		assert.Equal(t, user.ID, *reg.UserID)
		assert.Equal(t, models.GuestDetails{}, reg.Guest)
		assert.Equal(t, []string{"sara@example.com"}, notifier.confirmed)

		// And a second attempt hits the account duplicate guard.
		_, err = svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name: "Again", Email: "sara@example.com",
		}, nil)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})
}

func TestRegisterGuestInviteOnly(t *testing.T) {
	setup := func() (*fakeStore, *Service, *models.Session, *models.Invite) {
		store := newFakeStore()
		svc := newTestService(store, &fakeNotifier{})
		session := openSession(store, func(s *models.Session) { s.InviteOnly = true })
		invite := store.addInvite(&models.Invite{
			SessionID: session.ID,
			Email:     "vip@example.com",
			Token:     "vip-token",
			ExpiresAt: testNow.Add(7 * 24 * time.Hour),
		})
		return store, svc, session, invite
	}
	guest := GuestInput{Name: "VIP", Email: "vip@example.com"}

	t.Run("missing token", func(t *testing.T) {
		_, svc, session, _ := setup()
		_, err := svc.RegisterGuest(context.Background(), session.ID, "", guest, nil)
		assert.ErrorIs(t, err, ErrInviteRequired)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, svc, session, _ := setup()
		_, err := svc.RegisterGuest(context.Background(), session.ID, "nope", guest, nil)
		assert.ErrorIs(t, err, ErrInviteInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		store, svc, session, invite := setup()
		store.invites[invite.ID].ExpiresAt = testNow.Add(-time.Minute)
		_, err := svc.RegisterGuest(context.Background(), session.ID, "vip-token", guest, nil)
		assert.ErrorIs(t, err, ErrInviteInvalid)
	})

	t.Run("token bound to another session", func(t *testing.T) {
		store, svc, _, _ := setup()
		other := openSession(store, func(s *models.Session) { s.InviteOnly = true })
		_, err := svc.RegisterGuest(context.Background(), other.ID, "vip-token", guest, nil)
		assert.ErrorIs(t, err, ErrInviteInvalid)
	})

	t.Run("failed insert leaves token live", func(t *testing.T) {
		store, svc, session, invite := setup()
		store.createErr = errors.New("insert failed")
		_, err := svc.RegisterGuest(context.Background(), session.ID, "vip-token", guest, nil)
		require.Error(t, err)
		assert.False(t, store.invites[invite.ID].Used)

		store.createErr = nil
		_, err = svc.RegisterGuest(context.Background(), session.ID, "vip-token", guest, nil)
		require.NoError(t, err)
		assert.True(t, store.invites[invite.ID].Used)
	})

	t.Run("valid token is consumed exactly once", func(t *testing.T) {
		store, svc, session, invite := setup()
		_, err := svc.RegisterGuest(context.Background(), session.ID, "vip-token", guest, nil)
		require.NoError(t, err)
		assert.True(t, store.invites[invite.ID].Used)

		_, err = svc.RegisterGuest(context.Background(), session.ID, "vip-token", GuestInput{
			Name: "Tailgater", Email: "other@example.com",
		}, nil)
		assert.ErrorIs(t, err, ErrInviteInvalid)
	})
}

func TestApprove(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)
	session := openSession(store, func(s *models.Session) { s.RequiresApproval = true })

	reg, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
		Name: "Pending Guest", Email: "pending@example.com",
	}, nil)
	require.NoError(t, err)
	require.False(t, reg.IsApproved)

	approved, err := svc.Approve(context.Background(), reg.ID, "looks good")
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.Equal(t, "looks good", approved.ApprovalNotes)
	require.Len(t, notifier.confirmed, 1)
	assert.Contains(t, notifier.qrCodes[0], "data:image/png;base64,")

	// Approval is one-way.
	_, err = svc.Approve(context.Background(), reg.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyApproved)
	assert.Equal(t, "looks good", store.regs[reg.ID].ApprovalNotes)

	_, err = svc.Approve(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveAll(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)
	session := openSession(store, func(s *models.Session) { s.RequiresApproval = true })

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{Name: email, Email: email}, nil)
		require.NoError(t, err)
	}
	// One already approved; it must not be counted again.
	pre, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{Name: "d", Email: "d@example.com"}, nil)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), pre.ID, "")
	require.NoError(t, err)
	notifier.confirmed = nil

	count, err := svc.ApproveAll(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, notifier.confirmed, 3)

	count, err = svc.ApproveAll(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAdoptGuestRegistrations(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{})
	s1 := openSession(store)
	s2 := openSession(store)

	byEmail, err := svc.RegisterGuest(context.Background(), s1.ID, "", GuestInput{
		Name: "G", Email: "new.user@example.com",
	}, nil)
	require.NoError(t, err)
	byPhone, err := svc.RegisterGuest(context.Background(), s2.ID, "", GuestInput{
		Name: "G", Phone: "+966 51 111 2233",
	}, nil)
	require.NoError(t, err)
	unrelated, err := svc.RegisterGuest(context.Background(), s1.ID, "", GuestInput{
		Name: "Other", Email: "other@example.com",
	}, nil)
	require.NoError(t, err)

	owner := store.addUser(&models.User{Name: "Existing", Email: "existing@example.com"})
	owned, err := svc.RegisterUser(context.Background(), owner.ID, s2.ID, nil)
	require.NoError(t, err)

	user := store.addUser(&models.User{
		Name: "New User", Email: "New.User@example.com", Phone: "+966511112233",
	})
	n, err := svc.AdoptGuestRegistrations(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []uuid.UUID{byEmail.ID, byPhone.ID} {
		got := store.regs[id]
		require.NotNil(t, got.UserID)
		assert.Equal(t, user.ID, *got.UserID)
		assert.Equal(t, models.GuestDetails{}, got.Guest, "guest bundle cleared on adoption")
	}
	assert.Nil(t, store.regs[unrelated.ID].UserID)
	assert.Equal(t, owner.ID, *store.regs[owned.ID].UserID, "rows owned by another account are untouched")

	// Running the merge again is a no-op.
	n, err = svc.AdoptGuestRegistrations(context.Background(), user)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPromoteCompanion(t *testing.T) {
	setup := func(requiresApproval bool) (*fakeStore, *Service, *fakeNotifier, *models.Registration, models.Companion) {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		svc := newTestService(store, notifier)
		session := openSession(store, func(s *models.Session) { s.RequiresApproval = requiresApproval })

		parent, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name: "Host", Email: "host@example.com",
		}, []CompanionInput{{Name: "Plus One", Email: "plus@example.com", Company: "Acme", Title: "CTO"}})
		require.NoError(t, err)
		comps, err := svc.ListCompanions(context.Background(), parent.ID)
		require.NoError(t, err)
		require.Len(t, comps, 1)
		return store, svc, notifier, parent, comps[0]
	}

	t.Run("inherits approved state", func(t *testing.T) {
		store, svc, notifier, parent, comp := setup(false)
		notifier.confirmed = nil

		reg, err := svc.PromoteCompanion(context.Background(), comp.ID)
		require.NoError(t, err)
		assert.Equal(t, parent.SessionID, reg.SessionID)
		assert.True(t, reg.IsApproved)
		assert.Nil(t, reg.UserID)
		assert.Equal(t, "plus@example.com", reg.Guest.Email)
		assert.Equal(t, "Acme", reg.Guest.CompanyName)
		assert.Equal(t, "CTO", reg.Guest.Position)
		assert.Equal(t, []string{"plus@example.com"}, notifier.confirmed)

		stored := store.companions[comp.ID]
		require.NotNil(t, stored.ConvertedRegistrationID)
		assert.Equal(t, reg.ID, *stored.ConvertedRegistrationID)
	})

	t.Run("inherits pending state", func(t *testing.T) {
		_, svc, notifier, _, comp := setup(true)
		notifier.pending = nil

		reg, err := svc.PromoteCompanion(context.Background(), comp.ID)
		require.NoError(t, err)
		assert.False(t, reg.IsApproved)
		assert.Equal(t, []string{"plus@example.com"}, notifier.pending)
	})

	t.Run("conversion link is write-once", func(t *testing.T) {
		store, svc, _, _, comp := setup(false)
		first, err := svc.PromoteCompanion(context.Background(), comp.ID)
		require.NoError(t, err)

		_, err = svc.PromoteCompanion(context.Background(), comp.ID)
		assert.ErrorIs(t, err, ErrCompanionConverted)
		assert.Equal(t, first.ID, *store.companions[comp.ID].ConvertedRegistrationID)
	})

	t.Run("requires email", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, &fakeNotifier{})
		session := openSession(store)
		parent, err := svc.RegisterGuest(context.Background(), session.ID, "", GuestInput{
			Name: "Host", Email: "host@example.com",
		}, []CompanionInput{{Name: "No Email"}})
		require.NoError(t, err)
		comps, _ := svc.ListCompanions(context.Background(), parent.ID)
		require.Len(t, comps, 1)

		_, err = svc.PromoteCompanion(context.Background(), comps[0].ID)
		assert.ErrorIs(t, err, ErrCompanionNoEmail)
	})
}

func TestAddCompanionsEnforcesTotalLimit(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{})
	session := openSession(store, func(s *models.Session) { s.MaxCompanions = 2 })
	user := member(store)

	reg, err := svc.RegisterUser(context.Background(), user.ID, session.ID, []CompanionInput{{Name: "A"}})
	require.NoError(t, err)

	_, err = svc.AddCompanions(context.Background(), reg.ID, []CompanionInput{{Name: "B"}, {Name: "C"}})
	assert.ErrorIs(t, err, ErrCompanionLimit)

	added, err := svc.AddCompanions(context.Background(), reg.ID, []CompanionInput{{Name: "B"}})
	require.NoError(t, err)
	assert.Len(t, added, 1)
}
