package attendance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventpilot/backend/internal/middleware"
	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/qr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doMark(h *Handler, sessionID, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = postJSON(body)
	c.Params = gin.Params{
		{Key: "id", Value: sessionID.String()},
		{Key: "userID", Value: userID.String()},
	}
	h.Mark(c)
	return w
}

func doCheckInQR(h *Handler, registrationID, sessionID uuid.UUID) *httptest.ResponseRecorder {
	payload, err := json.Marshal(qr.Payload{
		Type:           qr.PayloadType,
		RegistrationID: registrationID,
		SessionID:      sessionID,
	})
	if err != nil {
		panic(err)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = postJSON(fmt.Sprintf(`{"payload": %q}`, payload))
	h.CheckInQR(c)
	return w
}

func TestMarkIsIdempotent(t *testing.T) {
	store := newFakeStore()
	first := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	now := first
	store.now = func() time.Time { return now }
	h := NewHandler(store, newFakeRegs(), nil)

	sessionID := uuid.New()
	userID := uuid.New()

	w := doMark(h, sessionID, userID, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.rows, 1)

	now = first.Add(20 * time.Minute)
	w = doMark(h, sessionID, userID, `{"attended": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, store.rows, 1)
	row := store.rows[attendanceKey{userID: userID, sessionID: sessionID}]
	assert.True(t, row.Attended)
	assert.False(t, row.QRVerified)
	require.NotNil(t, row.CheckInTime)
	assert.Equal(t, first, *row.CheckInTime, "re-marking must keep the original check-in time")
}

func TestMarkRejectsUnmark(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, newFakeRegs(), nil)

	w := doMark(h, uuid.New(), uuid.New(), `{"attended": false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.rows)
}

func TestCheckInQR(t *testing.T) {
	setup := func() (*fakeStore, *fakeRegs, *Handler) {
		store := newFakeStore()
		regs := newFakeRegs()
		return store, regs, NewHandler(store, regs, nil)
	}
	sessionID := uuid.New()
	userID := uuid.New()

	t.Run("stamps qr_verified for account holders", func(t *testing.T) {
		store, regs, h := setup()
		reg := regs.add(&models.Registration{SessionID: sessionID, UserID: &userID, IsApproved: true})

		w := doCheckInQR(h, reg.ID, sessionID)
		require.Equal(t, http.StatusOK, w.Code)

		row := store.rows[attendanceKey{userID: userID, sessionID: sessionID}]
		require.NotNil(t, row)
		assert.True(t, row.Attended)
		assert.True(t, row.QRVerified)
		assert.NotNil(t, row.CheckInTime)
	})

	t.Run("scan after manual mark keeps the single row", func(t *testing.T) {
		store, regs, h := setup()
		reg := regs.add(&models.Registration{SessionID: sessionID, UserID: &userID, IsApproved: true})

		require.Equal(t, http.StatusOK, doMark(h, sessionID, userID, "").Code)
		row := store.rows[attendanceKey{userID: userID, sessionID: sessionID}]
		checkIn := *row.CheckInTime

		require.Equal(t, http.StatusOK, doCheckInQR(h, reg.ID, sessionID).Code)
		require.Len(t, store.rows, 1)
		assert.True(t, row.QRVerified)
		assert.Equal(t, checkIn, *row.CheckInTime)
	})

	t.Run("guest check-in records no attendance row", func(t *testing.T) {
		store, regs, h := setup()
		reg := regs.add(&models.Registration{
			SessionID:  sessionID,
			IsApproved: true,
			Guest:      models.GuestDetails{Name: "Walk In", Email: "walkin@example.com"},
		})

		w := doCheckInQR(h, reg.ID, sessionID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, store.rows)
	})

	t.Run("rejects a code for another session", func(t *testing.T) {
		_, regs, h := setup()
		reg := regs.add(&models.Registration{SessionID: sessionID, UserID: &userID, IsApproved: true})

		w := doCheckInQR(h, reg.ID, uuid.New())
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a pending registration", func(t *testing.T) {
		_, regs, h := setup()
		reg := regs.add(&models.Registration{SessionID: sessionID, UserID: &userID})

		w := doCheckInQR(h, reg.ID, sessionID)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown registration is a 404", func(t *testing.T) {
		_, _, h := setup()
		w := doCheckInQR(h, uuid.New(), sessionID)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMyQR(t *testing.T) {
	doMyQR := func(h *Handler, sessionID, userID uuid.UUID) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: sessionID.String()}}
		c.Set(middleware.ContextUserID, userID)
		h.MyQR(c)
		return w
	}
	sessionID := uuid.New()
	userID := uuid.New()

	t.Run("approved registration gets a code", func(t *testing.T) {
		regs := newFakeRegs()
		regs.add(&models.Registration{SessionID: sessionID, UserID: &userID, IsApproved: true})
		h := NewHandler(newFakeStore(), regs, nil)

		w := doMyQR(h, sessionID, userID)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data struct {
				QRCode string `json:"qr_code"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, strings.HasPrefix(body.Data.QRCode, "data:image/png;base64,"))
	})

	t.Run("no registration is a 404", func(t *testing.T) {
		h := NewHandler(newFakeStore(), newFakeRegs(), nil)
		w := doMyQR(h, sessionID, userID)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("pending registration is forbidden", func(t *testing.T) {
		regs := newFakeRegs()
		regs.add(&models.Registration{SessionID: sessionID, UserID: &userID})
		h := NewHandler(newFakeStore(), regs, nil)

		w := doMyQR(h, sessionID, userID)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
