package attendance

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/middleware"
	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/qr"
	"github.com/eventpilot/backend/internal/registrations"
	"github.com/eventpilot/backend/pkg/response"
)

// CheckInQRRequest is the body for POST /admin/checkin/qr — the raw
// text scanned from a badge.
type CheckInQRRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// MarkRequest is the body for POST /admin/sessions/:id/checkin/:userID.
// Only attended=true is accepted; check-ins are never un-marked.
type MarkRequest struct {
	Attended *bool `json:"attended"`
}

// Store persists attendance rows. Satisfied by *Repository.
type Store interface {
	Mark(ctx context.Context, userID, sessionID uuid.UUID, attended, qrVerified bool) (*models.Attendance, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Row, Stats, error)
}

// RegistrationSource resolves registrations for check-in. Satisfied by
// the registrations service.
type RegistrationSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	FindUserRegistration(ctx context.Context, sessionID, userID uuid.UUID) (*models.Registration, error)
}

// Handler exposes attendance endpoints.
type Handler struct {
	store  Store
	regs   RegistrationSource
	logger *zap.Logger
}

// NewHandler creates an attendance handler.
func NewHandler(store Store, regs RegistrationSource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, regs: regs, logger: logger}
}

// Mark handles POST /admin/sessions/:id/checkin/:userID — manual
// check-in by an admin at the door.
func (h *Handler) Mark(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Attended != nil && !*req.Attended {
		response.BadRequest(c, "un-marking attendance is not supported")
		return
	}
	a, err := h.store.Mark(c.Request.Context(), userID, sessionID, true, false)
	if err != nil {
		h.logger.Error("mark attendance failed",
			zap.String("session_id", sessionID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		response.Internal(c, "failed to mark attendance")
		return
	}
	response.OK(c, a)
}

// CheckInQR handles POST /admin/checkin/qr. Scanned codes resolve to a
// registration; approved account holders get an attendance upsert,
// approved guests are confirmed without one.
func (h *Handler) CheckInQR(c *gin.Context) {
	var req CheckInQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	payload, err := qr.Decode(req.Payload)
	if err != nil {
		response.BadRequest(c, "invalid qr payload")
		return
	}
	reg, err := h.regs.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			response.NotFound(c, "registration not found")
			return
		}
		response.Internal(c, "registration lookup failed")
		return
	}
	if reg.SessionID != payload.SessionID {
		response.BadRequest(c, "qr code does not match this session")
		return
	}
	if !reg.IsApproved {
		response.Forbidden(c, "registration is not approved")
		return
	}

	if reg.IsGuest() {
		response.OK(c, gin.H{
			"checked_in":      true,
			"guest":           true,
			"registration_id": reg.ID,
			"name":            reg.Guest.Name,
		})
		return
	}

	a, err := h.store.Mark(ctx, *reg.UserID, reg.SessionID, true, true)
	if err != nil {
		h.logger.Error("qr check-in failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
		response.Internal(c, "failed to record check-in")
		return
	}
	response.OK(c, gin.H{
		"checked_in":      true,
		"guest":           false,
		"registration_id": reg.ID,
		"attendance":      a,
	})
}

// ListBySession handles GET /admin/sessions/:id/attendance.
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	list, stats, err := h.store.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list attendance failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		response.Internal(c, "failed to list attendance")
		return
	}
	if list == nil {
		list = []Row{}
	}
	response.OK(c, gin.H{"attendees": list, "stats": stats})
}

// MyQR handles GET /sessions/:id/qr (JWT) — returns the caller's
// check-in code for an approved registration.
func (h *Handler) MyQR(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	reg, err := h.regs.FindUserRegistration(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Internal(c, "registration lookup failed")
		return
	}
	if reg == nil {
		response.NotFound(c, "no registration for this session")
		return
	}
	if !reg.IsApproved {
		response.Forbidden(c, "registration is not approved yet")
		return
	}
	code, err := qr.Encode(reg.ID, reg.SessionID)
	if err != nil {
		h.logger.Error("qr encode failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
		response.Internal(c, "failed to generate qr code")
		return
	}
	response.OK(c, gin.H{"registration_id": reg.ID, "qr_code": code})
}
