package registrations

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/middleware"
	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/qr"
	"github.com/eventpilot/backend/pkg/response"
)

// GuestRegisterRequest is the body for POST /sessions/:id/register.
type GuestRegisterRequest struct {
	GuestInput
	InviteToken string           `json:"invite_token"`
	Companions  []CompanionInput `json:"companions"`
}

// UserRegisterRequest is the body for POST /sessions/:id/register/me.
type UserRegisterRequest struct {
	Companions []CompanionInput `json:"companions"`
}

// ApproveRequest is the body for POST /admin/registrations/:id/approve.
type ApproveRequest struct {
	Notes string `json:"notes"`
}

// CompanionsRequest is the body for POST /registrations/:id/companions.
type CompanionsRequest struct {
	Companions []CompanionInput `json:"companions" binding:"required,min=1,dive"`
}

// Handler exposes registration endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterGuest handles POST /sessions/:id/register (public).
func (h *Handler) RegisterGuest(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req GuestRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.service.RegisterGuest(c.Request.Context(), sessionID, req.InviteToken, req.GuestInput, req.Companions)
	if err != nil {
		h.writeError(c, err, "guest registration failed")
		return
	}
	response.Created(c, reg)
}

// RegisterMe handles POST /sessions/:id/register/me (JWT).
func (h *Handler) RegisterMe(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.service.RegisterUser(c.Request.Context(), userID, sessionID, req.Companions)
	if err != nil {
		h.writeError(c, err, "user registration failed")
		return
	}
	response.Created(c, reg)
}

// Approve handles POST /admin/registrations/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.service.Approve(c.Request.Context(), id, req.Notes)
	if err != nil {
		h.writeError(c, err, "approve failed")
		return
	}
	response.OK(c, reg)
}

// ApproveAll handles POST /admin/sessions/:id/approve-all.
func (h *Handler) ApproveAll(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	count, err := h.service.ApproveAll(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err, "approve all failed")
		return
	}
	response.OK(c, gin.H{"approved": count})
}

// ListBySession handles GET /admin/sessions/:id/registrations.
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	list, err := h.service.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err, "list registrations failed")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, list)
}

// Confirmation handles GET /registrations/:id/confirmation (public).
// Approved registrations include the check-in QR code.
func (h *Handler) Confirmation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "confirmation lookup failed")
		return
	}
	body := gin.H{
		"registration_id": reg.ID,
		"session_id":      reg.SessionID,
		"is_approved":     reg.IsApproved,
	}
	if reg.IsApproved {
		if code, err := qr.Encode(reg.ID, reg.SessionID); err == nil {
			body["qr_code"] = code
		}
	}
	response.OK(c, body)
}

// AddCompanions handles POST /registrations/:id/companions (JWT, owner only).
func (h *Handler) AddCompanions(c *gin.Context) {
	reg, ok := h.ownedRegistration(c)
	if !ok {
		return
	}
	var req CompanionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	created, err := h.service.AddCompanions(c.Request.Context(), reg.ID, req.Companions)
	if err != nil {
		h.writeError(c, err, "add companions failed")
		return
	}
	response.Created(c, created)
}

// ListCompanions handles GET /registrations/:id/companions (JWT, owner only).
func (h *Handler) ListCompanions(c *gin.Context) {
	reg, ok := h.ownedRegistration(c)
	if !ok {
		return
	}
	list, err := h.service.ListCompanions(c.Request.Context(), reg.ID)
	if err != nil {
		h.writeError(c, err, "list companions failed")
		return
	}
	if list == nil {
		list = []models.Companion{}
	}
	response.OK(c, list)
}

// PromoteCompanion handles POST /admin/companions/:id/promote.
func (h *Handler) PromoteCompanion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid companion id")
		return
	}
	reg, err := h.service.PromoteCompanion(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "promote companion failed")
		return
	}
	response.Created(c, reg)
}

// ownedRegistration loads the :id registration and checks the caller
// owns it. Writes the error response itself on failure.
func (h *Handler) ownedRegistration(c *gin.Context) (*models.Registration, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return nil, false
	}
	reg, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "registration lookup failed")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if reg.UserID == nil || *reg.UserID != userID {
		response.Forbidden(c, "not your registration")
		return nil, false
	}
	return reg, true
}

func (h *Handler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrAlreadyApproved),
		errors.Is(err, ErrCompanionConverted):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrSessionFull),
		errors.Is(err, ErrDeadlinePassed), errors.Is(err, ErrCompanionLimit),
		errors.Is(err, ErrInviteRequired), errors.Is(err, ErrInviteInvalid),
		errors.Is(err, ErrCompanionNoEmail), errors.Is(err, ErrGuestContactMissing):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error(logMsg, zap.Error(err))
		response.Internal(c, "internal error")
	}
}
