package sessions

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/registrations"
	"github.com/eventpilot/backend/pkg/response"
)

// CreateRequest is the body for POST /admin/sessions.
type CreateRequest struct {
	SessionNumber       int        `json:"session_number" binding:"required"`
	Title               string     `json:"title" binding:"required"`
	Description         string     `json:"description"`
	Date                time.Time  `json:"date" binding:"required"`
	GuestName           string     `json:"guest_name"`
	GuestProfile        string     `json:"guest_profile"`
	MaxParticipants     int        `json:"max_participants" binding:"required,min=1"`
	MaxCompanions       int        `json:"max_companions" binding:"min=0"`
	RequiresApproval    bool       `json:"requires_approval"`
	ShowParticipants    bool       `json:"show_participant_count"`
	Location            string     `json:"location"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	ShowCountdown       bool       `json:"show_countdown"`
	EnableMiniView      bool       `json:"enable_mini_view"`
	ConfirmationMessage string     `json:"custom_confirmation_message"`
	EmbedEnabled        bool       `json:"embed_enabled"`
	InviteOnly          bool       `json:"invite_only"`
	InviteMessage       string     `json:"invite_message"`
}

// UpdateRequest is the body for PATCH /admin/sessions/:id. Absent
// fields keep their current value.
type UpdateRequest struct {
	SessionNumber       *int                  `json:"session_number"`
	Title               *string               `json:"title"`
	Description         *string               `json:"description"`
	Date                *time.Time            `json:"date"`
	GuestName           *string               `json:"guest_name"`
	GuestProfile        *string               `json:"guest_profile"`
	MaxParticipants     *int                  `json:"max_participants"`
	MaxCompanions       *int                  `json:"max_companions"`
	Status              *models.SessionStatus `json:"status"`
	RequiresApproval    *bool                 `json:"requires_approval"`
	ShowParticipants    *bool                 `json:"show_participant_count"`
	Location            *string               `json:"location"`
	RegistrationDeadline *time.Time           `json:"registration_deadline"`
	ShowCountdown       *bool                 `json:"show_countdown"`
	EnableMiniView      *bool                 `json:"enable_mini_view"`
	ConfirmationMessage *string               `json:"custom_confirmation_message"`
	EmbedEnabled        *bool                 `json:"embed_enabled"`
	InviteOnly          *bool                 `json:"invite_only"`
	InviteMessage       *string               `json:"invite_message"`
}

// Handler exposes session endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// publicView is the public projection of a session with registration
// availability. The participant count is surfaced only when enabled.
func (h *Handler) publicView(c *gin.Context, s *models.Session) gin.H {
	approved, err := h.repo.CountApproved(c.Request.Context(), s.ID)
	if err != nil {
		h.logger.Warn("count approved failed", zap.String("session_id", s.ID.String()), zap.Error(err))
		approved = 0
	}
	view := gin.H{
		"id":             s.ID,
		"session_number": s.SessionNumber,
		"title":          s.Title,
		"description":    s.Description,
		"date":           s.Date,
		"guest_name":     s.GuestName,
		"guest_profile":  s.GuestProfile,
		"location":       s.Location,
		"status":         s.Status,
		"slug":           s.Slug,
		"invite_only":    s.InviteOnly,
		"show_countdown": s.ShowCountdown,
		"max_companions": s.MaxCompanions,
		"can_register":   s.AcceptsRegistration(approved, time.Now()),
		"public_url":     s.PublicURL(),
	}
	if s.RegistrationDeadline != nil {
		view["registration_deadline"] = s.RegistrationDeadline
	}
	if s.ShowParticipants {
		view["approved_count"] = approved
		view["max_participants"] = s.MaxParticipants
	}
	return view
}

// List handles GET /sessions.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, h.publicView(c, &list[i]))
	}
	response.OK(c, out)
}

// Upcoming handles GET /sessions/upcoming.
func (h *Handler) Upcoming(c *gin.Context) {
	list, err := h.repo.ListUpcoming(c.Request.Context())
	if err != nil {
		h.logger.Error("list upcoming failed", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, h.publicView(c, &list[i]))
	}
	response.OK(c, out)
}

// Get handles GET /sessions/:id, accepting a UUID or a slug.
func (h *Handler) Get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	response.OK(c, h.publicView(c, s))
}

// Countdown handles GET /sessions/:id/countdown.
func (h *Handler) Countdown(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if !s.ShowCountdown {
		response.NotFound(c, "countdown not enabled")
		return
	}
	remaining := time.Until(s.Date)
	if remaining < 0 {
		remaining = 0
	}
	response.OK(c, gin.H{
		"session_id":        s.ID,
		"date":              s.Date,
		"seconds_remaining": int64(remaining.Seconds()),
	})
}

// Embed handles GET /sessions/:id/embed — the mini widget payload.
func (h *Handler) Embed(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if !s.EmbedEnabled || !s.EnableMiniView {
		response.NotFound(c, "embed not enabled")
		return
	}
	view := h.publicView(c, s)
	view["embed_url"] = s.EmbedURL()
	response.OK(c, view)
}

// GetAdmin handles GET /admin/sessions/:id with the full record.
func (h *Handler) GetAdmin(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	response.OK(c, s)
}

// Create handles POST /admin/sessions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.Session{
		SessionNumber:       req.SessionNumber,
		Title:               req.Title,
		Description:         req.Description,
		Date:                req.Date,
		GuestName:           req.GuestName,
		GuestProfile:        req.GuestProfile,
		MaxParticipants:     req.MaxParticipants,
		MaxCompanions:       req.MaxCompanions,
		Status:              models.SessionOpen,
		RequiresApproval:    req.RequiresApproval,
		ShowParticipants:    req.ShowParticipants,
		Location:            req.Location,
		RegistrationDeadline: req.RegistrationDeadline,
		ShowCountdown:       req.ShowCountdown,
		EnableMiniView:      req.EnableMiniView,
		ConfirmationMessage: req.ConfirmationMessage,
		EmbedEnabled:        req.EmbedEnabled,
		InviteOnly:          req.InviteOnly,
		InviteMessage:       req.InviteMessage,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	response.Created(c, s)
}

// Update handles PATCH /admin/sessions/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	s, err := h.repo.GetSession(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	applyUpdate(s, &req)
	if req.Status != nil {
		switch *req.Status {
		case models.SessionOpen, models.SessionClosed, models.SessionCompleted:
			s.Status = *req.Status
		default:
			response.BadRequest(c, "invalid status")
			return
		}
	}
	if err := h.repo.Update(c.Request.Context(), s); err != nil {
		h.logger.Error("update session failed", zap.String("session_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to update session")
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /admin/sessions/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("delete session failed", zap.String("session_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to delete session")
		return
	}
	response.NoContent(c)
}

func (h *Handler) lookup(c *gin.Context) (*models.Session, bool) {
	param := c.Param("id")
	var (
		s   *models.Session
		err error
	)
	if id, parseErr := uuid.Parse(param); parseErr == nil {
		s, err = h.repo.GetSession(c.Request.Context(), id)
	} else {
		s, err = h.repo.GetBySlug(c.Request.Context(), param)
	}
	if err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			response.NotFound(c, "session not found")
		} else {
			h.logger.Error("session lookup failed", zap.String("param", param), zap.Error(err))
			response.Internal(c, "session lookup failed")
		}
		return nil, false
	}
	return s, true
}

func applyUpdate(s *models.Session, req *UpdateRequest) {
	if req.SessionNumber != nil {
		s.SessionNumber = *req.SessionNumber
	}
	if req.Title != nil {
		s.Title = *req.Title
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.Date != nil {
		s.Date = *req.Date
	}
	if req.GuestName != nil {
		s.GuestName = *req.GuestName
	}
	if req.GuestProfile != nil {
		s.GuestProfile = *req.GuestProfile
	}
	if req.MaxParticipants != nil {
		s.MaxParticipants = *req.MaxParticipants
	}
	if req.MaxCompanions != nil {
		s.MaxCompanions = *req.MaxCompanions
	}
	if req.RequiresApproval != nil {
		s.RequiresApproval = *req.RequiresApproval
	}
	if req.ShowParticipants != nil {
		s.ShowParticipants = *req.ShowParticipants
	}
	if req.Location != nil {
		s.Location = *req.Location
	}
	if req.RegistrationDeadline != nil {
		s.RegistrationDeadline = req.RegistrationDeadline
	}
	if req.ShowCountdown != nil {
		s.ShowCountdown = *req.ShowCountdown
	}
	if req.EnableMiniView != nil {
		s.EnableMiniView = *req.EnableMiniView
	}
	if req.ConfirmationMessage != nil {
		s.ConfirmationMessage = *req.ConfirmationMessage
	}
	if req.EmbedEnabled != nil {
		s.EmbedEnabled = *req.EmbedEnabled
	}
	if req.InviteOnly != nil {
		s.InviteOnly = *req.InviteOnly
	}
	if req.InviteMessage != nil {
		s.InviteMessage = *req.InviteMessage
	}
}
