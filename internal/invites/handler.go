package invites

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/notifier"
	"github.com/eventpilot/backend/internal/registrations"
	"github.com/eventpilot/backend/internal/sessions"
	"github.com/eventpilot/backend/pkg/response"
	"github.com/eventpilot/backend/pkg/utils"
)

// inviteTTL is how long an invitation can be redeemed.
const inviteTTL = 7 * 24 * time.Hour

// SendRequest is the body for POST /admin/sessions/:id/invites.
type SendRequest struct {
	Emails []string `json:"emails" binding:"required,min=1,dive,email"`
}

// WhatsAppRequest is the body for POST /admin/sessions/:id/invites/whatsapp.
type WhatsAppRequest struct {
	Phones []string `json:"phones" binding:"required,min=1"`
}

// Handler exposes invitation endpoints.
type Handler struct {
	repo     *Repository
	sessions *sessions.Repository
	notifier *notifier.Notifier
	baseURL  string
	logger   *zap.Logger
}

// NewHandler creates an invites handler.
func NewHandler(repo *Repository, sessionRepo *sessions.Repository, n *notifier.Notifier, baseURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:     repo,
		sessions: sessionRepo,
		notifier: n,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// Send handles POST /admin/sessions/:id/invites. Addresses with a live
// invite are skipped rather than re-invited.
func (h *Handler) Send(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	var sent, skipped []string
	for _, email := range req.Emails {
		email = strings.ToLower(strings.TrimSpace(email))
		live, err := h.repo.FindLive(ctx, session.ID, email)
		if err != nil {
			h.logger.Error("invite dedup lookup failed", zap.String("email", email), zap.Error(err))
			continue
		}
		if live != nil {
			skipped = append(skipped, email)
			continue
		}
		invite, err := h.create(c, session.ID, email)
		if err != nil {
			h.logger.Error("create invite failed", zap.String("email", email), zap.Error(err))
			continue
		}
		if h.notifier.SendInvitation(ctx, session, invite) {
			_ = h.repo.MarkSent(ctx, invite.ID)
		}
		sent = append(sent, email)
	}
	response.OK(c, gin.H{"sent": sent, "skipped": skipped})
}

// SendWhatsApp handles POST /admin/sessions/:id/invites/whatsapp.
// Phone invites get placeholder emails and a wa.me share link instead
// of an email delivery.
func (h *Handler) SendWhatsApp(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req WhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	type link struct {
		Phone       string `json:"phone"`
		WhatsAppURL string `json:"whatsapp_url"`
		InviteURL   string `json:"invite_url"`
	}
	var links []link
	for _, phone := range req.Phones {
		phone = utils.NormalizePhone(phone)
		if phone == "" {
			continue
		}
		placeholder := "whatsapp-" + strings.TrimPrefix(phone, "+") + "@placeholder.local"
		live, err := h.repo.FindLive(ctx, session.ID, placeholder)
		if err != nil {
			h.logger.Error("invite dedup lookup failed", zap.String("phone", phone), zap.Error(err))
			continue
		}
		invite := live
		if invite == nil {
			invite, err = h.create(c, session.ID, placeholder)
			if err != nil {
				h.logger.Error("create invite failed", zap.String("phone", phone), zap.Error(err))
				continue
			}
		}
		inviteURL := h.baseURL + session.PublicURL() + "?invite=" + invite.Token
		message := session.InviteMessage
		if message == "" {
			message = "You're invited to " + session.Title + "!"
		}
		waURL := "https://wa.me/" + strings.TrimPrefix(phone, "+") +
			"?text=" + url.QueryEscape(message+" "+inviteURL)
		links = append(links, link{Phone: phone, WhatsAppURL: waURL, InviteURL: inviteURL})
	}
	response.OK(c, gin.H{"links": links})
}

// List handles GET /admin/sessions/:id/invites.
func (h *Handler) List(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	list, err := h.repo.ListBySession(c.Request.Context(), session.ID)
	if err != nil {
		h.logger.Error("list invites failed", zap.String("session_id", session.ID.String()), zap.Error(err))
		response.Internal(c, "failed to list invites")
		return
	}
	if list == nil {
		list = []models.Invite{}
	}
	response.OK(c, list)
}

// Resend handles POST /admin/invites/:id/resend. Expired tokens are
// regenerated; used invites cannot be resent.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invite id")
		return
	}
	ctx := c.Request.Context()

	invite, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Internal(c, "invite lookup failed")
		return
	}
	if invite == nil {
		response.NotFound(c, "invite not found")
		return
	}
	if invite.Used {
		response.Conflict(c, "invite already used")
		return
	}
	if !invite.IsValid(time.Now()) {
		token, err := utils.GenerateToken(24)
		if err != nil {
			response.Internal(c, "failed to generate token")
			return
		}
		expires := time.Now().Add(inviteTTL)
		ok, err := h.repo.Refresh(ctx, invite.ID, token, expires)
		if err != nil || !ok {
			response.Internal(c, "failed to refresh invite")
			return
		}
		invite.Token = token
		invite.ExpiresAt = expires
	}

	session, err := h.sessions.GetSession(ctx, invite.SessionID)
	if err != nil {
		response.Internal(c, "session lookup failed")
		return
	}
	if h.notifier.SendInvitation(ctx, session, invite) {
		_ = h.repo.MarkSent(ctx, invite.ID)
	}
	response.OK(c, invite)
}

// Validate handles GET /invites/:token/validate (public).
func (h *Handler) Validate(c *gin.Context) {
	token := c.Param("token")
	invite, err := h.repo.GetByToken(c.Request.Context(), token)
	if err != nil {
		response.Internal(c, "invite lookup failed")
		return
	}
	if invite == nil || !invite.IsValid(time.Now()) {
		response.NotFound(c, "invalid or expired invitation")
		return
	}
	session, err := h.sessions.GetSession(c.Request.Context(), invite.SessionID)
	if err != nil {
		response.Internal(c, "session lookup failed")
		return
	}
	response.OK(c, gin.H{
		"valid":      true,
		"session_id": session.ID,
		"title":      session.Title,
		"date":       session.Date,
		"expires_at": invite.ExpiresAt,
	})
}

func (h *Handler) create(c *gin.Context, sessionID uuid.UUID, email string) (*models.Invite, error) {
	token, err := utils.GenerateToken(24)
	if err != nil {
		return nil, err
	}
	invite := &models.Invite{
		SessionID: sessionID,
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().Add(inviteTTL),
	}
	if err := h.repo.Create(c.Request.Context(), invite); err != nil {
		return nil, err
	}
	return invite, nil
}

func (h *Handler) session(c *gin.Context) (*models.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return nil, false
	}
	session, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			response.NotFound(c, "session not found")
		} else {
			response.Internal(c, "session lookup failed")
		}
		return nil, false
	}
	return session, true
}
