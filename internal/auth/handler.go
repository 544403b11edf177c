package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/ai"
	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/notifier"
	"github.com/eventpilot/backend/pkg/response"
	"github.com/eventpilot/backend/pkg/utils"
)

const (
	resetTokenTTL   = time.Hour
	usernameRetries = 3
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Password     string `json:"password" binding:"required,min=8"`
	Instagram    string `json:"instagram"`
	Snapchat     string `json:"snapchat"`
	Twitter      string `json:"twitter"`
	CompanyName  string `json:"company_name"`
	Position     string `json:"position"`
	ActivityType string `json:"activity_type"`
	Gender       string `json:"gender"`
	Goal         string `json:"goal"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ChangePasswordRequest is the body for POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// GuestAdopter merges guest registrations into a freshly created
// account. Satisfied by the registrations service.
type GuestAdopter interface {
	AdoptGuestRegistrations(ctx context.Context, user *models.User) (int, error)
}

// Handler handles account endpoints.
type Handler struct {
	repo      *Repository
	jwt       *JWTService
	regs      GuestAdopter
	generator *ai.Generator
	notifier  *notifier.Notifier
	logger    *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, regs GuestAdopter, generator *ai.Generator, n *notifier.Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, regs: regs, generator: generator, notifier: n, logger: logger}
}

// Register handles POST /auth/register. Account creation is the only
// moment guest registrations are adopted.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := h.repo.GetByEmail(ctx, email)
	if err != nil {
		h.logger.Error("email lookup failed", zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}
	if existing != nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		Phone:        utils.NormalizePhone(req.Phone),
		Password:     hash,
		Instagram:    req.Instagram,
		Snapchat:     req.Snapchat,
		Twitter:      req.Twitter,
		CompanyName:  req.CompanyName,
		Position:     req.Position,
		ActivityType: req.ActivityType,
		Gender:       req.Gender,
		Goal:         req.Goal,
		IsActive:     true,
	}
	if req.Goal != "" || req.ActivityType != "" {
		if res := h.generator.Describe(ctx, req.Goal, req.ActivityType); !res.Degraded {
			user.AIDescription = res.Description
		}
	}

	if err := h.createWithUsername(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			response.Conflict(c, "email or phone already registered")
			return
		}
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}

	if _, err := h.regs.AdoptGuestRegistrations(ctx, user); err != nil {
		// The account exists; adoption failure is logged, not fatal.
		h.logger.Error("guest adoption failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	h.notifier.SendWelcome(ctx, user)

	token, err := h.jwt.Generate(user.ID, user.Email, models.RoleUser)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// createWithUsername inserts the user, regenerating the username on
// collision a few times before giving up.
func (h *Handler) createWithUsername(ctx context.Context, user *models.User) error {
	var err error
	for i := 0; i < usernameRetries; i++ {
		user.Username = utils.GenerateUsername(user.Name)
		err = h.repo.Create(ctx, user)
		if err == nil || !errors.Is(err, ErrDuplicate) {
			return err
		}
		// A duplicate email/phone will keep colliding; only username
		// collisions are worth a retry.
		if existing, lookupErr := h.repo.GetByEmail(ctx, user.Email); lookupErr == nil && existing != nil {
			return ErrDuplicate
		}
	}
	return err
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("login lookup failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if user == nil || !user.IsActive || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	token, err := h.jwt.Generate(user.ID, user.Email, models.RoleUser)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// ForgotPassword handles POST /auth/forgot-password. The response does
// not reveal whether the email exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := h.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.Error("forgot-password lookup failed", zap.Error(err))
	}
	if user != nil && user.IsActive {
		token, err := utils.GenerateToken(32)
		if err == nil {
			err = h.repo.SetResetToken(ctx, user.ID, token, time.Now().Add(resetTokenTTL))
		}
		if err != nil {
			h.logger.Error("reset token setup failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		} else {
			h.notifier.SendPasswordReset(ctx, user.Email, user.Name, token)
		}
	}
	response.OK(c, gin.H{"message": "if the email exists, a reset link has been sent"})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := h.repo.GetByResetToken(ctx, req.Token)
	if err != nil {
		h.logger.Error("reset token lookup failed", zap.Error(err))
		response.Internal(c, "failed to reset password")
		return
	}
	if user == nil {
		response.BadRequest(c, "invalid or expired reset token")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		h.logger.Error("password update failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		response.Internal(c, "failed to reset password")
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

// ChangePassword handles POST /auth/change-password (JWT).
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := c.MustGet(ContextUserID).(uuid.UUID)

	user, err := h.repo.GetUser(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to change password")
		return
	}
	if !utils.CheckPassword(req.CurrentPassword, user.Password) {
		response.Unauthorized(c, "current password is incorrect")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(ctx, userID, hash); err != nil {
		h.logger.Error("password update failed", zap.String("user_id", userID.String()), zap.Error(err))
		response.Internal(c, "failed to change password")
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}
