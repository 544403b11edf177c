package admins

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/auth"
	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/pkg/response"
	"github.com/eventpilot/backend/pkg/utils"
)

// LoginRequest is the body for POST /admin/login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler handles admin authentication.
type Handler struct {
	repo   *Repository
	jwt    *auth.JWTService
	logger *zap.Logger
}

// NewHandler creates an admins handler.
func NewHandler(repo *Repository, jwt *auth.JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Login handles POST /admin/login. Admins are a separate principal
// from participant accounts; their tokens carry role=admin.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	admin, err := h.repo.GetByLogin(ctx, req.Login)
	if err != nil {
		h.logger.Error("admin lookup failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if admin == nil || !utils.CheckPassword(req.Password, admin.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	if err := h.repo.StampLastLogin(ctx, admin.ID); err != nil {
		h.logger.Warn("last login stamp failed", zap.String("admin_id", admin.ID.String()), zap.Error(err))
	}

	token, err := h.jwt.Generate(admin.ID, admin.Email, models.RoleAdmin)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, gin.H{"token": token, "admin": admin})
}
