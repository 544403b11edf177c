package users

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/ai"
	"github.com/eventpilot/backend/internal/auth"
	"github.com/eventpilot/backend/internal/middleware"
	"github.com/eventpilot/backend/pkg/response"
	"github.com/eventpilot/backend/pkg/utils"
)

// UpdateProfileRequest is the body for PUT /me/profile. Absent fields
// keep their current value.
type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Instagram    *string `json:"instagram"`
	Snapchat     *string `json:"snapchat"`
	Twitter      *string `json:"twitter"`
	CompanyName  *string `json:"company_name"`
	Position     *string `json:"position"`
	ActivityType *string `json:"activity_type"`
	Gender       *string `json:"gender"`
	Goal         *string `json:"goal"`
}

// Handler exposes member profile endpoints.
type Handler struct {
	repo      *Repository
	accounts  *auth.Repository
	generator *ai.Generator
	logger    *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo *Repository, accounts *auth.Repository, generator *ai.Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, accounts: accounts, generator: generator, logger: logger}
}

// Profile handles GET /users/:username (public). Inactive accounts are
// indistinguishable from missing ones.
func (h *Handler) Profile(c *gin.Context) {
	username := c.Param("username")
	user, err := h.accounts.GetByUsername(c.Request.Context(), username)
	if err != nil {
		h.logger.Error("profile lookup failed", zap.String("username", username), zap.Error(err))
		response.Internal(c, "profile lookup failed")
		return
	}
	if user == nil || !user.IsActive {
		response.NotFound(c, "profile not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// UpdateProfile handles PUT /me/profile (JWT). Changing goal or
// activity regenerates the AI description when possible.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	user, err := h.accounts.GetUser(ctx, userID)
	if err != nil {
		response.Internal(c, "profile lookup failed")
		return
	}

	describeInputChanged := false
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = utils.NormalizePhone(*req.Phone)
	}
	if req.Instagram != nil {
		user.Instagram = *req.Instagram
	}
	if req.Snapchat != nil {
		user.Snapchat = *req.Snapchat
	}
	if req.Twitter != nil {
		user.Twitter = *req.Twitter
	}
	if req.CompanyName != nil {
		user.CompanyName = *req.CompanyName
	}
	if req.Position != nil {
		user.Position = *req.Position
	}
	if req.ActivityType != nil && *req.ActivityType != user.ActivityType {
		user.ActivityType = *req.ActivityType
		describeInputChanged = true
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Goal != nil && *req.Goal != user.Goal {
		user.Goal = *req.Goal
		describeInputChanged = true
	}

	if describeInputChanged && (user.Goal != "" || user.ActivityType != "") {
		if res := h.generator.Describe(ctx, user.Goal, user.ActivityType); !res.Degraded {
			user.AIDescription = res.Description
		}
	}

	if err := h.accounts.UpdateProfile(ctx, user); err != nil {
		if err == auth.ErrDuplicate {
			response.Conflict(c, "phone already in use")
			return
		}
		h.logger.Error("profile update failed", zap.String("user_id", userID.String()), zap.Error(err))
		response.Internal(c, "profile update failed")
		return
	}
	response.OK(c, user.ToPublic())
}

// MyRegistrations handles GET /me/registrations (JWT).
func (h *Handler) MyRegistrations(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListRegistrations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list registrations failed", zap.String("user_id", userID.String()), zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	if list == nil {
		list = []RegistrationSummary{}
	}
	response.OK(c, list)
}

// ExportCSV handles GET /admin/export/users.
func (h *Handler) ExportCSV(c *gin.Context) {
	rows, err := h.repo.ExportRows(c.Request.Context())
	if err != nil {
		h.logger.Error("export query failed", zap.Error(err))
		response.Internal(c, "export failed")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="members.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"name", "email", "phone", "activity_type", "company_name", "position", "attendance_count"})
	for _, row := range rows {
		_ = w.Write([]string{
			row.Name, row.Email, row.Phone, row.ActivityType,
			row.CompanyName, row.Position, strconv.Itoa(row.AttendanceCount),
		})
	}
	w.Flush()
}
