package gallery

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/middleware"
	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/pkg/response"
	"github.com/eventpilot/backend/pkg/storage"
)

// Handler exposes session photo gallery endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a gallery handler. s3 may be nil when the gallery
// feature is not configured; endpoints then report it unavailable.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// photoView is a gallery photo with its presigned download URL.
type photoView struct {
	models.GalleryPhoto
	URL string `json:"url"`
}

// Upload handles POST /admin/sessions/:id/gallery — multipart upload of
// one photo under the "photo" field.
func (h *Handler) Upload(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "gallery storage is not configured")
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "photo file is required")
		return
	}
	if fileHeader.Size > storage.MaxPhotoFileSize {
		response.BadRequest(c, fmt.Sprintf("photo exceeds %dMB limit", storage.MaxPhotoFileSize/(1024*1024)))
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidatePhotoFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported photo type; use jpeg, png, or webp")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	photoID := uuid.New()
	key := storage.GalleryKey(sessionID.String(), photoID.String(), fileHeader.Filename)
	if err := h.s3.Upload(ctx, key, contentType, file, fileHeader.Size); err != nil {
		h.logger.Error("gallery upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to store photo")
		return
	}

	photo := &models.GalleryPhoto{
		ID:          photoID,
		SessionID:   sessionID,
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   fileHeader.Size,
		UploadedBy:  adminID,
	}
	if err := h.repo.Create(ctx, photo); err != nil {
		h.logger.Error("gallery record failed", zap.String("key", key), zap.Error(err))
		// The object is orphaned without a record; remove it.
		if derr := h.s3.DeleteObject(ctx, key); derr != nil {
			h.logger.Warn("orphaned gallery object cleanup failed", zap.String("key", key), zap.Error(derr))
		}
		response.Internal(c, "failed to save photo")
		return
	}
	response.Created(c, photo)
}

// List handles GET /sessions/:id/gallery (public) — photos with
// presigned download URLs.
func (h *Handler) List(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	ctx := c.Request.Context()

	photos, err := h.repo.ListBySession(ctx, sessionID)
	if err != nil {
		h.logger.Error("gallery list failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		response.Internal(c, "failed to list photos")
		return
	}
	views := make([]photoView, 0, len(photos))
	for _, p := range photos {
		view := photoView{GalleryPhoto: p}
		if h.s3 != nil {
			url, err := h.s3.GeneratePresignedDownloadURL(ctx, p.ObjectKey, h.s3.PresignExpire())
			if err != nil {
				h.logger.Warn("presign failed", zap.String("key", p.ObjectKey), zap.Error(err))
			} else {
				view.URL = url
			}
		}
		views = append(views, view)
	}
	response.OK(c, views)
}

// Delete handles DELETE /admin/gallery/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid photo id")
		return
	}
	ctx := c.Request.Context()

	photo, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Internal(c, "photo lookup failed")
		return
	}
	if photo == nil {
		response.NotFound(c, "photo not found")
		return
	}
	if h.s3 != nil {
		if err := h.s3.DeleteObject(ctx, photo.ObjectKey); err != nil {
			h.logger.Warn("gallery object delete failed", zap.String("key", photo.ObjectKey), zap.Error(err))
		}
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		response.Internal(c, "failed to delete photo")
		return
	}
	response.NoContent(c)
}
