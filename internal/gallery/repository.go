package gallery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventpilot/backend/internal/models"
)

const photoColumns = `id, session_id, object_key, content_type, size_bytes, uploaded_by, created_at`

// Repository handles gallery photo persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a gallery repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a photo record.
func (r *Repository) Create(ctx context.Context, p *models.GalleryPhoto) error {
	const q = `INSERT INTO gallery_photos (id, session_id, object_key, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q,
		p.ID, p.SessionID, p.ObjectKey, p.ContentType, p.SizeBytes, p.UploadedBy,
	).Scan(&p.CreatedAt)
}

// GetByID returns a photo, nil when missing.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.GalleryPhoto, error) {
	var p models.GalleryPhoto
	err := r.pool.QueryRow(ctx,
		`SELECT `+photoColumns+` FROM gallery_photos WHERE id = $1`, id).
		Scan(&p.ID, &p.SessionID, &p.ObjectKey, &p.ContentType, &p.SizeBytes, &p.UploadedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListBySession returns a session's photos, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.GalleryPhoto, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+photoColumns+` FROM gallery_photos WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.GalleryPhoto
	for rows.Next() {
		var p models.GalleryPhoto
		if err := rows.Scan(&p.ID, &p.SessionID, &p.ObjectKey, &p.ContentType,
			&p.SizeBytes, &p.UploadedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete removes a photo record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM gallery_photos WHERE id = $1`, id)
	return err
}
