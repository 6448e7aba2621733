package repository

import (
	"context"
	"time"

	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/storage"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *storage.Postgres
}

func NewSessionRepository(db *storage.Postgres) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.DB.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) FindByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := r.db.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &session, err
}

// UpdateAccess extends the session lease. Missing rows are not an error;
// concurrent extensions are last-writer-wins.
func (r *SessionRepository) UpdateAccess(ctx context.Context, sessionID string, accessedAt, expiresAt time.Time) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"last_accessed_at": accessedAt,
			"expires_at":       expiresAt,
		}).Error
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.db.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.Session{}).Error
}

// DeleteExpired removes every session whose lease passed before now.
// The periodic sweep calls this as a backstop to lazy expiry on read.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.Session{})

	return result.RowsAffected, result.Error
}

func (r *SessionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("expires_at >= ?", now).
		Count(&count).Error

	return count, err
}
