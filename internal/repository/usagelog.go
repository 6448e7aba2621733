package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/storage"
)

type UsageLogRepository struct {
	db *storage.Postgres
}

func NewUsageLogRepository(db *storage.Postgres) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

func (r *UsageLogRepository) Create(ctx context.Context, log *models.UsageLog) error {
	return r.db.DB.WithContext(ctx).Create(log).Error
}

// CreateBatch inserts many usage rows at once (the recorder flushes batches).
func (r *UsageLogRepository) CreateBatch(ctx context.Context, logs []models.UsageLog) error {
	if len(logs) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).Create(&logs).Error
}

func (r *UsageLogRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

func (r *UsageLogRepository) CountFailures(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageLog{}).
		Where("succeeded = ? AND timestamp BETWEEN ? AND ?", false, from, to).
		Count(&count).Error

	return count, err
}

func (r *UsageLogRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time, limit, offset int) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	err := r.db.DB.WithContext(ctx).
		Where("account_id = ? AND timestamp BETWEEN ? AND ?", accountID, from, to).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error

	return logs, err
}

// ToolCount pairs a tool name with how often it was invoked.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int64  `json:"count"`
}

// GetTopTools returns the most frequently invoked tools in the range.
func (r *UsageLogRepository) GetTopTools(ctx context.Context, from, to time.Time, limit int) ([]ToolCount, error) {
	var results []ToolCount
	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageLog{}).
		Select("tool, COUNT(*) as count").
		Where("tool <> '' AND timestamp BETWEEN ? AND ?", from, to).
		Group("tool").
		Order("count DESC").
		Limit(limit).
		Scan(&results).Error

	return results, err
}

func (r *UsageLogRepository) GetAverageDuration(ctx context.Context, from, to time.Time) (float64, error) {
	var avg float64
	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Select("COALESCE(AVG(duration_ms), 0)").
		Scan(&avg).Error

	return avg, err
}

// DeleteOldLogs trims rows older than the retention cutoff.
func (r *UsageLogRepository) DeleteOldLogs(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&models.UsageLog{})

	return result.RowsAffected, result.Error
}
