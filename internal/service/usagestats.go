package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/repository"
)

type UsageStatsService struct {
	repo *repository.UsageLogRepository
}

func NewUsageStatsService(repo *repository.UsageLogRepository) *UsageStatsService {
	return &UsageStatsService{repo: repo}
}

type UsageSummary struct {
	TotalCalls    int64                  `json:"total_calls"`
	FailedCalls   int64                  `json:"failed_calls"`
	ErrorRate     float64                `json:"error_rate"`
	AvgDurationMs float64                `json:"avg_duration_ms"`
	TopTools      []repository.ToolCount `json:"top_tools"`
}

func (s *UsageStatsService) GetSummary(ctx context.Context, from, to time.Time) (*UsageSummary, error) {
	summary := &UsageSummary{}

	total, err := s.repo.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalCalls = total

	if total == 0 {
		return summary, nil
	}

	failed, err := s.repo.CountFailures(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.FailedCalls = failed
	summary.ErrorRate = (float64(failed) / float64(total)) * 100

	avg, err := s.repo.GetAverageDuration(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.AvgDurationMs = avg

	topTools, err := s.repo.GetTopTools(ctx, from, to, 10)
	if err != nil {
		return nil, err
	}
	summary.TopTools = topTools

	return summary, nil
}

func (s *UsageStatsService) GetAccountLogs(ctx context.Context, accountID uuid.UUID, from, to time.Time, limit, offset int) ([]models.UsageLog, error) {
	return s.repo.FindByAccount(ctx, accountID, from, to, limit, offset)
}

func (s *UsageStatsService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.repo.DeleteOldLogs(ctx, cutoff)
}
