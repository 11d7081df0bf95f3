package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
)

type GenerationLogRepository struct {
	db *gorm.DB
}

func NewGenerationLogRepository(db *gorm.DB) *GenerationLogRepository {
	return &GenerationLogRepository{db: db}
}

// Create creates a new generation log
func (r *GenerationLogRepository) Create(ctx context.Context, log *models.GenerationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByCorrelationID retrieves the log of one submission
func (r *GenerationLogRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*models.GenerationLog, error) {
	var log models.GenerationLog
	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGenerationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// MarkDelivered stores an asset that arrived after the webhook call
func (r *GenerationLogRepository) MarkDelivered(ctx context.Context, correlationID, assetURL string) error {
	result := r.db.WithContext(ctx).Model(&models.GenerationLog{}).
		Where("correlation_id = ?", correlationID).
		Updates(map[string]interface{}{
			"status":     models.GenerationStatusDelivered,
			"asset_url":  assetURL,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGenerationNotFound
	}
	return nil
}

// GetByTenant retrieves a tenant's logs, newest first
func (r *GenerationLogRepository) GetByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.GenerationLog, error) {
	var logs []*models.GenerationLog
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, err
}

// CountByTenant counts a tenant's logs
func (r *GenerationLogRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GenerationLog{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}
