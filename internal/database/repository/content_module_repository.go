package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
)

type ContentModuleRepository struct {
	db *gorm.DB
}

func NewContentModuleRepository(db *gorm.DB) *ContentModuleRepository {
	return &ContentModuleRepository{db: db}
}

// ListByTenant retrieves every content module of a tenant ordered by name
func (r *ContentModuleRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.ContentModule, error) {
	var records []*models.ContentModule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&records).Error
	return records, err
}

// GetByTenantAndIDs retrieves the content modules of a tenant that still exist among ids
func (r *ContentModuleRepository) GetByTenantAndIDs(ctx context.Context, tenantID string, ids []string) ([]*models.ContentModule, error) {
	var records []*models.ContentModule
	if len(ids) == 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&records).Error
	return records, err
}
