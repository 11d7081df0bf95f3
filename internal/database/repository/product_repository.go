package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListByTenant retrieves every product of a tenant ordered by name
func (r *ProductRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Product, error) {
	var records []*models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&records).Error
	return records, err
}

// GetByTenantAndIDs retrieves the products of a tenant that still exist among ids
func (r *ProductRepository) GetByTenantAndIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Product, error) {
	var records []*models.Product
	if len(ids) == 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&records).Error
	return records, err
}
