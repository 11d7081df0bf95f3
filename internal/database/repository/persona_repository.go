package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
)

type PersonaRepository struct {
	db *gorm.DB
}

func NewPersonaRepository(db *gorm.DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

// ListByTenant retrieves every persona of a tenant ordered by name
func (r *PersonaRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Persona, error) {
	var records []*models.Persona
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&records).Error
	return records, err
}

// GetByTenantAndIDs retrieves the personas of a tenant that still exist among ids
func (r *PersonaRepository) GetByTenantAndIDs(ctx context.Context, tenantID string, ids []string) ([]*models.Persona, error) {
	var records []*models.Persona
	if len(ids) == 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&records).Error
	return records, err
}
