package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// List retrieves the organizations with the given ids ordered by name. An
// empty ids list retrieves every organization.
func (r *OrganizationRepository) List(ctx context.Context, ids []string) ([]*models.Organization, error) {
	var orgs []*models.Organization
	query := r.db.WithContext(ctx).Order("name ASC")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	err := query.Find(&orgs).Error
	return orgs, err
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}
