package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Upsert inserts campaign or overwrites the canvas of the tenant's campaign
// with the same name. campaign is reloaded with the stored row.
func (r *CampaignRepository) Upsert(ctx context.Context, campaign *models.Campaign) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"nodes", "edges", "created_by", "updated_at"}),
	}).Create(campaign).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", campaign.TenantID, campaign.Name).
		First(campaign).Error
}

// GetByTenantAndID retrieves a campaign of a tenant
func (r *CampaignRepository) GetByTenantAndID(ctx context.Context, tenantID, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListByTenant retrieves a page of a tenant's campaigns, newest first
func (r *CampaignRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&campaigns).Error
	return campaigns, err
}

// CountByTenant counts a tenant's campaigns
func (r *CampaignRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// DeleteByTenantAndID deletes a campaign of a tenant
func (r *CampaignRepository) DeleteByTenantAndID(ctx context.Context, tenantID, id string) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Campaign{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}
