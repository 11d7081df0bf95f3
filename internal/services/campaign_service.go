package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/persistence"
	"github.com/onegreenvn/campaign-builder-backend/internal/utils"
)

// CampaignRecords is the storage used by CampaignService
type CampaignRecords interface {
	Upsert(ctx context.Context, campaign *models.Campaign) error
	GetByTenantAndID(ctx context.Context, tenantID, id string) (*models.Campaign, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.Campaign, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	DeleteByTenantAndID(ctx context.Context, tenantID, id string) error
}

// CampaignService manages saved campaigns. It is the durable store of the
// persistence bridge.
type CampaignService struct {
	repo CampaignRecords
}

func NewCampaignService(repo CampaignRecords) *CampaignService {
	return &CampaignService{repo: repo}
}

// UpsertCampaign implements persistence.CampaignStore
func (s *CampaignService) UpsertCampaign(ctx context.Context, c persistence.SavedCampaign) (persistence.SavedCampaign, error) {
	nodes, err := json.Marshal(nonNilNodes(c.Nodes))
	if err != nil {
		return persistence.SavedCampaign{}, fmt.Errorf("failed to encode nodes: %w", err)
	}
	edges, err := json.Marshal(nonNilEdges(c.Edges))
	if err != nil {
		return persistence.SavedCampaign{}, fmt.Errorf("failed to encode edges: %w", err)
	}

	record := &models.Campaign{
		TenantID:  c.TenantID,
		Name:      c.Name,
		CreatedBy: c.CreatedBy,
		Nodes:     datatypes.JSON(nodes),
		Edges:     datatypes.JSON(edges),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return persistence.SavedCampaign{}, err
	}
	return toSaved(record)
}

// RecentCampaigns implements persistence.CampaignStore
func (s *CampaignService) RecentCampaigns(ctx context.Context, tenantID string, limit int) ([]persistence.SavedCampaign, error) {
	records, err := s.repo.ListByTenant(ctx, tenantID, limit, 0)
	if err != nil {
		return nil, err
	}
	return toSavedList(records), nil
}

// GetCampaign retrieves a saved campaign of a tenant
func (s *CampaignService) GetCampaign(ctx context.Context, tenantID, id string) (persistence.SavedCampaign, error) {
	record, err := s.repo.GetByTenantAndID(ctx, tenantID, id)
	if err != nil {
		return persistence.SavedCampaign{}, err
	}
	return toSaved(record)
}

// ListCampaigns retrieves one page of a tenant's campaigns, newest first
func (s *CampaignService) ListCampaigns(ctx context.Context, tenantID string, page, pageSize int) ([]persistence.SavedCampaign, utils.PaginationResponse, error) {
	page, pageSize = utils.ValidateAndNormalizePagination(page, pageSize)

	total, err := s.repo.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, utils.PaginationResponse{}, fmt.Errorf("failed to count campaigns: %w", err)
	}
	records, err := s.repo.ListByTenant(ctx, tenantID, pageSize, utils.CalculateOffset(page, pageSize))
	if err != nil {
		return nil, utils.PaginationResponse{}, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return toSavedList(records), utils.CalculatePaginationInfo(int(total), page, pageSize), nil
}

// DeleteCampaign deletes a saved campaign of a tenant
func (s *CampaignService) DeleteCampaign(ctx context.Context, tenantID, id string) error {
	return s.repo.DeleteByTenantAndID(ctx, tenantID, id)
}

// ToCampaignResponse converts a saved campaign for the API
func ToCampaignResponse(c persistence.SavedCampaign) models.CampaignResponse {
	return models.CampaignResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		CreatedBy: c.CreatedBy,
		Nodes:     nonNilNodes(c.Nodes),
		Edges:     nonNilEdges(c.Edges),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func toSaved(record *models.Campaign) (persistence.SavedCampaign, error) {
	c := persistence.SavedCampaign{
		ID:        record.ID,
		TenantID:  record.TenantID,
		Name:      record.Name,
		CreatedBy: record.CreatedBy,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if len(record.Nodes) > 0 {
		if err := json.Unmarshal(record.Nodes, &c.Nodes); err != nil {
			return persistence.SavedCampaign{}, fmt.Errorf("campaign %s has unreadable nodes: %w", record.ID, err)
		}
	}
	if len(record.Edges) > 0 {
		if err := json.Unmarshal(record.Edges, &c.Edges); err != nil {
			return persistence.SavedCampaign{}, fmt.Errorf("campaign %s has unreadable edges: %w", record.ID, err)
		}
	}
	return c, nil
}

func toSavedList(records []*models.Campaign) []persistence.SavedCampaign {
	out := make([]persistence.SavedCampaign, 0, len(records))
	for _, r := range records {
		c, err := toSaved(r)
		if err != nil {
			logrus.WithFields(logrus.Fields{"operation": "list_campaigns", "campaign_id": r.ID, "error": err}).Warn("Skipping unreadable campaign")
			continue
		}
		out = append(out, c)
	}
	return out
}

func nonNilNodes(in []canvas.ModuleInstance) []canvas.ModuleInstance {
	if in == nil {
		return []canvas.ModuleInstance{}
	}
	return in
}

func nonNilEdges(in []canvas.Connection) []canvas.Connection {
	if in == nil {
		return []canvas.Connection{}
	}
	return in
}
