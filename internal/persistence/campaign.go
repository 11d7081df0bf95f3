package persistence

import (
	"context"
	"time"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
)

// SavedCampaign is a named, durable copy of a canvas.
type SavedCampaign struct {
	ID        string                  `json:"id"`
	TenantID  string                  `json:"tenantId"`
	Name      string                  `json:"name"`
	CreatedBy string                  `json:"createdBy"`
	Nodes     []canvas.ModuleInstance `json:"nodes"`
	Edges     []canvas.Connection     `json:"edges"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// Graph returns the canvas held by the record.
func (c SavedCampaign) Graph() canvas.CampaignGraph {
	return canvas.CampaignGraph{
		Nodes:                  c.Nodes,
		Edges:                  c.Edges,
		SelectedOrganizationID: c.TenantID,
	}.Clone()
}

// CampaignStore is the durable side of the bridge.
type CampaignStore interface {
	// UpsertCampaign inserts c or overwrites the record with the same
	// tenant and name, and returns the stored record.
	UpsertCampaign(ctx context.Context, c SavedCampaign) (SavedCampaign, error)
	// RecentCampaigns lists the tenant's records, newest first.
	RecentCampaigns(ctx context.Context, tenantID string, limit int) ([]SavedCampaign, error)
}
