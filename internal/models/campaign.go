package models

import (
	"time"

	"gorm.io/datatypes"
)

// Campaign is a named, saved canvas of a tenant
type Campaign struct {
	ID        string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TenantID  string         `json:"tenant_id" gorm:"not null;type:uuid;uniqueIndex:idx_campaigns_tenant_name"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_campaigns_tenant_name"`
	CreatedBy string         `json:"created_by" gorm:"type:varchar(255);not null;index"`
	Nodes     datatypes.JSON `json:"nodes" gorm:"type:jsonb;not null"`
	Edges     datatypes.JSON `json:"edges" gorm:"type:jsonb;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Organization Organization `json:"-" gorm:"foreignKey:TenantID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// SaveCampaignRequest saves the session canvas under a name
type SaveCampaignRequest struct {
	Name string `json:"name" binding:"required" example:"Spring launch"`
}

// LoadCampaignRequest replaces the session canvas with a saved campaign
type LoadCampaignRequest struct {
	CampaignID string `json:"campaign_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Confirm    bool   `json:"confirm" example:"true"`
}

// CampaignResponse represents a saved campaign
type CampaignResponse struct {
	ID        string      `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID  string      `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name      string      `json:"name" example:"Spring launch"`
	CreatedBy string      `json:"created_by" example:"user-42"`
	Nodes     interface{} `json:"nodes" swaggertype:"array,object"`
	Edges     interface{} `json:"edges" swaggertype:"array,object"`
	CreatedAt string      `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt string      `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}

// SaveCampaignResponse is the saved record plus the tenant's refreshed list
type SaveCampaignResponse struct {
	Campaign  CampaignResponse   `json:"campaign"`
	Campaigns []CampaignResponse `json:"campaigns"`
}
