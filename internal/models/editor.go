package models

import (
	"time"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

// OpenSessionRequest starts an editing session
type OpenSessionRequest struct {
	OrganizationID string `json:"organization_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	// SessionID reopens an earlier session and restores its autosaved canvas
	SessionID string `json:"session_id,omitempty" example:"7b0c9f0e-7f4a-4a5b-9d0e-3f1c2b4a5d6e"`
}

// SetOrganizationRequest scopes a session to an organization
type SetOrganizationRequest struct {
	OrganizationID string `json:"organization_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// CatalogDragRequest starts dragging a catalog entry
type CatalogDragRequest struct {
	Key       string `json:"key" binding:"required" example:"product"`
	SourceRef string `json:"source_ref" example:"550e8400-e29b-41d4-a716-446655440002"`
}

// NodeDragRequest starts moving a node already on the canvas
type NodeDragRequest struct {
	NodeID  string       `json:"node_id" binding:"required" example:"product-1a2b3c4d"`
	Pointer canvas.Point `json:"pointer"`
	Canvas  canvas.Rect  `json:"canvas"`
}

// DragPayloadResponse carries the serialized drag payload back to the client
type DragPayloadResponse struct {
	Payload string `json:"payload"`
}

// DropRequest completes a drag on the canvas
type DropRequest struct {
	Payload string       `json:"payload"`
	Client  canvas.Point `json:"client"`
	Canvas  canvas.Rect  `json:"canvas"`
}

// DropResponse reports whether a drop changed the canvas
type DropResponse struct {
	Applied bool                   `json:"applied"`
	Node    *canvas.ModuleInstance `json:"node,omitempty"`
}

// ConnectRequest connects two nodes
type ConnectRequest struct {
	SourceID string `json:"source_id" binding:"required" example:"company-1a2b3c4d"`
	TargetID string `json:"target_id" binding:"required" example:"product-5e6f7a8b"`
}

// MediaSelectionRequest selects the media channels and image specs
type MediaSelectionRequest struct {
	Channels []string `json:"channels" example:"social,web"`
	Specs    []string `json:"specs" example:"instagram-square"`
}

// ResumeRequest reopens a wizard stage from a handoff string
type ResumeRequest struct {
	Stage   string `json:"stage" binding:"required" example:"developing"`
	Handoff string `json:"handoff"`
}

// HandoffResponse is the encoded stage bundle
type HandoffResponse struct {
	Stage   string `json:"stage" example:"selecting_media"`
	Handoff string `json:"handoff"`
}

// GenerateResponse is the outcome of a generation request
type GenerateResponse struct {
	Stage         string `json:"stage" example:"result"`
	AssetURL      string `json:"asset_url,omitempty" example:"https://cdn.example.com/campaign.png"`
	Delivered     bool   `json:"delivered"`
	CorrelationID string `json:"correlation_id"`
}

// SessionResponse is the state of an editing session
type SessionResponse struct {
	ID             string               `json:"id" example:"7b0c9f0e-7f4a-4a5b-9d0e-3f1c2b4a5d6e"`
	OrganizationID string               `json:"organization_id"`
	Stage          string               `json:"stage" example:"editing"`
	Epoch          uint64               `json:"epoch"`
	InFlight       bool                 `json:"in_flight"`
	Restored       bool                 `json:"restored,omitempty"`
	Graph          canvas.CampaignGraph `json:"graph"`
	Bundle         wizard.Bundle        `json:"bundle"`
	CreatedAt      time.Time            `json:"created_at"`
	LastActivity   time.Time            `json:"last_activity"`
}
