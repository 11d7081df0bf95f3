// Package gateway posts finished campaign summaries to the external
// generation webhook and reads back the generated asset, if any.
package gateway

import (
	"time"

	"github.com/onegreenvn/campaign-builder-backend/internal/extraction"
)

const (
	Source = "campaign-builder"
	Action = "generate-campaign"
)

// MediaSpec is a channel-specific sub-selection, such as a social image size.
type MediaSpec struct {
	Channel string `json:"channel"`
	ID      string `json:"id"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// Payload is the flat request body accepted by the webhook.
type Payload struct {
	Company        *extraction.CompanyInfo    `json:"company"`
	UserPersonas   []extraction.PersonaRecord `json:"userPersonas"`
	Products       []extraction.ProductRecord `json:"products"`
	ContentModules []extraction.ContentRecord `json:"contentModules"`
	SelectedMedia  []string                   `json:"selectedMedia"`
	SelectedSpecs  []MediaSpec                `json:"selectedSpecs"`
	CampaignStatus string                     `json:"campaignStatus"`
	Timestamp      time.Time                  `json:"timestamp"`
	Source         string                     `json:"source"`
	Action         string                     `json:"action"`
	CorrelationID  string                     `json:"correlationId,omitempty"`
}

// wrappedPayload is the alternate envelope used by the second attempt.
type wrappedPayload struct {
	Payload Payload `json:"payload"`
	Source  string  `json:"source"`
	Action  string  `json:"action"`
}

// Result is the outcome of a successful dispatch.
type Result struct {
	AssetURL string `json:"assetUrl,omitempty"`
	Shape    Shape  `json:"shape"`
	Status   int    `json:"status"`
}

// HasAsset reports whether the webhook returned an asset.
func (r Result) HasAsset() bool {
	return r.AssetURL != ""
}
