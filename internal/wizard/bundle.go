// Package wizard sequences the linear stages that follow the canvas: media
// selection, development/review and the generated result.
package wizard

import (
	"time"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/extraction"
	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
)

// Bundle accumulates the data handed from stage to stage. Each stage only
// fills in its own fields.
type Bundle struct {
	// editing
	Nodes                  []canvas.ModuleInstance `json:"nodes"`
	Edges                  []canvas.Connection     `json:"edges"`
	SelectedOrganizationID string                  `json:"selectedOrganizationId"`

	// extraction
	CompanyInfo *extraction.CompanyInfo    `json:"companyInfo,omitempty"`
	Personas    []extraction.PersonaRecord `json:"personas,omitempty"`
	Products    []extraction.ProductRecord `json:"products,omitempty"`
	Content     []extraction.ContentRecord `json:"content,omitempty"`

	// media selection
	SelectedMedia []string            `json:"selectedMedia,omitempty"`
	SelectedSpecs []gateway.MediaSpec `json:"selectedSpecs,omitempty"`

	// development: live records the review shows and the webhook receives
	Rehydrated *extraction.Summary `json:"rehydrated,omitempty"`

	// dispatch
	SubmittedAt       *time.Time `json:"submittedAt,omitempty"`
	CorrelationID     string     `json:"correlationId,omitempty"`
	GeneratedAssetURL string     `json:"generatedAssetUrl,omitempty"`
}

// EmptyBundle is the bundle of an empty canvas.
func EmptyBundle() Bundle {
	return Bundle{Nodes: []canvas.ModuleInstance{}, Edges: []canvas.Connection{}}
}

// Summary returns the extracted snapshot summary held by the bundle.
func (b Bundle) Summary() extraction.Summary {
	return extraction.Summary{
		CompanyInfo: b.CompanyInfo,
		Personas:    b.Personas,
		Products:    b.Products,
		Content:     b.Content,
	}
}

// Clone returns a deep copy of b.
func (b Bundle) Clone() Bundle {
	out := b
	out.Nodes = cloneSlice(b.Nodes)
	out.Edges = cloneSlice(b.Edges)
	out.Personas = cloneSlice(b.Personas)
	out.Products = cloneSlice(b.Products)
	out.Content = cloneSlice(b.Content)
	out.SelectedMedia = cloneSlice(b.SelectedMedia)
	out.SelectedSpecs = cloneSlice(b.SelectedSpecs)
	if b.CompanyInfo != nil {
		c := *b.CompanyInfo
		out.CompanyInfo = &c
	}
	if b.Rehydrated != nil {
		r := b.Rehydrated.Clone()
		out.Rehydrated = &r
	}
	if b.SubmittedAt != nil {
		t := *b.SubmittedAt
		out.SubmittedAt = &t
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// BuildPayload turns the bundle into the webhook request. Live records are
// preferred over placement snapshots when the review stage loaded them.
func BuildPayload(b Bundle, now time.Time) gateway.Payload {
	summary := b.Summary()
	if b.Rehydrated != nil {
		summary = *b.Rehydrated
	}
	p := gateway.Payload{
		Company:        summary.CompanyInfo,
		UserPersonas:   summary.Personas,
		Products:       summary.Products,
		ContentModules: summary.Content,
		SelectedMedia:  b.SelectedMedia,
		SelectedSpecs:  b.SelectedSpecs,
		CampaignStatus: "submitted",
		Timestamp:      now.UTC(),
		Source:         gateway.Source,
		Action:         gateway.Action,
		CorrelationID:  b.CorrelationID,
	}
	if p.UserPersonas == nil {
		p.UserPersonas = []extraction.PersonaRecord{}
	}
	if p.Products == nil {
		p.Products = []extraction.ProductRecord{}
	}
	if p.ContentModules == nil {
		p.ContentModules = []extraction.ContentRecord{}
	}
	if p.SelectedMedia == nil {
		p.SelectedMedia = []string{}
	}
	if p.SelectedSpecs == nil {
		p.SelectedSpecs = []gateway.MediaSpec{}
	}
	return p
}
