package extraction

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// LiveSource reads the current version of tenant records. Lookups return
// only the records that still exist, keyed by id.
type LiveSource interface {
	LiveOrganization(ctx context.Context, tenantID, id string) (*CompanyInfo, error)
	LiveProducts(ctx context.Context, tenantID string, ids []string) (map[string]ProductRecord, error)
	LivePersonas(ctx context.Context, tenantID string, ids []string) (map[string]PersonaRecord, error)
	LiveContent(ctx context.Context, tenantID string, ids []string) (map[string]ContentRecord, error)
}

// Rehydrate replaces the snapshotted display fields of every summary entry
// that has a source record with the record's current values. Entries whose
// record has since been deleted keep their snapshot. s is not modified.
func Rehydrate(ctx context.Context, src LiveSource, tenantID string, s Summary) (Summary, error) {
	out := s.Clone()
	log := logrus.WithFields(logrus.Fields{"operation": "rehydrate", "tenant_id": tenantID})

	if out.CompanyInfo != nil && out.CompanyInfo.ID != "" {
		live, err := src.LiveOrganization(ctx, tenantID, out.CompanyInfo.ID)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to load organization %s: %w", out.CompanyInfo.ID, err)
		}
		if live != nil {
			refreshed := *live
			refreshed.CanvasID = out.CompanyInfo.CanvasID
			refreshed.ID = out.CompanyInfo.ID
			out.CompanyInfo = &refreshed
		} else {
			log.WithField("organization_id", out.CompanyInfo.ID).Warn("Organization no longer exists, keeping snapshot")
		}
	}

	products, err := src.LiveProducts(ctx, tenantID, productIDs(out.Products))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load products: %w", err)
	}
	for i, p := range out.Products {
		if live, ok := products[p.ID]; ok && p.ID != "" {
			live.CanvasID, live.ID = p.CanvasID, p.ID
			out.Products[i] = live
		} else if p.ID != "" {
			log.WithField("product_id", p.ID).Warn("Product no longer exists, keeping snapshot")
		}
	}

	personas, err := src.LivePersonas(ctx, tenantID, personaIDs(out.Personas))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load personas: %w", err)
	}
	for i, p := range out.Personas {
		if live, ok := personas[p.ID]; ok && p.ID != "" {
			live.CanvasID, live.ID = p.CanvasID, p.ID
			out.Personas[i] = live
		} else if p.ID != "" {
			log.WithField("persona_id", p.ID).Warn("Persona no longer exists, keeping snapshot")
		}
	}

	content, err := src.LiveContent(ctx, tenantID, contentIDs(out.Content))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load content: %w", err)
	}
	for i, c := range out.Content {
		if live, ok := content[c.ID]; ok && c.ID != "" {
			live.CanvasID, live.ID = c.CanvasID, c.ID
			out.Content[i] = live
		} else if c.ID != "" {
			log.WithField("content_id", c.ID).Warn("Content no longer exists, keeping snapshot")
		}
	}
	return out, nil
}

func productIDs(in []ProductRecord) []string {
	ids := make([]string, 0, len(in))
	for _, r := range in {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func personaIDs(in []PersonaRecord) []string {
	ids := make([]string, 0, len(in))
	for _, r := range in {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func contentIDs(in []ContentRecord) []string {
	ids := make([]string, 0, len(in))
	for _, r := range in {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
