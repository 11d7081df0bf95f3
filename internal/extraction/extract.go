package extraction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
)

var (
	ErrUnsupportedSnapshot = errors.New("extraction: unsupported module snapshot")
	ErrNotSerializable     = errors.New("extraction: summary is not serializable")
)

// Extract walks the nodes of g in order and builds the summary. The last
// company node wins. Generic modules do not contribute. g is not modified.
func Extract(g canvas.CampaignGraph) (Summary, error) {
	out := Summary{
		Personas: []PersonaRecord{},
		Products: []ProductRecord{},
		Content:  []ContentRecord{},
	}

	for _, n := range g.Nodes {
		if n.Snapshot == nil || n.Snapshot.Kind() != n.Kind {
			return Summary{}, fmt.Errorf("%w: node %s of kind %s", ErrUnsupportedSnapshot, n.ID, n.Kind)
		}

		switch snap := n.Snapshot.(type) {
		case canvas.CompanySnapshot:
			out.CompanyInfo = &CompanyInfo{
				CanvasID:   n.ID,
				ID:         n.SourceRef,
				Name:       nameOf(snap.Name, n),
				Industry:   snap.Industry,
				Mission:    snap.Mission,
				Vision:     snap.Vision,
				Objectives: snap.Objectives,
				Purpose:    snap.Purpose,
			}
		case canvas.ProductSnapshot:
			out.Products = append(out.Products, ProductRecord{
				CanvasID:    n.ID,
				ID:          n.SourceRef,
				Name:        nameOf(snap.Name, n),
				Description: snap.Description,
				Category:    snap.Category,
				Price:       snap.Price,
			})
		case canvas.PersonaSnapshot:
			out.Personas = append(out.Personas, PersonaRecord{
				CanvasID:    n.ID,
				ID:          n.SourceRef,
				Name:        nameOf(snap.Name, n),
				Description: snap.Description,
				AgeRange:    snap.AgeRange,
				Occupation:  snap.Occupation,
				Goals:       snap.Goals,
				PainPoints:  snap.PainPoints,
			})
		case canvas.ContentSnapshot:
			out.Content = append(out.Content, ContentRecord{
				CanvasID:    n.ID,
				ID:          n.SourceRef,
				Name:        nameOf(snap.Name, n),
				Description: snap.Description,
				Format:      snap.Format,
				Tone:        snap.Tone,
			})
		case canvas.GenericSnapshot:
			// visual only
		default:
			return Summary{}, fmt.Errorf("%w: %T on node %s", ErrUnsupportedSnapshot, snap, n.ID)
		}
	}

	if _, err := json.Marshal(out); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return out, nil
}

func nameOf(snapshotName string, n canvas.ModuleInstance) string {
	if snapshotName != "" {
		return snapshotName
	}
	return n.DisplayName
}
