package canvas

import (
	"encoding/json"
	"fmt"
	"math"
)

// Position is a canvas-local coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers.
func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ModuleTemplate is a catalog entry describing a placeable module.
type ModuleTemplate struct {
	Key         string       `json:"key" yaml:"key"`
	Kind        ModuleKind   `json:"kind" yaml:"kind"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description"`
	Icon        string       `json:"icon,omitempty" yaml:"icon"`
	DependsOn   []ModuleKind `json:"dependsOn,omitempty" yaml:"dependsOn"`
}

// CatalogItem is what travels in a catalog drag payload: a template, the
// tenant record it was picked from (if any) and that record's display fields.
type CatalogItem struct {
	Template  ModuleTemplate
	SourceRef string
	Snapshot  DisplaySnapshot
}

type catalogItemJSON struct {
	Template  ModuleTemplate  `json:"template"`
	SourceRef string          `json:"sourceRef,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
}

func (c CatalogItem) MarshalJSON() ([]byte, error) {
	out := catalogItemJSON{Template: c.Template, SourceRef: c.SourceRef}
	if c.Snapshot != nil {
		raw, err := json.Marshal(c.Snapshot)
		if err != nil {
			return nil, err
		}
		out.Snapshot = raw
	}
	return json.Marshal(out)
}

func (c *CatalogItem) UnmarshalJSON(data []byte) error {
	var in catalogItemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Template.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, in.Template.Kind)
	}
	c.Template = in.Template
	c.SourceRef = in.SourceRef
	c.Snapshot = nil
	if len(in.Snapshot) > 0 && string(in.Snapshot) != "null" {
		snap, err := DecodeSnapshot(in.Template.Kind, in.Snapshot)
		if err != nil {
			return err
		}
		c.Snapshot = snap
	}
	return nil
}

// ModuleInstance is a module placed on the canvas.
type ModuleInstance struct {
	ID          string
	Kind        ModuleKind
	DisplayName string
	Description string
	Position    Position
	// SourceRef points at the tenant record the module was created from.
	// Empty for free-form modules.
	SourceRef string
	Snapshot  DisplaySnapshot
}

type instanceJSON struct {
	ID          string          `json:"id"`
	Kind        ModuleKind      `json:"kind"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description,omitempty"`
	Position    Position        `json:"position"`
	SourceRef   string          `json:"sourceRef,omitempty"`
	Snapshot    json.RawMessage `json:"snapshot,omitempty"`
}

func (m ModuleInstance) MarshalJSON() ([]byte, error) {
	out := instanceJSON{
		ID:          m.ID,
		Kind:        m.Kind,
		DisplayName: m.DisplayName,
		Description: m.Description,
		Position:    m.Position,
		SourceRef:   m.SourceRef,
	}
	if m.Snapshot != nil {
		raw, err := json.Marshal(m.Snapshot)
		if err != nil {
			return nil, err
		}
		out.Snapshot = raw
	}
	return json.Marshal(out)
}

func (m *ModuleInstance) UnmarshalJSON(data []byte) error {
	var in instanceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, in.Kind)
	}
	var (
		snap DisplaySnapshot
		err  error
	)
	if len(in.Snapshot) > 0 && string(in.Snapshot) != "null" {
		snap, err = DecodeSnapshot(in.Kind, in.Snapshot)
	} else {
		snap, err = EmptySnapshot(in.Kind, in.DisplayName)
	}
	if err != nil {
		return err
	}
	*m = ModuleInstance{
		ID:          in.ID,
		Kind:        in.Kind,
		DisplayName: in.DisplayName,
		Description: in.Description,
		Position:    in.Position,
		SourceRef:   in.SourceRef,
		Snapshot:    snap,
	}
	return nil
}

// Connection is a directed edge between two module instances.
type Connection struct {
	ID       string `json:"id"`
	SourceID string `json:"source"`
	TargetID string `json:"target"`
}

// ConnectionID derives the deterministic edge id for an ordered pair.
func ConnectionID(sourceID, targetID string) string {
	return fmt.Sprintf("conn-%s-%s", sourceID, targetID)
}

// CampaignGraph is the full canvas state for one editing session.
type CampaignGraph struct {
	Nodes                  []ModuleInstance `json:"nodes"`
	Edges                  []Connection     `json:"edges"`
	SelectedOrganizationID string           `json:"selectedOrganizationId"`
}

// Node looks up a node by id.
func (g CampaignGraph) Node(id string) (ModuleInstance, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return ModuleInstance{}, false
}

// Clone returns a copy that shares no slices with g. Snapshots are value
// types so copying the interface value is enough.
func (g CampaignGraph) Clone() CampaignGraph {
	out := CampaignGraph{
		Nodes:                  make([]ModuleInstance, len(g.Nodes)),
		Edges:                  make([]Connection, len(g.Edges)),
		SelectedOrganizationID: g.SelectedOrganizationID,
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}

// IsEmpty reports whether the graph has no nodes.
func (g CampaignGraph) IsEmpty() bool {
	return len(g.Nodes) == 0
}
