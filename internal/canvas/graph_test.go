package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphJSONRoundTrip_KeepsSnapshotVariants(t *testing.T) {
	g := CampaignGraph{
		Nodes: []ModuleInstance{
			{ID: "company-1", Kind: KindCompany, DisplayName: "Acme", Position: Position{X: 1.5, Y: -2},
				SourceRef: "org-1", Snapshot: CompanySnapshot{Name: "Acme", Mission: "Make things"}},
			{ID: "persona-2", Kind: KindPersona, DisplayName: "Dev", SourceRef: "per-1",
				Snapshot: PersonaSnapshot{Name: "Dev", Occupation: "Engineer"}},
			{ID: "generic-3", Kind: KindGeneric, DisplayName: "Note", Snapshot: GenericSnapshot{Name: "Note"}},
		},
		Edges:                  []Connection{{ID: "conn-company-1-persona-2", SourceID: "company-1", TargetID: "persona-2"}},
		SelectedOrganizationID: "org-1",
	}

	raw, err := json.Marshal(g)
	require.NoError(t, err)

	var back CampaignGraph
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, g, back)
}

func TestModuleInstanceUnmarshal_UnknownKind(t *testing.T) {
	var m ModuleInstance
	err := json.Unmarshal([]byte(`{"id":"x","kind":"robot"}`), &m)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestModuleInstanceUnmarshal_MissingSnapshotDefaultsToKind(t *testing.T) {
	var m ModuleInstance
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p","kind":"product","displayName":"Widget"}`), &m))
	assert.Equal(t, ProductSnapshot{Name: "Widget"}, m.Snapshot)
}

func TestCatalogItemJSONRoundTrip(t *testing.T) {
	it := CatalogItem{
		Template:  ModuleTemplate{Key: "content", Kind: KindContent, Name: "Content", DependsOn: []ModuleKind{KindProduct}},
		SourceRef: "c-1",
		Snapshot:  ContentSnapshot{Name: "Launch blog", Format: "article"},
	}
	raw, err := json.Marshal(it)
	require.NoError(t, err)

	var back CatalogItem
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, it, back)
}

func TestParseModuleKind(t *testing.T) {
	k, err := ParseModuleKind("persona")
	require.NoError(t, err)
	assert.Equal(t, KindPersona, k)

	_, err = ParseModuleKind("Persona")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
