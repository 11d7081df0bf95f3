package extraction

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
)

func sampleGraph() canvas.CampaignGraph {
	return canvas.CampaignGraph{
		Nodes: []canvas.ModuleInstance{
			{ID: "company-1", Kind: canvas.KindCompany, DisplayName: "Old Co", SourceRef: "org-0",
				Snapshot: canvas.CompanySnapshot{Name: "Old Co"}},
			{ID: "product-2", Kind: canvas.KindProduct, DisplayName: "Widget", SourceRef: "p-1",
				Snapshot: canvas.ProductSnapshot{Name: "Widget", Description: "Does things", Price: "10"}},
			{ID: "persona-3", Kind: canvas.KindPersona, DisplayName: "Dev", SourceRef: "per-1",
				Snapshot: canvas.PersonaSnapshot{Name: "Dev", Occupation: "Engineer"}},
			{ID: "generic-4", Kind: canvas.KindGeneric, DisplayName: "Note",
				Snapshot: canvas.GenericSnapshot{Name: "Note"}},
			{ID: "content-5", Kind: canvas.KindContent, DisplayName: "Blog",
				Snapshot: canvas.ContentSnapshot{Name: "Blog", Format: "article"}},
			{ID: "company-6", Kind: canvas.KindCompany, DisplayName: "Acme", SourceRef: "org-1",
				Snapshot: canvas.CompanySnapshot{Name: "Acme", Mission: "Ship", Vision: "Everywhere"}},
		},
		Edges: []canvas.Connection{{ID: "conn-company-1-product-2", SourceID: "company-1", TargetID: "product-2"}},
	}
}

func TestExtract(t *testing.T) {
	s, err := Extract(sampleGraph())
	require.NoError(t, err)

	require.NotNil(t, s.CompanyInfo)
	assert.Equal(t, CompanyInfo{CanvasID: "company-6", ID: "org-1", Name: "Acme", Mission: "Ship", Vision: "Everywhere"}, *s.CompanyInfo)
	assert.Equal(t, []ProductRecord{{CanvasID: "product-2", ID: "p-1", Name: "Widget", Description: "Does things", Price: "10"}}, s.Products)
	assert.Equal(t, []PersonaRecord{{CanvasID: "persona-3", ID: "per-1", Name: "Dev", Occupation: "Engineer"}}, s.Personas)
	assert.Equal(t, []ContentRecord{{CanvasID: "content-5", Name: "Blog", Format: "article"}}, s.Content)
}

func TestExtract_EmptyGraph(t *testing.T) {
	s, err := Extract(canvas.CampaignGraph{})
	require.NoError(t, err)
	assert.Nil(t, s.CompanyInfo)
	assert.NotNil(t, s.Personas)
	assert.Empty(t, s.Products)
}

func TestExtract_FallsBackToDisplayName(t *testing.T) {
	g := canvas.CampaignGraph{Nodes: []canvas.ModuleInstance{
		{ID: "product-1", Kind: canvas.KindProduct, DisplayName: "Placed name", Snapshot: canvas.ProductSnapshot{}},
	}}
	s, err := Extract(g)
	require.NoError(t, err)
	assert.Equal(t, "Placed name", s.Products[0].Name)
}

func TestExtract_RejectsMismatchedSnapshot(t *testing.T) {
	g := canvas.CampaignGraph{Nodes: []canvas.ModuleInstance{
		{ID: "x", Kind: canvas.KindPersona, Snapshot: canvas.ProductSnapshot{Name: "nope"}},
	}}
	_, err := Extract(g)
	assert.ErrorIs(t, err, ErrUnsupportedSnapshot)

	g.Nodes[0].Snapshot = nil
	_, err = Extract(g)
	assert.ErrorIs(t, err, ErrUnsupportedSnapshot)
}

func TestExtract_DoesNotMutateInput(t *testing.T) {
	g := sampleGraph()
	before := g.Clone()
	_, err := Extract(g)
	require.NoError(t, err)
	assert.Equal(t, before, g)
}

func TestProperty_ExtractionIsDeterministic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("extract(g) == extract(g)", prop.ForAll(
		func(kinds []int, names []string) bool {
			g := canvas.CampaignGraph{}
			for i, k := range kinds {
				kind := canvas.Kinds[k]
				name := ""
				if i < len(names) {
					name = names[i]
				}
				snap, _ := canvas.EmptySnapshot(kind, name)
				g.Nodes = append(g.Nodes, canvas.ModuleInstance{
					ID:          fmt.Sprintf("%s-%d", kind, i),
					Kind:        kind,
					DisplayName: name,
					SourceRef:   name,
					Snapshot:    snap,
				})
			}
			a, errA := Extract(g)
			b, errB := Extract(g)
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		gen.SliceOf(gen.IntRange(0, len(canvas.Kinds)-1)),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

type fakeLive struct {
	org      *CompanyInfo
	products map[string]ProductRecord
	personas map[string]PersonaRecord
	content  map[string]ContentRecord
	err      error
	asked    [][]string
}

func (f *fakeLive) LiveOrganization(_ context.Context, _, _ string) (*CompanyInfo, error) {
	return f.org, f.err
}

func (f *fakeLive) LiveProducts(_ context.Context, _ string, ids []string) (map[string]ProductRecord, error) {
	f.asked = append(f.asked, ids)
	return f.products, f.err
}

func (f *fakeLive) LivePersonas(_ context.Context, _ string, ids []string) (map[string]PersonaRecord, error) {
	f.asked = append(f.asked, ids)
	return f.personas, f.err
}

func (f *fakeLive) LiveContent(_ context.Context, _ string, ids []string) (map[string]ContentRecord, error) {
	f.asked = append(f.asked, ids)
	return f.content, f.err
}

func TestRehydrate(t *testing.T) {
	s, err := Extract(sampleGraph())
	require.NoError(t, err)
	src := &fakeLive{
		org:      &CompanyInfo{Name: "Acme Inc", Mission: "Ship faster"},
		products: map[string]ProductRecord{"p-1": {Name: "Widget 2", Description: "Does more"}},
		personas: map[string]PersonaRecord{},
		content:  map[string]ContentRecord{},
	}

	out, err := Rehydrate(context.Background(), src, "org-1", s)
	require.NoError(t, err)

	assert.Equal(t, &CompanyInfo{CanvasID: "company-6", ID: "org-1", Name: "Acme Inc", Mission: "Ship faster"}, out.CompanyInfo)
	assert.Equal(t, ProductRecord{CanvasID: "product-2", ID: "p-1", Name: "Widget 2", Description: "Does more"}, out.Products[0])
	// deleted persona keeps its snapshot
	assert.Equal(t, s.Personas, out.Personas)
	// content without a source record is never looked up
	assert.Equal(t, [][]string{{"p-1"}, {"per-1"}, {}}, src.asked)
	// input untouched
	assert.Equal(t, "Acme", s.CompanyInfo.Name)
	assert.Equal(t, "Widget", s.Products[0].Name)
}

func TestRehydrate_SourceError(t *testing.T) {
	s, _ := Extract(sampleGraph())
	_, err := Rehydrate(context.Background(), &fakeLive{err: errors.New("timeout")}, "org-1", s)
	assert.ErrorContains(t, err, "timeout")
}
