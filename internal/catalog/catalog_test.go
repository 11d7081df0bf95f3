package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
)

type stubSource struct {
	records map[canvas.ModuleKind][]Record
	err     error
	calls   int
}

func (s *stubSource) TenantRecords(_ context.Context, _ string) (map[canvas.ModuleKind][]Record, error) {
	s.calls++
	return s.records, s.err
}

func TestLoad_BuiltInTemplates(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	var keys []string
	for _, tpl := range c.Templates() {
		keys = append(keys, tpl.Key)
	}
	assert.Equal(t, []string{"company", "product", "persona", "content", "note", "channel"}, keys)

	persona, ok := c.Template("persona")
	require.True(t, ok)
	assert.Equal(t, []canvas.ModuleKind{canvas.KindProduct}, persona.DependsOn)
}

func TestParse_Rejections(t *testing.T) {
	cases := map[string]string{
		"bad yaml":    "templates: [",
		"missing key": "templates:\n  - kind: company\n    name: X\n",
		"bad kind":    "templates:\n  - key: x\n    kind: robot\n",
		"bad dep":     "templates:\n  - key: x\n    kind: product\n    dependsOn: [robot]\n",
		"duplicate":   "templates:\n  - key: x\n    kind: product\n  - key: x\n    kind: persona\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestForTenant_DependencyGating(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	src := &stubSource{records: map[canvas.ModuleKind][]Record{
		canvas.KindCompany: {{ID: "org-1", Snapshot: canvas.CompanySnapshot{Name: "Acme"}}},
	}}

	tc, err := c.ForTenant(context.Background(), src, "org-1")
	require.NoError(t, err)

	assert.True(t, tc.Enabled("company"))
	assert.True(t, tc.Enabled("product"))
	assert.False(t, tc.Enabled("persona"))
	assert.False(t, tc.Enabled("content"))
	assert.True(t, tc.Enabled("note"))

	src.records[canvas.KindProduct] = []Record{{ID: "p-1", Snapshot: canvas.ProductSnapshot{Name: "Widget"}}}
	tc, err = c.ForTenant(context.Background(), src, "org-1")
	require.NoError(t, err)
	assert.True(t, tc.Enabled("persona"))
	assert.True(t, tc.Enabled("content"))
}

func TestForTenant_NoTenantSkipsSource(t *testing.T) {
	c, _ := Load()
	src := &stubSource{}

	tc, err := c.ForTenant(context.Background(), src, "")
	require.NoError(t, err)
	assert.Zero(t, src.calls)
	assert.True(t, tc.Enabled("company"))
	assert.False(t, tc.Enabled("product"))
}

func TestForTenant_SourceError(t *testing.T) {
	c, _ := Load()
	_, err := c.ForTenant(context.Background(), &stubSource{err: errors.New("db down")}, "org-1")
	assert.ErrorContains(t, err, "db down")
}

func TestBeginDrag(t *testing.T) {
	c, _ := Load()
	src := &stubSource{records: map[canvas.ModuleKind][]Record{
		canvas.KindCompany: {{ID: "org-1", Snapshot: canvas.CompanySnapshot{Name: "Acme"}}},
		canvas.KindProduct: {{ID: "p-1", Snapshot: canvas.ProductSnapshot{Name: "Widget", Price: "9.99"}}},
	}}
	tc, err := c.ForTenant(context.Background(), src, "org-1")
	require.NoError(t, err)

	raw, err := tc.BeginDrag("product", "p-1")
	require.NoError(t, err)
	var payload canvas.DragPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	assert.Equal(t, canvas.DragFromCatalog, payload.Source)
	require.NotNil(t, payload.Item)
	assert.Equal(t, "p-1", payload.Item.SourceRef)
	assert.Equal(t, canvas.ProductSnapshot{Name: "Widget", Price: "9.99"}, payload.Item.Snapshot)

	_, err = tc.BeginDrag("product", "p-404")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = tc.BeginDrag("hologram", "")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = tc.BeginDrag("content", "")
	assert.NoError(t, err)

	src.records = map[canvas.ModuleKind][]Record{}
	tc, _ = c.ForTenant(context.Background(), src, "org-1")
	_, err = tc.BeginDrag("persona", "")
	assert.ErrorIs(t, err, ErrDependencyUnsatisfied)
}
