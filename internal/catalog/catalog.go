// Package catalog exposes the module templates that can be dragged onto the
// canvas together with the tenant records that back them.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
)

//go:embed templates.yaml
var defaultTemplates []byte

var (
	ErrTemplateNotFound      = errors.New("catalog: template not found")
	ErrRecordNotFound        = errors.New("catalog: record not found")
	ErrDependencyUnsatisfied = errors.New("catalog: module dependencies are not satisfied")
)

type templateFile struct {
	Templates []canvas.ModuleTemplate `yaml:"templates"`
}

// Catalog is the immutable list of module templates.
type Catalog struct {
	templates []canvas.ModuleTemplate
	byKey     map[string]int
}

// Load parses the built-in template list.
func Load() (*Catalog, error) {
	return Parse(defaultTemplates)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse module templates: %w", err)
	}
	c := &Catalog{byKey: make(map[string]int, len(f.Templates))}
	for _, t := range f.Templates {
		if t.Key == "" {
			return nil, fmt.Errorf("module template %q has no key", t.Name)
		}
		if !t.Kind.Valid() {
			return nil, fmt.Errorf("module template %s: %w: %q", t.Key, canvas.ErrUnknownKind, t.Kind)
		}
		for _, dep := range t.DependsOn {
			if !dep.Valid() {
				return nil, fmt.Errorf("module template %s depends on %w: %q", t.Key, canvas.ErrUnknownKind, dep)
			}
		}
		if _, dup := c.byKey[t.Key]; dup {
			return nil, fmt.Errorf("duplicate module template key %s", t.Key)
		}
		c.byKey[t.Key] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

// Templates returns the templates in declaration order.
func (c *Catalog) Templates() []canvas.ModuleTemplate {
	out := make([]canvas.ModuleTemplate, len(c.templates))
	copy(out, c.templates)
	return out
}

// Template looks a template up by key.
func (c *Catalog) Template(key string) (canvas.ModuleTemplate, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return canvas.ModuleTemplate{}, false
	}
	return c.templates[i], true
}

// Record is one tenant record that can be placed as a module.
type Record struct {
	ID       string                 `json:"id"`
	Snapshot canvas.DisplaySnapshot `json:"snapshot"`
}

// RecordSource loads the records a tenant can place, grouped by kind.
type RecordSource interface {
	TenantRecords(ctx context.Context, tenantID string) (map[canvas.ModuleKind][]Record, error)
}

// Entry is a template as offered to one tenant.
type Entry struct {
	Template canvas.ModuleTemplate `json:"template"`
	Enabled  bool                  `json:"enabled"`
	Records  []Record              `json:"records"`
}

// TenantCatalog is the catalog resolved against one tenant's records.
type TenantCatalog struct {
	TenantID string  `json:"tenantId"`
	Entries  []Entry `json:"entries"`
}

// ForTenant resolves the catalog for tenantID. With no tenant selected only
// templates without dependencies are enabled and no records are listed.
func (c *Catalog) ForTenant(ctx context.Context, src RecordSource, tenantID string) (*TenantCatalog, error) {
	records := map[canvas.ModuleKind][]Record{}
	if tenantID != "" {
		var err error
		records, err = src.TenantRecords(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog records for %s: %w", tenantID, err)
		}
	}

	tc := &TenantCatalog{TenantID: tenantID, Entries: make([]Entry, 0, len(c.templates))}
	for _, t := range c.templates {
		entry := Entry{Template: t, Enabled: true, Records: []Record{}}
		for _, dep := range t.DependsOn {
			if len(records[dep]) == 0 {
				entry.Enabled = false
			}
		}
		if t.Kind != canvas.KindGeneric && records[t.Kind] != nil {
			entry.Records = records[t.Kind]
		}
		tc.Entries = append(tc.Entries, entry)
	}
	return tc, nil
}

func (t *TenantCatalog) entry(key string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Template.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Enabled reports whether the template may be dragged.
func (t *TenantCatalog) Enabled(key string) bool {
	e, ok := t.entry(key)
	return ok && e.Enabled
}

// BeginDrag validates a catalog drag and returns its payload. Disabled
// templates cannot be dragged. A non-empty sourceRef must name one of the
// template's records; its display fields travel with the payload.
func (t *TenantCatalog) BeginDrag(templateKey, sourceRef string) (string, error) {
	e, ok := t.entry(templateKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templateKey)
	}
	if !e.Enabled {
		return "", fmt.Errorf("%w: %s", ErrDependencyUnsatisfied, templateKey)
	}

	item := canvas.CatalogItem{Template: e.Template}
	if sourceRef != "" {
		found := false
		for _, r := range e.Records {
			if r.ID == sourceRef {
				item.SourceRef = r.ID
				item.Snapshot = r.Snapshot
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("%w: %s %s", ErrRecordNotFound, e.Template.Kind, sourceRef)
		}
	}
	return canvas.EncodeCatalogPayload(item)
}
