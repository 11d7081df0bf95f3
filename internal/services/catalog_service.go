package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/catalog"
	"github.com/onegreenvn/campaign-builder-backend/internal/database/repository"
	"github.com/onegreenvn/campaign-builder-backend/internal/extraction"
	"github.com/onegreenvn/campaign-builder-backend/internal/models"
)

// CatalogService reads the tenant records behind catalog modules. It serves
// both the catalog (placement snapshots) and re-hydration (live values).
type CatalogService struct {
	catalog     *catalog.Catalog
	orgRepo     *repository.OrganizationRepository
	productRepo *repository.ProductRepository
	personaRepo *repository.PersonaRepository
	contentRepo *repository.ContentModuleRepository
}

func NewCatalogService(
	cat *catalog.Catalog,
	orgRepo *repository.OrganizationRepository,
	productRepo *repository.ProductRepository,
	personaRepo *repository.PersonaRepository,
	contentRepo *repository.ContentModuleRepository,
) *CatalogService {
	return &CatalogService{
		catalog:     cat,
		orgRepo:     orgRepo,
		productRepo: productRepo,
		personaRepo: personaRepo,
		contentRepo: contentRepo,
	}
}

// ListOrganizations returns the organizations in tenantIDs. An empty list
// means the caller is not restricted to any organization.
func (s *CatalogService) ListOrganizations(ctx context.Context, tenantIDs []string) ([]models.OrganizationResponse, error) {
	orgs, err := s.orgRepo.List(ctx, tenantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	out := make([]models.OrganizationResponse, len(orgs))
	for i, org := range orgs {
		out[i] = models.OrganizationResponse{ID: org.ID, Name: org.Name, Industry: org.Industry}
	}
	return out, nil
}

// ForTenant resolves the module catalog for a tenant
func (s *CatalogService) ForTenant(ctx context.Context, tenantID string) (*catalog.TenantCatalog, error) {
	return s.catalog.ForTenant(ctx, s, tenantID)
}

// TenantRecords implements catalog.RecordSource
func (s *CatalogService) TenantRecords(ctx context.Context, tenantID string) (map[canvas.ModuleKind][]catalog.Record, error) {
	records := make(map[canvas.ModuleKind][]catalog.Record, 4)

	org, err := s.orgRepo.GetByID(ctx, tenantID)
	switch {
	case errors.Is(err, repository.ErrOrganizationNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to get organization: %w", err)
	default:
		records[canvas.KindCompany] = []catalog.Record{{ID: org.ID, Snapshot: companySnapshot(org)}}
	}

	products, err := s.productRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	for _, p := range products {
		records[canvas.KindProduct] = append(records[canvas.KindProduct], catalog.Record{ID: p.ID, Snapshot: productSnapshot(p)})
	}

	personas, err := s.personaRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	for _, p := range personas {
		records[canvas.KindPersona] = append(records[canvas.KindPersona], catalog.Record{ID: p.ID, Snapshot: personaSnapshot(p)})
	}

	content, err := s.contentRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content modules: %w", err)
	}
	for _, c := range content {
		records[canvas.KindContent] = append(records[canvas.KindContent], catalog.Record{ID: c.ID, Snapshot: contentSnapshot(c)})
	}
	return records, nil
}

// LiveOrganization implements extraction.LiveSource. Organizations other
// than the tenant itself are not visible.
func (s *CatalogService) LiveOrganization(ctx context.Context, tenantID, id string) (*extraction.CompanyInfo, error) {
	if id != tenantID {
		return nil, nil
	}
	org, err := s.orgRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrOrganizationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &extraction.CompanyInfo{
		ID:         org.ID,
		Name:       org.Name,
		Industry:   org.Industry,
		Mission:    org.Mission,
		Vision:     org.Vision,
		Objectives: org.Objectives,
		Purpose:    org.Purpose,
	}, nil
}

func (s *CatalogService) LiveProducts(ctx context.Context, tenantID string, ids []string) (map[string]extraction.ProductRecord, error) {
	products, err := s.productRepo.GetByTenantAndIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]extraction.ProductRecord, len(products))
	for _, p := range products {
		out[p.ID] = extraction.ProductRecord{ID: p.ID, Name: p.Name, Description: p.Description, Category: p.Category, Price: p.Price}
	}
	return out, nil
}

func (s *CatalogService) LivePersonas(ctx context.Context, tenantID string, ids []string) (map[string]extraction.PersonaRecord, error) {
	personas, err := s.personaRepo.GetByTenantAndIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]extraction.PersonaRecord, len(personas))
	for _, p := range personas {
		out[p.ID] = extraction.PersonaRecord{
			ID: p.ID, Name: p.Name, Description: p.Description,
			AgeRange: p.AgeRange, Occupation: p.Occupation, Goals: p.Goals, PainPoints: p.PainPoints,
		}
	}
	return out, nil
}

func (s *CatalogService) LiveContent(ctx context.Context, tenantID string, ids []string) (map[string]extraction.ContentRecord, error) {
	content, err := s.contentRepo.GetByTenantAndIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]extraction.ContentRecord, len(content))
	for _, c := range content {
		out[c.ID] = extraction.ContentRecord{ID: c.ID, Name: c.Name, Description: c.Description, Format: c.Format, Tone: c.Tone}
	}
	return out, nil
}

func companySnapshot(o *models.Organization) canvas.CompanySnapshot {
	return canvas.CompanySnapshot{
		Name:       o.Name,
		Industry:   o.Industry,
		Mission:    o.Mission,
		Vision:     o.Vision,
		Objectives: o.Objectives,
		Purpose:    o.Purpose,
	}
}

func productSnapshot(p *models.Product) canvas.ProductSnapshot {
	return canvas.ProductSnapshot{Name: p.Name, Description: p.Description, Category: p.Category, Price: p.Price}
}

func personaSnapshot(p *models.Persona) canvas.PersonaSnapshot {
	return canvas.PersonaSnapshot{
		Name:        p.Name,
		Description: p.Description,
		AgeRange:    p.AgeRange,
		Occupation:  p.Occupation,
		Goals:       p.Goals,
		PainPoints:  p.PainPoints,
	}
}

func contentSnapshot(c *models.ContentModule) canvas.ContentSnapshot {
	return canvas.ContentSnapshot{Name: c.Name, Description: c.Description, Format: c.Format, Tone: c.Tone}
}
