package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onegreenvn/campaign-builder-backend/internal/catalog"
	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

// CatalogProvider lists organizations and resolves their module catalog
type CatalogProvider interface {
	ListOrganizations(ctx context.Context, tenantIDs []string) ([]models.OrganizationResponse, error)
	ForTenant(ctx context.Context, tenantID string) (*catalog.TenantCatalog, error)
}

type CatalogHandler struct {
	catalog CatalogProvider
}

func NewCatalogHandler(catalog CatalogProvider) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListOrganizations godoc
// @Summary List the caller's organizations
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.OrganizationResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/organizations [get]
func (h *CatalogHandler) ListOrganizations(c *gin.Context) {
	orgs, err := h.catalog.ListOrganizations(c.Request.Context(), currentTenants(c))
	if err != nil {
		respondError(c, err, "Failed to list organizations")
		return
	}
	c.JSON(http.StatusOK, orgs)
}

// GetCatalog godoc
// @Summary Module catalog of an organization
// @Description Templates with their enablement and the organization's placeable records
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param organization_id query string true "Organization ID"
// @Success 200 {object} catalog.TenantCatalog
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/catalog [get]
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}
	tc, err := h.catalog.ForTenant(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err, "Failed to load catalog")
		return
	}
	c.JSON(http.StatusOK, tc)
}

// ListMediaChannels godoc
// @Summary Selectable media channels and image specs
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {array} wizard.MediaChannel
// @Router /api/v1/media/channels [get]
func (h *CatalogHandler) ListMediaChannels(c *gin.Context) {
	c.JSON(http.StatusOK, wizard.Channels)
}
