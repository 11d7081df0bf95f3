package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/persistence"
	"github.com/onegreenvn/campaign-builder-backend/internal/services"
	"github.com/onegreenvn/campaign-builder-backend/internal/utils"
)

// CampaignLister reads and deletes saved campaigns
type CampaignLister interface {
	GetCampaign(ctx context.Context, tenantID, id string) (persistence.SavedCampaign, error)
	ListCampaigns(ctx context.Context, tenantID string, page, pageSize int) ([]persistence.SavedCampaign, utils.PaginationResponse, error)
	DeleteCampaign(ctx context.Context, tenantID, id string) error
}

type CampaignHandler struct {
	campaigns CampaignLister
}

func NewCampaignHandler(campaigns CampaignLister) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// ListCampaigns godoc
// @Summary List saved campaigns of an organization
// @Description Newest first
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param organization_id query string true "Organization ID"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Items per page (default: 20, max: 100)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	list, pagination, err := h.campaigns.ListCampaigns(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		respondError(c, err, "Failed to list campaigns")
		return
	}

	data := make([]models.CampaignResponse, 0, len(list))
	for _, item := range list {
		data = append(data, services.ToCampaignResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"pagination": pagination,
	})
}

// GetCampaign godoc
// @Summary Get a saved campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param organization_id query string true "Organization ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}
	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get campaign")
		return
	}
	c.JSON(http.StatusOK, services.ToCampaignResponse(campaign))
}

// DeleteCampaign godoc
// @Summary Delete a saved campaign
// @Tags campaigns
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param organization_id query string true "Organization ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}
	if err := h.campaigns.DeleteCampaign(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete campaign")
		return
	}
	c.Status(http.StatusNoContent)
}
