package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/utils"
)

// GenerationLogReader reads recorded webhook submissions
type GenerationLogReader interface {
	GetByCorrelationID(ctx context.Context, correlationID string) (*models.GenerationLog, error)
	GetByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.GenerationLog, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}

type GenerationHandler struct {
	logs GenerationLogReader
}

func NewGenerationHandler(logs GenerationLogReader) *GenerationHandler {
	return &GenerationHandler{logs: logs}
}

// ListGenerations godoc
// @Summary List generation requests of an organization
// @Tags generations
// @Produce json
// @Security BearerAuth
// @Param organization_id query string true "Organization ID"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Items per page (default: 20, max: 100)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/generations [get]
func (h *GenerationHandler) ListGenerations(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	total, err := h.logs.CountByTenant(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err, "Failed to count generations")
		return
	}
	logs, err := h.logs.GetByTenant(c.Request.Context(), tenantID, pageSize, utils.CalculateOffset(page, pageSize))
	if err != nil {
		respondError(c, err, "Failed to list generations")
		return
	}
	if logs == nil {
		logs = []*models.GenerationLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       logs,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// GetGeneration godoc
// @Summary Get a generation request by correlation id
// @Tags generations
// @Produce json
// @Security BearerAuth
// @Param correlation_id path string true "Correlation ID"
// @Success 200 {object} models.GenerationLog
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/generations/{correlation_id} [get]
func (h *GenerationHandler) GetGeneration(c *gin.Context) {
	log, err := h.logs.GetByCorrelationID(c.Request.Context(), c.Param("correlation_id"))
	if err != nil {
		respondError(c, err, "Failed to get generation")
		return
	}

	tenants := currentTenants(c)
	if len(tenants) > 0 {
		member := false
		for _, id := range tenants {
			if id == log.TenantID {
				member = true
				break
			}
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this organization"})
			return
		}
	}
	c.JSON(http.StatusOK, log)
}
