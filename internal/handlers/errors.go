package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/catalog"
	"github.com/onegreenvn/campaign-builder-backend/internal/database/repository"
	"github.com/onegreenvn/campaign-builder-backend/internal/extraction"
	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
	"github.com/onegreenvn/campaign-builder-backend/internal/middleware"
	"github.com/onegreenvn/campaign-builder-backend/internal/persistence"
	"github.com/onegreenvn/campaign-builder-backend/internal/services"
	"github.com/onegreenvn/campaign-builder-backend/internal/session"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

var statusByError = []struct {
	err    error
	status int
}{
	{services.ErrSessionNotFound, http.StatusNotFound},
	{services.ErrEdgeNotFound, http.StatusNotFound},
	{canvas.ErrNodeNotFound, http.StatusNotFound},
	{catalog.ErrTemplateNotFound, http.StatusNotFound},
	{catalog.ErrRecordNotFound, http.StatusNotFound},
	{repository.ErrCampaignNotFound, http.StatusNotFound},
	{repository.ErrOrganizationNotFound, http.StatusNotFound},
	{repository.ErrGenerationNotFound, http.StatusNotFound},

	{services.ErrSessionForbidden, http.StatusForbidden},
	{session.ErrNotMember, http.StatusForbidden},

	{persistence.ErrConfirmationRequired, http.StatusConflict},
	{canvas.ErrDuplicateConnection, http.StatusConflict},
	{wizard.ErrInvalidTransition, http.StatusConflict},
	{wizard.ErrGenerationInFlight, http.StatusConflict},
	{wizard.ErrStaleTicket, http.StatusConflict},

	{catalog.ErrDependencyUnsatisfied, http.StatusBadRequest},
	{canvas.ErrSelfLoop, http.StatusBadRequest},
	{canvas.ErrInvalidPosition, http.StatusBadRequest},
	{canvas.ErrUnknownKind, http.StatusBadRequest},
	{canvas.ErrSnapshotKindMismatch, http.StatusBadRequest},
	{extraction.ErrUnsupportedSnapshot, http.StatusBadRequest},
	{extraction.ErrNotSerializable, http.StatusBadRequest},
	{wizard.ErrNoMediaSelected, http.StatusBadRequest},
	{wizard.ErrUnknownMedia, http.StatusBadRequest},
	{persistence.ErrCampaignNameRequired, http.StatusBadRequest},
	{persistence.ErrOrganizationRequired, http.StatusBadRequest},

	{gateway.ErrGatewayRejected, http.StatusBadGateway},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

func statusOf(err error) int {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err with the status its kind maps to. message is used
// for unexpected errors.
func respondError(c *gin.Context, err error, message string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error(message)
		c.JSON(status, gin.H{"error": message, "details": err.Error()})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func currentUser(c *gin.Context) string {
	return c.MustGet(middleware.ContextUserID).(string)
}

func currentTenants(c *gin.Context) []string {
	if v, ok := c.Get(middleware.ContextTenantIDs); ok {
		if ids, ok := v.([]string); ok {
			return ids
		}
	}
	return nil
}

// requireTenant reads organization_id from the query and checks the caller
// belongs to it. It writes the error response and returns false otherwise.
func requireTenant(c *gin.Context) (string, bool) {
	tenantID := c.Query("organization_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organization_id is required"})
		return "", false
	}
	tenants := currentTenants(c)
	if len(tenants) == 0 {
		return tenantID, true
	}
	for _, id := range tenants {
		if id == tenantID {
			return tenantID, true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this organization"})
	return "", false
}
