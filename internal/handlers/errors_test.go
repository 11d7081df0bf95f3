package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
	"github.com/onegreenvn/campaign-builder-backend/internal/middleware"
	"github.com/onegreenvn/campaign-builder-backend/internal/persistence"
	"github.com/onegreenvn/campaign-builder-backend/internal/services"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("remove: %w", canvas.ErrNodeNotFound), http.StatusNotFound},
		{services.ErrSessionForbidden, http.StatusForbidden},
		{persistence.ErrConfirmationRequired, http.StatusConflict},
		{fmt.Errorf("%w: generate from editing", wizard.ErrInvalidTransition), http.StatusConflict},
		{canvas.ErrSelfLoop, http.StatusBadRequest},
		{wizard.ErrNoMediaSelected, http.StatusBadRequest},
		{gateway.ErrGatewayRejected, http.StatusBadGateway},
		{fmt.Errorf("dispatch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

func TestRequireTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(query string, tenants []string) (*httptest.ResponseRecorder, string, bool) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+query, nil)
		if tenants != nil {
			c.Set(middleware.ContextTenantIDs, tenants)
		}
		id, ok := requireTenant(c)
		return w, id, ok
	}

	w, _, ok := run("", []string{"org-1"})
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _, ok = run("?organization_id=org-2", []string{"org-1"})
	assert.False(t, ok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, id, ok := run("?organization_id=org-1", []string{"org-1"})
	assert.True(t, ok)
	assert.Equal(t, "org-1", id)

	_, id, ok = run("?organization_id=org-7", nil)
	assert.True(t, ok)
	assert.Equal(t, "org-7", id)
}
