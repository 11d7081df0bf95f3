package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/services"
	"github.com/onegreenvn/campaign-builder-backend/internal/services/excel"
)

type EditorHandler struct {
	editor   *services.EditorService
	exporter *excel.BriefExporter
	sseHub   *services.SSEHub
}

func NewEditorHandler(editor *services.EditorService, exporter *excel.BriefExporter, sseHub *services.SSEHub) *EditorHandler {
	return &EditorHandler{editor: editor, exporter: exporter, sseHub: sseHub}
}

// OpenSession godoc
// @Summary Open an editing session
// @Description Start a canvas session. Passing the id of an earlier session restores its autosaved canvas.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.OpenSessionRequest false "Open session request"
// @Success 201 {object} models.SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/sessions [post]
func (h *EditorHandler) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
			return
		}
	}

	resp, err := h.editor.Open(c.Request.Context(), currentUser(c), currentTenants(c), req)
	if err != nil {
		respondError(c, err, "Failed to open session")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSession godoc
// @Summary Get an editing session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/sessions/{id} [get]
func (h *EditorHandler) GetSession(c *gin.Context) {
	resp, err := h.editor.Get(c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err, "Failed to get session")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CloseSession godoc
// @Summary Close an editing session
// @Description Ends the session and drops its autosaved canvas
// @Tags sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/sessions/{id} [delete]
func (h *EditorHandler) CloseSession(c *gin.Context) {
	if err := h.editor.Close(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		respondError(c, err, "Failed to close session")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetOrganization godoc
// @Summary Select the organization of a canvas
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.SetOrganizationRequest true "Organization"
// @Success 200 {object} models.SessionResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/organization [put]
func (h *EditorHandler) SetOrganization(c *gin.Context) {
	var req models.SetOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	resp, err := h.editor.SetOrganization(c.Param("id"), currentUser(c), req.OrganizationID)
	if err != nil {
		respondError(c, err, "Failed to set organization")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SessionCatalog godoc
// @Summary Module catalog of a session
// @Description Templates offered for the session's organization, with enablement and placeable records
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} catalog.TenantCatalog
// @Router /api/v1/sessions/{id}/catalog [get]
func (h *EditorHandler) SessionCatalog(c *gin.Context) {
	tc, err := h.editor.Catalog(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err, "Failed to load catalog")
		return
	}
	c.JSON(http.StatusOK, tc)
}

// BeginCatalogDrag godoc
// @Summary Start dragging a catalog module
// @Tags canvas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.CatalogDragRequest true "Catalog drag"
// @Success 200 {object} models.DragPayloadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/drag/catalog [post]
func (h *EditorHandler) BeginCatalogDrag(c *gin.Context) {
	var req models.CatalogDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	payload, err := h.editor.BeginCatalogDrag(c.Request.Context(), c.Param("id"), currentUser(c), req)
	if err != nil {
		respondError(c, err, "Failed to start drag")
		return
	}
	c.JSON(http.StatusOK, models.DragPayloadResponse{Payload: payload})
}

// BeginNodeDrag godoc
// @Summary Start moving a canvas node
// @Tags canvas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.NodeDragRequest true "Node drag"
// @Success 200 {object} models.DragPayloadResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/drag/node [post]
func (h *EditorHandler) BeginNodeDrag(c *gin.Context) {
	var req models.NodeDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	payload, err := h.editor.BeginNodeDrag(c.Param("id"), currentUser(c), req)
	if err != nil {
		respondError(c, err, "Failed to start drag")
		return
	}
	c.JSON(http.StatusOK, models.DragPayloadResponse{Payload: payload})
}

// Drop godoc
// @Summary Drop a dragged module on the canvas
// @Description Malformed payloads are ignored and reported with applied=false
// @Tags canvas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.DropRequest true "Drop"
// @Success 200 {object} models.DropResponse
// @Router /api/v1/sessions/{id}/drop [post]
func (h *EditorHandler) Drop(c *gin.Context) {
	var req models.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	resp, err := h.editor.Drop(c.Param("id"), currentUser(c), req)
	if err != nil {
		respondError(c, err, "Failed to drop")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Connect godoc
// @Summary Connect two modules
// @Tags canvas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.ConnectRequest true "Connection"
// @Success 201 {object} canvas.Connection
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/connections [post]
func (h *EditorHandler) Connect(c *gin.Context) {
	var req models.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	conn, err := h.editor.Connect(c.Param("id"), currentUser(c), req)
	if err != nil {
		respondError(c, err, "Failed to connect modules")
		return
	}
	c.JSON(http.StatusCreated, conn)
}

// Disconnect godoc
// @Summary Remove a connection
// @Tags canvas
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param edge_id path string true "Connection ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/connections/{edge_id} [delete]
func (h *EditorHandler) Disconnect(c *gin.Context) {
	if err := h.editor.Disconnect(c.Param("id"), currentUser(c), c.Param("edge_id")); err != nil {
		respondError(c, err, "Failed to remove connection")
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveNode godoc
// @Summary Remove a module and its connections
// @Tags canvas
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param node_id path string true "Node ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/nodes/{node_id} [delete]
func (h *EditorHandler) RemoveNode(c *gin.Context) {
	if err := h.editor.RemoveNode(c.Param("id"), currentUser(c), c.Param("node_id")); err != nil {
		respondError(c, err, "Failed to remove module")
		return
	}
	c.Status(http.StatusNoContent)
}

// Reset godoc
// @Summary Clear the canvas
// @Tags canvas
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Router /api/v1/sessions/{id}/reset [post]
func (h *EditorHandler) Reset(c *gin.Context) {
	if err := h.editor.Reset(c.Param("id"), currentUser(c)); err != nil {
		respondError(c, err, "Failed to reset canvas")
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveCampaign godoc
// @Summary Save the canvas as a named campaign
// @Description Saving under an existing name of the organization overwrites it
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.SaveCampaignRequest true "Campaign name"
// @Success 200 {object} models.SaveCampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/save [post]
func (h *EditorHandler) SaveCampaign(c *gin.Context) {
	var req models.SaveCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	saved, list, err := h.editor.Save(c.Request.Context(), c.Param("id"), currentUser(c), req.Name)
	if err != nil {
		respondError(c, err, "Failed to save campaign")
		return
	}

	resp := models.SaveCampaignResponse{
		Campaign:  services.ToCampaignResponse(saved),
		Campaigns: make([]models.CampaignResponse, 0, len(list)),
	}
	for _, item := range list {
		resp.Campaigns = append(resp.Campaigns, services.ToCampaignResponse(item))
	}
	c.JSON(http.StatusOK, resp)
}

// LoadCampaign godoc
// @Summary Load a saved campaign onto the canvas
// @Description Replacing a non-empty canvas requires confirm=true
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.LoadCampaignRequest true "Campaign to load"
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/load [post]
func (h *EditorHandler) LoadCampaign(c *gin.Context) {
	var req models.LoadCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	resp, dropped, err := h.editor.Load(c.Request.Context(), c.Param("id"), currentUser(c), req)
	if err != nil {
		respondError(c, err, "Failed to load campaign")
		return
	}
	if dropped > 0 {
		c.Header("X-Dropped-Items", fmt.Sprintf("%d", dropped))
	}
	c.JSON(http.StatusOK, resp)
}

// Next godoc
// @Summary Leave the canvas for media selection
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/wizard/next [post]
func (h *EditorHandler) Next(c *gin.Context) {
	resp, err := h.editor.Next(c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err, "Failed to extract campaign")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelectMedia godoc
// @Summary Select media channels and open the review stage
// @Tags wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.MediaSelectionRequest true "Media selection"
// @Success 200 {object} models.SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/wizard/media [post]
func (h *EditorHandler) SelectMedia(c *gin.Context) {
	var req models.MediaSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	resp, err := h.editor.SelectMedia(c.Request.Context(), c.Param("id"), currentUser(c), req)
	if err != nil {
		respondError(c, err, "Failed to select media")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Generate godoc
// @Summary Submit the campaign for generation
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.GenerateResponse
// @Failure 409 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/wizard/generate [post]
func (h *EditorHandler) Generate(c *gin.Context) {
	resp, err := h.editor.Generate(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		logrus.WithFields(logrus.Fields{
			"session_id":     c.Param("id"),
			"correlation_id": resp.CorrelationID,
			"error":          err,
		}).Warn("Campaign generation failed")
		c.JSON(status, gin.H{
			"error":          "Failed to generate campaign",
			"details":        err.Error(),
			"stage":          resp.Stage,
			"correlation_id": resp.CorrelationID,
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Back godoc
// @Summary Return to the previous wizard stage
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/wizard/back [post]
func (h *EditorHandler) Back(c *gin.Context) {
	resp, err := h.editor.Back(c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err, "Failed to go back")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Handoff godoc
// @Summary Encoded bundle of the current stage
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.HandoffResponse
// @Router /api/v1/sessions/{id}/wizard/handoff [get]
func (h *EditorHandler) Handoff(c *gin.Context) {
	resp, err := h.editor.Handoff(c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err, "Failed to encode handoff")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Resume godoc
// @Summary Reopen a wizard stage from a handoff string
// @Description An undecodable handoff resumes with an empty bundle
// @Tags wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.ResumeRequest true "Stage and handoff"
// @Success 200 {object} models.SessionResponse
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/wizard/resume [post]
func (h *EditorHandler) Resume(c *gin.Context) {
	var req models.ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	resp, err := h.editor.Resume(c.Param("id"), currentUser(c), req)
	if err != nil {
		respondError(c, err, "Failed to resume")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportBrief godoc
// @Summary Download the campaign brief as Excel
// @Tags wizard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/export [get]
func (h *EditorHandler) ExportBrief(c *gin.Context) {
	sessionID := c.Param("id")
	state, err := h.editor.Get(sessionID, currentUser(c))
	if err != nil {
		respondError(c, err, "Failed to get session")
		return
	}

	buf, err := h.exporter.Export(state.Bundle, state.Graph)
	if err != nil {
		respondError(c, err, "Failed to export campaign brief")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.exporter.Filename(sessionID)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// StreamEvents godoc
// @Summary Stream session events via Server-Sent Events (SSE)
// @Description Graph changes, stage changes and late-arriving assets of a session
// @Tags sessions
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 "SSE stream"
// @Router /api/v1/sessions/{id}/events [get]
func (h *EditorHandler) StreamEvents(c *gin.Context) {
	sessionID := c.Param("id")

	// Registered before the lookup, so a close racing this request still
	// reaches the channel.
	clientChan := h.sseHub.RegisterClient(sessionID)
	defer h.sseHub.UnregisterClient(sessionID, clientChan)

	state, err := h.editor.Get(sessionID, currentUser(c))
	if err != nil {
		respondError(c, err, "Failed to get session")
		return
	}

	// Set headers for SSE
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable buffering for nginx

	c.SSEvent("connected", gin.H{
		"session_id": sessionID,
		"stage":      state.Stage,
		"epoch":      state.Epoch,
	})
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			logrus.Debugf("SSE client disconnected: %s", sessionID)
			return
		case message, ok := <-clientChan:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(message); err != nil {
				logrus.Errorf("Failed to write SSE message: %v", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
