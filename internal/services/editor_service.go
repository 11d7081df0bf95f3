package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/catalog"
	"github.com/onegreenvn/campaign-builder-backend/internal/extraction"
	"github.com/onegreenvn/campaign-builder-backend/internal/metrics"
	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/persistence"
	"github.com/onegreenvn/campaign-builder-backend/internal/session"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

var (
	ErrSessionNotFound  = errors.New("editing session not found")
	ErrSessionForbidden = errors.New("editing session belongs to another user")
	ErrEdgeNotFound     = errors.New("connection not found")
)

// CatalogSource resolves the module catalog of a tenant
type CatalogSource interface {
	ForTenant(ctx context.Context, tenantID string) (*catalog.TenantCatalog, error)
}

// CampaignSource stores and loads named campaigns
type CampaignSource interface {
	persistence.CampaignStore
	GetCampaign(ctx context.Context, tenantID, id string) (persistence.SavedCampaign, error)
}

// EditorDeps are the collaborators of the editor service
type EditorDeps struct {
	Catalog     CatalogSource
	Live        extraction.LiveSource
	Campaigns   CampaignSource
	Generations *GenerationService
	Hub         *SSEHub
	Cache       session.Cache
	Metrics     *metrics.Metrics
	AutosaveTTL time.Duration
}

// EditorSession is one open canvas with its wizard. All access goes through
// mu; the graph store and sequencer expect a single writer.
type EditorSession struct {
	mu           sync.Mutex
	sess         *session.Context
	store        *canvas.GraphStore
	drag         *canvas.DragController
	bridge       *persistence.Bridge
	wizard       *wizard.Sequencer
	restored     bool
	lastActivity time.Time
}

// EditorService keeps the open editing sessions of this instance
type EditorService struct {
	deps     EditorDeps
	sessions map[string]*EditorSession
	mu       sync.RWMutex
	now      func() time.Time
}

func NewEditorService(deps EditorDeps) *EditorService {
	if deps.AutosaveTTL <= 0 {
		deps.AutosaveTTL = persistence.DefaultTTL
	}
	return &EditorService{
		deps:     deps,
		sessions: make(map[string]*EditorSession),
		now:      time.Now,
	}
}

// Open starts an editing session. When req.SessionID names a session of
// the caller that is no longer in memory, its autosaved canvas is restored.
// Otherwise the session gets a fresh id.
func (s *EditorService) Open(ctx context.Context, userID string, tenantIDs []string, req models.OpenSessionRequest) (models.SessionResponse, error) {
	if req.SessionID != "" {
		s.mu.RLock()
		existing, ok := s.sessions[req.SessionID]
		s.mu.RUnlock()
		if ok {
			return s.resume(existing, userID)
		}
	}

	es := s.newEditorSession(session.NewWithID(req.SessionID, userID, tenantIDs, s.deps.Cache))
	if req.SessionID != "" {
		es.restored = es.bridge.RestoreInto(ctx, es.store)
		if !es.restored {
			es = s.newEditorSession(session.New(userID, tenantIDs, s.deps.Cache))
		}
	}
	es.bridge.Attach(es.store)
	es.store.Subscribe(s.graphListener(es.sess.ID))

	if req.OrganizationID != "" && req.OrganizationID != es.store.Graph().SelectedOrganizationID {
		if err := es.store.SetOrganization(req.OrganizationID); err != nil {
			return models.SessionResponse{}, err
		}
	}

	s.mu.Lock()
	if current, ok := s.sessions[es.sess.ID]; ok {
		// a concurrent Open of the same id won
		s.mu.Unlock()
		return s.resume(current, userID)
	}
	s.sessions[es.sess.ID] = es
	s.mu.Unlock()
	if s.deps.Metrics != nil {
		s.deps.Metrics.ActiveSessions.Inc()
	}

	logrus.WithFields(logrus.Fields{
		"operation":  "open_session",
		"session_id": es.sess.ID,
		"user_id":    userID,
		"tenant_id":  es.sess.TenantID(),
		"restored":   es.restored,
	}).Info("Editing session opened")
	return es.response(), nil
}

func (s *EditorService) newEditorSession(sess *session.Context) *EditorSession {
	store := canvas.NewGraphStore(sess)
	bridge := persistence.NewBridge(sess, s.deps.Campaigns,
		persistence.WithTTL(s.deps.AutosaveTTL),
		persistence.WithMetrics(s.deps.Metrics),
	)
	return &EditorSession{
		sess:         sess,
		store:        store,
		drag:         canvas.NewDragController(store),
		bridge:       bridge,
		wizard:       wizard.NewSequencer(s.deps.Live, wizard.WithMetrics(s.deps.Metrics)),
		lastActivity: s.now(),
	}
}

// resume returns the state of a session already in memory
func (s *EditorService) resume(es *EditorSession, userID string) (models.SessionResponse, error) {
	if es.sess.UserID != userID {
		return models.SessionResponse{}, ErrSessionForbidden
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	es.lastActivity = s.now()
	return es.response(), nil
}

func (s *EditorService) graphListener(sessionID string) canvas.ChangeListener {
	return func(op canvas.Operation, g canvas.CampaignGraph) {
		if s.deps.Metrics != nil {
			s.deps.Metrics.GraphMutations.WithLabelValues(string(op)).Inc()
		}
		if s.deps.Hub != nil {
			s.deps.Hub.Broadcast(sessionID, EventGraph, eventData{"operation": op, "graph": g})
		}
	}
}

type eventData map[string]interface{}

func (s *EditorService) lookup(sessionID, userID string) (*EditorSession, error) {
	s.mu.RLock()
	es, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if es.sess.UserID != userID {
		return nil, ErrSessionForbidden
	}
	return es, nil
}

// with runs fn on a session while holding its lock
func (s *EditorService) with(sessionID, userID string, fn func(es *EditorSession) error) error {
	es, err := s.lookup(sessionID, userID)
	if err != nil {
		return err
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	es.lastActivity = s.now()
	return fn(es)
}

func (s *EditorService) broadcastStage(es *EditorSession) {
	if s.deps.Hub == nil {
		return
	}
	s.deps.Hub.Broadcast(es.sess.ID, EventStage, eventData{
		"stage": es.wizard.Stage(),
		"epoch": es.wizard.Epoch(),
	})
}

func (es *EditorSession) response() models.SessionResponse {
	return models.SessionResponse{
		ID:             es.sess.ID,
		OrganizationID: es.sess.TenantID(),
		Stage:          string(es.wizard.Stage()),
		Epoch:          es.wizard.Epoch(),
		InFlight:       es.wizard.InFlight(),
		Restored:       es.restored,
		Graph:          es.store.Graph(),
		Bundle:         es.wizard.Bundle(),
		CreatedAt:      es.sess.CreatedAt,
		LastActivity:   es.lastActivity,
	}
}

// Get returns the state of a session
func (s *EditorService) Get(sessionID, userID string) (models.SessionResponse, error) {
	var out models.SessionResponse
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		out = es.response()
		return nil
	})
	return out, err
}

// Close ends a session and drops its autosave slot
func (s *EditorService) Close(ctx context.Context, sessionID, userID string) error {
	es, err := s.lookup(sessionID, userID)
	if err != nil {
		return err
	}
	s.remove(sessionID)
	es.mu.Lock()
	es.sess.Close(ctx)
	es.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"operation":  "close_session",
		"session_id": sessionID,
		"user_id":    userID,
	}).Info("Editing session closed")
	return nil
}

func (s *EditorService) remove(sessionID string) bool {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return false
	}
	if s.deps.Hub != nil {
		s.deps.Hub.CloseSession(sessionID)
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ActiveSessions.Dec()
	}
	return true
}

// EvictIdle unloads sessions idle for longer than idle. Their autosave slot
// is kept so they can be reopened. It returns the number of evicted sessions.
func (s *EditorService) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.RLock()
	var stale []string
	for id, es := range s.sessions {
		es.mu.Lock()
		if es.lastActivity.Before(cutoff) && !es.wizard.InFlight() {
			stale = append(stale, id)
		}
		es.mu.Unlock()
	}
	s.mu.RUnlock()

	evicted := 0
	for _, id := range stale {
		if s.remove(id) {
			evicted++
		}
	}
	return evicted
}

// SessionIDs lists the open sessions
func (s *EditorService) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// SetOrganization scopes the canvas to an organization
func (s *EditorService) SetOrganization(sessionID, userID, organizationID string) (models.SessionResponse, error) {
	var out models.SessionResponse
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		if err := es.store.SetOrganization(organizationID); err != nil {
			return err
		}
		out = es.response()
		return nil
	})
	return out, err
}

// Catalog returns the module catalog for the session's organization
func (s *EditorService) Catalog(ctx context.Context, sessionID, userID string) (*catalog.TenantCatalog, error) {
	es, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.deps.Catalog.ForTenant(ctx, es.sess.TenantID())
}

// BeginCatalogDrag validates a catalog drag and returns its payload
func (s *EditorService) BeginCatalogDrag(ctx context.Context, sessionID, userID string, req models.CatalogDragRequest) (string, error) {
	tc, err := s.Catalog(ctx, sessionID, userID)
	if err != nil {
		return "", err
	}
	return tc.BeginDrag(req.Key, req.SourceRef)
}

// BeginNodeDrag starts moving a node on the canvas
func (s *EditorService) BeginNodeDrag(sessionID, userID string, req models.NodeDragRequest) (string, error) {
	var payload string
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		var err error
		payload, err = es.drag.BeginMove(req.NodeID, req.Pointer, req.Canvas)
		return err
	})
	return payload, err
}

// Drop completes a drag on the canvas
func (s *EditorService) Drop(sessionID, userID string, req models.DropRequest) (models.DropResponse, error) {
	var out models.DropResponse
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		node, ok := es.drag.Drop(req.Payload, req.Client, req.Canvas)
		out.Applied = ok
		if ok {
			out.Node = &node
		}
		return nil
	})
	return out, err
}

// Connect adds a directed edge between two nodes
func (s *EditorService) Connect(sessionID, userID string, req models.ConnectRequest) (canvas.Connection, error) {
	var conn canvas.Connection
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		var err error
		conn, err = es.drag.Connect(req.SourceID, req.TargetID)
		return err
	})
	return conn, err
}

// Disconnect removes an edge
func (s *EditorService) Disconnect(sessionID, userID, edgeID string) error {
	return s.with(sessionID, userID, func(es *EditorSession) error {
		if !es.drag.SecondaryClickEdge(edgeID) {
			return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
		}
		return nil
	})
}

// RemoveNode removes a node and its edges
func (s *EditorService) RemoveNode(sessionID, userID, nodeID string) error {
	return s.with(sessionID, userID, func(es *EditorSession) error {
		if !es.drag.DoubleClickNode(nodeID) {
			return fmt.Errorf("%w: %s", canvas.ErrNodeNotFound, nodeID)
		}
		return nil
	})
}

// Reset clears the canvas
func (s *EditorService) Reset(sessionID, userID string) error {
	return s.with(sessionID, userID, func(es *EditorSession) error {
		es.drag.CancelDrag()
		es.store.Reset()
		return nil
	})
}

// Save stores the canvas as a named campaign
func (s *EditorService) Save(ctx context.Context, sessionID, userID, name string) (persistence.SavedCampaign, []persistence.SavedCampaign, error) {
	var (
		saved persistence.SavedCampaign
		list  []persistence.SavedCampaign
	)
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		var err error
		saved, list, err = es.bridge.Save(ctx, name, es.store.Graph())
		return err
	})
	return saved, list, err
}

// Load replaces the canvas with a saved campaign of the session's
// organization. It returns the number of invalid nodes and edges skipped.
func (s *EditorService) Load(ctx context.Context, sessionID, userID string, req models.LoadCampaignRequest) (models.SessionResponse, int, error) {
	var (
		out     models.SessionResponse
		dropped int
	)
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		tenantID := es.sess.TenantID()
		if tenantID == "" {
			return persistence.ErrOrganizationRequired
		}
		c, err := s.deps.Campaigns.GetCampaign(ctx, tenantID, req.CampaignID)
		if err != nil {
			return err
		}
		es.drag.CancelDrag()
		dropped, err = es.bridge.Load(es.store, c, req.Confirm)
		if err != nil {
			return err
		}
		out = es.response()
		return nil
	})
	return out, dropped, err
}

// Next extracts the canvas and opens the media stage
func (s *EditorService) Next(sessionID, userID string) (models.SessionResponse, error) {
	return s.transition(sessionID, userID, func(es *EditorSession) error {
		return es.wizard.Next(es.store.Graph())
	})
}

// SelectMedia records the media selection and opens the review stage
func (s *EditorService) SelectMedia(ctx context.Context, sessionID, userID string, req models.MediaSelectionRequest) (models.SessionResponse, error) {
	return s.transition(sessionID, userID, func(es *EditorSession) error {
		return es.wizard.SelectMedia(ctx, req.Channels, req.Specs)
	})
}

// Back returns to the previous wizard stage
func (s *EditorService) Back(sessionID, userID string) (models.SessionResponse, error) {
	return s.transition(sessionID, userID, func(es *EditorSession) error {
		return es.wizard.Back()
	})
}

// Resume reopens a wizard stage from a handoff string. Undecodable handoffs
// resume with an empty bundle. Resuming the editing stage also restores
// the canvas carried by the bundle.
func (s *EditorService) Resume(sessionID, userID string, req models.ResumeRequest) (models.SessionResponse, error) {
	return s.transition(sessionID, userID, func(es *EditorSession) error {
		b := wizard.DecodeHandoff(req.Handoff)
		if err := es.wizard.Resume(wizard.Stage(req.Stage), b); err != nil {
			return err
		}
		if wizard.Stage(req.Stage) == wizard.StageEditing && len(b.Nodes) > 0 {
			es.store.Replay(canvas.CampaignGraph{
				Nodes:                  b.Nodes,
				Edges:                  b.Edges,
				SelectedOrganizationID: b.SelectedOrganizationID,
			})
		}
		return nil
	})
}

func (s *EditorService) transition(sessionID, userID string, fn func(es *EditorSession) error) (models.SessionResponse, error) {
	var out models.SessionResponse
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		if err := fn(es); err != nil {
			return err
		}
		s.broadcastStage(es)
		out = es.response()
		return nil
	})
	return out, err
}

// Handoff returns the encoded bundle of the current stage
func (s *EditorService) Handoff(sessionID, userID string) (models.HandoffResponse, error) {
	var out models.HandoffResponse
	err := s.with(sessionID, userID, func(es *EditorSession) error {
		h, err := es.wizard.Handoff()
		if err != nil {
			return err
		}
		out = models.HandoffResponse{Stage: string(es.wizard.Stage()), Handoff: h}
		return nil
	})
	return out, err
}

// Generate submits the reviewed campaign to the generation webhook. The
// session lock is released while the webhook call is in flight; a response
// that arrives after the user left the review stage is discarded.
func (s *EditorService) Generate(ctx context.Context, sessionID, userID string) (models.GenerateResponse, error) {
	es, err := s.lookup(sessionID, userID)
	if err != nil {
		return models.GenerateResponse{}, err
	}

	es.mu.Lock()
	es.lastActivity = s.now()
	ticket, err := es.wizard.BeginGeneration()
	tenantID := es.sess.TenantID()
	stage := es.wizard.Stage()
	es.mu.Unlock()
	if err != nil {
		return models.GenerateResponse{Stage: string(stage)}, err
	}

	res, dispatchErr := s.deps.Generations.ForSession(sessionID, tenantID, userID).Dispatch(ctx, ticket.Payload)

	es.mu.Lock()
	defer es.mu.Unlock()
	es.lastActivity = s.now()
	outcome, err := es.wizard.CompleteGeneration(ticket, res, dispatchErr)
	out := models.GenerateResponse{
		Stage:         string(outcome.Stage),
		AssetURL:      outcome.AssetURL,
		Delivered:     outcome.Delivered,
		CorrelationID: ticket.CorrelationID,
	}
	if err != nil {
		return out, err
	}
	if outcome.Stage == wizard.StageResult {
		s.broadcastStage(es)
	}
	return out, nil
}

// DeliverAsset applies an asset that arrived after its webhook call
// returned. It reports whether an open session was waiting for it.
func (s *EditorService) DeliverAsset(correlationID, assetURL string) bool {
	s.mu.RLock()
	sessions := make([]*EditorSession, 0, len(s.sessions))
	for _, es := range s.sessions {
		sessions = append(sessions, es)
	}
	s.mu.RUnlock()

	for _, es := range sessions {
		es.mu.Lock()
		applied := es.wizard.DeliverAsset(correlationID, assetURL)
		if applied {
			es.lastActivity = s.now()
			if s.deps.Hub != nil {
				s.deps.Hub.Broadcast(es.sess.ID, EventAsset, eventData{"correlationId": correlationID, "assetUrl": assetURL})
			}
			s.broadcastStage(es)
		}
		es.mu.Unlock()
		if applied {
			return true
		}
	}
	return false
}
