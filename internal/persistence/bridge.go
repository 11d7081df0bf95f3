// Package persistence keeps a canvas recoverable: every mutation is
// autosaved to the session cache and named campaigns are saved durably.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/metrics"
	"github.com/onegreenvn/campaign-builder-backend/internal/session"
)

var (
	ErrCampaignNameRequired = errors.New("persistence: campaign name is required")
	ErrOrganizationRequired = errors.New("persistence: select an organization before saving")
	ErrConfirmationRequired = errors.New("persistence: loading a campaign discards the current canvas and must be confirmed")
)

const (
	DefaultTTL = 24 * time.Hour

	autosaveTimeout = 2 * time.Second
	recentListLimit = 50
	maxCampaignName = 255
)

// autosaveState is the cached form of a canvas. UserID records the owner
// of the slot.
type autosaveState struct {
	UserID                 string                  `json:"userId"`
	Nodes                  []canvas.ModuleInstance `json:"nodes"`
	Edges                  []canvas.Connection     `json:"edges"`
	SelectedOrganizationID string                  `json:"selectedOrganizationId"`
	Timestamp              time.Time               `json:"timestamp"`
}

// Bridge connects one editing session's canvas to the session cache and to
// the durable campaign store.
type Bridge struct {
	sess    *session.Context
	store   CampaignStore
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

type BridgeOption func(*Bridge)

// WithTTL sets the lifetime of the autosave slot.
func WithTTL(ttl time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.ttl = ttl
	}
}

func WithClock(now func() time.Time) BridgeOption {
	return func(b *Bridge) {
		b.now = now
	}
}

// WithMetrics counts failed autosaves.
func WithMetrics(m *metrics.Metrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

func NewBridge(sess *session.Context, store CampaignStore, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		sess:  sess,
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach autosaves every later mutation of s.
func (b *Bridge) Attach(s *canvas.GraphStore) {
	s.Subscribe(func(op canvas.Operation, g canvas.CampaignGraph) {
		ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
		defer cancel()
		_ = b.Autosave(ctx, g)
	})
}

// Autosave writes g to the session's cache slot. Failures are logged and
// returned; callers on the mutation path ignore them.
func (b *Bridge) Autosave(ctx context.Context, g canvas.CampaignGraph) error {
	if b.sess.Cache == nil || b.sess.Closed() {
		return nil
	}
	raw, err := json.Marshal(autosaveState{
		UserID:                 b.sess.UserID,
		Nodes:                  g.Nodes,
		Edges:                  g.Edges,
		SelectedOrganizationID: g.SelectedOrganizationID,
		Timestamp:              b.now().UTC(),
	})
	if err == nil {
		err = b.sess.Cache.Set(ctx, b.sess.CacheKey(), string(raw), b.ttl)
	}
	if err != nil {
		if b.metrics != nil {
			b.metrics.AutosaveFailures.Inc()
		}
		logrus.WithFields(logrus.Fields{
			"operation":  "autosave",
			"session_id": b.sess.ID,
			"tenant_id":  g.SelectedOrganizationID,
			"nodes":      len(g.Nodes),
			"error":      err,
		}).Warn("Failed to autosave canvas")
		return fmt.Errorf("failed to autosave canvas: %w", err)
	}
	return nil
}

// Restore reads the autosaved canvas. A missing, unreadable or corrupt slot
// yields an empty graph and false; corrupt slots are deleted. Slots owned by
// another user or scoped to an organization the user does not belong to are
// ignored.
func (b *Bridge) Restore(ctx context.Context) (canvas.CampaignGraph, bool) {
	empty := canvas.CampaignGraph{
		Nodes:                  []canvas.ModuleInstance{},
		Edges:                  []canvas.Connection{},
		SelectedOrganizationID: b.sess.TenantID(),
	}
	if b.sess.Cache == nil {
		return empty, false
	}
	log := logrus.WithFields(logrus.Fields{"operation": "restore_autosave", "session_id": b.sess.ID})

	raw, err := b.sess.Cache.Get(ctx, b.sess.CacheKey())
	if errors.Is(err, session.ErrCacheMiss) {
		return empty, false
	}
	if err != nil {
		log.WithField("error", err).Warn("Failed to read autosave slot, starting empty")
		return empty, false
	}

	var state autosaveState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		log.WithFields(logrus.Fields{"bytes": len(raw), "error": err}).Warn("Discarding corrupt autosave slot")
		if err := b.sess.Cache.Delete(ctx, b.sess.CacheKey()); err != nil {
			log.WithField("error", err).Warn("Failed to delete corrupt autosave slot")
		}
		return empty, false
	}
	if state.UserID != b.sess.UserID {
		log.WithField("owner", state.UserID).Warn("Ignoring autosave slot of another user")
		return empty, false
	}
	if state.SelectedOrganizationID != "" && !b.sess.IsMember(state.SelectedOrganizationID) {
		log.WithField("tenant_id", state.SelectedOrganizationID).Warn("Ignoring autosave slot of a foreign organization")
		return empty, false
	}
	return canvas.CampaignGraph{
		Nodes:                  state.Nodes,
		Edges:                  state.Edges,
		SelectedOrganizationID: state.SelectedOrganizationID,
	}, true
}

// RestoreInto hydrates s from the autosave slot without triggering an
// autosave. It reports whether anything was restored.
func (b *Bridge) RestoreInto(ctx context.Context, s *canvas.GraphStore) bool {
	g, ok := b.Restore(ctx)
	if !ok {
		return false
	}
	if dropped := s.Restore(g); dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"operation":  "restore_autosave",
			"session_id": b.sess.ID,
			"dropped":    dropped,
		}).Warn("Dropped invalid parts of autosaved canvas")
	}
	return true
}

// Save stores g as the campaign called name for the canvas's organization
// and returns the stored record with the tenant's refreshed campaign list.
func (b *Bridge) Save(ctx context.Context, name string, g canvas.CampaignGraph) (SavedCampaign, []SavedCampaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SavedCampaign{}, nil, ErrCampaignNameRequired
	}
	if len(name) > maxCampaignName {
		return SavedCampaign{}, nil, fmt.Errorf("%w: at most %d characters", ErrCampaignNameRequired, maxCampaignName)
	}
	tenantID := g.SelectedOrganizationID
	if tenantID == "" {
		return SavedCampaign{}, nil, ErrOrganizationRequired
	}
	if !b.sess.IsMember(tenantID) {
		return SavedCampaign{}, nil, fmt.Errorf("%w: %s", session.ErrNotMember, tenantID)
	}

	g = g.Clone()
	saved, err := b.store.UpsertCampaign(ctx, SavedCampaign{
		TenantID:  tenantID,
		Name:      name,
		CreatedBy: b.sess.UserID,
		Nodes:     g.Nodes,
		Edges:     g.Edges,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"operation":     "save_campaign",
			"session_id":    b.sess.ID,
			"tenant_id":     tenantID,
			"campaign_name": name,
			"error":         err,
		}).Error("Failed to save campaign")
		return SavedCampaign{}, nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	list, err := b.store.RecentCampaigns(ctx, tenantID, recentListLimit)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"operation": "list_campaigns",
			"tenant_id": tenantID,
			"error":     err,
		}).Warn("Campaign saved but the list could not be refreshed")
		list = []SavedCampaign{saved}
	}
	return saved, list, nil
}

// Load replaces the canvas of s with campaign c. Unless the canvas is empty
// the caller must confirm that the current canvas may be discarded. The
// number of nodes and edges dropped as invalid is returned.
func (b *Bridge) Load(s *canvas.GraphStore, c SavedCampaign, confirmed bool) (int, error) {
	if !confirmed && !s.Graph().IsEmpty() {
		return 0, ErrConfirmationRequired
	}
	if c.TenantID != "" && !b.sess.IsMember(c.TenantID) {
		return 0, fmt.Errorf("%w: %s", session.ErrNotMember, c.TenantID)
	}
	dropped := s.Replay(c.Graph())
	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"operation":   "load_campaign",
			"campaign_id": c.ID,
			"dropped":     dropped,
		}).Warn("Skipped invalid nodes or edges of saved campaign")
	}
	return dropped, nil
}
