package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/catalog"
	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
	"github.com/onegreenvn/campaign-builder-backend/internal/metrics"
	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/persistence"
	"github.com/onegreenvn/campaign-builder-backend/internal/session"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

// --- Fakes ---

type fakeRecords map[canvas.ModuleKind][]catalog.Record

func (f fakeRecords) TenantRecords(context.Context, string) (map[canvas.ModuleKind][]catalog.Record, error) {
	return f, nil
}

type fakeCatalog struct {
	cat     *catalog.Catalog
	records fakeRecords
}

func (f *fakeCatalog) ForTenant(ctx context.Context, tenantID string) (*catalog.TenantCatalog, error) {
	return f.cat.ForTenant(ctx, f.records, tenantID)
}

type fakeCampaigns struct {
	mu      sync.Mutex
	records []persistence.SavedCampaign
}

func (f *fakeCampaigns) UpsertCampaign(_ context.Context, c persistence.SavedCampaign) (persistence.SavedCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.TenantID == c.TenantID && r.Name == c.Name {
			c.ID = r.ID
			f.records[i] = c
			return c, nil
		}
	}
	c.ID = fmt.Sprintf("campaign-%d", len(f.records)+1)
	f.records = append(f.records, c)
	return c, nil
}

func (f *fakeCampaigns) RecentCampaigns(_ context.Context, tenantID string, _ int) ([]persistence.SavedCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []persistence.SavedCampaign
	for _, r := range f.records {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCampaigns) GetCampaign(_ context.Context, tenantID, id string) (persistence.SavedCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.TenantID == tenantID && r.ID == id {
			return r, nil
		}
	}
	return persistence.SavedCampaign{}, errors.New("campaign not found")
}

type stubGateway struct {
	mu    sync.Mutex
	res   gateway.Result
	err   error
	calls int
}

func (g *stubGateway) Dispatch(_ context.Context, _ gateway.Payload) (gateway.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.res, g.err
}

type fakeLogStore struct {
	mu        sync.Mutex
	created   []*models.GenerationLog
	delivered map[string]string
}

func (f *fakeLogStore) Create(_ context.Context, log *models.GenerationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, log)
	return nil
}

func (f *fakeLogStore) MarkDelivered(_ context.Context, correlationID, assetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delivered == nil {
		f.delivered = map[string]string{}
	}
	f.delivered[correlationID] = assetURL
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []GenerationEvent
	queues   []string
}

func (f *fakePublisher) PublishMessage(_ context.Context, queue string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues = append(f.queues, queue)
	f.messages = append(f.messages, message.(GenerationEvent))
	return nil
}

type editorFixture struct {
	svc       *EditorService
	cache     *session.MemoryCache
	campaigns *fakeCampaigns
	gateway   *stubGateway
	logs      *fakeLogStore
	publisher *fakePublisher
	hub       *SSEHub
	metrics   *metrics.Metrics
	clock     time.Time
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	f := &editorFixture{
		cache:     session.NewMemoryCache(),
		campaigns: &fakeCampaigns{},
		gateway:   &stubGateway{res: gateway.Result{AssetURL: "https://cdn.example.com/a.png", Shape: gateway.ShapeFlat, Status: 200}},
		logs:      &fakeLogStore{},
		publisher: &fakePublisher{},
		hub:       NewSSEHub(),
		metrics:   metrics.New(),
		clock:     time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	records := fakeRecords{
		canvas.KindCompany: {{ID: "org-1", Snapshot: canvas.CompanySnapshot{Name: "Acme", Mission: "Ship rockets"}}},
		canvas.KindProduct: {{ID: "p-1", Snapshot: canvas.ProductSnapshot{Name: "Anvil"}}},
	}
	f.svc = NewEditorService(EditorDeps{
		Catalog:     &fakeCatalog{cat: cat, records: records},
		Campaigns:   f.campaigns,
		Generations: NewGenerationService(f.gateway, f.logs, f.publisher),
		Hub:         f.hub,
		Cache:       f.cache,
		Metrics:     f.metrics,
	})
	f.svc.now = func() time.Time { return f.clock }
	return f
}

var board = canvas.Rect{Left: 100, Top: 50, Width: 1200, Height: 800}

func (f *editorFixture) place(t *testing.T, sessionID, key, sourceRef string, x, y float64) canvas.ModuleInstance {
	t.Helper()
	payload, err := f.svc.BeginCatalogDrag(context.Background(), sessionID, "user-1", models.CatalogDragRequest{Key: key, SourceRef: sourceRef})
	require.NoError(t, err)
	out, err := f.svc.Drop(sessionID, "user-1", models.DropRequest{Payload: payload, Client: canvas.Point{X: x, Y: y}, Canvas: board})
	require.NoError(t, err)
	require.True(t, out.Applied)
	return *out.Node
}

func (f *editorFixture) campaignOnCanvas(t *testing.T) string {
	t.Helper()
	sess, err := f.svc.Open(context.Background(), "user-1", []string{"org-1"}, models.OpenSessionRequest{OrganizationID: "org-1"})
	require.NoError(t, err)
	company := f.place(t, sess.ID, "company", "org-1", 150, 100)
	product := f.place(t, sess.ID, "product", "p-1", 400, 100)
	_, err = f.svc.Connect(sess.ID, "user-1", models.ConnectRequest{SourceID: company.ID, TargetID: product.ID})
	require.NoError(t, err)
	return sess.ID
}

// --- Sessions ---

func TestEditor_OpenScopesSessionAndCountsIt(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", []string{"org-1"}, models.OpenSessionRequest{OrganizationID: "org-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "org-1", sess.OrganizationID)
	assert.Equal(t, string(wizard.StageEditing), sess.Stage)
	assert.False(t, sess.Restored)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveSessions))
}

func TestEditor_OpenRejectsForeignOrganization(t *testing.T) {
	f := newEditorFixture(t)
	_, err := f.svc.Open(context.Background(), "user-1", []string{"org-1"}, models.OpenSessionRequest{OrganizationID: "org-2"})
	assert.ErrorIs(t, err, session.ErrNotMember)
	assert.Empty(t, f.svc.SessionIDs())
}

func TestEditor_SessionsBelongToTheirUser(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)

	_, err = f.svc.Get(sess.ID, "user-2")
	assert.ErrorIs(t, err, ErrSessionForbidden)
	_, err = f.svc.Get("missing", "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Open(context.Background(), "user-2", nil, models.OpenSessionRequest{SessionID: sess.ID})
	assert.ErrorIs(t, err, ErrSessionForbidden)
}

func TestEditor_ReopenAfterEvictionRestoresAutosave(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)

	f.clock = f.clock.Add(time.Hour)
	assert.Equal(t, 1, f.svc.EvictIdle(30*time.Minute))
	_, err := f.svc.Get(id, "user-1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	reopened, err := f.svc.Open(context.Background(), "user-1", []string{"org-1"}, models.OpenSessionRequest{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, id, reopened.ID)
	assert.True(t, reopened.Restored)
	assert.Len(t, reopened.Graph.Nodes, 2)
	assert.Len(t, reopened.Graph.Edges, 1)
	assert.Equal(t, "org-1", reopened.OrganizationID)
}

func TestEditor_CloseDropsAutosave(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)

	_, err := f.cache.Get(context.Background(), session.StateKey+":user-1:"+id)
	require.NoError(t, err)

	require.NoError(t, f.svc.Close(context.Background(), id, "user-1"))
	_, err = f.cache.Get(context.Background(), session.StateKey+":user-1:"+id)
	assert.ErrorIs(t, err, session.ErrCacheMiss)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.ActiveSessions))

	reopened, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{SessionID: id})
	require.NoError(t, err)
	assert.False(t, reopened.Restored)
	assert.Empty(t, reopened.Graph.Nodes)
	assert.NotEqual(t, id, reopened.ID)
}

func TestEditor_ReopenByAnotherUserStartsEmpty(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)

	f.clock = f.clock.Add(time.Hour)
	require.Equal(t, 1, f.svc.EvictIdle(30*time.Minute))

	other, err := f.svc.Open(context.Background(), "user-2", []string{"org-2"}, models.OpenSessionRequest{SessionID: id})
	require.NoError(t, err)
	assert.False(t, other.Restored)
	assert.Empty(t, other.Graph.Nodes)
	assert.Empty(t, other.OrganizationID)
	assert.NotEqual(t, id, other.ID)

	owner, err := f.svc.Open(context.Background(), "user-1", []string{"org-1"}, models.OpenSessionRequest{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, id, owner.ID)
	assert.True(t, owner.Restored)
	assert.Len(t, owner.Graph.Nodes, 2)
}

func TestEditor_ConcurrentReopenYieldsOneSession(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)

	f.clock = f.clock.Add(time.Hour)
	require.Equal(t, 1, f.svc.EvictIdle(30*time.Minute))
	require.Equal(t, 0.0, testutil.ToFloat64(f.metrics.ActiveSessions))

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.svc.Open(context.Background(), "user-1", []string{"org-1"}, models.OpenSessionRequest{SessionID: id})
			ids[i], errs[i] = resp.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, id, ids[i])
	}
	assert.Equal(t, []string{id}, f.svc.SessionIDs())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveSessions))
}

func TestEditor_EvictIdleKeepsActiveSessions(t *testing.T) {
	f := newEditorFixture(t)
	idle, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)
	f.clock = f.clock.Add(20 * time.Minute)
	active, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)

	f.clock = f.clock.Add(15 * time.Minute)
	assert.Equal(t, 1, f.svc.EvictIdle(30*time.Minute))
	assert.Equal(t, []string{active.ID}, f.svc.SessionIDs())
	_, err = f.svc.Get(idle.ID, "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// --- Canvas ---

func TestEditor_DropPlacesNodeAtCanvasLocalPosition(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{OrganizationID: "org-1"})
	require.NoError(t, err)

	node := f.place(t, sess.ID, "company", "org-1", 150, 100)
	assert.Equal(t, canvas.Position{X: 50, Y: 50}, node.Position)
	assert.Equal(t, "Acme", node.DisplayName)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GraphMutations.WithLabelValues(string(canvas.OpAddNode))))
}

func TestEditor_DisabledTemplateCannotBeDragged(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)

	_, err = f.svc.BeginCatalogDrag(context.Background(), sess.ID, "user-1", models.CatalogDragRequest{Key: "product"})
	assert.ErrorIs(t, err, catalog.ErrDependencyUnsatisfied)
	_, err = f.svc.BeginCatalogDrag(context.Background(), sess.ID, "user-1", models.CatalogDragRequest{Key: "missing"})
	assert.ErrorIs(t, err, catalog.ErrTemplateNotFound)
}

func TestEditor_MalformedDropIsIgnored(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)

	out, err := f.svc.Drop(sess.ID, "user-1", models.DropRequest{Payload: "{not json", Canvas: board})
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Nil(t, out.Node)
}

func TestEditor_MoveKeepsGrabOffset(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)
	note := f.place(t, sess.ID, "note", "", 200, 150)

	payload, err := f.svc.BeginNodeDrag(sess.ID, "user-1", models.NodeDragRequest{
		NodeID: note.ID, Pointer: canvas.Point{X: 210, Y: 160}, Canvas: board,
	})
	require.NoError(t, err)
	out, err := f.svc.Drop(sess.ID, "user-1", models.DropRequest{Payload: payload, Client: canvas.Point{X: 310, Y: 260}, Canvas: board})
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.Equal(t, canvas.Position{X: 200, Y: 200}, out.Node.Position)
}

func TestEditor_RemoveAndDisconnect(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)
	state, err := f.svc.Get(id, "user-1")
	require.NoError(t, err)
	edge := state.Graph.Edges[0]

	require.NoError(t, f.svc.Disconnect(id, "user-1", edge.ID))
	assert.ErrorIs(t, f.svc.Disconnect(id, "user-1", edge.ID), ErrEdgeNotFound)

	require.NoError(t, f.svc.RemoveNode(id, "user-1", edge.SourceID))
	assert.ErrorIs(t, f.svc.RemoveNode(id, "user-1", edge.SourceID), canvas.ErrNodeNotFound)

	require.NoError(t, f.svc.Reset(id, "user-1"))
	state, err = f.svc.Get(id, "user-1")
	require.NoError(t, err)
	assert.Empty(t, state.Graph.Nodes)
	assert.Equal(t, "org-1", state.Graph.SelectedOrganizationID)
}

func TestEditor_MutationsAreBroadcast(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)
	events := f.hub.RegisterClient(sess.ID)

	f.place(t, sess.ID, "note", "", 200, 150)

	select {
	case msg := <-events:
		assert.True(t, strings.HasPrefix(string(msg), "event: graph\n"))
		assert.Contains(t, string(msg), `"operation":"add_node"`)
	case <-time.After(time.Second):
		t.Fatal("no graph event")
	}
}

// --- Persistence ---

func TestEditor_SaveThenLoadIntoAnotherSession(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)

	saved, list, err := f.svc.Save(context.Background(), id, "user-1", "  Spring launch ")
	require.NoError(t, err)
	assert.Equal(t, "Spring launch", saved.Name)
	assert.Len(t, list, 1)

	other, err := f.svc.Open(context.Background(), "user-1", []string{"org-1"}, models.OpenSessionRequest{OrganizationID: "org-1"})
	require.NoError(t, err)
	f.place(t, other.ID, "note", "", 200, 150)

	_, _, err = f.svc.Load(context.Background(), other.ID, "user-1", models.LoadCampaignRequest{CampaignID: saved.ID})
	require.ErrorIs(t, err, persistence.ErrConfirmationRequired)

	state, dropped, err := f.svc.Load(context.Background(), other.ID, "user-1", models.LoadCampaignRequest{CampaignID: saved.ID, Confirm: true})
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Len(t, state.Graph.Nodes, 2)
	assert.Len(t, state.Graph.Edges, 1)
}

func TestEditor_LoadNeedsOrganization(t *testing.T) {
	f := newEditorFixture(t)
	sess, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)

	_, _, err = f.svc.Load(context.Background(), sess.ID, "user-1", models.LoadCampaignRequest{CampaignID: "campaign-1"})
	assert.ErrorIs(t, err, persistence.ErrOrganizationRequired)
}

// --- Wizard ---

func TestEditor_WizardToResult(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)

	state, err := f.svc.Next(id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageSelectingMedia), state.Stage)
	assert.Equal(t, "Acme", state.Bundle.CompanyInfo.Name)

	state, err = f.svc.SelectMedia(context.Background(), id, "user-1", models.MediaSelectionRequest{Channels: []string{"social"}, Specs: []string{"instagram-square"}})
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageDeveloping), state.Stage)

	out, err := f.svc.Generate(context.Background(), id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageResult), out.Stage)
	assert.Equal(t, "https://cdn.example.com/a.png", out.AssetURL)
	assert.True(t, out.Delivered)
	assert.NotEmpty(t, out.CorrelationID)

	require.Len(t, f.logs.created, 1)
	assert.Equal(t, out.CorrelationID, f.logs.created[0].CorrelationID)
	assert.Equal(t, models.GenerationStatusDispatched, f.logs.created[0].Status)
	assert.Equal(t, "org-1", f.logs.created[0].TenantID)
	assert.Equal(t, id, f.logs.created[0].SessionID)

	var payload gateway.Payload
	require.NoError(t, json.Unmarshal(f.logs.created[0].Payload, &payload))
	assert.Equal(t, []string{"social"}, payload.SelectedMedia)

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, GenerationEventsQueue, f.publisher.queues[0])
	assert.Equal(t, "generation.dispatched", f.publisher.messages[0].Event)
}

func TestEditor_FailedGenerationStaysInReview(t *testing.T) {
	f := newEditorFixture(t)
	f.gateway.err = gateway.ErrGatewayRejected
	id := f.campaignOnCanvas(t)
	_, err := f.svc.Next(id, "user-1")
	require.NoError(t, err)
	_, err = f.svc.SelectMedia(context.Background(), id, "user-1", models.MediaSelectionRequest{Channels: []string{"web"}})
	require.NoError(t, err)

	out, err := f.svc.Generate(context.Background(), id, "user-1")
	require.ErrorIs(t, err, gateway.ErrGatewayRejected)
	assert.Equal(t, string(wizard.StageDeveloping), out.Stage)
	require.Len(t, f.logs.created, 1)
	assert.Equal(t, models.GenerationStatusFailed, f.logs.created[0].Status)
	assert.Equal(t, "generation.failed", f.publisher.messages[0].Event)

	f.gateway.err = nil
	out, err = f.svc.Generate(context.Background(), id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageResult), out.Stage)
}

func TestEditor_LateAssetThroughConsumer(t *testing.T) {
	f := newEditorFixture(t)
	f.gateway.res = gateway.Result{Shape: gateway.ShapeFlat, Status: 202}
	id := f.campaignOnCanvas(t)
	_, err := f.svc.Next(id, "user-1")
	require.NoError(t, err)
	_, err = f.svc.SelectMedia(context.Background(), id, "user-1", models.MediaSelectionRequest{Channels: []string{"web"}})
	require.NoError(t, err)

	out, err := f.svc.Generate(context.Background(), id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageDeveloping), out.Stage)
	assert.True(t, out.Delivered)

	consumer := NewAssetConsumer(nil, f.svc, f.svc.deps.Generations)
	body, _ := json.Marshal(AssetMessage{CorrelationID: out.CorrelationID, AssetURL: "https://cdn.example.com/late.png"})
	require.NoError(t, consumer.process(body))

	state, err := f.svc.Get(id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageResult), state.Stage)
	assert.Equal(t, "https://cdn.example.com/late.png", state.Bundle.GeneratedAssetURL)
	assert.Equal(t, "https://cdn.example.com/late.png", f.logs.delivered[out.CorrelationID])

	assert.Error(t, consumer.process([]byte(`{"correlationId":""}`)))
	assert.Error(t, consumer.process([]byte(`not json`)))
}

func TestEditor_HandoffAndResume(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)
	_, err := f.svc.Next(id, "user-1")
	require.NoError(t, err)

	h, err := f.svc.Handoff(id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageSelectingMedia), h.Stage)

	other, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)
	state, err := f.svc.Resume(other.ID, "user-1", models.ResumeRequest{Stage: h.Stage, Handoff: h.Handoff})
	require.NoError(t, err)
	assert.Equal(t, h.Stage, state.Stage)
	assert.Equal(t, "Acme", state.Bundle.CompanyInfo.Name)

	state, err = f.svc.Back(other.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(wizard.StageEditing), state.Stage)

	_, err = f.svc.Back(other.ID, "user-1")
	assert.ErrorIs(t, err, wizard.ErrInvalidTransition)
}

func TestEditor_ResumeEditingRestoresCanvas(t *testing.T) {
	f := newEditorFixture(t)
	id := f.campaignOnCanvas(t)
	_, err := f.svc.Next(id, "user-1")
	require.NoError(t, err)
	h, err := f.svc.Handoff(id, "user-1")
	require.NoError(t, err)

	other, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)
	state, err := f.svc.Resume(other.ID, "user-1", models.ResumeRequest{Stage: string(wizard.StageEditing), Handoff: h.Handoff})
	require.NoError(t, err)
	assert.Len(t, state.Graph.Nodes, 2)
	assert.Len(t, state.Graph.Edges, 1)
}

// --- Sweeper ---

func TestSessionSweeper_EvictsAndHeartbeats(t *testing.T) {
	f := newEditorFixture(t)
	idle, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)
	f.clock = f.clock.Add(time.Hour)
	active, err := f.svc.Open(context.Background(), "user-1", nil, models.OpenSessionRequest{})
	require.NoError(t, err)
	events := f.hub.RegisterClient(active.ID)

	sweeper := NewSessionSweeper(f.svc, f.hub, 30*time.Minute)
	assert.Equal(t, 1, sweeper.sweep())
	assert.Equal(t, []string{active.ID}, f.svc.SessionIDs())

	select {
	case msg := <-events:
		assert.True(t, strings.HasPrefix(string(msg), ": heartbeat"))
	default:
		t.Fatal("no heartbeat")
	}
	_, err = f.svc.Get(idle.ID, "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
