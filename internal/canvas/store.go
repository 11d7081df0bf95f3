package canvas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/internal/session"
)

var (
	ErrNodeNotFound         = errors.New("canvas: node not found")
	ErrSelfLoop             = errors.New("canvas: a module cannot be connected to itself")
	ErrDuplicateConnection  = errors.New("canvas: connection already exists")
	ErrInvalidPosition      = errors.New("canvas: position must be finite")
	ErrUnknownKind          = errors.New("canvas: unknown module kind")
	ErrSnapshotKindMismatch = errors.New("canvas: snapshot kind does not match template kind")
)

// Operation names a graph mutation.
type Operation string

const (
	OpAddNode         Operation = "add_node"
	OpMoveNode        Operation = "move_node"
	OpRemoveNode      Operation = "remove_node"
	OpConnect         Operation = "connect"
	OpDisconnect      Operation = "disconnect"
	OpReset           Operation = "reset"
	OpSetOrganization Operation = "set_organization"
	OpReplay          Operation = "replay"
)

// ChangeListener observes every successful mutation. It receives a copy of
// the graph after the mutation was applied.
type ChangeListener func(op Operation, graph CampaignGraph)

// GraphStore owns the node and edge collections of one canvas. It is not
// safe for concurrent use; callers serialize access per editing session.
type GraphStore struct {
	sess      *session.Context
	graph     CampaignGraph
	newID     func(ModuleKind) string
	listeners []ChangeListener
}

type StoreOption func(*GraphStore)

// WithIDGenerator replaces the node id generator.
func WithIDGenerator(fn func(ModuleKind) string) StoreOption {
	return func(s *GraphStore) {
		s.newID = fn
	}
}

// NewGraphStore creates an empty canvas for sess, scoped to the session's
// current tenant.
func NewGraphStore(sess *session.Context, opts ...StoreOption) *GraphStore {
	s := &GraphStore{
		sess:  sess,
		graph: CampaignGraph{
			Nodes:                  []ModuleInstance{},
			Edges:                  []Connection{},
			SelectedOrganizationID: sess.TenantID(),
		},
		newID: defaultNodeID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultNodeID(kind ModuleKind) string {
	return fmt.Sprintf("%s-%s", kind, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Subscribe registers a listener for all later mutations.
func (s *GraphStore) Subscribe(l ChangeListener) {
	s.listeners = append(s.listeners, l)
}

// Graph returns a copy of the current graph.
func (s *GraphStore) Graph() CampaignGraph {
	return s.graph.Clone()
}

func (s *GraphStore) notify(op Operation) {
	if len(s.listeners) == 0 {
		return
	}
	snapshot := s.graph.Clone()
	for _, l := range s.listeners {
		l(op, snapshot)
	}
}

func (s *GraphStore) indexOf(id string) int {
	for i, n := range s.graph.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *GraphStore) hasEdge(id string) bool {
	for _, e := range s.graph.Edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s *GraphStore) uniqueID(kind ModuleKind) string {
	for {
		id := s.newID(kind)
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

// AddNode places a new instance of item at pos and returns it. When the
// item carries no snapshot an empty one titled after the template is used.
func (s *GraphStore) AddNode(item CatalogItem, pos Position) (ModuleInstance, error) {
	tpl := item.Template
	if !tpl.Kind.Valid() {
		return ModuleInstance{}, fmt.Errorf("%w: %q", ErrUnknownKind, tpl.Kind)
	}
	if !pos.Finite() {
		return ModuleInstance{}, ErrInvalidPosition
	}

	snap := item.Snapshot
	if snap == nil {
		var err error
		if snap, err = EmptySnapshot(tpl.Kind, tpl.Name); err != nil {
			return ModuleInstance{}, err
		}
	}
	if snap.Kind() != tpl.Kind {
		return ModuleInstance{}, fmt.Errorf("%w: template %s, snapshot %s", ErrSnapshotKindMismatch, tpl.Kind, snap.Kind())
	}

	name := snap.Title()
	if name == "" {
		name = tpl.Name
	}
	description := snap.Summary()
	if description == "" {
		description = tpl.Description
	}

	node := ModuleInstance{
		ID:          s.uniqueID(tpl.Kind),
		Kind:        tpl.Kind,
		DisplayName: name,
		Description: description,
		Position:    pos,
		SourceRef:   item.SourceRef,
		Snapshot:    snap,
	}
	s.graph.Nodes = append(s.graph.Nodes, node)
	s.notify(OpAddNode)
	return node, nil
}

// MoveNode sets the position of an existing node.
func (s *GraphStore) MoveNode(id string, pos Position) error {
	if !pos.Finite() {
		return ErrInvalidPosition
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	s.graph.Nodes[i].Position = pos
	s.notify(OpMoveNode)
	return nil
}

// RemoveNode deletes a node together with every edge touching it.
func (s *GraphStore) RemoveNode(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	s.graph.Nodes = append(s.graph.Nodes[:i], s.graph.Nodes[i+1:]...)

	kept := s.graph.Edges[:0]
	for _, e := range s.graph.Edges {
		if e.SourceID != id && e.TargetID != id {
			kept = append(kept, e)
		}
	}
	s.graph.Edges = kept
	s.notify(OpRemoveNode)
	return nil
}

// Connect adds a directed edge. Self-loops and repeated ordered pairs are
// rejected.
func (s *GraphStore) Connect(sourceID, targetID string) (Connection, error) {
	if sourceID == targetID {
		return Connection{}, ErrSelfLoop
	}
	if s.indexOf(sourceID) < 0 {
		return Connection{}, fmt.Errorf("%w: %s", ErrNodeNotFound, sourceID)
	}
	if s.indexOf(targetID) < 0 {
		return Connection{}, fmt.Errorf("%w: %s", ErrNodeNotFound, targetID)
	}
	edge := Connection{
		ID:       ConnectionID(sourceID, targetID),
		SourceID: sourceID,
		TargetID: targetID,
	}
	if s.hasEdge(edge.ID) {
		return Connection{}, fmt.Errorf("%w: %s", ErrDuplicateConnection, edge.ID)
	}
	s.graph.Edges = append(s.graph.Edges, edge)
	s.notify(OpConnect)
	return edge, nil
}

// Disconnect removes an edge. It reports false when no such edge exists.
func (s *GraphStore) Disconnect(edgeID string) bool {
	for i, e := range s.graph.Edges {
		if e.ID == edgeID {
			s.graph.Edges = append(s.graph.Edges[:i], s.graph.Edges[i+1:]...)
			s.notify(OpDisconnect)
			return true
		}
	}
	return false
}

// Reset clears nodes and edges. The selected organization is kept.
func (s *GraphStore) Reset() {
	s.graph.Nodes = []ModuleInstance{}
	s.graph.Edges = []Connection{}
	s.notify(OpReset)
}

// SetOrganization changes the tenant the canvas and its session are scoped
// to. The user must be a member of the organization.
func (s *GraphStore) SetOrganization(id string) error {
	if err := s.sess.SetTenant(id); err != nil {
		return err
	}
	s.graph.SelectedOrganizationID = id
	s.notify(OpSetOrganization)
	return nil
}

// Session returns the editing session the store belongs to.
func (s *GraphStore) Session() *session.Context {
	return s.sess
}

// Restore replaces the graph with g without notifying listeners. Invalid
// parts of g are dropped; the number of dropped nodes and edges is returned.
func (s *GraphStore) Restore(g CampaignGraph) int {
	clean, dropped := sanitize(g)
	if err := s.sess.SetTenant(clean.SelectedOrganizationID); err != nil {
		clean.SelectedOrganizationID = s.sess.TenantID()
	}
	s.graph = clean
	return dropped
}

// Replay resets the canvas and re-adds the nodes and edges of g, keeping
// node ids so edge ids are reproduced. Dangling or duplicate edges are
// skipped. Listeners see a single OpReplay.
func (s *GraphStore) Replay(g CampaignGraph) int {
	clean, dropped := sanitize(g)
	clean.SelectedOrganizationID = s.graph.SelectedOrganizationID
	if g.SelectedOrganizationID != "" && s.sess.SetTenant(g.SelectedOrganizationID) == nil {
		clean.SelectedOrganizationID = g.SelectedOrganizationID
	}
	s.graph = clean
	s.notify(OpReplay)
	return dropped
}

// sanitize enforces the graph invariants on an externally sourced graph.
func sanitize(g CampaignGraph) (CampaignGraph, int) {
	out := CampaignGraph{
		Nodes:                  make([]ModuleInstance, 0, len(g.Nodes)),
		Edges:                  make([]Connection, 0, len(g.Edges)),
		SelectedOrganizationID: g.SelectedOrganizationID,
	}
	dropped := 0
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" || seen[n.ID] || !n.Kind.Valid() || !n.Position.Finite() {
			logrus.WithFields(logrus.Fields{"node_id": n.ID, "kind": n.Kind}).Warn("Dropping invalid node from restored graph")
			dropped++
			continue
		}
		if n.Snapshot == nil || n.Snapshot.Kind() != n.Kind {
			snap, _ := EmptySnapshot(n.Kind, n.DisplayName)
			n.Snapshot = snap
		}
		seen[n.ID] = true
		out.Nodes = append(out.Nodes, n)
	}

	edgeSeen := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		id := ConnectionID(e.SourceID, e.TargetID)
		if e.SourceID == e.TargetID || !seen[e.SourceID] || !seen[e.TargetID] || edgeSeen[id] {
			logrus.WithFields(logrus.Fields{"edge_id": e.ID, "source": e.SourceID, "target": e.TargetID}).Warn("Dropping invalid edge from restored graph")
			dropped++
			continue
		}
		edgeSeen[id] = true
		out.Edges = append(out.Edges, Connection{ID: id, SourceID: e.SourceID, TargetID: e.TargetID})
	}
	return out, dropped
}
