package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Point is a pointer location in client (viewport) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the canvas bounding box in client coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Local converts a client point into canvas-local coordinates.
func (r Rect) Local(p Point) Position {
	return Position{X: p.X - r.Left, Y: p.Y - r.Top}
}

// DragSource tells a drop which gesture started the drag.
type DragSource string

const (
	DragFromCatalog DragSource = "catalog"
	DragFromCanvas  DragSource = "canvas"
)

// DragPayload is the serialized data carried from drag start to drop.
type DragPayload struct {
	Source DragSource   `json:"source"`
	Item   *CatalogItem `json:"item,omitempty"`
	NodeID string       `json:"nodeId,omitempty"`
}

// EncodeCatalogPayload serializes a catalog drag.
func EncodeCatalogPayload(item CatalogItem) (string, error) {
	raw, err := json.Marshal(DragPayload{Source: DragFromCatalog, Item: &item})
	if err != nil {
		return "", fmt.Errorf("failed to encode drag payload: %w", err)
	}
	return string(raw), nil
}

func decodePayload(raw string) (DragPayload, error) {
	var p DragPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return DragPayload{}, err
	}
	switch p.Source {
	case DragFromCatalog:
		if p.Item == nil {
			return DragPayload{}, fmt.Errorf("catalog payload without item")
		}
	case DragFromCanvas:
		if p.NodeID == "" {
			return DragPayload{}, fmt.Errorf("canvas payload without node id")
		}
	default:
		return DragPayload{}, fmt.Errorf("unknown drag source %q", p.Source)
	}
	return p, nil
}

// grab is an in-canvas move in progress.
type grab struct {
	nodeID string
	offset Position
}

// DragController interprets pointer gestures as graph mutations. At most one
// drag and one pending connection are tracked at a time.
type DragController struct {
	store       *GraphStore
	moving      *grab
	connectFrom string
}

func NewDragController(store *GraphStore) *DragController {
	return &DragController{store: store}
}

// BeginMove starts dragging an existing node. The distance between the
// pointer and the node origin is kept so the node does not jump on drop.
func (d *DragController) BeginMove(nodeID string, pointer Point, canvas Rect) (string, error) {
	node, ok := d.store.graph.Node(nodeID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	local := canvas.Local(pointer)
	d.moving = &grab{
		nodeID: nodeID,
		offset: Position{X: local.X - node.Position.X, Y: local.Y - node.Position.Y},
	}
	raw, err := json.Marshal(DragPayload{Source: DragFromCanvas, NodeID: nodeID})
	if err != nil {
		return "", fmt.Errorf("failed to encode drag payload: %w", err)
	}
	return string(raw), nil
}

// CancelDrag forgets any in-progress move.
func (d *DragController) CancelDrag() {
	d.moving = nil
}

// Drop completes a drag. Catalog drops place a new node at the pointer;
// canvas drops move the grabbed node. Malformed payloads and drops the
// store refuses are ignored and reported as false.
func (d *DragController) Drop(payload string, pointer Point, canvas Rect) (ModuleInstance, bool) {
	p, err := decodePayload(payload)
	if err != nil {
		logrus.WithField("error", err).Debug("Ignoring malformed drag payload")
		return ModuleInstance{}, false
	}
	local := canvas.Local(pointer)

	switch p.Source {
	case DragFromCatalog:
		node, err := d.store.AddNode(*p.Item, local)
		if err != nil {
			logrus.WithFields(logrus.Fields{"template": p.Item.Template.Key, "error": err}).Debug("Catalog drop rejected")
			return ModuleInstance{}, false
		}
		return node, true

	case DragFromCanvas:
		var offset Position
		if d.moving != nil && d.moving.nodeID == p.NodeID {
			offset = d.moving.offset
		}
		d.moving = nil
		target := Position{X: local.X - offset.X, Y: local.Y - offset.Y}
		if err := d.store.MoveNode(p.NodeID, target); err != nil {
			logrus.WithFields(logrus.Fields{"node_id": p.NodeID, "error": err}).Debug("Canvas drop rejected")
			return ModuleInstance{}, false
		}
		node, _ := d.store.graph.Node(p.NodeID)
		return node, true
	}
	return ModuleInstance{}, false
}

// BeginConnect marks sourceID as the start of a connection gesture.
func (d *DragController) BeginConnect(sourceID string) error {
	if d.store.indexOf(sourceID) < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, sourceID)
	}
	d.connectFrom = sourceID
	return nil
}

// CompleteConnect finishes a connection gesture on targetID.
func (d *DragController) CompleteConnect(targetID string) (Connection, error) {
	if d.connectFrom == "" {
		return Connection{}, fmt.Errorf("no connection in progress")
	}
	source := d.connectFrom
	d.connectFrom = ""
	return d.store.Connect(source, targetID)
}

// Connect runs a whole connection gesture from sourceID to targetID.
func (d *DragController) Connect(sourceID, targetID string) (Connection, error) {
	if err := d.BeginConnect(sourceID); err != nil {
		return Connection{}, err
	}
	return d.CompleteConnect(targetID)
}

// SecondaryClickEdge removes the clicked edge.
func (d *DragController) SecondaryClickEdge(edgeID string) bool {
	return d.store.Disconnect(edgeID)
}

// DoubleClickNode removes the clicked node and its edges.
func (d *DragController) DoubleClickNode(nodeID string) bool {
	if err := d.store.RemoveNode(nodeID); err != nil {
		return false
	}
	if d.moving != nil && d.moving.nodeID == nodeID {
		d.moving = nil
	}
	if d.connectFrom == nodeID {
		d.connectFrom = ""
	}
	return true
}
