package canvas

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genKinds() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(Kinds)-1))
}

func coord() gopter.Gen {
	return gen.Float64Range(-5000, 5000)
}

// buildGraph places one node per kind index and wires edges between pairs
// selected by the given indices.
func buildGraph(kinds []int, pairs []int) *GraphStore {
	s := newTestStore()
	ids := make([]string, 0, len(kinds))
	for i, k := range kinds {
		n, err := s.AddNode(item(Kinds[k]), Position{X: float64(i), Y: float64(-i)})
		if err == nil {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) < 2 {
		return s
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		_, _ = s.Connect(ids[pairs[i]%len(ids)], ids[pairs[i+1]%len(ids)])
	}
	return s
}

func TestProperty_RemoveNodeCascades(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("no edge references a removed node", prop.ForAll(
		func(kinds []int, pairs []int, victim int) bool {
			s := buildGraph(kinds, pairs)
			g := s.Graph()
			if len(g.Nodes) == 0 {
				return true
			}
			id := g.Nodes[victim%len(g.Nodes)].ID
			if err := s.RemoveNode(id); err != nil {
				return false
			}
			after := s.Graph()
			if _, ok := after.Node(id); ok {
				return false
			}
			for _, e := range after.Edges {
				if e.SourceID == id || e.TargetID == id {
					return false
				}
				if _, ok := after.Node(e.SourceID); !ok {
					return false
				}
				if _, ok := after.Node(e.TargetID); !ok {
					return false
				}
			}
			return true
		},
		genKinds(),
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestProperty_GraphSerializationRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("deserialize(serialize(g)) == g", prop.ForAll(
		func(kinds []int, pairs []int, org string) bool {
			s := buildGraph(kinds, pairs)
			if err := s.SetOrganization(org); err != nil {
				return false
			}
			g := s.Graph()

			raw, err := json.Marshal(g)
			if err != nil {
				return false
			}
			var back CampaignGraph
			if err := json.Unmarshal(raw, &back); err != nil {
				return false
			}
			return reflect.DeepEqual(g, back)
		},
		genKinds(),
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestProperty_CatalogDropPosition(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("drop lands at pointer minus canvas origin", prop.ForAll(
		func(cx, cy, bx, by float64) bool {
			s := newTestStore()
			d := NewDragController(s)
			payload, err := EncodeCatalogPayload(item(KindGeneric))
			if err != nil {
				return false
			}
			node, ok := d.Drop(payload, Point{X: cx, Y: cy}, Rect{Left: bx, Top: by})
			return ok && node.Position == Position{X: cx - bx, Y: cy - by}
		},
		coord(), coord(), coord(), coord(),
	))

	properties.TestingRun(t)
}

func TestProperty_MovePreservesGrabOffset(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("node moves by the pointer delta", prop.ForAll(
		func(nx, ny, px, py, px2, py2 float64) bool {
			s := newTestStore()
			d := NewDragController(s)
			node, err := s.AddNode(item(KindProduct), Position{X: nx, Y: ny})
			if err != nil {
				return false
			}
			payload, err := d.BeginMove(node.ID, Point{X: px, Y: py}, Rect{})
			if err != nil {
				return false
			}
			moved, ok := d.Drop(payload, Point{X: px2, Y: py2}, Rect{})
			if !ok {
				return false
			}
			want := Position{X: px2 - (px - nx), Y: py2 - (py - ny)}
			return moved.Position == want
		},
		coord(), coord(), coord(), coord(), coord(), coord(),
	))

	properties.TestingRun(t)
}
