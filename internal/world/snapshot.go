package world

import (
	"sort"

	"github.com/visuscript/liveviz/internal/core/ecs"
)

// Node is one positioned entity in a Snapshot.
type Node struct {
	Entity   ecs.EntityID   `json:"entity"`
	Parent   ecs.EntityID   `json:"parent,omitempty"`
	Kind     string         `json:"kind"` // array, cell, background or entity
	Position [3]float32     `json:"position"`
	Text     string         `json:"text,omitempty"`
	Elements []ecs.EntityID `json:"elements,omitempty"`
	Animated bool           `json:"animated,omitempty"`
}

// Snapshot is an immutable copy of the scene, safe to hand to other goroutines.
type Snapshot struct {
	Tick  uint64 `json:"tick"`
	Nodes []Node `json:"nodes"`
}

// Snapshot copies every entity that has a Transform, ordered by handle.
func (s *State) Snapshot(tick uint64) *Snapshot {
	out := &Snapshot{Tick: tick, Nodes: make([]Node, 0, s.Transforms.Len())}
	for _, id := range s.Transforms.Entities() {
		n := Node{Entity: id, Kind: "entity"}
		n.Parent, _ = s.ecs.Parent(id)
		pos, _ := s.WorldTranslation(id)
		n.Position = [3]float32{pos.X, pos.Y, pos.Z}
		switch {
		case s.Arrays.Has(id):
			arr, _ := s.Arrays.Get(id)
			n.Kind = "array"
			n.Elements = append([]ecs.EntityID(nil), arr.Elements...)
		case s.Cells.Has(id):
			c, _ := s.Cells.Get(id)
			n.Kind = "cell"
			n.Text = c.Value
		case s.Backgrounds.Has(id):
			n.Kind = "background"
		}
		n.Animated = s.TargetTransforms.Has(id) || s.TargetEntities.Has(id)
		out.Nodes = append(out.Nodes, n)
	}
	sort.Slice(out.Nodes, func(i, j int) bool { return out.Nodes[i].Entity < out.Nodes[j].Entity })
	return out
}
