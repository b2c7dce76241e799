package component

import "github.com/visuscript/liveviz/internal/core/ecs"

// Array is the ordered sequence of cell entities plus its layout parameters.
// Every handle in Elements owns a Cell and a Transform; NumColumns >= 1.
type Array struct {
	Elements          []ecs.EntityID
	NumColumns        int
	CellWidth         float32
	CellHeight        float32
	FontSize          float32
	AlignmentDuration float32 // seconds
}

// Slot returns the grid position of index in row-major order. z is passed
// through unchanged.
func (a *Array) Slot(index int, z float32) Vec3 {
	col := index % a.NumColumns
	row := index / a.NumColumns
	return Vec3{
		X: float32(col) * a.CellWidth,
		Y: -float32(row) * a.CellHeight,
		Z: z,
	}
}

// IndexOf returns the position of cell in Elements, or -1.
func (a *Array) IndexOf(cell ecs.EntityID) int {
	for i, e := range a.Elements {
		if e == cell {
			return i
		}
	}
	return -1
}

// Member records which array lists a cell. It is kept apart from the
// parent link, which SetParent may move elsewhere.
type Member struct {
	Array ecs.EntityID
}

// Cell is a leaf visual entity holding one array value.
type Cell struct {
	Value    string
	FontSize float32
}

// ShapeKind names the mesh drawn for a Shape.
type ShapeKind uint8

const (
	ShapeRectangle ShapeKind = iota
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

// Shape describes a visual primitive centred on the entity's Transform.
type Shape struct {
	Kind   ShapeKind
	Width  float32
	Height float32
}

// Background marks a slot outline owned by an array.
type Background struct {
	Array ecs.EntityID
	Index int
}
