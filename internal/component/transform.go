package component

import "math"

// Vec3 is a 3D vector in scene units.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// Scale multiplies every coordinate by f.
func (v Vec3) Scale(f float32) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Distance is the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float32 { return v.Sub(o).Length() }

// Transform positions an entity relative to its parent. Only Translation is
// animated; Scale and Rotation are carried through composition.
type Transform struct {
	Translation Vec3
	Scale       Vec3
	Rotation    float32 // radians about Z
}

// Identity is the transform with unit scale.
func Identity() Transform {
	return Transform{Scale: Vec3{1, 1, 1}}
}

// At returns an identity transform moved to translation.
func At(translation Vec3) Transform {
	t := Identity()
	t.Translation = translation
	return t
}

func (t Transform) rotate(v Vec3) Vec3 {
	if t.Rotation == 0 {
		return v
	}
	sin, cos := math.Sincos(float64(t.Rotation))
	s, c := float32(sin), float32(cos)
	return Vec3{v.X*c - v.Y*s, v.X*s + v.Y*c, v.Z}
}

// Apply maps a point from t's local space into its parent's space.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.rotate(p.Mul(t.Scale)).Add(t.Translation)
}

// Compose returns the transform of local expressed in t's parent space.
func (t Transform) Compose(local Transform) Transform {
	return Transform{
		Translation: t.Apply(local.Translation),
		Scale:       t.Scale.Mul(local.Scale),
		Rotation:    t.Rotation + local.Rotation,
	}
}

// Unapply maps a point from t's parent space into t's local space.
func (t Transform) Unapply(p Vec3) Vec3 {
	inv := Transform{Rotation: -t.Rotation}
	q := inv.rotate(p.Sub(t.Translation))
	return Vec3{div(q.X, t.Scale.X), div(q.Y, t.Scale.Y), div(q.Z, t.Scale.Z)}
}

func div(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}
