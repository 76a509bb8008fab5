package geom

import "github.com/Faultbox/arx-levelgen/pkg/math"

// Vertex is a polygon corner. It is owned by exactly one Polygon.
type Vertex struct {
	Position math.Vec3
	UV       math.Vec2
	Color    Color
}

// NewVertex creates a white vertex at the given position.
func NewVertex(x, y, z, u, v float32) Vertex {
	return Vertex{
		Position: math.Vec3{X: x, Y: y, Z: z},
		UV:       math.Vec2{X: u, Y: v},
		Color:    White,
	}
}

// Vec3 returns the vertex position.
func (v Vertex) Vec3() math.Vec3 {
	return v.Position
}

// Lerp interpolates position, UV and color.
func (v Vertex) Lerp(other Vertex, t float32) Vertex {
	return Vertex{
		Position: v.Position.Lerp(other.Position, t),
		UV:       v.UV.Lerp(other.UV, t),
		Color:    v.Color.Lerp(other.Color, t),
	}
}
