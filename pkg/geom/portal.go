package geom

import "github.com/Faultbox/arx-levelgen/pkg/math"

// PortalPolygon is the planar quad separating two rooms.
type PortalPolygon struct {
	Vertices [4]math.Vec3
	Normal   math.Vec3
	Center   math.Vec3
	Min, Max math.Vec3
	Area     float32
}

// Portal connects two rooms.
type Portal struct {
	Polygon PortalPolygon
	Room1   int32
	Room2   int32
	Enabled bool
}

// NewPortal builds a portal between two rooms from a quad, deriving its
// normal, center, bounds and area. vertices[3] is opposite vertices[0].
func NewPortal(vertices [4]math.Vec3, room1, room2 int32) Portal {
	p := Portal{Room1: room1, Room2: room2, Enabled: true}
	p.Polygon.Vertices = vertices
	p.Polygon.update()
	return p
}

func (pp *PortalPolygon) update() {
	v := pp.Vertices
	pp.Normal = triangleNormal(v[0], v[1], v[2])
	pp.Area = triangleArea(v[0], v[1], v[2]) + triangleArea(v[1], v[3], v[2])
	pp.Min, pp.Max = v[0], v[0]
	var sum math.Vec3
	for _, p := range v {
		pp.Min = pp.Min.Min(p)
		pp.Max = pp.Max.Max(p)
		sum = sum.Add(p)
	}
	pp.Center = sum.Scale(0.25)
}

// Move translates the portal.
func (p *Portal) Move(offset math.Vec3) {
	for i := range p.Polygon.Vertices {
		p.Polygon.Vertices[i] = p.Polygon.Vertices[i].Add(offset)
	}
	p.Polygon.update()
}

// Other returns the room on the other side of the portal, or -1 if room is
// not one of its sides.
func (p *Portal) Other(room int32) int32 {
	switch room {
	case p.Room1:
		return p.Room2
	case p.Room2:
		return p.Room1
	default:
		return -1
	}
}
