package geom

import (
	stdmath "math"

	"github.com/Faultbox/arx-levelgen/pkg/grid"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// MaxCellEdge is the longest edge a polygon may have and still fit a cell:
// the cell's diagonal.
const MaxCellEdge = grid.CellSize * stdmath.Sqrt2

// Tolerance applied to the cell fit test so that a polygon exactly the size
// of a cell is not rejected by rounding.
const fitEpsilon = 1e-3

// Angles closer to zero than this (radians) make a triangle flat.
const flatEpsilon = 1e-6

// Polygon is a triangle or a quad. It always has four vertex slots; a
// triangle leaves the fourth zeroed. Quad-ness comes from the PolyQuad flag,
// never from the vertex data.
//
// A quad's triangles are (0, 1, 2) and (1, 3, 2), so vertex 3 is opposite
// vertex 0.
type Polygon struct {
	Vertices     [4]Vertex
	Normal       math.Vec3
	Normal2      math.Vec3
	Normals      *[4]math.Vec3 // per-vertex, set by CalculateNormals
	TextureIndex int32         // 1-based texture container id, 0 = untextured
	Transparency float32
	Area         float32
	Type         PolyType
	Room         int32 // 1-based room index, 0 = unassigned
}

// NewTriangle creates a triangle polygon.
func NewTriangle(a, b, c Vertex) *Polygon {
	return &Polygon{Vertices: [4]Vertex{a, b, c, {}}}
}

// NewQuad creates a quad polygon; d is the corner opposite a.
func NewQuad(a, b, c, d Vertex) *Polygon {
	return &Polygon{
		Vertices: [4]Vertex{a, b, c, d},
		Type:     PolyQuad,
	}
}

// IsQuad reports whether the polygon uses all four vertices.
func (p *Polygon) IsQuad() bool {
	return p.Type.Has(PolyQuad)
}

// VertexCount returns 4 for quads and 3 for triangles.
func (p *Polygon) VertexCount() int {
	if p.IsQuad() {
		return 4
	}
	return 3
}

// Clone returns a deep copy.
func (p *Polygon) Clone() *Polygon {
	c := *p
	if p.Normals != nil {
		n := *p.Normals
		c.Normals = &n
	}
	return &c
}

// Move translates every used vertex by offset.
func (p *Polygon) Move(offset math.Vec3) {
	for i := 0; i < p.VertexCount(); i++ {
		p.Vertices[i].Position = p.Vertices[i].Position.Add(offset)
	}
}

// Bounds returns the axis-aligned bounding box of the used vertices.
func (p *Polygon) Bounds() (lo, hi math.Vec3) {
	lo = p.Vertices[0].Position
	hi = lo
	for i := 1; i < p.VertexCount(); i++ {
		lo = lo.Min(p.Vertices[i].Position)
		hi = hi.Max(p.Vertices[i].Position)
	}
	return lo, hi
}

// Center returns the average of the used vertices.
func (p *Polygon) Center() math.Vec3 {
	var sum math.Vec3
	n := p.VertexCount()
	for i := 0; i < n; i++ {
		sum = sum.Add(p.Vertices[i].Position)
	}
	return sum.Scale(1 / float32(n))
}

// triangles returns the vertex index triples making up the polygon.
func (p *Polygon) triangles() [][3]int {
	if p.IsQuad() {
		return [][3]int{{0, 1, 2}, {1, 3, 2}}
	}
	return [][3]int{{0, 1, 2}}
}

func (p *Polygon) corners(tri [3]int) (a, b, c math.Vec3) {
	return p.Vertices[tri[0]].Position, p.Vertices[tri[1]].Position, p.Vertices[tri[2]].Position
}

func triangleNormal(a, b, c math.Vec3) math.Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

func triangleArea(a, b, c math.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Length() / 2
}

// CalculateNormals sets the face normal(s) and the per-vertex normals.
// Vertices shared by both triangles of a quad get the average of the two.
func (p *Polygon) CalculateNormals() {
	p.Normal = triangleNormal(p.corners([3]int{0, 1, 2}))
	normals := [4]math.Vec3{p.Normal, p.Normal, p.Normal, {}}
	if p.IsQuad() {
		p.Normal2 = triangleNormal(p.corners([3]int{1, 3, 2}))
		shared := p.Normal.Add(p.Normal2).Normalize()
		normals[1] = shared
		normals[2] = shared
		normals[3] = p.Normal2
	} else {
		p.Normal2 = math.Vec3{}
	}
	p.Normals = &normals
}

// CalculateArea sets Area to the summed area of the polygon's triangles.
func (p *Polygon) CalculateArea() {
	var area float32
	for _, tri := range p.triangles() {
		area += triangleArea(p.corners(tri))
	}
	p.Area = area
}

// VertexNormal returns the normal used when lighting vertex i: the
// per-vertex normal when calculated, otherwise the face normal of the
// triangle the vertex belongs to.
func (p *Polygon) VertexNormal(i int) math.Vec3 {
	if p.Normals != nil {
		return p.Normals[i]
	}
	if i == 3 && p.IsQuad() {
		return p.Normal2
	}
	return p.Normal
}

// IsFlat reports whether any interior angle of any of the polygon's
// triangles is zero, within floating point tolerance. Flat polygons cover
// no area and are never visible.
func (p *Polygon) IsFlat() bool {
	for _, tri := range p.triangles() {
		for _, angle := range triangleAngles(p.corners(tri)) {
			if stdmath.IsNaN(angle) || angle <= flatEpsilon {
				return true
			}
		}
	}
	return false
}

// IsVisible is the complement of IsFlat.
func (p *Polygon) IsVisible() bool {
	return !p.IsFlat()
}

// FitsIntoCell reports whether the polygon is small enough to be stored in a
// single spatial cell: every triangle's longest edge is at most the cell
// diagonal and its smallest enclosing square is at most a cell wide.
func (p *Polygon) FitsIntoCell() bool {
	for _, tri := range p.triangles() {
		a, b, c := p.corners(tri)
		edges := triangleEdges(a, b, c)
		if maxOf(edges) > MaxCellEdge+fitEpsilon {
			return false
		}
		if enclosingSquareSide(a, b, c) > grid.CellSize+fitEpsilon {
			return false
		}
	}
	return true
}

// triangleEdges returns the lengths of edges ab, bc and ca.
func triangleEdges(a, b, c math.Vec3) [3]float64 {
	return [3]float64{
		float64(a.Distance(b)),
		float64(b.Distance(c)),
		float64(c.Distance(a)),
	}
}

// triangleAngles returns the interior angles at a, b and c in radians.
func triangleAngles(a, b, c math.Vec3) [3]float64 {
	return [3]float64{
		angleBetween(b.Sub(a), c.Sub(a)),
		angleBetween(a.Sub(b), c.Sub(b)),
		angleBetween(a.Sub(c), b.Sub(c)),
	}
}

func angleBetween(u, v math.Vec3) float64 {
	lu := float64(u.Length())
	lv := float64(v.Length())
	if lu == 0 || lv == 0 {
		return stdmath.NaN()
	}
	cos := float64(u.Dot(v)) / (lu * lv)
	return stdmath.Acos(stdmath.Max(-1, stdmath.Min(1, cos)))
}

// enclosingSquareSide returns the side of the smallest square that encloses
// the triangle.
//
// When both angles at the longest edge are at most 45°, that edge is the
// square's diagonal. Otherwise the square is laid along the shortest edge:
// at the smaller of the shortest edge's two corner angles, the other edge
// leaving that corner is the hypotenuse of a right triangle whose leg
// (hypotenuse × sin(angle)) is the square's side.
func enclosingSquareSide(a, b, c math.Vec3) float64 {
	edges := triangleEdges(a, b, c)
	angles := triangleAngles(a, b, c)

	// edge i runs from corner i to corner (i+1)%3
	longest, shortest := 0, 0
	for i := 1; i < 3; i++ {
		if edges[i] > edges[longest] {
			longest = i
		}
		if edges[i] < edges[shortest] {
			shortest = i
		}
	}

	quarter := stdmath.Pi/4 + flatEpsilon
	if angles[longest] <= quarter && angles[(longest+1)%3] <= quarter {
		return edges[longest] / stdmath.Sqrt2
	}

	start, end := shortest, (shortest+1)%3
	corner := start
	if angles[end] < angles[start] {
		corner = end
	}
	// the other edge at corner: the one that is not the shortest edge
	var hypotenuse float64
	if corner == start {
		hypotenuse = edges[(shortest+2)%3] // edge ending at start
	} else {
		hypotenuse = edges[(shortest+1)%3] // edge leaving end
	}
	return hypotenuse * stdmath.Sin(angles[corner])
}

func maxOf(values [3]float64) float64 {
	return stdmath.Max(values[0], stdmath.Max(values[1], values[2]))
}

// Subdivide splits the polygon in smaller pieces that keep its attributes.
// Quads are split bilinearly in four quads, triangles are bisected across
// their longest edge. UVs and colors are interpolated.
func (p *Polygon) Subdivide() []*Polygon {
	if p.IsQuad() {
		return p.subdivideQuad()
	}
	return p.subdivideTriangle()
}

func (p *Polygon) derive(vertices [4]Vertex) *Polygon {
	child := &Polygon{
		Vertices:     vertices,
		TextureIndex: p.TextureIndex,
		Transparency: p.Transparency,
		Type:         p.Type,
		Room:         p.Room,
	}
	return child
}

func (p *Polygon) subdivideQuad() []*Polygon {
	v := p.Vertices
	at := func(s, t float32) Vertex {
		return v[0].Lerp(v[1], s).Lerp(v[2].Lerp(v[3], s), t)
	}
	steps := [][2]float32{{0, 0}, {0.5, 0}, {0, 0.5}, {0.5, 0.5}}
	result := make([]*Polygon, 0, 4)
	for _, st := range steps {
		s, t := st[0], st[1]
		result = append(result, p.derive([4]Vertex{
			at(s, t),
			at(s+0.5, t),
			at(s, t+0.5),
			at(s+0.5, t+0.5),
		}))
	}
	return result
}

func (p *Polygon) subdivideTriangle() []*Polygon {
	a, b, c := p.corners([3]int{0, 1, 2})
	edges := triangleEdges(a, b, c)
	longest := 0
	for i := 1; i < 3; i++ {
		if edges[i] > edges[longest] {
			longest = i
		}
	}

	// rotate so the longest edge is p0-p1; rotation keeps the winding
	p0 := p.Vertices[longest]
	p1 := p.Vertices[(longest+1)%3]
	p2 := p.Vertices[(longest+2)%3]
	mid := p0.Lerp(p1, 0.5)

	return []*Polygon{
		p.derive([4]Vertex{p0, mid, p2, {}}),
		p.derive([4]Vertex{mid, p1, p2, {}}),
	}
}
