package geom

import (
	stdmath "math"
	"testing"

	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// floorQuad returns an upward facing quad (normal -Y) of the given size
// centered at (cx, y, cz).
func floorQuad(cx, y, cz, size float32) *Polygon {
	h := size / 2
	return NewQuad(
		NewVertex(cx-h, y, cz-h, 0, 0),
		NewVertex(cx+h, y, cz-h, 1, 0),
		NewVertex(cx-h, y, cz+h, 0, 1),
		NewVertex(cx+h, y, cz+h, 1, 1),
	)
}

func nearly(a, b float32) bool {
	return stdmath.Abs(float64(a-b)) < 1e-3
}

func TestPolygon_IsQuadFromFlag(t *testing.T) {
	tri := NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(1, 0, 0, 0, 0), NewVertex(0, 0, 1, 0, 0))
	if tri.IsQuad() || tri.VertexCount() != 3 {
		t.Error("triangle should not be a quad")
	}

	// a fourth vertex alone does not make a quad
	tri.Vertices[3] = NewVertex(5, 5, 5, 0, 0)
	if tri.IsQuad() {
		t.Error("quad-ness must come from the type flag")
	}

	tri.Type |= PolyQuad
	if !tri.IsQuad() || tri.VertexCount() != 4 {
		t.Error("expected quad after setting the flag")
	}
}

func TestPolygon_CalculateNormals_Floor(t *testing.T) {
	p := floorQuad(0, 0, 0, 100)
	p.CalculateNormals()

	up := math.Vec3{X: 0, Y: -1, Z: 0}
	if p.Normal != up {
		t.Errorf("expected normal %v, got %v", up, p.Normal)
	}
	if p.Normal2 != up {
		t.Errorf("expected normal2 %v, got %v", up, p.Normal2)
	}
	if p.Normals == nil {
		t.Fatal("expected per-vertex normals")
	}
	for i, n := range p.Normals {
		if n != up {
			t.Errorf("vertex %d: expected normal %v, got %v", i, up, n)
		}
	}
}

func TestPolygon_CalculateArea(t *testing.T) {
	quad := floorQuad(50, 0, 50, 100)
	quad.CalculateArea()
	if !nearly(quad.Area, 10000) {
		t.Errorf("expected quad area 10000, got %f", quad.Area)
	}

	tri := NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(10, 0, 0, 0, 0), NewVertex(0, 0, 10, 0, 0))
	tri.CalculateArea()
	if !nearly(tri.Area, 50) {
		t.Errorf("expected triangle area 50, got %f", tri.Area)
	}
}

func TestPolygon_VertexNormalFallback(t *testing.T) {
	p := floorQuad(0, 0, 0, 100)
	p.Normal = math.Vec3{Y: -1}
	p.Normal2 = math.Vec3{X: 1}

	if got := p.VertexNormal(0); got != p.Normal {
		t.Errorf("vertex 0: expected %v, got %v", p.Normal, got)
	}
	if got := p.VertexNormal(3); got != p.Normal2 {
		t.Errorf("vertex 3: expected %v, got %v", p.Normal2, got)
	}
}

func TestPolygon_IsFlat(t *testing.T) {
	tests := []struct {
		name string
		poly *Polygon
		want bool
	}{
		{"regular triangle", NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(10, 0, 0, 0, 0), NewVertex(0, 0, 10, 0, 0)), false},
		{"collinear", NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(10, 0, 0, 0, 0), NewVertex(20, 0, 0, 0, 0)), true},
		{"repeated vertex", NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(0, 0, 0, 0, 0), NewVertex(0, 0, 10, 0, 0)), true},
		{"floor quad", floorQuad(0, 0, 0, 100), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.poly.IsFlat(); got != tc.want {
				t.Errorf("IsFlat() = %v, want %v", got, tc.want)
			}
			if tc.poly.IsVisible() == tc.want {
				t.Error("IsVisible() should be the complement of IsFlat()")
			}
		})
	}
}

func TestPolygon_FitsIntoCell(t *testing.T) {
	tests := []struct {
		name string
		poly *Polygon
		want bool
	}{
		{"cell sized quad", floorQuad(50, 0, 50, 100), true},
		{"small quad", floorQuad(50, 0, 50, 40), true},
		{"oversized quad", floorQuad(100, 0, 100, 200), false},
		{"long thin triangle", NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(1000, 0, 0, 0, 0), NewVertex(0, 0, 1, 0, 0)), false},
		{"right isosceles", NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(100, 0, 0, 0, 0), NewVertex(0, 0, 100, 0, 0)), true},
		{"equilateral 100", NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(100, 0, 0, 0, 0), NewVertex(50, 0, 86.6, 0, 0)), true},
		{"tall triangle", NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(60, 0, 0, 0, 0), NewVertex(30, 0, 130, 0, 0)), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.poly.FitsIntoCell(); got != tc.want {
				t.Errorf("FitsIntoCell() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEnclosingSquareSide_Diagonal(t *testing.T) {
	// both angles at the hypotenuse are 45°: the hypotenuse is the diagonal
	side := enclosingSquareSide(math.Vec3{}, math.Vec3{X: 100}, math.Vec3{Z: 100})
	if stdmath.Abs(side-100) > 1e-3 {
		t.Errorf("expected side 100, got %f", side)
	}
}

func TestPolygon_SubdivideQuad(t *testing.T) {
	p := floorQuad(100, 0, 100, 200)
	p.TextureIndex = 3
	p.Room = 2
	parts := p.Subdivide()

	if len(parts) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(parts))
	}

	var area float32
	for i, part := range parts {
		if !part.IsQuad() {
			t.Errorf("part %d: expected quad", i)
		}
		if part.TextureIndex != 3 || part.Room != 2 {
			t.Errorf("part %d: attributes not inherited", i)
		}
		if !part.FitsIntoCell() {
			t.Errorf("part %d: expected to fit a cell", i)
		}
		part.CalculateNormals()
		if part.Normal != (math.Vec3{Y: -1}) {
			t.Errorf("part %d: winding changed, normal %v", i, part.Normal)
		}
		part.CalculateArea()
		area += part.Area
	}
	if !nearly(area, 40000) {
		t.Errorf("expected total area 40000, got %f", area)
	}

	// UVs are interpolated: the first part spans the first half of the texture
	if got := parts[0].Vertices[3].UV; got != (math.Vec2{X: 0.5, Y: 0.5}) {
		t.Errorf("expected UV (0.5, 0.5), got %v", got)
	}
}

func TestPolygon_SubdivideTriangle(t *testing.T) {
	p := NewTriangle(NewVertex(0, 0, 0, 0, 0), NewVertex(0, 0, 300, 0, 1), NewVertex(300, 0, 0, 1, 0))
	p.CalculateNormals()
	want := p.Normal

	parts := p.Subdivide()
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}

	var area float32
	for i, part := range parts {
		part.CalculateNormals()
		if part.Normal != want {
			t.Errorf("part %d: expected normal %v, got %v", i, want, part.Normal)
		}
		part.CalculateArea()
		area += part.Area
	}
	if !nearly(area, 45000) {
		t.Errorf("expected total area 45000, got %f", area)
	}
}

func TestPolygon_MoveAndBounds(t *testing.T) {
	p := floorQuad(0, 0, 0, 100)
	p.Move(math.Vec3{X: 1000, Y: 10, Z: 2000})

	lo, hi := p.Bounds()
	if lo != (math.Vec3{X: 950, Y: 10, Z: 1950}) || hi != (math.Vec3{X: 1050, Y: 10, Z: 2050}) {
		t.Errorf("unexpected bounds %v - %v", lo, hi)
	}
	if c := p.Center(); c != (math.Vec3{X: 1000, Y: 10, Z: 2000}) {
		t.Errorf("unexpected center %v", c)
	}
}

func TestPolygon_Clone(t *testing.T) {
	p := floorQuad(0, 0, 0, 100)
	p.CalculateNormals()
	c := p.Clone()
	c.Normals[0] = math.Vec3{X: 1}
	if p.Normals[0] == c.Normals[0] {
		t.Error("clone shares per-vertex normals with the original")
	}
}

func TestPolyType_String(t *testing.T) {
	tests := []struct {
		flags PolyType
		want  string
	}{
		{0, "none"},
		{PolyQuad, "quad"},
		{PolyQuad | PolyWater, "water|quad"},
		{PolyType(1 << 30), "0x40000000"},
	}
	for _, tc := range tests {
		if got := tc.flags.String(); got != tc.want {
			t.Errorf("PolyType(%d).String() = %q, want %q", tc.flags, got, tc.want)
		}
	}
}
