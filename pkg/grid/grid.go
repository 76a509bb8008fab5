// Package grid implements the fixed cell grid the engine uses to bucket
// level polygons.
package grid

import (
	"fmt"
	"math"
)

const (
	// CellSize is the edge length of a cell in world units.
	CellSize = 100
	// Size is the number of cells along each axis.
	Size = 160
	// MapExtent is the playable extent along X and Z: [0, MapExtent).
	MapExtent = Size * CellSize
)

// Key packs cell coordinates into one integer: (x << 16) | y.
type Key uint32

// MakeKey packs cell coordinates.
func MakeKey(x, y int) Key {
	return Key(uint32(uint16(x))<<16 | uint32(uint16(y)))
}

// XY unpacks the cell coordinates.
func (k Key) XY() (x, y int) {
	return int(int16(k >> 16)), int(int16(k & 0xFFFF))
}

// String returns "x|y".
func (k Key) String() string {
	x, y := k.XY()
	return fmt.Sprintf("%d|%d", x, y)
}

// CellOf returns the cell containing the given ground-plane coordinates.
// The Y cell axis follows world Z.
func CellOf(x, z float32) (cellX, cellY int) {
	return int(math.Floor(float64(x) / CellSize)), int(math.Floor(float64(z) / CellSize))
}

// InBounds reports whether a ground-plane coordinate lies in the map.
func InBounds(x, z float32) bool {
	return x >= 0 && x < MapExtent && z >= 0 && z < MapExtent
}

// Valid reports whether the cell coordinates address a cell of the grid.
func Valid(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// Cell is one grid bucket. Polygon membership is tracked by the rooms that
// reference the cell; the cell itself only carries pathfinding anchors.
type Cell struct {
	Anchors []int32
}

// Grid is a Size x Size arena of cells.
type Grid struct {
	cells []Cell
}

// New creates an empty grid.
func New() *Grid {
	return &Grid{cells: make([]Cell, Size*Size)}
}

// Cell returns the cell at (x, y), or nil if out of range.
func (g *Grid) Cell(x, y int) *Cell {
	if !Valid(x, y) {
		return nil
	}
	return &g.cells[y*Size+x]
}

// SetAnchors replaces the anchor list of a cell. Out of range cells are
// ignored.
func (g *Grid) SetAnchors(x, y int, anchors []int32) {
	if c := g.Cell(x, y); c != nil {
		c.Anchors = anchors
	}
}

// AppendAnchors adds the anchor references of other's cells to the same
// cells of g, shifted by base.
func (g *Grid) AppendAnchors(other *Grid, base int32) {
	for i := range other.cells {
		for _, a := range other.cells[i].Anchors {
			g.cells[i].Anchors = append(g.cells[i].Anchors, a+base)
		}
	}
}

// AnchorCount returns the number of anchor references across all cells.
func (g *Grid) AnchorCount() int {
	n := 0
	for i := range g.cells {
		n += len(g.cells[i].Anchors)
	}
	return n
}

// Counter hands out consecutive indices per cell.
type Counter struct {
	next map[Key]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{next: make(map[Key]int)}
}

// Next returns the next index for the cell and advances it.
func (c *Counter) Next(x, y int) int {
	k := MakeKey(x, y)
	idx := c.next[k]
	c.next[k] = idx + 1
	return idx
}

// Count returns how many indices were handed out for the cell.
func (c *Counter) Count(x, y int) int {
	return c.next[MakeKey(x, y)]
}
