package level

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/arx-levelgen/pkg/geom"
	"github.com/Faultbox/arx-levelgen/pkg/grid"
	"github.com/Faultbox/arx-levelgen/pkg/lighting"
)

// MaxSubdivisionDepth bounds how often a polygon is split to fit a cell.
const MaxSubdivisionDepth = 16

// fallbackFloorSize is the edge of the floor put under the player of an
// empty map.
const fallbackFloorSize = 100

// maxLoggedIndices caps index lists attached to warnings.
const maxLoggedIndices = 20

// Settings controls Finalize.
type Settings struct {
	CalculateLighting bool
	LightingMode      lighting.Mode
	Logger            *zap.Logger // nil discards warnings
}

// DefaultSettings returns settings that bake lighting in Arx mode.
func DefaultSettings() Settings {
	return Settings{
		CalculateLighting: true,
		LightingMode:      lighting.Arx,
	}
}

// Finalize validates and prepares the map for export. It can run once; the
// map must not be changed by anyone else while it runs.
//
// Polygons outside the map are dropped, an empty map gets a floor under the
// player, polygons too large for a cell are subdivided, normals and areas are
// computed, polygons are indexed by cell and room, lighting is baked and the
// player is raised to eye height.
func (m *Map) Finalize(s Settings) error {
	if m.IsFinalized() {
		return ErrAlreadyFinalized
	}
	if s.CalculateLighting && s.LightingMode == lighting.Realistic {
		return fmt.Errorf("finalizing map: %w: %s", lighting.ErrNotImplemented, s.LightingMode)
	}

	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if m.Cells == nil {
		m.Cells = grid.New()
	}

	m.removeOutOfBounds(log)

	if len(m.Polygons) == 0 {
		m.addFallbackFloor()
		log.Warn("map has no polygons, added a floor under the player",
			zap.Float32("x", m.Player.Position.X),
			zap.Float32("y", m.Player.Position.Y),
			zap.Float32("z", m.Player.Position.Z),
			zap.Int("size", fallbackFloorSize))
		m.removeOutOfBounds(log)
		if len(m.Polygons) == 0 {
			log.Warn("map is still empty after adding a floor",
				zap.Float32("x", m.Player.Position.X),
				zap.Float32("y", m.Player.Position.Y),
				zap.Float32("z", m.Player.Position.Z))
		}
	}

	m.subdivide(log)

	for _, p := range m.Polygons {
		p.CalculateNormals()
		p.CalculateArea()
	}

	m.calculateRoomData(log)

	if s.CalculateLighting && len(m.Lights) > 0 {
		if err := lighting.Bake(m.Polygons, m.Lights, m.Config.Offset, s.LightingMode); err != nil {
			return fmt.Errorf("finalizing map: %w", err)
		}
	}

	if !m.Player.HeightAdjusted {
		m.Player.Position.Y += PlayerHeightAdjustment
		m.Player.HeightAdjusted = true
	}

	m.Config.finalized = true
	return nil
}

// removeOutOfBounds drops polygons with any vertex outside [0, MapExtent)
// on X or Z in exported space.
func (m *Map) removeOutOfBounds(log *zap.Logger) {
	kept := m.Polygons[:0]
	var removed []int
	for i, p := range m.Polygons {
		if m.inBounds(p) {
			kept = append(kept, p)
		} else {
			removed = append(removed, i)
		}
	}
	clear(m.Polygons[len(kept):])
	m.Polygons = kept

	if len(removed) > 0 {
		log.Warn("removed polygons outside of the map",
			zap.Int("count", len(removed)),
			zap.Ints("indices", capped(removed)),
			zap.Int("extent", grid.MapExtent))
	}
}

func (m *Map) inBounds(p *geom.Polygon) bool {
	for i := 0; i < p.VertexCount(); i++ {
		v := m.exported(p.Vertices[i].Position)
		if !grid.InBounds(v.X, v.Z) {
			return false
		}
	}
	return true
}

// addFallbackFloor adds a single upward facing quad centered under the
// player.
func (m *Map) addFallbackFloor() {
	c := m.Player.Position
	h := float32(fallbackFloorSize) / 2
	corner := func(dx, dz, u, v float32) geom.Vertex {
		return geom.NewVertex(c.X+dx, c.Y, c.Z+dz, u, v)
	}
	m.Polygons = append(m.Polygons, geom.NewQuad(
		corner(-h, -h, 0, 0),
		corner(h, -h, 1, 0),
		corner(-h, h, 0, 1),
		corner(h, h, 1, 1),
	))
}

type pendingPolygon struct {
	polygon *geom.Polygon
	depth   int
}

// subdivide splits polygons until each fits a cell, keeping the original
// order, and drops flat polygons.
func (m *Map) subdivide(log *zap.Logger) {
	result := make([]*geom.Polygon, 0, len(m.Polygons))
	flat, split, tooDeep := 0, 0, 0

	for _, p := range m.Polygons {
		stack := []pendingPolygon{{p, 0}}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if cur.polygon.IsFlat() {
				flat++
				continue
			}
			if cur.polygon.FitsIntoCell() {
				result = append(result, cur.polygon)
				continue
			}
			if cur.depth >= MaxSubdivisionDepth {
				tooDeep++
				result = append(result, cur.polygon)
				continue
			}

			split++
			children := cur.polygon.Subdivide()
			// pushed in reverse so children come out in order
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, pendingPolygon{children[i], cur.depth + 1})
			}
		}
	}

	if flat > 0 {
		log.Warn("removed flat polygons", zap.Int("count", flat))
	}
	if tooDeep > 0 {
		log.Warn("polygons still larger than a cell after subdivision",
			zap.Int("count", tooDeep),
			zap.Int("max_depth", MaxSubdivisionDepth))
	}
	if split > 0 {
		log.Debug("subdivided polygons",
			zap.Int("splits", split),
			zap.Int("before", len(m.Polygons)),
			zap.Int("after", len(result)))
	}
	m.Polygons = result
}

// calculateRoomData drops polygons of unknown rooms, then registers every
// polygon with a room at its cell and index within the cell. Cell indices
// follow polygon order, which is the order the geometry file stores them.
func (m *Map) calculateRoomData(log *zap.Logger) {
	var unknown []int
	rooms := make(map[int32]bool)
	for i, p := range m.Polygons {
		if p.Room < 0 || int(p.Room) >= len(m.Rooms) {
			unknown = append(unknown, i)
			rooms[p.Room] = true
		}
	}

	if len(unknown) > 0 {
		runs := removeRuns(&m.Polygons, unknown)
		ids := make([]int, 0, len(rooms))
		for r := range rooms {
			ids = append(ids, int(r))
		}
		sort.Ints(ids)
		log.Warn("removed polygons of rooms that do not exist",
			zap.Int("count", len(unknown)),
			zap.Int("runs", runs),
			zap.Ints("rooms", ids),
			zap.Int("room_count", len(m.Rooms)),
			zap.Ints("indices", capped(unknown)))
	}

	for i := range m.Rooms {
		m.Rooms[i].Polygons = nil
	}

	counter := grid.NewCounter()
	for _, p := range m.Polygons {
		x, y := m.cellOf(p)
		idx := counter.Next(x, y)
		if p.Room < 1 {
			continue
		}
		m.Rooms[p.Room].Polygons = append(m.Rooms[p.Room].Polygons, RoomPolygon{CellX: x, CellY: y, Index: idx})
	}

	m.assignRoomPortals()
	m.CalculateRoomDistances()
}

// removeRuns deletes the given ascending indices, one contiguous run at a
// time from the back, and returns the number of runs.
func removeRuns(polygons *[]*geom.Polygon, indices []int) int {
	type run struct{ start, end int }
	var runs []run
	for _, idx := range indices {
		if n := len(runs); n > 0 && runs[n-1].end == idx {
			runs[n-1].end++
			continue
		}
		runs = append(runs, run{idx, idx + 1})
	}

	list := *polygons
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		list = append(list[:r.start], list[r.end:]...)
	}
	clear((*polygons)[len(list):])
	*polygons = list
	return len(runs)
}

func capped(indices []int) []int {
	if len(indices) > maxLoggedIndices {
		return indices[:maxLoggedIndices]
	}
	return indices
}
