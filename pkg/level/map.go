// Package level holds the level aggregate: polygons, lights, rooms and
// placed objects, and the one-way finalization that turns a generated map
// into something the engine can load.
package level

import (
	"errors"
	"fmt"

	"github.com/Faultbox/arx-levelgen/pkg/geom"
	"github.com/Faultbox/arx-levelgen/pkg/grid"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// Map state errors.
var (
	ErrAlreadyFinalized = errors.New("map is already finalized")
	ErrNotFinalized     = errors.New("map is not finalized")
)

// PlayerHeightAdjustment is added to the player's Y on finalization: the
// spawn position is the feet, the engine expects the eyes.
const PlayerHeightAdjustment = -140

// Player is the spawn point.
type Player struct {
	Position       math.Vec3
	Orientation    math.Rotation
	HeightAdjusted bool
}

// Config holds map-wide settings. Everything in the map is stored relative
// to Offset; exported coordinates are local + Offset.
type Config struct {
	Offset    math.Vec3
	finalized bool
}

// TextureContainer binds a 1-based texture id to an engine texture path.
type TextureContainer struct {
	ID   int32
	Path string
}

// Map is a level under construction or, once finalized, ready for export.
type Map struct {
	Polygons      []*geom.Polygon
	Lights        []geom.Light
	Portals       []geom.Portal
	Rooms         []Room
	RoomDistances []RoomDistance
	Entities      []geom.Entity
	Fogs          []geom.Fog
	Paths         []geom.Path
	Anchors       []geom.Anchor
	Cells         *grid.Grid
	Textures      []TextureContainer
	Player        Player
	Config        Config
}

// New creates an empty map with room 0 (outside) and room 1.
func New() *Map {
	return &Map{
		Rooms: []Room{{}, {}},
		Cells: grid.New(),
	}
}

// IsFinalized reports whether Finalize has completed.
func (m *Map) IsFinalized() bool {
	return m.Config.finalized
}

// Move translates all content of the map, the player included. A finalized
// map cannot move since its cell and room indices follow the positions.
func (m *Map) Move(offset math.Vec3) error {
	if m.IsFinalized() {
		return fmt.Errorf("%w: cannot move it", ErrAlreadyFinalized)
	}
	for _, p := range m.Polygons {
		p.Move(offset)
	}
	for i := range m.Lights {
		m.Lights[i].Move(offset)
	}
	for i := range m.Portals {
		m.Portals[i].Move(offset)
	}
	for i := range m.Entities {
		m.Entities[i].Move(offset)
	}
	for i := range m.Fogs {
		m.Fogs[i].Move(offset)
	}
	for i := range m.Paths {
		m.Paths[i].Move(offset)
	}
	for i := range m.Anchors {
		m.Anchors[i].Move(offset)
	}
	m.Player.Position = m.Player.Position.Add(offset)
	return nil
}

// AdjustOffsetTo re-expresses the map in other's offset space. Exported
// coordinates do not change. It fails like Move on a finalized map.
func (m *Map) AdjustOffsetTo(other *Map) error {
	if err := m.Move(m.Config.Offset.Sub(other.Config.Offset)); err != nil {
		return err
	}
	m.Config.Offset = other.Config.Offset
	return nil
}

// Add merges other into m. other is first moved into m's offset space. The
// player and config of m are kept.
func (m *Map) Add(other *Map) error {
	if m.IsFinalized() {
		return fmt.Errorf("%w: cannot add to it", ErrAlreadyFinalized)
	}
	if other.IsFinalized() {
		return fmt.Errorf("%w: cannot add it to another map", ErrAlreadyFinalized)
	}

	if err := other.AdjustOffsetTo(m); err != nil {
		return err
	}

	m.Polygons = append(m.Polygons, other.Polygons...)
	m.Lights = append(m.Lights, other.Lights...)
	m.Portals = append(m.Portals, other.Portals...)
	m.Entities = append(m.Entities, other.Entities...)
	m.Fogs = append(m.Fogs, other.Fogs...)
	m.Paths = append(m.Paths, other.Paths...)

	base := int32(len(m.Anchors))
	for _, a := range other.Anchors {
		linked := make([]int32, len(a.Linked))
		for i, l := range a.Linked {
			linked[i] = l + base
		}
		a.Linked = linked
		m.Anchors = append(m.Anchors, a)
	}
	if other.Cells != nil {
		if m.Cells == nil {
			m.Cells = grid.New()
		}
		m.Cells.AppendAnchors(other.Cells, base)
	}

	for len(m.Rooms) < len(other.Rooms) {
		m.Rooms = append(m.Rooms, Room{})
	}

	known := make(map[int32]bool, len(m.Textures))
	for _, tc := range m.Textures {
		known[tc.ID] = true
	}
	for _, tc := range other.Textures {
		if !known[tc.ID] {
			m.Textures = append(m.Textures, tc)
			known[tc.ID] = true
		}
	}

	return nil
}

// AddRoom appends an empty room and returns its index.
func (m *Map) AddRoom() int32 {
	m.Rooms = append(m.Rooms, Room{})
	return int32(len(m.Rooms) - 1)
}

// exported converts a local position to exported space.
func (m *Map) exported(v math.Vec3) math.Vec3 {
	return v.Add(m.Config.Offset)
}

// cellOf returns the cell a polygon is stored in: the one containing its
// minimum X and Z in exported space.
func (m *Map) cellOf(p *geom.Polygon) (x, y int) {
	lo, _ := p.Bounds()
	lo = m.exported(lo)
	return grid.CellOf(lo.X, lo.Z)
}
