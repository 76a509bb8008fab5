package level

import (
	"fmt"

	"github.com/Faultbox/arx-levelgen/pkg/encoding"
	"github.com/Faultbox/arx-levelgen/pkg/formats"
	"github.com/Faultbox/arx-levelgen/pkg/geom"
	"github.com/Faultbox/arx-levelgen/pkg/grid"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// LastUser is written in the editor fields of the level files.
const LastUser = "arx-levelgen"

// cellOrder returns the polygons grouped by cell, cells z-major then x,
// keeping list order within a cell, with their cell coordinates.
func (m *Map) cellOrder() ([][][]*geom.Polygon, error) {
	cells := make([][][]*geom.Polygon, grid.Size)
	for z := range cells {
		cells[z] = make([][]*geom.Polygon, grid.Size)
	}
	for i, p := range m.Polygons {
		x, z := m.cellOf(p)
		if !grid.Valid(x, z) {
			return nil, fmt.Errorf("polygon %d lies in cell %d,%d outside of the grid", i, x, z)
		}
		cells[z][x] = append(cells[z][x], p)
	}
	return cells, nil
}

// ToDLF builds the entity file of level levelIdx.
func (m *Map) ToDLF(levelIdx int) (*formats.DLF, error) {
	if !m.IsFinalized() {
		return nil, ErrNotFinalized
	}

	d := &formats.DLF{
		Header: formats.DLFHeader{
			Version:             formats.DLFVersion,
			LastUser:            LastUser,
			PositionEdit:        m.exported(m.Player.Position),
			AngleEdit:           m.Player.Orientation,
			BackgroundPolyCount: int32(len(m.Polygons)),
			Offset:              m.Config.Offset,
		},
		Scenes: []string{fmt.Sprintf(`Graph\Levels\Level%d\`, levelIdx)},
	}

	for _, e := range m.Entities {
		d.InteractiveObjects = append(d.InteractiveObjects, formats.DLFInteractiveObject{
			Name:       encoding.NormalizePath(e.Src),
			Position:   m.exported(e.Position),
			Angle:      e.Orientation,
			Identifier: e.ID,
			Flags:      e.Flags,
		})
	}

	for _, f := range m.Fogs {
		d.Fogs = append(d.Fogs, formats.DLFFog{
			Position:    m.exported(f.Position),
			Color:       f.Color.RGB(),
			Size:        f.Size,
			Special:     f.Special,
			Scale:       f.Scale,
			Move:        f.Direction,
			Angle:       f.Orientation,
			Speed:       f.Speed,
			RotateSpeed: f.RotateSpeed,
			ToLive:      f.ToLive,
			Blend:       f.Blend,
			Frequency:   f.Frequency,
		})
	}

	for i, p := range m.Paths {
		points := make([]formats.DLFPathPoint, len(p.Points))
		for j, pt := range p.Points {
			points[j] = formats.DLFPathPoint{Position: pt.Position, Type: pt.Type, Time: pt.Time}
		}
		pos := m.exported(p.Position)
		d.Paths = append(d.Paths, formats.DLFPath{
			Name:              p.Name,
			Index:             int16(i),
			Flags:             p.Flags,
			InitialPosition:   pos,
			Position:          pos,
			Color:             p.Color.RGB(),
			FarClip:           p.FarClip,
			Reverb:            p.Reverb,
			AmbienceMaxVolume: p.AmbienceMaxVolume,
			Height:            p.Height,
			Ambience:          p.Ambience,
			Points:            points,
		})
	}

	return d, nil
}

// ToFTS builds the geometry file of level levelIdx.
func (m *Map) ToFTS(levelIdx int) (*formats.FTS, error) {
	if !m.IsFinalized() {
		return nil, ErrNotFinalized
	}

	byCell, err := m.cellOrder()
	if err != nil {
		return nil, err
	}

	f := &formats.FTS{
		Header: formats.FTSHeader{
			Path:    fmt.Sprintf(`C:\ARX\Game\Graph\Levels\level%d\`, levelIdx),
			Version: formats.FTSVersion,
		},
		SceneHeader: formats.FTSSceneHeader{
			Version:        formats.FTSVersion,
			SizeX:          grid.Size,
			SizeZ:          grid.Size,
			PlayerPosition: m.exported(m.Player.Position),
			ScenePosition:  m.Config.Offset,
		},
		Cells: make([][]formats.FTSCell, grid.Size),
	}

	for _, tc := range m.Textures {
		f.Textures = append(f.Textures, formats.FTSTextureContainer{ID: tc.ID, Path: tc.Path})
	}

	for z := range f.Cells {
		f.Cells[z] = make([]formats.FTSCell, grid.Size)
		for x := range f.Cells[z] {
			cell := &f.Cells[z][x]
			for _, p := range byCell[z][x] {
				cell.Polygons = append(cell.Polygons, m.ftsPolygon(p))
			}
			if c := m.Cells.Cell(x, z); c != nil && len(c.Anchors) > 0 {
				cell.Anchors = append([]int32(nil), c.Anchors...)
			}
		}
	}

	for _, a := range m.Anchors {
		f.Anchors = append(f.Anchors, formats.FTSAnchor{
			Position: m.exported(a.Position),
			Radius:   a.Radius,
			Height:   a.Height,
			Flags:    a.Flags,
			Linked:   a.Linked,
		})
	}

	for _, p := range m.Portals {
		f.Portals = append(f.Portals, m.ftsPortal(p))
	}

	for _, r := range m.Rooms {
		room := formats.FTSRoom{
			Portals:  append([]int32{}, r.Portals...),
			Polygons: make([]formats.FTSRoomPolygon, len(r.Polygons)),
		}
		for i, rp := range r.Polygons {
			room.Polygons[i] = formats.FTSRoomPolygon{
				CellX: int16(rp.CellX),
				CellY: int16(rp.CellY),
				Index: int16(rp.Index),
			}
		}
		f.Rooms = append(f.Rooms, room)
	}

	if len(m.RoomDistances) != len(m.Rooms)*len(m.Rooms) {
		m.CalculateRoomDistances()
	}
	for _, d := range m.RoomDistances {
		f.RoomDistances = append(f.RoomDistances, formats.FTSRoomDistance{
			Distance: d.Distance,
			Start:    d.Start,
			End:      d.End,
		})
	}

	return f, nil
}

func (m *Map) ftsPolygon(p *geom.Polygon) formats.FTSPolygon {
	out := formats.FTSPolygon{
		TextureID:    p.TextureIndex,
		Normal:       p.Normal,
		Normal2:      p.Normal2,
		Transparency: p.Transparency,
		Area:         p.Area,
		Type:         int32(p.Type),
		Room:         int16(p.Room),
	}
	for i := 0; i < p.VertexCount(); i++ {
		v := p.Vertices[i]
		pos := m.exported(v.Position)
		out.Vertices[i] = formats.FTSVertex{X: pos.X, Y: pos.Y, Z: pos.Z, U: v.UV.X, V: v.UV.Y}
		out.Normals[i] = p.VertexNormal(i)
	}
	return out
}

func (m *Map) ftsPortal(p geom.Portal) formats.FTSPortal {
	poly := formats.FTSPortalPolygon{
		Type:    int32(geom.PolyQuad),
		Min:     m.exported(p.Polygon.Min),
		Max:     m.exported(p.Polygon.Max),
		Normal:  p.Polygon.Normal,
		Normal2: p.Polygon.Normal,
		Center:  m.exported(p.Polygon.Center),
		Area:    p.Polygon.Area,
		Room:    int16(p.Room1),
	}
	for i, v := range p.Polygon.Vertices {
		poly.Vertices[i] = formats.FTSPortalVertex{Position: m.exported(v), RHW: 1}
		poly.Normals[i] = p.Polygon.Normal
	}
	out := formats.FTSPortal{Polygon: poly, Room1: p.Room1, Room2: p.Room2}
	if p.Enabled {
		out.UsePortal = 1
	}
	return out
}

// ToLLF builds the lighting file. Colors follow the polygon order of the
// geometry file, one per used vertex.
func (m *Map) ToLLF(levelIdx int) (*formats.LLF, error) {
	if !m.IsFinalized() {
		return nil, ErrNotFinalized
	}

	byCell, err := m.cellOrder()
	if err != nil {
		return nil, err
	}

	l := &formats.LLF{
		Header: formats.LLFHeader{
			Version:             formats.LLFVersion,
			LastUser:            LastUser,
			BackgroundPolyCount: int32(len(m.Polygons)),
		},
		LightingHeader: formats.DefaultLLFLightingHeader(),
	}

	for _, light := range m.Lights {
		l.Lights = append(l.Lights, formats.LLFLight{
			Position:    m.exported(light.Position),
			Color:       light.Color.RGB(),
			FallStart:   light.FallStart,
			FallEnd:     light.FallEnd,
			Intensity:   light.Intensity,
			ExFlicker:   light.Flicker.RGB(),
			ExRadius:    light.Radius,
			ExFrequency: light.Frequency,
			ExSize:      light.Size,
			ExSpeed:     light.Speed,
			ExFlareSize: light.FlareSize,
			Extras:      int32(light.Flags),
		})
	}

	for _, row := range byCell {
		for _, cell := range row {
			for _, p := range cell {
				for i := 0; i < p.VertexCount(); i++ {
					l.Colors = append(l.Colors, p.Vertices[i].Color.BGRA())
				}
			}
		}
	}

	return l, nil
}

// FromFiles rebuilds a finalized map from a level's three files. Polygons
// come back in cell order.
func FromFiles(dlf *formats.DLF, fts *formats.FTS, llf *formats.LLF) (*Map, error) {
	m := New()
	m.Config.Offset = fts.SceneHeader.ScenePosition
	local := func(v math.Vec3) math.Vec3 { return v.Sub(m.Config.Offset) }

	colors := llf.Colors
	for z, row := range fts.Cells {
		for x, cell := range row {
			for i, fp := range cell.Polygons {
				p, used := polygonFromFTS(fp, local)
				if len(colors) < used {
					return nil, fmt.Errorf("lighting file ends at polygon %d of cell %d,%d", i, x, z)
				}
				for j := 0; j < used; j++ {
					p.Vertices[j].Color = geom.ColorFromBGRA(colors[j])
				}
				colors = colors[used:]
				m.Polygons = append(m.Polygons, p)
			}
			if len(cell.Anchors) > 0 {
				m.Cells.SetAnchors(x, z, append([]int32(nil), cell.Anchors...))
			}
		}
	}
	if len(colors) != 0 {
		return nil, fmt.Errorf("lighting file has %d colors more than the geometry has vertices", len(colors))
	}

	for _, tc := range fts.Textures {
		m.Textures = append(m.Textures, TextureContainer{ID: tc.ID, Path: tc.Path})
	}

	for _, a := range fts.Anchors {
		m.Anchors = append(m.Anchors, geom.Anchor{
			Position: local(a.Position),
			Radius:   a.Radius,
			Height:   a.Height,
			Flags:    a.Flags,
			Linked:   a.Linked,
		})
	}

	for _, fp := range fts.Portals {
		var vertices [4]math.Vec3
		for i, v := range fp.Polygon.Vertices {
			vertices[i] = local(v.Position)
		}
		p := geom.NewPortal(vertices, fp.Room1, fp.Room2)
		p.Enabled = fp.UsePortal != 0
		m.Portals = append(m.Portals, p)
	}

	m.Rooms = make([]Room, len(fts.Rooms))
	for i, r := range fts.Rooms {
		room := Room{Portals: r.Portals}
		for _, rp := range r.Polygons {
			room.Polygons = append(room.Polygons, RoomPolygon{
				CellX: int(rp.CellX),
				CellY: int(rp.CellY),
				Index: int(rp.Index),
			})
		}
		m.Rooms[i] = room
	}
	for _, d := range fts.RoomDistances {
		m.RoomDistances = append(m.RoomDistances, RoomDistance{Distance: d.Distance, Start: d.Start, End: d.End})
	}

	for _, l := range llf.Lights {
		m.Lights = append(m.Lights, geom.Light{
			Position:  local(l.Position),
			Color:     geom.ColorFromRGB(l.Color),
			Flags:     geom.LightFlags(l.Extras),
			FallStart: l.FallStart,
			FallEnd:   l.FallEnd,
			Intensity: l.Intensity,
			Flicker:   geom.ColorFromRGB(l.ExFlicker),
			Radius:    l.ExRadius,
			Frequency: l.ExFrequency,
			Size:      l.ExSize,
			Speed:     l.ExSpeed,
			FlareSize: l.ExFlareSize,
		})
	}

	m.Player = Player{
		Position:       local(fts.SceneHeader.PlayerPosition),
		Orientation:    dlf.Header.AngleEdit,
		HeightAdjusted: true,
	}

	for _, o := range dlf.InteractiveObjects {
		m.Entities = append(m.Entities, geom.Entity{
			Src:         o.Name,
			ID:          o.Identifier,
			Position:    local(o.Position),
			Orientation: o.Angle,
			Flags:       o.Flags,
		})
	}

	for _, f := range dlf.Fogs {
		m.Fogs = append(m.Fogs, geom.Fog{
			Position:    local(f.Position),
			Color:       geom.ColorFromRGB(f.Color),
			Size:        f.Size,
			Special:     f.Special,
			Scale:       f.Scale,
			Direction:   f.Move,
			Orientation: f.Angle,
			Speed:       f.Speed,
			RotateSpeed: f.RotateSpeed,
			ToLive:      f.ToLive,
			Blend:       f.Blend,
			Frequency:   f.Frequency,
		})
	}

	for _, p := range dlf.Paths {
		points := make([]geom.PathPoint, len(p.Points))
		for i, pt := range p.Points {
			points[i] = geom.PathPoint{Position: pt.Position, Type: pt.Type, Time: pt.Time}
		}
		m.Paths = append(m.Paths, geom.Path{
			Name:              p.Name,
			Flags:             p.Flags,
			Position:          local(p.Position),
			Color:             geom.ColorFromRGB(p.Color),
			FarClip:           p.FarClip,
			Reverb:            p.Reverb,
			AmbienceMaxVolume: p.AmbienceMaxVolume,
			Height:            p.Height,
			Ambience:          p.Ambience,
			Points:            points,
		})
	}

	m.Config.finalized = true
	return m, nil
}

func polygonFromFTS(fp formats.FTSPolygon, local func(math.Vec3) math.Vec3) (*geom.Polygon, int) {
	p := &geom.Polygon{
		TextureIndex: fp.TextureID,
		Normal:       fp.Normal,
		Normal2:      fp.Normal2,
		Transparency: fp.Transparency,
		Area:         fp.Area,
		Type:         geom.PolyType(fp.Type),
		Room:         int32(fp.Room),
	}
	used := p.VertexCount()
	normals := fp.Normals
	if !p.IsQuad() {
		normals[3] = math.Vec3{}
	}
	p.Normals = &normals
	for i := 0; i < used; i++ {
		v := fp.Vertices[i]
		p.Vertices[i] = geom.Vertex{
			Position: local(math.Vec3{X: v.X, Y: v.Y, Z: v.Z}),
			UV:       math.Vec2{X: v.U, Y: v.V},
		}
	}
	return p, used
}
