package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/arx-levelgen/pkg/encoding"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// FTS format errors.
var (
	ErrUnsupportedFTSVersion = errors.New("unsupported FTS version")
	ErrTruncatedFTSData      = errors.New("truncated FTS data")
	ErrInvalidFTSData        = errors.New("invalid FTS data")
)

// FTSVersion is the geometry format version the engine loads.
const FTSVersion float32 = 0.141

const (
	ftsHeaderSize             = 280
	ftsUniqueHeaderSize       = 768
	ftsCountOffset            = 256
	ftsUncompressedSizeOffset = 264
	ftsSceneHeaderSize        = 56
	ftsTextureSize            = 264
	ftsPolygonSize            = 172
	ftsAnchorSize             = 24
	ftsPortalSize             = 396
	ftsRoomSize               = 32
	ftsRoomPolygonSize        = 8
	ftsRoomDistanceSize       = 28
)

// FTSHeader is the uncompressed part of the file.
type FTSHeader struct {
	Path             string // level directory, e.g. c:\arx\game\graph\levels\level1\
	Version          float32
	UncompressedSize int32 // length of the body after the headers
	UniqueHeaders    []FTSUniqueHeader
}

// FTSUniqueHeader names a file the level was compiled from.
type FTSUniqueHeader struct {
	Path  string
	Check [512]byte
}

// FTSSceneHeader is the first record of the body. Counts are taken from
// the slices of FTS when marshaling.
type FTSSceneHeader struct {
	Version        float32
	SizeX          int32
	SizeZ          int32
	PlayerPosition math.Vec3
	ScenePosition  math.Vec3
}

// FTSTextureContainer maps a container id to a texture path.
type FTSTextureContainer struct {
	ID   int32
	Temp int32
	Path string
}

// FTSVertex is a polygon vertex as stored on disk.
type FTSVertex struct {
	Y, X, Z float32
	U, V    float32
}

// FTSPolygon is a background polygon.
type FTSPolygon struct {
	Vertices     [4]FTSVertex
	TextureID    int32
	Normal       math.Vec3
	Normal2      math.Vec3
	Normals      [4]math.Vec3
	Transparency float32
	Area         float32
	Type         int32
	Room         int16
	_            int16
}

// FTSCell holds the polygons and anchor indices of one grid cell.
type FTSCell struct {
	Polygons []FTSPolygon
	Anchors  []int32
}

// FTSAnchor is a pathfinding node.
type FTSAnchor struct {
	Position math.Vec3
	Radius   float32
	Height   float32
	Flags    int16
	Linked   []int32
}

// FTSPortalVertex is a portal vertex in the engine's render layout.
type FTSPortalVertex struct {
	RHW      float32
	Position math.Vec3
	Color    uint32
	Specular int32
	U, V     float32
}

// FTSPortalPolygon is the quad of a portal.
type FTSPortalPolygon struct {
	Type                int32
	Min                 math.Vec3
	Max                 math.Vec3
	Normal              math.Vec3
	Normal2             math.Vec3
	Vertices            [4]FTSPortalVertex
	TransformedVertices [4]FTSPortalVertex
	Normals             [4]math.Vec3
	TextureID           int32
	Center              math.Vec3
	Transparency        float32
	Area                float32
	Room                int16
	Misc                int16
}

// FTSPortal connects two rooms.
type FTSPortal struct {
	Polygon   FTSPortalPolygon
	Room1     int32
	Room2     int32
	UsePortal int16
	_         int16
}

// FTSRoomPolygon addresses a polygon by cell and index within the cell.
type FTSRoomPolygon struct {
	CellX int16
	CellY int16
	Index int16
	_     int16
}

// FTSRoom lists the portals and polygons of a room.
type FTSRoom struct {
	Portals  []int32
	Polygons []FTSRoomPolygon
}

// FTSRoomDistance is one entry of the room to room distance table.
type FTSRoomDistance struct {
	Distance float32
	Start    math.Vec3
	End      math.Vec3
}

// FTS represents a parsed geometry file.
type FTS struct {
	Header        FTSHeader
	SceneHeader   FTSSceneHeader
	Textures      []FTSTextureContainer
	Cells         [][]FTSCell // [z][x]
	Anchors       []FTSAnchor
	Portals       []FTSPortal
	Rooms         []FTSRoom // room 0 included
	RoomDistances []FTSRoomDistance
}

// PolygonCount returns the number of polygons over all cells.
func (f *FTS) PolygonCount() int {
	n := 0
	for _, row := range f.Cells {
		for _, cell := range row {
			n += len(cell.Polygons)
		}
	}
	return n
}

// Cell returns the cell at (x, z) or nil when out of range.
func (f *FTS) Cell(x, z int) *FTSCell {
	if z < 0 || z >= len(f.Cells) || x < 0 || x >= len(f.Cells[z]) {
		return nil
	}
	return &f.Cells[z][x]
}

type ftsHeaderRecord struct {
	Path             [256]byte
	Count            int32
	Version          float32
	UncompressedSize int32
	_                [3]int32
}

type ftsUniqueHeaderRecord struct {
	Path  [256]byte
	Check [512]byte
}

type ftsSceneHeaderRecord struct {
	Version        float32
	SizeX          int32
	SizeZ          int32
	TextureCount   int32
	PolygonCount   int32
	AnchorCount    int32
	PlayerPosition math.Vec3
	ScenePosition  math.Vec3
	PortalCount    int32
	RoomCount      int32 // rooms stored minus one: room 0 is implicit in the count
}

type ftsTextureRecord struct {
	ID   int32
	Temp int32
	Path [256]byte
}

type ftsCellRecord struct {
	PolygonCount int32
	AnchorCount  int32
}

type ftsAnchorRecord struct {
	Position    math.Vec3
	Radius      float32
	Height      float32
	LinkedCount int16
	Flags       int16
}

type ftsRoomRecord struct {
	PortalCount  int32
	PolygonCount int32
	_            [6]int32
}

// MarshalFTS serializes the file without compression. The header's
// uncompressed size is computed from the body.
func MarshalFTS(f *FTS) ([]byte, error) {
	if len(f.Rooms) == 0 {
		return nil, fmt.Errorf("%w: no rooms", ErrInvalidFTSData)
	}
	if len(f.RoomDistances) != len(f.Rooms)*len(f.Rooms) {
		return nil, fmt.Errorf("%w: %d room distances for %d rooms", ErrInvalidFTSData, len(f.RoomDistances), len(f.Rooms))
	}
	if int32(len(f.Cells)) != f.SceneHeader.SizeZ {
		return nil, fmt.Errorf("%w: %d cell rows, scene is %d deep", ErrInvalidFTSData, len(f.Cells), f.SceneHeader.SizeZ)
	}
	for z, row := range f.Cells {
		if int32(len(row)) != f.SceneHeader.SizeX {
			return nil, fmt.Errorf("%w: cell row %d has %d cells, scene is %d wide", ErrInvalidFTSData, z, len(row), f.SceneHeader.SizeX)
		}
	}

	body, err := marshalFTSBody(f)
	if err != nil {
		return nil, err
	}

	h := ftsHeaderRecord{
		Count:            int32(len(f.Header.UniqueHeaders)),
		Version:          f.Header.Version,
		UncompressedSize: int32(len(body)),
	}
	fixed(h.Path[:], f.Header.Path)

	w := newRecordWriter(ftsHeaderSize + len(f.Header.UniqueHeaders)*ftsUniqueHeaderSize + len(body))
	w.write(&h)
	for _, u := range f.Header.UniqueHeaders {
		rec := ftsUniqueHeaderRecord{Check: u.Check}
		fixed(rec.Path[:], u.Path)
		w.write(&rec)
	}
	w.write(body)
	return w.bytes()
}

func marshalFTSBody(f *FTS) ([]byte, error) {
	polygons := f.PolygonCount()
	w := newRecordWriter(ftsSceneHeaderSize + polygons*ftsPolygonSize)

	w.write(&ftsSceneHeaderRecord{
		Version:        f.SceneHeader.Version,
		SizeX:          f.SceneHeader.SizeX,
		SizeZ:          f.SceneHeader.SizeZ,
		TextureCount:   int32(len(f.Textures)),
		PolygonCount:   int32(polygons),
		AnchorCount:    int32(len(f.Anchors)),
		PlayerPosition: f.SceneHeader.PlayerPosition,
		ScenePosition:  f.SceneHeader.ScenePosition,
		PortalCount:    int32(len(f.Portals)),
		RoomCount:      int32(len(f.Rooms) - 1),
	})

	for _, tc := range f.Textures {
		rec := ftsTextureRecord{ID: tc.ID, Temp: tc.Temp}
		fixed(rec.Path[:], tc.Path)
		w.write(&rec)
	}

	for _, row := range f.Cells {
		for _, cell := range row {
			w.write(&ftsCellRecord{
				PolygonCount: int32(len(cell.Polygons)),
				AnchorCount:  int32(len(cell.Anchors)),
			})
			w.write(cell.Polygons)
			w.write(cell.Anchors)
		}
	}

	for _, a := range f.Anchors {
		w.write(&ftsAnchorRecord{
			Position:    a.Position,
			Radius:      a.Radius,
			Height:      a.Height,
			LinkedCount: int16(len(a.Linked)),
			Flags:       a.Flags,
		})
		w.write(a.Linked)
	}

	w.write(f.Portals)

	for _, room := range f.Rooms {
		w.write(&ftsRoomRecord{
			PortalCount:  int32(len(room.Portals)),
			PolygonCount: int32(len(room.Polygons)),
		})
		w.write(room.Portals)
		w.write(room.Polygons)
	}

	w.write(f.RoomDistances)
	return w.bytes()
}

// ParseFTS parses an uncompressed FTS file.
func ParseFTS(data []byte) (*FTS, error) {
	if len(data) < ftsHeaderSize {
		return nil, ErrTruncatedFTSData
	}

	r := bytes.NewReader(data)
	var h ftsHeaderRecord
	if err := readRecord(r, &h, ErrTruncatedFTSData, "header"); err != nil {
		return nil, err
	}
	if h.Version <= 0 || h.Version > FTSVersion {
		return nil, fmt.Errorf("%w: %.3f", ErrUnsupportedFTSVersion, h.Version)
	}

	f := &FTS{
		Header: FTSHeader{
			Path:             encoding.FixedString(h.Path[:]),
			Version:          h.Version,
			UncompressedSize: h.UncompressedSize,
		},
	}

	if err := checkCount(h.Count, r.Len(), ftsUniqueHeaderSize, ErrTruncatedFTSData, "unique headers"); err != nil {
		return nil, err
	}
	for i := int32(0); i < h.Count; i++ {
		var rec ftsUniqueHeaderRecord
		if err := readRecord(r, &rec, ErrTruncatedFTSData, fmt.Sprintf("unique header %d", i)); err != nil {
			return nil, err
		}
		f.Header.UniqueHeaders = append(f.Header.UniqueHeaders, FTSUniqueHeader{
			Path:  encoding.FixedString(rec.Path[:]),
			Check: rec.Check,
		})
	}

	var sh ftsSceneHeaderRecord
	if err := readRecord(r, &sh, ErrTruncatedFTSData, "scene header"); err != nil {
		return nil, err
	}
	f.SceneHeader = FTSSceneHeader{
		Version:        sh.Version,
		SizeX:          sh.SizeX,
		SizeZ:          sh.SizeZ,
		PlayerPosition: sh.PlayerPosition,
		ScenePosition:  sh.ScenePosition,
	}

	if err := parseFTSTextures(r, f, sh.TextureCount); err != nil {
		return nil, err
	}
	if err := parseFTSCells(r, f, sh); err != nil {
		return nil, err
	}
	if err := parseFTSAnchors(r, f, sh.AnchorCount); err != nil {
		return nil, err
	}

	if err := checkCount(sh.PortalCount, r.Len(), ftsPortalSize, ErrTruncatedFTSData, "portals"); err != nil {
		return nil, err
	}
	f.Portals = make([]FTSPortal, sh.PortalCount)
	if err := readRecord(r, f.Portals, ErrTruncatedFTSData, "portals"); err != nil {
		return nil, err
	}

	if err := parseFTSRooms(r, f, sh.RoomCount+1); err != nil {
		return nil, err
	}

	rooms := int32(len(f.Rooms))
	if err := checkCount(rooms*rooms, r.Len(), ftsRoomDistanceSize, ErrTruncatedFTSData, "room distances"); err != nil {
		return nil, err
	}
	f.RoomDistances = make([]FTSRoomDistance, rooms*rooms)
	if err := readRecord(r, f.RoomDistances, ErrTruncatedFTSData, "room distances"); err != nil {
		return nil, err
	}

	return f, nil
}

func parseFTSTextures(r *bytes.Reader, f *FTS, count int32) error {
	if err := checkCount(count, r.Len(), ftsTextureSize, ErrTruncatedFTSData, "textures"); err != nil {
		return err
	}
	f.Textures = make([]FTSTextureContainer, 0, count)
	for i := int32(0); i < count; i++ {
		var rec ftsTextureRecord
		if err := readRecord(r, &rec, ErrTruncatedFTSData, fmt.Sprintf("texture %d", i)); err != nil {
			return err
		}
		f.Textures = append(f.Textures, FTSTextureContainer{
			ID:   rec.ID,
			Temp: rec.Temp,
			Path: encoding.FixedString(rec.Path[:]),
		})
	}
	return nil
}

func parseFTSCells(r *bytes.Reader, f *FTS, sh ftsSceneHeaderRecord) error {
	if sh.SizeX < 0 || sh.SizeZ < 0 || int64(sh.SizeX)*int64(sh.SizeZ)*8 > int64(r.Len()) {
		return fmt.Errorf("%w: scene size %dx%d", ErrInvalidFTSData, sh.SizeX, sh.SizeZ)
	}

	total := 0
	f.Cells = make([][]FTSCell, sh.SizeZ)
	for z := range f.Cells {
		f.Cells[z] = make([]FTSCell, sh.SizeX)
		for x := range f.Cells[z] {
			var rec ftsCellRecord
			if err := readRecord(r, &rec, ErrTruncatedFTSData, "cell header"); err != nil {
				return err
			}
			if err := checkCount(rec.PolygonCount, r.Len(), ftsPolygonSize, ErrTruncatedFTSData, "cell polygons"); err != nil {
				return err
			}
			if err := checkCount(rec.AnchorCount, r.Len(), 4, ErrTruncatedFTSData, "cell anchors"); err != nil {
				return err
			}

			cell := &f.Cells[z][x]
			if rec.PolygonCount > 0 {
				cell.Polygons = make([]FTSPolygon, rec.PolygonCount)
				if err := readRecord(r, cell.Polygons, ErrTruncatedFTSData, "cell polygons"); err != nil {
					return err
				}
			}
			if rec.AnchorCount > 0 {
				cell.Anchors = make([]int32, rec.AnchorCount)
				if err := readRecord(r, cell.Anchors, ErrTruncatedFTSData, "cell anchors"); err != nil {
					return err
				}
			}
			total += len(cell.Polygons)
		}
	}

	if int32(total) != sh.PolygonCount {
		return fmt.Errorf("%w: cells hold %d polygons, header says %d", ErrInvalidFTSData, total, sh.PolygonCount)
	}
	return nil
}

func parseFTSAnchors(r *bytes.Reader, f *FTS, count int32) error {
	if err := checkCount(count, r.Len(), ftsAnchorSize, ErrTruncatedFTSData, "anchors"); err != nil {
		return err
	}
	f.Anchors = make([]FTSAnchor, 0, count)
	for i := int32(0); i < count; i++ {
		var rec ftsAnchorRecord
		if err := readRecord(r, &rec, ErrTruncatedFTSData, fmt.Sprintf("anchor %d", i)); err != nil {
			return err
		}
		a := FTSAnchor{
			Position: rec.Position,
			Radius:   rec.Radius,
			Height:   rec.Height,
			Flags:    rec.Flags,
		}
		if rec.LinkedCount < 0 {
			return fmt.Errorf("%w: anchor %d has %d links", ErrInvalidFTSData, i, rec.LinkedCount)
		}
		if rec.LinkedCount > 0 {
			a.Linked = make([]int32, rec.LinkedCount)
			if err := readRecord(r, a.Linked, ErrTruncatedFTSData, fmt.Sprintf("anchor %d links", i)); err != nil {
				return err
			}
		}
		f.Anchors = append(f.Anchors, a)
	}
	return nil
}

func parseFTSRooms(r *bytes.Reader, f *FTS, count int32) error {
	if err := checkCount(count, r.Len(), ftsRoomSize, ErrTruncatedFTSData, "rooms"); err != nil {
		return err
	}
	f.Rooms = make([]FTSRoom, 0, count)
	for i := int32(0); i < count; i++ {
		var rec ftsRoomRecord
		if err := readRecord(r, &rec, ErrTruncatedFTSData, fmt.Sprintf("room %d", i)); err != nil {
			return err
		}
		if err := checkCount(rec.PortalCount, r.Len(), 4, ErrTruncatedFTSData, "room portals"); err != nil {
			return err
		}
		if err := checkCount(rec.PolygonCount, r.Len(), ftsRoomPolygonSize, ErrTruncatedFTSData, "room polygons"); err != nil {
			return err
		}
		room := FTSRoom{
			Portals:  make([]int32, rec.PortalCount),
			Polygons: make([]FTSRoomPolygon, rec.PolygonCount),
		}
		if err := readRecord(r, room.Portals, ErrTruncatedFTSData, fmt.Sprintf("room %d portals", i)); err != nil {
			return err
		}
		if err := readRecord(r, room.Polygons, ErrTruncatedFTSData, fmt.Sprintf("room %d polygons", i)); err != nil {
			return err
		}
		f.Rooms = append(f.Rooms, room)
	}
	return nil
}

// ParseFTSFile reads an FTS file from disk, exploding it when needed.
func ParseFTSFile(path string) (*FTS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FTS file: %w", err)
	}
	raw, err := Unpack(KindFTS, data)
	if err != nil {
		return nil, fmt.Errorf("unpacking FTS file: %w", err)
	}
	return ParseFTS(raw)
}
