package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/arx-levelgen/pkg/encoding"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// DLF format errors.
var (
	ErrInvalidDLFIdent       = errors.New("invalid DLF ident: expected 'DANAE_FILE'")
	ErrUnsupportedDLFVersion = errors.New("unsupported DLF version")
	ErrTruncatedDLFData      = errors.New("truncated DLF data")
)

// DLFVersion is the version written by the engine's editor.
const DLFVersion float32 = 1.44

const (
	dlfIdent          = "DANAE_FILE"
	dlfHeaderSize     = 8520
	dlfSceneSize      = 640
	dlfInterSize      = 664
	dlfFogSize        = 592
	dlfPathSize       = 608
	dlfPathPointSize  = 68
	dlfMinimumVersion = 1.0
)

// DLFHeader describes the level as seen by the editor.
type DLFHeader struct {
	Version             float32
	LastUser            string
	Time                int32
	PositionEdit        math.Vec3 // player spawn
	AngleEdit           math.Rotation
	BackgroundPolyCount int32
	Offset              math.Vec3 // map offset
}

// DLFInteractiveObject places an entity.
type DLFInteractiveObject struct {
	Name       string // item path, e.g. graph\obj3d\interactive\items\...\x.teo
	Position   math.Vec3
	Angle      math.Rotation
	Identifier int32
	Flags      int32
}

// DLFFog is a fog volume.
type DLFFog struct {
	Position    math.Vec3
	Color       [3]float32
	Size        float32
	Special     int32
	Scale       float32
	Move        math.Vec3
	Angle       math.Rotation
	Speed       float32
	RotateSpeed float32
	ToLive      int32
	Blend       int32
	Frequency   float32
}

// DLFPathPoint is a point of a path, relative to the path position.
type DLFPathPoint struct {
	Position math.Vec3
	Type     int32
	Time     uint32
}

// DLFPath is a path or, when Height is not zero, an ambience zone.
type DLFPath struct {
	Name              string
	Index             int16
	Flags             int16
	InitialPosition   math.Vec3
	Position          math.Vec3
	Color             [3]float32
	FarClip           float32
	Reverb            float32
	AmbienceMaxVolume float32
	Height            int32
	Ambience          string
	Points            []DLFPathPoint
}

// DLF represents a parsed entity file.
type DLF struct {
	Header             DLFHeader
	Scenes             []string // scene names, usually one per level
	InteractiveObjects []DLFInteractiveObject
	Fogs               []DLFFog
	Paths              []DLFPath
}

type dlfHeaderRecord struct {
	Version        float32
	Ident          [16]byte
	LastUser       [256]byte
	Time           int32
	PositionEdit   math.Vec3
	AngleEdit      math.Rotation
	SceneCount     int32
	InterCount     int32
	NodeCount      int32
	NodeLinkCount  int32
	ZoneCount      int32
	Lighting       int32
	_              [256]int32
	LightCount     int32
	FogCount       int32
	BkgPolyCount   int32
	IgnoredPolys   int32
	ChildPolyCount int32
	PathCount      int32
	_              [250]int32
	Offset         math.Vec3
	_              [253]float32
	_              [4096]byte
	_              [256]int32
}

type dlfSceneRecord struct {
	Name [512]byte
	_    [16]int32
	_    [16]float32
}

type dlfInterRecord struct {
	Name       [512]byte
	Position   math.Vec3
	Angle      math.Rotation
	Identifier int32
	Flags      int32
	_          [14]int32
	_          [16]float32
}

type dlfFogRecord struct {
	DLFFog
	_ [32]int32
	_ [32]float32
	_ [256]byte
}

type dlfPathRecord struct {
	Name              [64]byte
	Index             int16
	Flags             int16
	InitialPosition   math.Vec3
	Position          math.Vec3
	PointCount        int32
	Color             [3]float32
	FarClip           float32
	Reverb            float32
	AmbienceMaxVolume float32
	_                 [26]float32
	Height            int32
	_                 [31]int32
	Ambience          [128]byte
	_                 [128]byte
}

type dlfPathPointRecord struct {
	DLFPathPoint
	_ [2]float32
	_ [2]int32
	_ [32]byte
}

// fixed fills a null-padded string field.
func fixed(dst []byte, s string) {
	copy(dst, encoding.ToFixedString(s, len(dst)))
}

// MarshalDLF serializes the file without compression.
func MarshalDLF(d *DLF) ([]byte, error) {
	h := dlfHeaderRecord{
		Version:      d.Header.Version,
		Time:         d.Header.Time,
		PositionEdit: d.Header.PositionEdit,
		AngleEdit:    d.Header.AngleEdit,
		SceneCount:   int32(len(d.Scenes)),
		InterCount:   int32(len(d.InteractiveObjects)),
		FogCount:     int32(len(d.Fogs)),
		BkgPolyCount: d.Header.BackgroundPolyCount,
		PathCount:    int32(len(d.Paths)),
		Offset:       d.Header.Offset,
	}
	fixed(h.Ident[:], dlfIdent)
	fixed(h.LastUser[:], d.Header.LastUser)

	w := newRecordWriter(dlfHeaderSize + len(d.Scenes)*dlfSceneSize + len(d.InteractiveObjects)*dlfInterSize)
	w.write(&h)

	for _, name := range d.Scenes {
		var rec dlfSceneRecord
		fixed(rec.Name[:], name)
		w.write(&rec)
	}

	for _, obj := range d.InteractiveObjects {
		rec := dlfInterRecord{
			Position:   obj.Position,
			Angle:      obj.Angle,
			Identifier: obj.Identifier,
			Flags:      obj.Flags,
		}
		fixed(rec.Name[:], obj.Name)
		w.write(&rec)
	}

	for _, fog := range d.Fogs {
		w.write(&dlfFogRecord{DLFFog: fog})
	}

	for _, p := range d.Paths {
		rec := dlfPathRecord{
			Index:             p.Index,
			Flags:             p.Flags,
			InitialPosition:   p.InitialPosition,
			Position:          p.Position,
			PointCount:        int32(len(p.Points)),
			Color:             p.Color,
			FarClip:           p.FarClip,
			Reverb:            p.Reverb,
			AmbienceMaxVolume: p.AmbienceMaxVolume,
			Height:            p.Height,
		}
		fixed(rec.Name[:], p.Name)
		fixed(rec.Ambience[:], p.Ambience)
		w.write(&rec)
		for _, pt := range p.Points {
			w.write(&dlfPathPointRecord{DLFPathPoint: pt})
		}
	}

	return w.bytes()
}

// ParseDLF parses an uncompressed DLF file.
func ParseDLF(data []byte) (*DLF, error) {
	if len(data) < dlfHeaderSize {
		return nil, ErrTruncatedDLFData
	}

	r := bytes.NewReader(data)
	var h dlfHeaderRecord
	if err := readRecord(r, &h, ErrTruncatedDLFData, "header"); err != nil {
		return nil, err
	}
	if encoding.FixedString(h.Ident[:]) != dlfIdent {
		return nil, ErrInvalidDLFIdent
	}
	if h.Version < dlfMinimumVersion || h.Version > DLFVersion {
		return nil, fmt.Errorf("%w: %.2f", ErrUnsupportedDLFVersion, h.Version)
	}

	d := &DLF{
		Header: DLFHeader{
			Version:             h.Version,
			LastUser:            encoding.FixedString(h.LastUser[:]),
			Time:                h.Time,
			PositionEdit:        h.PositionEdit,
			AngleEdit:           h.AngleEdit,
			BackgroundPolyCount: h.BkgPolyCount,
			Offset:              h.Offset,
		},
	}

	if err := checkCount(h.SceneCount, r.Len(), dlfSceneSize, ErrTruncatedDLFData, "scenes"); err != nil {
		return nil, err
	}
	d.Scenes = make([]string, 0, h.SceneCount)
	for i := int32(0); i < h.SceneCount; i++ {
		var rec dlfSceneRecord
		if err := readRecord(r, &rec, ErrTruncatedDLFData, fmt.Sprintf("scene %d", i)); err != nil {
			return nil, err
		}
		d.Scenes = append(d.Scenes, encoding.FixedString(rec.Name[:]))
	}

	if err := checkCount(h.InterCount, r.Len(), dlfInterSize, ErrTruncatedDLFData, "interactive objects"); err != nil {
		return nil, err
	}
	d.InteractiveObjects = make([]DLFInteractiveObject, 0, h.InterCount)
	for i := int32(0); i < h.InterCount; i++ {
		var rec dlfInterRecord
		if err := readRecord(r, &rec, ErrTruncatedDLFData, fmt.Sprintf("interactive object %d", i)); err != nil {
			return nil, err
		}
		d.InteractiveObjects = append(d.InteractiveObjects, DLFInteractiveObject{
			Name:       encoding.FixedString(rec.Name[:]),
			Position:   rec.Position,
			Angle:      rec.Angle,
			Identifier: rec.Identifier,
			Flags:      rec.Flags,
		})
	}

	if err := checkCount(h.FogCount, r.Len(), dlfFogSize, ErrTruncatedDLFData, "fogs"); err != nil {
		return nil, err
	}
	d.Fogs = make([]DLFFog, 0, h.FogCount)
	for i := int32(0); i < h.FogCount; i++ {
		var rec dlfFogRecord
		if err := readRecord(r, &rec, ErrTruncatedDLFData, fmt.Sprintf("fog %d", i)); err != nil {
			return nil, err
		}
		d.Fogs = append(d.Fogs, rec.DLFFog)
	}

	if err := checkCount(h.PathCount, r.Len(), dlfPathSize, ErrTruncatedDLFData, "paths"); err != nil {
		return nil, err
	}
	d.Paths = make([]DLFPath, 0, h.PathCount)
	for i := int32(0); i < h.PathCount; i++ {
		p, err := parseDLFPath(r, i)
		if err != nil {
			return nil, err
		}
		d.Paths = append(d.Paths, p)
	}

	return d, nil
}

func parseDLFPath(r *bytes.Reader, i int32) (DLFPath, error) {
	var rec dlfPathRecord
	if err := readRecord(r, &rec, ErrTruncatedDLFData, fmt.Sprintf("path %d", i)); err != nil {
		return DLFPath{}, err
	}
	p := DLFPath{
		Name:              encoding.FixedString(rec.Name[:]),
		Index:             rec.Index,
		Flags:             rec.Flags,
		InitialPosition:   rec.InitialPosition,
		Position:          rec.Position,
		Color:             rec.Color,
		FarClip:           rec.FarClip,
		Reverb:            rec.Reverb,
		AmbienceMaxVolume: rec.AmbienceMaxVolume,
		Height:            rec.Height,
		Ambience:          encoding.FixedString(rec.Ambience[:]),
	}
	if err := checkCount(rec.PointCount, r.Len(), dlfPathPointSize, ErrTruncatedDLFData, "path points"); err != nil {
		return DLFPath{}, err
	}
	p.Points = make([]DLFPathPoint, 0, rec.PointCount)
	for j := int32(0); j < rec.PointCount; j++ {
		var pt dlfPathPointRecord
		if err := readRecord(r, &pt, ErrTruncatedDLFData, fmt.Sprintf("path %d point %d", i, j)); err != nil {
			return DLFPath{}, err
		}
		p.Points = append(p.Points, pt.DLFPathPoint)
	}
	return p, nil
}

// ParseDLFFile reads a DLF file from disk, exploding it first.
func ParseDLFFile(path string) (*DLF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading DLF file: %w", err)
	}
	raw, err := Unpack(KindDLF, data)
	if err != nil {
		return nil, fmt.Errorf("unpacking DLF file: %w", err)
	}
	return ParseDLF(raw)
}
