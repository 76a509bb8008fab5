package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/arx-levelgen/pkg/encoding"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// LLF format errors.
var (
	ErrInvalidLLFIdent       = errors.New("invalid LLF ident: expected 'DANAE_LLH_FILE'")
	ErrUnsupportedLLFVersion = errors.New("unsupported LLF version")
	ErrTruncatedLLFData      = errors.New("truncated LLF data")
)

// LLFVersion is the lighting format version.
const LLFVersion float32 = 1.44

const (
	llfIdent               = "DANAE_LLH_FILE"
	llfHeaderSize          = 7464
	llfLightSize           = 296
	llfLightingHeaderSize  = 16
	llfMinimumVersion      = 1.0
	llfDefaultViewMode     = 0x20 // vertex colors
	llfDefaultLightingMode = 0x40
)

// LLFHeader describes the lighting file.
type LLFHeader struct {
	Version             float32
	LastUser            string
	Time                int32
	ShadowPolyCount     int32
	IgnoredPolyCount    int32
	BackgroundPolyCount int32
}

// LLFLight is a static light as stored on disk. Colors are 0-1 floats.
type LLFLight struct {
	Position    math.Vec3
	Color       [3]float32
	FallStart   float32
	FallEnd     float32
	Intensity   float32
	I           float32
	ExFlicker   [3]float32
	ExRadius    float32
	ExFrequency float32
	ExSize      float32
	ExSpeed     float32
	ExFlareSize float32
	_           [24]float32
	Extras      int32 // light flags
	_           [31]int32
}

// LLFLightingHeader holds the render mode of the baked colors.
type LLFLightingHeader struct {
	ViewMode  int32
	ModeLight int32
}

// LLF represents a parsed lighting file.
type LLF struct {
	Header         LLFHeader
	Lights         []LLFLight
	LightingHeader LLFLightingHeader
	Colors         []uint32 // BGRA, one per polygon vertex in geometry order
}

// DefaultLLFLightingHeader returns the lighting header the engine expects
// for baked vertex colors.
func DefaultLLFLightingHeader() LLFLightingHeader {
	return LLFLightingHeader{ViewMode: llfDefaultViewMode, ModeLight: llfDefaultLightingMode}
}

type llfHeaderRecord struct {
	Version          float32
	Ident            [16]byte
	LastUser         [256]byte
	Time             int32
	LightCount       int32
	ShadowPolyCount  int32
	IgnoredPolyCount int32
	BkgPolyCount     int32
	_                [256]int32
	_                [256]float32
	_                [4096]byte
	_                [256]int32
}

type llfLightingHeaderRecord struct {
	ValueCount int32
	LLFLightingHeader
	_ int32
}

// MarshalLLF serializes the file without compression.
func MarshalLLF(l *LLF) ([]byte, error) {
	h := llfHeaderRecord{
		Version:          l.Header.Version,
		Time:             l.Header.Time,
		LightCount:       int32(len(l.Lights)),
		ShadowPolyCount:  l.Header.ShadowPolyCount,
		IgnoredPolyCount: l.Header.IgnoredPolyCount,
		BkgPolyCount:     l.Header.BackgroundPolyCount,
	}
	fixed(h.Ident[:], llfIdent)
	fixed(h.LastUser[:], l.Header.LastUser)

	w := newRecordWriter(llfHeaderSize + len(l.Lights)*llfLightSize + llfLightingHeaderSize + len(l.Colors)*4)
	w.write(&h)
	w.write(l.Lights)
	w.write(&llfLightingHeaderRecord{
		ValueCount:        int32(len(l.Colors)),
		LLFLightingHeader: l.LightingHeader,
	})
	w.write(l.Colors)
	return w.bytes()
}

// ParseLLF parses an uncompressed LLF file.
func ParseLLF(data []byte) (*LLF, error) {
	if len(data) < llfHeaderSize {
		return nil, ErrTruncatedLLFData
	}

	r := bytes.NewReader(data)
	var h llfHeaderRecord
	if err := readRecord(r, &h, ErrTruncatedLLFData, "header"); err != nil {
		return nil, err
	}
	if encoding.FixedString(h.Ident[:]) != llfIdent {
		return nil, ErrInvalidLLFIdent
	}
	if h.Version < llfMinimumVersion || h.Version > LLFVersion {
		return nil, fmt.Errorf("%w: %.2f", ErrUnsupportedLLFVersion, h.Version)
	}

	l := &LLF{
		Header: LLFHeader{
			Version:             h.Version,
			LastUser:            encoding.FixedString(h.LastUser[:]),
			Time:                h.Time,
			ShadowPolyCount:     h.ShadowPolyCount,
			IgnoredPolyCount:    h.IgnoredPolyCount,
			BackgroundPolyCount: h.BkgPolyCount,
		},
	}

	if err := checkCount(h.LightCount, r.Len(), llfLightSize, ErrTruncatedLLFData, "lights"); err != nil {
		return nil, err
	}
	l.Lights = make([]LLFLight, h.LightCount)
	if err := readRecord(r, l.Lights, ErrTruncatedLLFData, "lights"); err != nil {
		return nil, err
	}

	var lh llfLightingHeaderRecord
	if err := readRecord(r, &lh, ErrTruncatedLLFData, "lighting header"); err != nil {
		return nil, err
	}
	l.LightingHeader = lh.LLFLightingHeader

	if err := checkCount(lh.ValueCount, r.Len(), 4, ErrTruncatedLLFData, "colors"); err != nil {
		return nil, err
	}
	l.Colors = make([]uint32, lh.ValueCount)
	if err := readRecord(r, l.Colors, ErrTruncatedLLFData, "colors"); err != nil {
		return nil, err
	}

	return l, nil
}

// ParseLLFFile reads an LLF file from disk, exploding it first.
func ParseLLFFile(path string) (*LLF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading LLF file: %w", err)
	}
	raw, err := Unpack(KindLLF, data)
	if err != nil {
		return nil, fmt.Errorf("unpacking LLF file: %w", err)
	}
	return ParseLLF(raw)
}
