// Package lighting bakes static point lights into polygon vertex colors.
package lighting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/arx-levelgen/pkg/geom"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// ErrNotImplemented is returned for lighting modes with no algorithm.
var ErrNotImplemented = errors.New("lighting mode not implemented")

// GlobalLightFactor scales every light, matching the engine's own lighting
// code.
const GlobalLightFactor = 0.85

// AmbientFraction is the share of full white every vertex starts with.
const AmbientFraction = 0.035

// Mode selects how vertex colors are computed.
type Mode int

const (
	// Arx accumulates point lights with linear falloff and Lambert
	// attenuation, the way the engine's editor does.
	Arx Mode = iota
	// MaxBrightness paints every vertex white.
	MaxBrightness
	// CompleteDarkness paints every vertex black.
	CompleteDarkness
	// Realistic is reserved; Bake rejects it.
	Realistic
)

// String returns the mode name used in configuration.
func (m Mode) String() string {
	switch m {
	case Arx:
		return "arx"
	case MaxBrightness:
		return "max_brightness"
	case CompleteDarkness:
		return "complete_darkness"
	case Realistic:
		return "realistic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "arx":
		return Arx, nil
	case "max_brightness", "maxbrightness":
		return MaxBrightness, nil
	case "complete_darkness", "completedarkness":
		return CompleteDarkness, nil
	case "realistic":
		return Realistic, nil
	default:
		return Arx, fmt.Errorf("unknown lighting mode %q", s)
	}
}

// Bake sets the color of every used vertex of polygons. Vertices and lights
// are both stored relative to the map offset; they are compared in exported
// space (position + offset).
func Bake(polygons []*geom.Polygon, lights []geom.Light, offset math.Vec3, mode Mode) error {
	switch mode {
	case MaxBrightness:
		fill(polygons, geom.White)
	case CompleteDarkness:
		fill(polygons, geom.Black)
	case Arx:
		bakeArx(polygons, lights, offset)
	case Realistic:
		return fmt.Errorf("%w: %s", ErrNotImplemented, mode)
	default:
		return fmt.Errorf("unknown lighting mode %d", int(mode))
	}
	return nil
}

func fill(polygons []*geom.Polygon, c geom.Color) {
	for _, p := range polygons {
		for i := 0; i < p.VertexCount(); i++ {
			p.Vertices[i].Color = c
		}
	}
}

func bakeArx(polygons []*geom.Polygon, lights []geom.Light, offset math.Vec3) {
	static := make([]geom.Light, 0, len(lights))
	for _, l := range lights {
		if l.Flags.Has(geom.LightSemiDynamic) {
			continue
		}
		l.Position = l.Position.Add(offset)
		static = append(static, l)
	}

	ambient := geom.Gray(AmbientFraction)
	for _, p := range polygons {
		for i := 0; i < p.VertexCount(); i++ {
			pos := p.Vertices[i].Position.Add(offset)
			normal := p.VertexNormal(i)
			color := ambient
			for _, l := range static {
				color = color.Add(Contribution(l, pos, normal))
			}
			p.Vertices[i].Color = color
		}
	}
}

// Contribution returns what a light adds to a vertex at pos with the given
// normal. It is zero when the vertex is at or past the light's fall end or
// faces away from the light.
func Contribution(l geom.Light, pos, normal math.Vec3) geom.Color {
	toLight := l.Position.Sub(pos)
	distance := toLight.Length()
	if distance >= l.FallEnd {
		return geom.Color{}
	}

	cosAngle := normal.Dot(toLight.Normalize())
	if cosAngle <= 0 {
		return geom.Color{}
	}

	multiplier := l.Intensity * GlobalLightFactor
	if distance > l.FallStart {
		multiplier *= (l.FallEnd - distance) / (l.FallEnd - l.FallStart)
	}
	if multiplier < 0 {
		multiplier = 0
	}

	return l.Color.Scale(cosAngle * multiplier)
}
