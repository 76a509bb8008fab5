package geom

import "github.com/Faultbox/arx-levelgen/pkg/math"

// LightFlags is the light "extras" bitfield.
type LightFlags uint32

const (
	LightSemiDynamic       LightFlags = 1 << 0
	LightExtinguishable    LightFlags = 1 << 1
	LightStartExtinguished LightFlags = 1 << 2
	LightSpawnFire         LightFlags = 1 << 3
	LightSpawnSmoke        LightFlags = 1 << 4
	LightOff               LightFlags = 1 << 5
	LightColorLegacy       LightFlags = 1 << 6
	LightNoCasted          LightFlags = 1 << 7
	LightFixFlareSize      LightFlags = 1 << 8
	LightFireplace         LightFlags = 1 << 9
	LightNoIgnite          LightFlags = 1 << 10
	LightFlare             LightFlags = 1 << 11
)

// Has reports whether all bits of flag are set.
func (f LightFlags) Has(flag LightFlags) bool {
	return f&flag == flag
}

// Light is a point light. Semi-dynamic lights are left out of the vertex
// lighting bake; the engine lights them at runtime.
type Light struct {
	Position  math.Vec3
	Color     Color
	Flags     LightFlags
	FallStart float32
	FallEnd   float32
	Intensity float32

	// Runtime effect parameters, passed through to the lighting file.
	Flicker   Color
	Radius    float32
	Frequency float32
	Size      float32
	Speed     float32
	FlareSize float32
}

// NewLight creates a static light with the given falloff.
func NewLight(pos math.Vec3, color Color, fallStart, fallEnd, intensity float32) Light {
	return Light{
		Position:  pos,
		Color:     color,
		FallStart: fallStart,
		FallEnd:   fallEnd,
		Intensity: intensity,
	}
}

// Move translates the light.
func (l *Light) Move(offset math.Vec3) {
	l.Position = l.Position.Add(offset)
}
