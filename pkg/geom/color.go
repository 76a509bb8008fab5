// Package geom holds the level primitives: vertices, polygons, lights,
// portals and placed objects.
package geom

import "math"

// Color is an RGBA color. R, G and B are on the 0-255 scale and may leave it
// while lighting is accumulated; A is on the 0-1 scale.
type Color struct {
	R, G, B float32
	A       float32
}

var (
	White = Color{255, 255, 255, 1}
	Black = Color{0, 0, 0, 1}
)

// Gray returns an opaque gray at the given fraction of full white.
func Gray(fraction float32) Color {
	v := 255 * fraction
	return Color{v, v, v, 1}
}

// Add returns c + other on the RGB channels, keeping c's alpha.
func (c Color) Add(other Color) Color {
	return Color{c.R + other.R, c.G + other.G, c.B + other.B, c.A}
}

// Scale multiplies the RGB channels by s, keeping alpha.
func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A}
}

// Lerp interpolates all four channels.
func (c Color) Lerp(other Color, t float32) Color {
	return Color{
		c.R + (other.R-c.R)*t,
		c.G + (other.G-c.G)*t,
		c.B + (other.B-c.B)*t,
		c.A + (other.A-c.A)*t,
	}
}

// BGRA packs the color the way the lighting file stores it. Channels are
// clamped here, not during accumulation.
func (c Color) BGRA() uint32 {
	r := clampByte(c.R)
	g := clampByte(c.G)
	b := clampByte(c.B)
	a := clampByte(c.A * 255)
	return a<<24 | r<<16 | g<<8 | b
}

// ColorFromBGRA unpacks a lighting-file color.
func ColorFromBGRA(v uint32) Color {
	return Color{
		R: float32((v >> 16) & 0xFF),
		G: float32((v >> 8) & 0xFF),
		B: float32(v & 0xFF),
		A: float32((v>>24)&0xFF) / 255,
	}
}

// RGB returns the color as 0-1 floats, the light record layout.
func (c Color) RGB() [3]float32 {
	return [3]float32{c.R / 255, c.G / 255, c.B / 255}
}

// ColorFromRGB converts 0-1 floats to an opaque Color.
func ColorFromRGB(rgb [3]float32) Color {
	return Color{rgb[0] * 255, rgb[1] * 255, rgb[2] * 255, 1}
}

func clampByte(v float32) uint32 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint32(math.Round(float64(v)))
}
