package geom

import (
	"fmt"
	"strings"
)

// PolyType is the polygon flag bitfield stored in the geometry file.
type PolyType uint32

const (
	PolyNoShadow    PolyType = 1 << 0
	PolyDoubleSided PolyType = 1 << 1
	PolyTrans       PolyType = 1 << 2
	PolyWater       PolyType = 1 << 3
	PolyGlow        PolyType = 1 << 4
	PolyIgnore      PolyType = 1 << 5
	PolyQuad        PolyType = 1 << 6
	PolyTiled       PolyType = 1 << 7
	PolyMetal       PolyType = 1 << 8
	PolyHide        PolyType = 1 << 9
	PolyStone       PolyType = 1 << 10
	PolyWood        PolyType = 1 << 11
	PolyGravel      PolyType = 1 << 12
	PolyEarth       PolyType = 1 << 13
	PolyNoCollision PolyType = 1 << 14
	PolyLava        PolyType = 1 << 15
	PolyClimbable   PolyType = 1 << 16
	PolyFall        PolyType = 1 << 17
	PolyNoPath      PolyType = 1 << 18
	PolyNoDraw      PolyType = 1 << 19
	PolyPrecisePath PolyType = 1 << 20
	PolyNoClimb     PolyType = 1 << 21
	PolyAngular     PolyType = 1 << 22
)

var polyTypeNames = []struct {
	flag PolyType
	name string
}{
	{PolyNoShadow, "no_shadow"},
	{PolyDoubleSided, "double_sided"},
	{PolyTrans, "trans"},
	{PolyWater, "water"},
	{PolyGlow, "glow"},
	{PolyIgnore, "ignore"},
	{PolyQuad, "quad"},
	{PolyTiled, "tiled"},
	{PolyMetal, "metal"},
	{PolyHide, "hide"},
	{PolyStone, "stone"},
	{PolyWood, "wood"},
	{PolyGravel, "gravel"},
	{PolyEarth, "earth"},
	{PolyNoCollision, "no_collision"},
	{PolyLava, "lava"},
	{PolyClimbable, "climbable"},
	{PolyFall, "fall"},
	{PolyNoPath, "no_path"},
	{PolyNoDraw, "no_draw"},
	{PolyPrecisePath, "precise_path"},
	{PolyNoClimb, "no_climb"},
	{PolyAngular, "angular"},
}

// Has reports whether all bits of flag are set.
func (t PolyType) Has(flag PolyType) bool {
	return t&flag == flag
}

// String returns the set flags joined by "|".
func (t PolyType) String() string {
	if t == 0 {
		return "none"
	}
	var parts []string
	rest := t
	for _, n := range polyTypeNames {
		if t&n.flag != 0 {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}
