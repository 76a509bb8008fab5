package geom

import "github.com/Faultbox/arx-levelgen/pkg/math"

// Entity is a placed interactive object.
type Entity struct {
	Src         string // engine path of the object, e.g. graph\obj3d\interactive\items\...\x.teo
	ID          int32
	Position    math.Vec3
	Orientation math.Rotation
	Flags       int32
}

// Move translates the entity.
func (e *Entity) Move(offset math.Vec3) {
	e.Position = e.Position.Add(offset)
}

// Fog is a volumetric fog emitter.
type Fog struct {
	Position    math.Vec3
	Color       Color
	Size        float32
	Special     int32
	Scale       float32
	Direction   math.Vec3
	Orientation math.Rotation
	Speed       float32
	RotateSpeed float32
	ToLive      int32
	Blend       int32
	Frequency   float32
}

// Move translates the fog.
func (f *Fog) Move(offset math.Vec3) {
	f.Position = f.Position.Add(offset)
}

// PathPoint is a point of a path or zone outline, relative to the owning
// path's position.
type PathPoint struct {
	Position math.Vec3
	Type     int32
	Time     uint32
}

// Path is either an entity path or an ambience zone; zones carry ambience and
// fog settings.
type Path struct {
	Name              string
	Flags             int16
	Position          math.Vec3
	Color             Color
	FarClip           float32
	Reverb            float32
	AmbienceMaxVolume float32
	Height            int32 // 0 for plain paths, zone height otherwise
	Ambience          string
	Points            []PathPoint
}

// Move translates the path. Points are relative and stay untouched.
func (p *Path) Move(offset math.Vec3) {
	p.Position = p.Position.Add(offset)
}

// Anchor is a pathfinding node. The finalization pipeline never changes
// anchors; they pass through the geometry file as is.
type Anchor struct {
	Position math.Vec3
	Radius   float32
	Height   float32
	Flags    int16
	Linked   []int32
}

// Move translates the anchor.
func (a *Anchor) Move(offset math.Vec3) {
	a.Position = a.Position.Add(offset)
}
