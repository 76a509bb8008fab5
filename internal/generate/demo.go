// Package generate builds seeded demo levels: a noise-shaped floor with a
// few lights and one item, enough to exercise the whole export pipeline.
package generate

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/Faultbox/arx-levelgen/internal/config"
	"github.com/Faultbox/arx-levelgen/pkg/geom"
	"github.com/Faultbox/arx-levelgen/pkg/grid"
	"github.com/Faultbox/arx-levelgen/pkg/level"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// Asset paths used by the demo level.
const (
	FloorTexture = `graph\obj3d\textures\[stone]_human_ground_01.jpg`
	ItemSrc      = `graph\obj3d\interactive\items\provisions\food_bread\food_bread.teo`
)

const (
	heightAmplitude = 40   // max floor displacement
	lightHeight     = -250 // above the floor; Y grows downwards
	noiseFrequency  = 0.15
)

// Demo builds an unfinalized map of size x size floor cells centered in the
// grid. The same settings always produce the same map. Used textures and
// items are recorded in reg.
func Demo(cfg config.GenerationConfig, reg *level.Registry) *level.Map {
	size := cfg.Size
	if size < 1 {
		size = 1
	}
	if size > grid.Size {
		size = grid.Size
	}

	noise := opensimplex.NewNormalized(cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := level.New()
	margin := float32((grid.Size-size)/2) * grid.CellSize
	m.Config.Offset = math.Vec3{X: margin, Z: margin}

	heights := make([][]float32, size+1)
	for i := range heights {
		heights[i] = make([]float32, size+1)
		for j := range heights[i] {
			n := octaveNoise(noise, float64(i), float64(j), 3, noiseFrequency, 0.5)
			heights[i][j] = float32((n - 0.5) * 2 * heightAmplitude)
		}
	}

	texture := reg.Texture(FloorTexture)
	corner := func(i, j int) geom.Vertex {
		return geom.NewVertex(float32(i*grid.CellSize), heights[i][j], float32(j*grid.CellSize), float32(i), float32(j))
	}
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			quad := geom.NewQuad(corner(i, j), corner(i+1, j), corner(i, j+1), corner(i+1, j+1))
			quad.TextureIndex = texture
			quad.Room = 1
			m.Polygons = append(m.Polygons, quad)
		}
	}
	m.Textures = reg.Containers()

	extent := float32(size * grid.CellSize)
	for n := 0; n < cfg.Lights; n++ {
		pos := math.Vec3{X: rng.Float32() * extent, Y: lightHeight, Z: rng.Float32() * extent}
		warm := geom.Color{R: 255, G: 200 + 55*rng.Float32(), B: 150 + 60*rng.Float32(), A: 1}
		m.Lights = append(m.Lights, geom.NewLight(pos, warm, 100, 400+400*rng.Float32(), 1))
	}

	center := size / 2
	spawn := math.Vec3{
		X: float32(center*grid.CellSize) + grid.CellSize/2,
		Y: heights[center][center],
		Z: float32(center*grid.CellSize) + grid.CellSize/2,
	}
	m.Player.Position = spawn

	reg.Item(ItemSrc)
	m.Entities = append(m.Entities, geom.Entity{
		Src:      ItemSrc,
		ID:       1,
		Position: spawn.Add(math.Vec3{X: grid.CellSize / 2}),
	})
	return m
}

// octaveNoise layers frequencies of noise, normalized to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
