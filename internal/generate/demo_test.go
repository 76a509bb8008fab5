package generate

import (
	"testing"

	"github.com/Faultbox/arx-levelgen/internal/config"
	"github.com/Faultbox/arx-levelgen/pkg/grid"
	"github.com/Faultbox/arx-levelgen/pkg/level"
)

func TestDemo_Deterministic(t *testing.T) {
	cfg := config.GenerationConfig{Seed: 7, Size: 4, Lights: 3}

	a := Demo(cfg, level.NewRegistry())
	b := Demo(cfg, level.NewRegistry())

	if len(a.Polygons) != 16 {
		t.Fatalf("expected 16 floor quads, got %d", len(a.Polygons))
	}
	for i := range a.Polygons {
		if a.Polygons[i].Vertices != b.Polygons[i].Vertices {
			t.Fatalf("polygon %d differs between runs with the same seed", i)
		}
	}
	for i := range a.Lights {
		if a.Lights[i] != b.Lights[i] {
			t.Fatalf("light %d differs between runs with the same seed", i)
		}
	}
}

func TestDemo_Contents(t *testing.T) {
	reg := level.NewRegistry()
	m := Demo(config.GenerationConfig{Seed: 1, Size: 10, Lights: 5}, reg)

	if len(m.Lights) != 5 {
		t.Errorf("expected 5 lights, got %d", len(m.Lights))
	}
	if len(m.Entities) != 1 {
		t.Errorf("expected 1 entity, got %d", len(m.Entities))
	}
	if got := reg.Items(); len(got) != 1 {
		t.Errorf("expected 1 registered item, got %v", got)
	}
	if len(m.Textures) != 1 || m.Textures[0].ID != 1 {
		t.Errorf("expected one texture container with id 1, got %v", m.Textures)
	}
	for i, p := range m.Polygons {
		if p.TextureIndex != 1 || p.Room != 1 {
			t.Fatalf("polygon %d: expected texture 1 in room 1, got %d in %d", i, p.TextureIndex, p.Room)
		}
	}

	// 10 cells centered in the grid
	want := float32((grid.Size - 10) / 2 * grid.CellSize)
	if m.Config.Offset.X != want || m.Config.Offset.Z != want {
		t.Errorf("expected offset %v on X and Z, got %v", want, m.Config.Offset)
	}
}

func TestDemo_Finalizes(t *testing.T) {
	m := Demo(config.GenerationConfig{Seed: 3, Size: 6, Lights: 2}, level.NewRegistry())

	if err := m.Finalize(level.DefaultSettings()); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if len(m.Polygons) < 36 {
		t.Errorf("expected at least 36 polygons after finalize, got %d", len(m.Polygons))
	}
	if _, err := m.ToFTS(1); err != nil {
		t.Errorf("ToFTS failed: %v", err)
	}
}

func TestDemo_ClampsSize(t *testing.T) {
	m := Demo(config.GenerationConfig{Seed: 1, Size: 0}, level.NewRegistry())
	if len(m.Polygons) != 1 {
		t.Errorf("expected a single quad for size 0, got %d", len(m.Polygons))
	}
}
