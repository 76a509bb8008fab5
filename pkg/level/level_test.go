package level

import (
	"errors"
	stdmath "math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/arx-levelgen/pkg/geom"
	"github.com/Faultbox/arx-levelgen/pkg/lighting"
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// floorQuad creates an upward facing square floor polygon centered at
// (cx, y, cz).
func floorQuad(cx, y, cz, size float32, room int32) *geom.Polygon {
	h := size / 2
	p := geom.NewQuad(
		geom.NewVertex(cx-h, y, cz-h, 0, 0),
		geom.NewVertex(cx+h, y, cz-h, 1, 0),
		geom.NewVertex(cx-h, y, cz+h, 0, 1),
		geom.NewVertex(cx+h, y, cz+h, 1, 1),
	)
	p.Room = room
	p.TextureIndex = 1
	return p
}

// observed returns settings whose warnings are recorded.
func observed(s Settings) (Settings, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	s.Logger = zap.New(core)
	return s, logs
}

func TestNew(t *testing.T) {
	m := New()
	if len(m.Rooms) != 2 {
		t.Errorf("expected rooms 0 and 1, got %d rooms", len(m.Rooms))
	}
	if m.IsFinalized() {
		t.Error("new map should not be finalized")
	}
}

func TestFinalize_RemovesOutOfBounds(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{
		floorQuad(150, 0, 150, 100, 1),
		floorQuad(-50, 0, 150, 100, 1), // X below 0
		floorQuad(250, 0, 150, 100, 1),
		floorQuad(150, 0, 15990, 100, 1), // Z reaches past the extent
		floorQuad(15900, 0, 15900, 100, 1),
	}

	s, logs := observed(DefaultSettings())
	if err := m.Finalize(s); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if len(m.Polygons) != 3 {
		t.Errorf("expected 3 polygons, got %d", len(m.Polygons))
	}
	warnings := logs.FilterMessage("removed polygons outside of the map").All()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if got := warnings[0].ContextMap()["count"]; got != int64(2) {
		t.Errorf("expected count 2, got %v", got)
	}
}

func TestFinalize_OffsetAppliesToBounds(t *testing.T) {
	m := New()
	m.Config.Offset = math.Vec3{X: 6000, Z: 6000}
	m.Polygons = []*geom.Polygon{
		floorQuad(-50, 0, -50, 100, 1), // inside once the offset is applied
		floorQuad(-6050, 0, 0, 100, 1),
	}

	if err := m.Finalize(DefaultSettings()); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if len(m.Polygons) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(m.Polygons))
	}
	rp := m.Rooms[1].Polygons[0]
	if rp.CellX != 59 || rp.CellY != 59 {
		t.Errorf("expected cell 59,59, got %d,%d", rp.CellX, rp.CellY)
	}
}

func TestFinalize_Twice(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1)}

	if err := m.Finalize(DefaultSettings()); err != nil {
		t.Fatalf("first Finalize failed: %v", err)
	}
	if err := m.Finalize(DefaultSettings()); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized, got %v", err)
	}
}

func TestExportBeforeFinalize(t *testing.T) {
	m := New()
	if _, err := m.ToDLF(1); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("ToDLF: expected ErrNotFinalized, got %v", err)
	}
	if _, err := m.ToFTS(1); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("ToFTS: expected ErrNotFinalized, got %v", err)
	}
	if _, err := m.ToLLF(1); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("ToLLF: expected ErrNotFinalized, got %v", err)
	}
}

func TestFinalize_EmptyMap(t *testing.T) {
	m := New()
	m.Player.Position = math.Vec3{X: 500, Y: 0, Z: 500}

	s, logs := observed(DefaultSettings())
	if err := m.Finalize(s); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if len(m.Polygons) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(m.Polygons))
	}
	p := m.Polygons[0]
	if !p.IsQuad() {
		t.Error("expected a quad")
	}
	lo, hi := p.Bounds()
	if hi.X-lo.X != 100 || hi.Z-lo.Z != 100 {
		t.Errorf("expected 100x100 quad, got %vx%v", hi.X-lo.X, hi.Z-lo.Z)
	}
	if p.Normal != (math.Vec3{Y: -1}) {
		t.Errorf("expected upward normal, got %v", p.Normal)
	}
	if logs.FilterMessage("map has no polygons, added a floor under the player").Len() != 1 {
		t.Errorf("expected 1 empty map warning, got %v", logs.All())
	}
	if logs.FilterMessage("map is still empty after adding a floor").Len() != 0 {
		t.Errorf("unexpected still empty warning: %v", logs.All())
	}
	if m.Player.Position.Y != PlayerHeightAdjustment {
		t.Errorf("expected player Y %d, got %v", PlayerHeightAdjustment, m.Player.Position.Y)
	}
}

func TestFinalize_EmptyMapPlayerOutside(t *testing.T) {
	m := New()
	m.Player.Position = math.Vec3{X: -500, Y: 0, Z: -500}

	s, logs := observed(DefaultSettings())
	if err := m.Finalize(s); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if len(m.Polygons) != 0 {
		t.Errorf("expected the floor outside the map to be removed, got %d polygons", len(m.Polygons))
	}
	if !m.IsFinalized() {
		t.Error("expected map to be finalized")
	}
	still := logs.FilterMessage("map is still empty after adding a floor")
	if still.Len() != 1 {
		t.Fatalf("expected 1 still empty warning, got %v", logs.All())
	}
	if got := still.All()[0].ContextMap()["x"]; got != float32(-500) {
		t.Errorf("expected x -500 in the warning, got %v", got)
	}
}

func TestFinalize_PlayerHeightAdjustedOnce(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1)}
	m.Player.Position = math.Vec3{X: 150, Y: -20, Z: 150}
	m.Player.HeightAdjusted = true

	if err := m.Finalize(DefaultSettings()); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if m.Player.Position.Y != -20 {
		t.Errorf("expected unchanged player Y, got %v", m.Player.Position.Y)
	}
}

func TestFinalize_UnknownRoom(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{
		floorQuad(150, 0, 150, 100, 7),
		floorQuad(250, 0, 150, 100, 7),
		floorQuad(350, 0, 150, 100, 1),
		floorQuad(450, 0, 150, 100, 7),
	}

	s, logs := observed(DefaultSettings())
	if err := m.Finalize(s); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if len(m.Polygons) != 1 || m.Polygons[0].Room != 1 {
		t.Fatalf("expected only the room 1 polygon to remain, got %d polygons", len(m.Polygons))
	}
	warnings := logs.FilterMessage("removed polygons of rooms that do not exist").All()
	if len(warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d", len(warnings))
	}
	ctx := warnings[0].ContextMap()
	if ctx["count"] != int64(3) || ctx["runs"] != int64(2) {
		t.Errorf("unexpected warning fields: %v", ctx)
	}
}

func TestFinalize_Subdivides(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{floorQuad(400, 0, 400, 400, 1)}

	if err := m.Finalize(Settings{}); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if len(m.Polygons) != 16 {
		t.Fatalf("expected 16 polygons, got %d", len(m.Polygons))
	}
	var area float64
	for i, p := range m.Polygons {
		if !p.FitsIntoCell() {
			t.Errorf("polygon %d does not fit a cell", i)
		}
		if p.Room != 1 || p.TextureIndex != 1 {
			t.Errorf("polygon %d lost its attributes", i)
		}
		area += float64(p.Area)
	}
	if stdmath.Abs(area-160000) > 1 {
		t.Errorf("expected total area 160000, got %v", area)
	}
	if len(m.Rooms[1].Polygons) != 16 {
		t.Errorf("expected 16 room polygons, got %d", len(m.Rooms[1].Polygons))
	}
}

func TestFinalize_DropsFlatPolygons(t *testing.T) {
	m := New()
	flat := geom.NewTriangle(
		geom.NewVertex(100, 0, 100, 0, 0),
		geom.NewVertex(150, 0, 100, 0, 0),
		geom.NewVertex(200, 0, 100, 0, 0),
	)
	flat.Room = 1
	m.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1), flat}

	s, logs := observed(DefaultSettings())
	if err := m.Finalize(s); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if len(m.Polygons) != 1 {
		t.Errorf("expected 1 polygon, got %d", len(m.Polygons))
	}
	if logs.FilterMessage("removed flat polygons").Len() != 1 {
		t.Errorf("expected flat polygon warning, got %v", logs.All())
	}
}

func TestFinalize_Realistic(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1)}
	m.Lights = []geom.Light{geom.NewLight(math.Vec3{X: 150, Y: -200, Z: 150}, geom.White, 100, 1000, 1)}

	err := m.Finalize(Settings{CalculateLighting: true, LightingMode: lighting.Realistic})
	if !errors.Is(err, lighting.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if m.IsFinalized() {
		t.Error("map should not be finalized after a failed Finalize")
	}
}

func TestFinalize_BakesLighting(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1)}
	m.Lights = []geom.Light{geom.NewLight(math.Vec3{X: 150, Y: -200, Z: 150}, geom.White, 100, 1000, 1)}

	if err := m.Finalize(DefaultSettings()); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	ambient := geom.Gray(lighting.AmbientFraction)
	for i := 0; i < 4; i++ {
		if c := m.Polygons[0].Vertices[i].Color; c.R <= ambient.R {
			t.Errorf("vertex %d not lit: %v", i, c)
		}
	}
}

func TestCalculateRoomData_CellIndices(t *testing.T) {
	m := New()
	room := m.AddRoom()
	small := func(cx, cz float32, r int32) *geom.Polygon { return floorQuad(cx, 0, cz, 40, r) }
	m.Polygons = []*geom.Polygon{
		small(130, 130, 1),
		small(170, 170, room),
		small(120, 170, 0),
		small(160, 120, 1),
		small(250, 150, room),
	}

	if err := m.Finalize(Settings{}); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	want1 := []RoomPolygon{{1, 1, 0}, {1, 1, 3}}
	want2 := []RoomPolygon{{1, 1, 1}, {2, 1, 0}}
	if !equalRoomPolygons(m.Rooms[1].Polygons, want1) {
		t.Errorf("room 1: got %v, want %v", m.Rooms[1].Polygons, want1)
	}
	if !equalRoomPolygons(m.Rooms[room].Polygons, want2) {
		t.Errorf("room %d: got %v, want %v", room, m.Rooms[room].Polygons, want2)
	}
	if len(m.Rooms[0].Polygons) != 0 {
		t.Errorf("room 0 should not reference polygons, got %v", m.Rooms[0].Polygons)
	}
}

func equalRoomPolygons(a, b []RoomPolygon) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// wall returns a vertical portal quad across X = x.
func wall(x float32) [4]math.Vec3 {
	return [4]math.Vec3{
		{X: x, Y: 0, Z: 0},
		{X: x, Y: 0, Z: 100},
		{X: x, Y: -100, Z: 0},
		{X: x, Y: -100, Z: 100},
	}
}

func TestCalculateRoomDistances(t *testing.T) {
	m := New()
	r2 := m.AddRoom()
	r3 := m.AddRoom()
	m.Portals = []geom.Portal{
		geom.NewPortal(wall(100), 1, r2),
		geom.NewPortal(wall(300), r2, r3),
	}
	m.CalculateRoomDistances()

	n := len(m.Rooms)
	if len(m.RoomDistances) != n*n {
		t.Fatalf("expected %d entries, got %d", n*n, len(m.RoomDistances))
	}
	at := func(from, to int) RoomDistance { return m.RoomDistances[from*n+to] }

	a := math.Vec3{X: 100, Y: -50, Z: 50}
	b := math.Vec3{X: 300, Y: -50, Z: 50}

	if got := at(1, 3); got.Distance != 200 || got.Start != a || got.End != b {
		t.Errorf("1->3: got %+v", got)
	}
	if got := at(3, 1); got.Distance != 200 || got.Start != b || got.End != a {
		t.Errorf("3->1: got %+v", got)
	}
	if got := at(1, 2); got.Distance != 0 || got.Start != a || got.End != a {
		t.Errorf("1->2: got %+v", got)
	}
	if got := at(2, 0); got.Distance != -1 {
		t.Errorf("2->0: expected unreachable, got %+v", got)
	}
	if got := at(3, 3); got.Distance != -1 {
		t.Errorf("3->3: expected -1, got %+v", got)
	}

	for i, want := range fixedRoomDistances {
		if got := at(i/2, i%2); got != want {
			t.Errorf("fixed entry %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestCalculateRoomDistances_DisabledPortal(t *testing.T) {
	m := New()
	r2 := m.AddRoom()
	p := geom.NewPortal(wall(100), 1, r2)
	p.Enabled = false
	m.Portals = []geom.Portal{p}
	m.CalculateRoomDistances()

	if got := m.RoomDistances[2*3+1]; got.Distance != -1 {
		t.Errorf("expected no path through a disabled portal, got %+v", got)
	}
}

func TestAdjustOffsetTo(t *testing.T) {
	a := New()
	a.Config.Offset = math.Vec3{X: 1000, Z: 1000}
	b := New()
	b.Config.Offset = math.Vec3{X: 200}
	b.Polygons = []*geom.Polygon{floorQuad(50, 0, 50, 100, 1)}
	b.Lights = []geom.Light{geom.NewLight(math.Vec3{X: 10}, geom.White, 1, 2, 1)}

	before := b.Polygons[0].Vertices[0].Position.Add(b.Config.Offset)
	if err := b.AdjustOffsetTo(a); err != nil {
		t.Fatalf("AdjustOffsetTo failed: %v", err)
	}
	after := b.Polygons[0].Vertices[0].Position.Add(b.Config.Offset)

	if before != after {
		t.Errorf("exported position changed: %v -> %v", before, after)
	}
	if b.Config.Offset != a.Config.Offset {
		t.Errorf("expected offset %v, got %v", a.Config.Offset, b.Config.Offset)
	}
	if got := b.Lights[0].Position; got != (math.Vec3{X: -790, Z: -1000}) {
		t.Errorf("light not moved: %v", got)
	}
}

func TestMove_Finalized(t *testing.T) {
	m := New()
	m.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1)}
	if err := m.Finalize(DefaultSettings()); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	before := m.Polygons[0].Vertices[0].Position

	if err := m.Move(math.Vec3{X: 1000}); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized, got %v", err)
	}
	other := New()
	other.Config.Offset = math.Vec3{Z: 500}
	if err := m.AdjustOffsetTo(other); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized from AdjustOffsetTo, got %v", err)
	}
	if m.Config.Offset != (math.Vec3{}) {
		t.Errorf("offset changed to %v", m.Config.Offset)
	}
	if got := m.Polygons[0].Vertices[0].Position; got != before {
		t.Errorf("polygon moved from %v to %v", before, got)
	}
}

func TestAdd(t *testing.T) {
	a := New()
	a.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1)}
	a.Anchors = []geom.Anchor{{Linked: []int32{}}}
	a.Textures = []TextureContainer{{ID: 1, Path: "a.bmp"}}

	b := New()
	b.AddRoom()
	b.Config.Offset = math.Vec3{X: 100}
	b.Polygons = []*geom.Polygon{floorQuad(50, 0, 150, 100, 2)}
	b.Anchors = []geom.Anchor{{}, {Linked: []int32{0}}}
	a.Cells.SetAnchors(1, 1, []int32{0})
	b.Cells.SetAnchors(1, 1, []int32{1})
	b.Cells.SetAnchors(0, 1, []int32{0})
	b.Textures = []TextureContainer{{ID: 1, Path: "a.bmp"}, {ID: 2, Path: "b.bmp"}}

	if err := a.Add(b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(a.Polygons) != 2 || len(a.Rooms) != 3 || len(a.Textures) != 2 {
		t.Errorf("unexpected merge: %d polygons, %d rooms, %d textures", len(a.Polygons), len(a.Rooms), len(a.Textures))
	}
	if got := a.Polygons[1].Center(); got != (math.Vec3{X: 150, Z: 150}) {
		t.Errorf("added polygon center %v, want (150, 0, 150)", got)
	}
	if got := a.Anchors[2].Linked[0]; got != 1 {
		t.Errorf("expected relinked anchor 1, got %d", got)
	}
	if got := a.Cells.Cell(1, 1).Anchors; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("expected cell 1,1 anchors [0 2], got %v", got)
	}
	if got := a.Cells.Cell(0, 1).Anchors; len(got) != 1 || got[0] != 1 {
		t.Errorf("expected cell 0,1 anchors [1], got %v", got)
	}

	if err := a.Finalize(DefaultSettings()); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := a.Add(New()); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized, got %v", err)
	}
	done := New()
	done.Polygons = []*geom.Polygon{floorQuad(150, 0, 150, 100, 1)}
	if err := done.Finalize(DefaultSettings()); err != nil {
		t.Fatal(err)
	}
	if err := New().Add(done); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized when adding a finalized map, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Texture("Graph/Obj3D/Textures/Stone.BMP")
	b := r.Texture("graph/obj3d/textures/wood.bmp")
	if a != 1 || b != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", a, b)
	}
	if again := r.Texture(`graph\obj3d\textures\stone.bmp`); again != a {
		t.Errorf("expected same id for the same path, got %d", again)
	}
	containers := r.Containers()
	if len(containers) != 2 || containers[0].Path != `graph\obj3d\textures\stone.bmp` {
		t.Errorf("unexpected containers %v", containers)
	}

	r.Item("items/pie.teo")
	r.Item("items/pie.teo")
	if len(r.Items()) != 1 {
		t.Errorf("expected 1 item, got %v", r.Items())
	}

	r.Reset()
	if len(r.Containers()) != 0 || len(r.Items()) != 0 {
		t.Error("Reset did not clear the registry")
	}
	if id := r.Texture("graph/obj3d/textures/wood.bmp"); id != 1 {
		t.Errorf("expected ids to restart at 1, got %d", id)
	}
}
