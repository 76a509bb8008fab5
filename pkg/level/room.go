package level

import (
	"github.com/Faultbox/arx-levelgen/pkg/math"
)

// Room is a set of polygons bounded by portals. Room 0 is the outside.
type Room struct {
	Polygons []RoomPolygon
	Portals  []int32 // indices into Map.Portals
}

// RoomPolygon addresses a polygon by its cell and its index in the cell.
type RoomPolygon struct {
	CellX int
	CellY int
	Index int
}

// RoomDistance is the shortest portal path between two rooms. Distance is
// -1 when there is no path or the rooms are the same. Start and End are in
// exported space.
type RoomDistance struct {
	Distance float32
	Start    math.Vec3
	End      math.Vec3
}

// The engine ships these for the first two rooms and the generated levels
// keep them, whatever the portal graph says.
var fixedRoomDistances = [4]RoomDistance{
	{Distance: -1, Start: math.Vec3{}, End: math.Vec3{X: 1}},
	{Distance: -1, Start: math.Vec3{}, End: math.Vec3{Y: 1}},
	{Distance: -1, Start: math.Vec3{X: 0.984375, Y: 0.984375}, End: math.Vec3{}},
	{Distance: -1, Start: math.Vec3{}, End: math.Vec3{}},
}

// portalState is a portal reached from one of its sides.
type portalState struct {
	portal  int
	entered int32 // room on the far side
}

// CalculateRoomDistances fills RoomDistances with len(Rooms)² entries,
// row-major by source room. Paths run through portal centers: Start is the
// first portal crossed, End the last one and Distance the length between
// them along the path.
func (m *Map) CalculateRoomDistances() {
	n := len(m.Rooms)
	m.RoomDistances = make([]RoomDistance, n*n)

	centers := make([]math.Vec3, len(m.Portals))
	for i := range m.Portals {
		centers[i] = m.exported(m.Portals[i].Polygon.Center)
	}

	for from := 0; from < n; from++ {
		best := m.shortestPaths(int32(from), centers)
		for to := 0; to < n; to++ {
			d := RoomDistance{Distance: -1}
			if r, ok := best[int32(to)]; ok && to != from {
				d = r
			}
			m.RoomDistances[from*n+to] = d
		}
	}

	for i, d := range fixedRoomDistances {
		from, to := i/2, i%2
		if from < n && to < n {
			m.RoomDistances[from*n+to] = d
		}
	}
}

// shortestPaths runs Dijkstra over portal crossings starting in room from
// and returns the best path found to every reachable room.
func (m *Map) shortestPaths(from int32, centers []math.Vec3) map[int32]RoomDistance {
	type entry struct {
		dist  float32
		start int
		done  bool
	}
	states := make(map[portalState]*entry)

	for i := range m.Portals {
		p := &m.Portals[i]
		if !p.Enabled {
			continue
		}
		if other := p.Other(from); other >= 0 {
			states[portalState{i, other}] = &entry{dist: 0, start: i}
		}
	}

	best := make(map[int32]RoomDistance)
	for {
		var cur portalState
		var curEntry *entry
		for s, e := range states {
			if e.done {
				continue
			}
			if curEntry == nil || e.dist < curEntry.dist || (e.dist == curEntry.dist && less(s, cur)) {
				cur, curEntry = s, e
			}
		}
		if curEntry == nil {
			break
		}
		curEntry.done = true

		if _, seen := best[cur.entered]; !seen {
			best[cur.entered] = RoomDistance{
				Distance: curEntry.dist,
				Start:    centers[curEntry.start],
				End:      centers[cur.portal],
			}
		}

		for j := range m.Portals {
			q := &m.Portals[j]
			if j == cur.portal || !q.Enabled {
				continue
			}
			next := q.Other(cur.entered)
			if next < 0 {
				continue
			}
			dist := curEntry.dist + centers[cur.portal].Distance(centers[j])
			s := portalState{j, next}
			if e, ok := states[s]; ok {
				if !e.done && dist < e.dist {
					e.dist, e.start = dist, curEntry.start
				}
				continue
			}
			states[s] = &entry{dist: dist, start: curEntry.start}
		}
	}
	return best
}

// less orders states so that ties resolve the same way on every run.
func less(a, b portalState) bool {
	if a.portal != b.portal {
		return a.portal < b.portal
	}
	return a.entered < b.entered
}

// assignRoomPortals rebuilds the portal lists of all rooms.
func (m *Map) assignRoomPortals() {
	for i := range m.Rooms {
		m.Rooms[i].Portals = nil
	}
	for i, p := range m.Portals {
		for _, r := range [2]int32{p.Room1, p.Room2} {
			if r >= 0 && int(r) < len(m.Rooms) {
				m.Rooms[r].Portals = append(m.Rooms[r].Portals, int32(i))
			}
		}
	}
}
