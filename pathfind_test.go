package grove

import "testing"

func assertContiguous(t *testing.T, cells []*Hexagon) {
	t.Helper()
	for i := 1; i < len(cells); i++ {
		if d := cells[i-1].Coordinates.Distance(cells[i].Coordinates); d != 1 {
			t.Errorf("step %d: %v -> %v is %d apart", i, cells[i-1].Coordinates, cells[i].Coordinates, d)
		}
	}
}

func TestCalculatePathStraight(t *testing.T) {
	_, _, g := newBoard(t, 7, 7)
	start, target := g.GetHexagonAt(Axial{0, 0}), g.GetHexagonAt(Axial{3, 1})

	cells, positions, ok := g.CalculatePath(start, target, Walkable)
	if !ok {
		t.Fatal("no path found")
	}
	if len(cells) != 5 {
		t.Fatalf("path length = %d, want 5", len(cells))
	}
	if cells[0] != start || cells[len(cells)-1] != target {
		t.Errorf("path runs %v -> %v", cells[0].Coordinates, cells[len(cells)-1].Coordinates)
	}
	assertContiguous(t, cells)
	if len(positions) != len(cells) {
		t.Fatalf("positions = %d, cells = %d", len(positions), len(cells))
	}
	for i, c := range cells {
		assertVec(t, "position", positions[i], c.WorldPosition(), epsilon)
	}
}

func TestCalculatePathMinimalOnOpenBoard(t *testing.T) {
	_, _, g := newBoard(t, 7, 7)
	var cells []*Hexagon
	for q := -3; q <= 3; q++ {
		for r := -3; r <= 3; r++ {
			cells = append(cells, g.GetHexagonAt(Axial{q, r}))
		}
	}
	for _, from := range cells {
		for _, to := range cells {
			path, _, ok := g.CalculatePath(from, to, Walkable)
			if !ok {
				t.Fatalf("%v -> %v: no path", from.Coordinates, to.Coordinates)
			}
			if want := HexDistance(from.Coordinates, to.Coordinates) + 1; len(path) != want {
				t.Errorf("%v -> %v: %d cells, want %d", from.Coordinates, to.Coordinates, len(path), want)
			}
		}
	}
}

func TestCalculatePathSameCell(t *testing.T) {
	_, _, g := newBoard(t, 3, 3)
	h := g.GetHexagonAt(Axial{0, 0})
	cells, positions, ok := g.CalculatePath(h, h, Walkable)
	if !ok || len(cells) != 1 || cells[0] != h || len(positions) != 1 {
		t.Errorf("CalculatePath(h, h) = %v, %v, %v", cells, positions, ok)
	}
}

func TestCalculatePathAllBlocked(t *testing.T) {
	_, _, g := newBoard(t, 7, 7)
	start := g.GetHexagonAt(Axial{0, 0})
	for _, h := range g.Hexagons() {
		if h != start {
			h.Blocked = true
		}
	}
	cells, positions, ok := g.CalculatePath(start, g.GetHexagonAt(Axial{3, 3}), Walkable)
	if ok || cells != nil || positions != nil {
		t.Errorf("CalculatePath = %v, %v, %v; want nil, nil, false", cells, positions, ok)
	}
}

func TestCalculatePathDetour(t *testing.T) {
	_, _, g := newBoard(t, 7, 7)
	wall := g.GetHexagonAt(Axial{1, 0})
	wall.Blocked = true

	cells, _, ok := g.CalculatePath(g.GetHexagonAt(Axial{0, 0}), g.GetHexagonAt(Axial{2, 0}), Walkable)
	if !ok {
		t.Fatal("no detour found")
	}
	for _, c := range cells {
		if c == wall {
			t.Fatal("path crosses the blocked cell")
		}
	}
	if len(cells) != 4 {
		t.Errorf("detour length = %d, want 4", len(cells))
	}
	assertContiguous(t, cells)
}

func TestCalculatePathOccupiedTarget(t *testing.T) {
	s, _, g := newBoard(t, 5, 5)
	target := g.GetHexagonAt(Axial{2, 0})
	target.SetOccupant(s.Spawn("unit"))
	if _, _, ok := g.CalculatePath(g.GetHexagonAt(Axial{0, 0}), target, Walkable); ok {
		t.Error("found a path onto an occupied cell")
	}
}

func TestCalculatePathNilPredicateIgnoresBlocked(t *testing.T) {
	_, _, g := newBoard(t, 7, 7)
	wall := g.GetHexagonAt(Axial{1, 0})
	wall.Blocked = true

	cells, _, ok := g.CalculatePath(g.GetHexagonAt(Axial{0, 0}), g.GetHexagonAt(Axial{2, 0}), nil)
	if !ok || len(cells) != 3 || cells[1] != wall {
		t.Errorf("path = %d cells (ok %v), want straight through the blocked cell", len(cells), ok)
	}
}

func TestCalculatePathRejectsForeignCells(t *testing.T) {
	_, _, g := newBoard(t, 3, 3)
	_, _, other := newBoard(t, 3, 3)
	start := g.GetHexagonAt(Axial{0, 0})
	if _, _, ok := g.CalculatePath(start, other.GetHexagonAt(Axial{1, 0}), nil); ok {
		t.Error("path to another grid's cell")
	}
	if _, _, ok := g.CalculatePath(nil, start, nil); ok {
		t.Error("path from nil start")
	}
}
