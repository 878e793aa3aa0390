package state

import "testing"

func fill(g *Grid, text string) {
	for r := 0; r < g.Rows(); r++ {
		cells := make([]Cell, g.Cols())
		for c := range cells {
			cells[c] = Cell{Text: text, HL: 1}
		}
		g.Put(r, 0, cells)
	}
}

func TestComposeWithoutWindowsCopiesOuterGrid(t *testing.T) {
	m := NewModel(4, 2)
	g, _ := m.Grid(DefaultGrid)
	g.Put(0, 0, []Cell{{Text: "a"}, {Text: "b"}})
	out := m.Compose()
	if out.Text(0) != "ab  " {
		t.Fatalf("unexpected row %q", out.Text(0))
	}
	out.Put(0, 0, []Cell{{Text: "z"}})
	if g.Text(0) != "ab  " {
		t.Fatalf("compose must not alias the outer grid")
	}
}

func TestComposePlacesWindowsAndFloats(t *testing.T) {
	m := NewModel(6, 4)
	fill(m.ResizeGrid(2, 3, 2), "w")
	fill(m.ResizeGrid(3, 2, 1), "f")
	if err := m.Place(WindowPlacement{Grid: 2, Row: 1, Col: 1, Cols: 3, Rows: 2}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := m.Place(WindowPlacement{Grid: 3, Row: 1, Col: 3, Floating: true, Anchor: "NE", AnchorGrid: 2}); err != nil {
		t.Fatalf("place float: %v", err)
	}
	out := m.Compose()
	// the float is anchored NE at (1,3) of grid 2, whose origin is (1,1)
	want := []string{"      ", " www  ", " wff  ", "      "}
	for r, line := range want {
		if got := out.Text(r); got != line {
			t.Fatalf("row %d = %q, want %q\n%s", r, got, line, out.Dump())
		}
	}
}

func TestComposeSkipsHiddenWindows(t *testing.T) {
	m := NewModel(3, 1)
	fill(m.ResizeGrid(2, 3, 1), "x")
	_ = m.Place(WindowPlacement{Grid: 2})
	_ = m.HideWindow(2)
	if got := m.Compose().Text(0); got != "   " {
		t.Fatalf("hidden window drawn: %q", got)
	}
}

func TestCursorPositionFollowsPlacement(t *testing.T) {
	m := NewModel(10, 5)
	m.ResizeGrid(2, 4, 2)
	_ = m.Place(WindowPlacement{Grid: 2, Row: 2, Col: 3})
	_ = m.MoveCursor(2, 1, 1)
	row, col, ok := m.CursorPosition()
	if !ok || row != 3 || col != 4 {
		t.Fatalf("cursor at %d,%d (%v)", row, col, ok)
	}
	_ = m.HideWindow(2)
	if _, _, ok := m.CursorPosition(); ok {
		t.Fatalf("cursor on a hidden grid is not visible")
	}
}

func TestGridAtPrefersTopmostLayer(t *testing.T) {
	m := NewModel(10, 5)
	m.ResizeGrid(2, 10, 4)
	m.ResizeGrid(3, 3, 1)
	_ = m.Place(WindowPlacement{Grid: 2, Row: 0, Col: 0})
	_ = m.Place(WindowPlacement{Grid: 3, Row: 1, Col: 2, Floating: true, Anchor: "NW", AnchorGrid: 1})
	cases := []struct{ row, col, grid, r, c int }{
		{1, 3, 3, 0, 1},
		{2, 3, 2, 2, 3},
		{4, 0, 1, 4, 0},
	}
	for _, tc := range cases {
		grid, r, c := m.GridAt(tc.row, tc.col)
		if grid != tc.grid || r != tc.r || c != tc.c {
			t.Fatalf("GridAt(%d,%d) = %d %d,%d", tc.row, tc.col, grid, r, c)
		}
	}
}

func TestMutuallyAnchoredFloatsTerminate(t *testing.T) {
	m := NewModel(10, 5)
	fill(m.ResizeGrid(2, 2, 1), "a")
	fill(m.ResizeGrid(3, 2, 1), "b")
	_ = m.Place(WindowPlacement{Grid: 2, Row: 1, Col: 1, Floating: true, Anchor: "NW", AnchorGrid: 3})
	_ = m.Place(WindowPlacement{Grid: 3, Row: 1, Col: 1, Floating: true, Anchor: "NW", AnchorGrid: 2})
	_ = m.MoveCursor(2, 0, 0)

	out := m.Compose()
	if out.Rows() != 5 || out.Cols() != 10 {
		t.Fatalf("unexpected composed size %dx%d", out.Cols(), out.Rows())
	}
	row, col, ok := m.CursorPosition()
	if !ok || row < 0 || row >= 5 || col < 0 || col >= 10 {
		t.Fatalf("cursor at %d,%d (%v)", row, col, ok)
	}
	if grid, _, _ := m.GridAt(row, col); grid != 2 && grid != 3 {
		t.Fatalf("expected a float under the cursor, got grid %d", grid)
	}
}
