package state

import "sort"

// origin returns where a grid's top-left cell lands on the outer grid.
func (m *Model) origin(id int) (row, col int, visible bool) {
	return m.originWithin(id, len(m.windows))
}

// originWithin follows at most hops float anchors. Anchors that loop back
// run out of hops and are treated like a hidden anchor.
func (m *Model) originWithin(id, hops int) (row, col int, visible bool) {
	id = canonical(id)
	if id == DefaultGrid {
		return 0, 0, true
	}
	p, ok := m.windows[id]
	if !ok || p.Hidden {
		return 0, 0, false
	}
	if !p.Floating {
		return p.Row, p.Col, true
	}
	g := m.grids[id]
	baseRow, baseCol := 0, 0
	if p.AnchorGrid != id && hops > 0 {
		if r, c, ok := m.originWithin(p.AnchorGrid, hops-1); ok {
			baseRow, baseCol = r, c
		}
	}
	row, col = baseRow+p.Row, baseCol+p.Col
	switch p.Anchor {
	case "NE":
		col -= g.Cols()
	case "SW":
		row -= g.Rows()
	case "SE":
		row -= g.Rows()
		col -= g.Cols()
	}
	return row, col, true
}

// layers returns the visible window grids, plain windows first and then
// floating ones, each group in grid id order.
func (m *Model) layers() []int {
	var plain, floating []int
	for id, p := range m.windows {
		if id == DefaultGrid || p.Hidden {
			continue
		}
		if _, ok := m.grids[id]; !ok {
			continue
		}
		if p.Floating {
			floating = append(floating, id)
		} else {
			plain = append(plain, id)
		}
	}
	sort.Ints(plain)
	sort.Ints(floating)
	return append(plain, floating...)
}

// Compose flattens the outer grid and every visible window grid into one
// grid of the outer grid's size. Without ext_multigrid there are no window
// grids and the result is a copy of the outer grid.
func (m *Model) Compose() *Grid {
	outer := m.grids[DefaultGrid]
	out := NewGrid(DefaultGrid, outer.Cols(), outer.Rows())
	copy(out.cells, outer.cells)
	for _, id := range m.layers() {
		row, col, ok := m.origin(id)
		if !ok {
			continue
		}
		g := m.grids[id]
		for r := 0; r < g.Rows(); r++ {
			if row+r < 0 || col >= out.Cols() {
				continue
			}
			cells := g.Row(r)
			start := col
			if start < 0 {
				cells = cells[min(-start, len(cells)):]
				start = 0
			}
			out.Put(row+r, start, cells)
		}
	}
	return out
}

// CursorPosition maps the cursor to outer grid coordinates. It reports
// false when the cursor's grid is not on screen.
func (m *Model) CursorPosition() (row, col int, ok bool) {
	r, c, visible := m.origin(m.Cursor.Grid)
	if !visible {
		return 0, 0, false
	}
	row, col = r+m.Cursor.Row, c+m.Cursor.Col
	outer := m.grids[DefaultGrid]
	if row < 0 || row >= outer.Rows() || col < 0 || col >= outer.Cols() {
		return 0, 0, false
	}
	return row, col, true
}

// GridAt maps an outer grid position to the topmost grid drawn there and
// the position inside it.
func (m *Model) GridAt(row, col int) (grid, r, c int) {
	layers := m.layers()
	for i := len(layers) - 1; i >= 0; i-- {
		id := layers[i]
		top, left, ok := m.origin(id)
		if !ok {
			continue
		}
		g := m.grids[id]
		if row >= top && row < top+g.Rows() && col >= left && col < left+g.Cols() {
			return id, row - top, col - left
		}
	}
	return DefaultGrid, row, col
}
