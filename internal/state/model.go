package state

import (
	"errors"
	"sort"

	"github.com/atomicstack/nvim-bridge/internal/rpc"
)

// DefaultGrid is the outer grid every session starts with.
const DefaultGrid = 1

var ErrUnknownGrid = errors.New("unknown grid")

// Model is the display state of one session. It is owned by a single
// goroutine and has no locking of its own.
type Model struct {
	grids      map[int]*Grid
	windows    map[int]WindowPlacement
	Highlights *HighlightTable
	Defaults   DefaultColors
	Cursor     Cursor
	Mode       ModeState
	Tabline    Tabline
	Title      string
	Icon       string
	Options    map[string]rpc.Value
	Busy       bool
	// MouseEnabled follows mouse_on / mouse_off.
	MouseEnabled bool
	Flushes      uint64
	Status       Status
}

// NewModel returns a model holding a blank outer grid of cols × rows.
func NewModel(cols, rows int) *Model {
	m := &Model{
		grids:      map[int]*Grid{},
		windows:    map[int]WindowPlacement{},
		Highlights: NewHighlightTable(),
		Options:    map[string]rpc.Value{},
		Cursor:     Cursor{Grid: DefaultGrid},
	}
	m.grids[DefaultGrid] = NewGrid(DefaultGrid, cols, rows)
	return m
}

// Grid returns a live grid. Id 0 addresses the outer grid.
func (m *Model) Grid(id int) (*Grid, bool) {
	g, ok := m.grids[canonical(id)]
	return g, ok
}

func canonical(id int) int {
	if id == 0 {
		return DefaultGrid
	}
	return id
}

// GridIDs returns the ids of all live grids in ascending order.
func (m *Model) GridIDs() []int {
	ids := make([]int, 0, len(m.grids))
	for id := range m.grids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ResizeGrid reallocates a grid, creating it when it does not exist yet.
func (m *Model) ResizeGrid(id, cols, rows int) *Grid {
	id = canonical(id)
	g, ok := m.grids[id]
	if !ok {
		g = NewGrid(id, cols, rows)
		m.grids[id] = g
	} else {
		g.Resize(cols, rows)
	}
	if m.Cursor.Grid == id {
		m.clampCursor(g)
	}
	return g
}

// DestroyGrid removes a grid. The outer grid cannot be destroyed.
func (m *Model) DestroyGrid(id int) error {
	id = canonical(id)
	if id == DefaultGrid {
		return nil
	}
	if _, ok := m.grids[id]; !ok {
		return ErrUnknownGrid
	}
	delete(m.grids, id)
	delete(m.windows, id)
	if m.Cursor.Grid == id {
		m.Cursor.Grid, m.Cursor.Row, m.Cursor.Col = DefaultGrid, 0, 0
	}
	return nil
}

// MoveCursor places the cursor on an existing grid, clamped to its bounds.
func (m *Model) MoveCursor(grid, row, col int) error {
	grid = canonical(grid)
	g, ok := m.grids[grid]
	if !ok {
		return ErrUnknownGrid
	}
	m.Cursor.Grid, m.Cursor.Row, m.Cursor.Col = grid, row, col
	m.clampCursor(g)
	return nil
}

func (m *Model) clampCursor(g *Grid) {
	m.Cursor.Row = clamp(m.Cursor.Row, 0, max(g.Rows()-1, 0))
	m.Cursor.Col = clamp(m.Cursor.Col, 0, max(g.Cols()-1, 0))
}

// SetMode switches the current mode and refreshes the cursor style from
// mode_info_set data.
func (m *Model) SetMode(name string, index int) {
	m.Mode.Name, m.Mode.Index = name, index
	if info, ok := m.Mode.Info(); ok {
		m.Cursor.Shape = info.CursorShape
		m.Cursor.Blink = info.Blinks()
	}
}

func (m *Model) Place(p WindowPlacement) error {
	p.Grid = canonical(p.Grid)
	if _, ok := m.grids[p.Grid]; !ok {
		return ErrUnknownGrid
	}
	m.windows[p.Grid] = p
	return nil
}

func (m *Model) Placement(grid int) (WindowPlacement, bool) {
	p, ok := m.windows[grid]
	return p, ok
}

// HideWindow marks a window grid hidden without discarding it.
func (m *Model) HideWindow(grid int) error {
	grid = canonical(grid)
	if _, ok := m.grids[grid]; !ok {
		return ErrUnknownGrid
	}
	p := m.windows[grid]
	p.Grid = grid
	p.Hidden = true
	m.windows[grid] = p
	return nil
}

// CloseWindow forgets a window's placement; the grid stays until
// grid_destroy.
func (m *Model) CloseWindow(grid int) error {
	grid = canonical(grid)
	if _, ok := m.grids[grid]; !ok {
		return ErrUnknownGrid
	}
	delete(m.windows, grid)
	return nil
}

// Resolve returns the attributes of a highlight id with default colors
// filled in.
func (m *Model) Resolve(hl int) Attr {
	attr, _ := m.Highlights.Lookup(hl)
	attr.Foreground = attr.Foreground.Or(m.Defaults.Foreground)
	attr.Background = attr.Background.Or(m.Defaults.Background)
	attr.Special = attr.Special.Or(m.Defaults.Special)
	if attr.Reverse {
		attr.Foreground, attr.Background = attr.Background, attr.Foreground
	}
	return attr
}
