package redraw

import (
	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/state"
)

// Result summarises what a batch changed.
type Result struct {
	Repaint           bool
	Applied           int
	Dropped           int
	ModeChanged       bool
	TitleChanged      bool
	BusyChanged       bool
	MouseChanged      bool
	TablineChanged    bool
	HighlightsChanged bool
	OptionsChanged    bool
	GridsChanged      bool
}

// Apply mutates m with every event of b in order. It must run on the
// goroutine that owns m.
func Apply(m *state.Model, b Batch) Result {
	var res Result
	for _, evt := range b.Events {
		if apply(m, evt, &res) {
			res.Applied++
		} else {
			res.Dropped++
		}
	}
	m.Flushes++
	res.Repaint = len(b.Events) > 0
	events.Redraw.Applied(b.Seq, res.Applied, res.Dropped)
	return res
}

func unknownGrid(evt Event, grid int) bool {
	events.Redraw.UnknownGrid(evt.Name(), grid)
	return false
}

func apply(m *state.Model, evt Event, res *Result) bool {
	switch e := evt.(type) {
	case GridResize:
		m.ResizeGrid(e.Grid, e.Cols, e.Rows)
		res.GridsChanged = true
	case GridClear:
		g, ok := m.Grid(e.Grid)
		if !ok {
			return unknownGrid(e, e.Grid)
		}
		g.Clear()
	case GridDestroy:
		if err := m.DestroyGrid(e.Grid); err != nil {
			return unknownGrid(e, e.Grid)
		}
		res.GridsChanged = true
	case GridLine:
		return applyLine(m, e)
	case GridScroll:
		g, ok := m.Grid(e.Grid)
		if !ok {
			return unknownGrid(e, e.Grid)
		}
		g.Scroll(e.Top, e.Bot, e.Left, e.Right, e.Rows)
	case GridCursorGoto:
		if err := m.MoveCursor(e.Grid, e.Row, e.Col); err != nil {
			return unknownGrid(e, e.Grid)
		}
	case HlAttrDefine:
		m.Highlights.Define(e.ID, e.Attr)
		res.HighlightsChanged = true
	case HlGroupSet:
		m.Highlights.SetGroup(e.Group, e.ID)
	case DefaultColorsSet:
		m.Defaults = e.Colors
		res.HighlightsChanged = true
	case ModeInfoSet:
		m.Mode.CursorStyleEnabled = e.CursorStyleEnabled
		m.Mode.Infos = e.Infos
		m.SetMode(m.Mode.Name, m.Mode.Index)
		res.ModeChanged = true
	case ModeChange:
		m.SetMode(e.Mode, e.Index)
		res.ModeChanged = true
	case OptionSet:
		m.Options[e.Option] = e.Value
		res.OptionsChanged = true
	case SetTitle:
		m.Title = e.Title
		res.TitleChanged = true
	case SetIcon:
		m.Icon = e.Icon
		res.TitleChanged = true
	case BusyStart:
		m.Busy = true
		res.BusyChanged = true
	case BusyStop:
		m.Busy = false
		res.BusyChanged = true
	case MouseOn:
		m.MouseEnabled = true
		res.MouseChanged = true
	case MouseOff:
		m.MouseEnabled = false
		res.MouseChanged = true
	case WinPos:
		err := m.Place(state.WindowPlacement{
			Grid: e.Grid, Window: e.Window,
			Row: e.Row, Col: e.Col, Cols: e.Cols, Rows: e.Rows,
		})
		if err != nil {
			return unknownGrid(e, e.Grid)
		}
		res.GridsChanged = true
	case WinFloatPos:
		err := m.Place(state.WindowPlacement{
			Grid: e.Grid, Window: e.Window,
			Row: int(e.Row), Col: int(e.Col),
			Floating: true, Anchor: e.Anchor, AnchorGrid: e.AnchorGrid,
		})
		if err != nil {
			return unknownGrid(e, e.Grid)
		}
		res.GridsChanged = true
	case WinHide:
		if err := m.HideWindow(e.Grid); err != nil {
			return unknownGrid(e, e.Grid)
		}
		res.GridsChanged = true
	case WinClose:
		if err := m.CloseWindow(e.Grid); err != nil {
			return unknownGrid(e, e.Grid)
		}
		res.GridsChanged = true
	case TablineUpdate:
		m.Tabline = e.Tabline
		res.TablineChanged = true
	default:
		events.Redraw.UnknownEvent(evt.Name())
		return false
	}
	return true
}

// applyLine writes one grid_line. Highlight ids that were never defined
// are stored as the default. A run starting outside the grid is dropped;
// a run crossing the right edge is clipped.
func applyLine(m *state.Model, e GridLine) bool {
	g, ok := m.Grid(e.Grid)
	if !ok {
		return unknownGrid(e, e.Grid)
	}
	if len(e.Cells) == 0 {
		return true
	}
	cells := make([]state.Cell, len(e.Cells))
	for i, c := range e.Cells {
		if !m.Highlights.Has(c.HL) {
			events.Redraw.UnknownHighlight(e.Grid, c.HL)
			c.HL = state.DefaultHighlight
		}
		cells[i] = c
	}
	n, complete := g.Put(e.Row, e.ColStart, cells)
	if !complete {
		events.Redraw.OutOfBounds(e.Name(), e.Grid, e.Row, e.ColStart)
	}
	return n > 0
}
