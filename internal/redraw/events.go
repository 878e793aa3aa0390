package redraw

import (
	"fmt"

	"github.com/atomicstack/nvim-bridge/internal/rpc"
	"github.com/atomicstack/nvim-bridge/internal/state"
)

// Event is one decoded redraw sub-event.
type Event interface {
	Name() string
}

type GridResize struct{ Grid, Cols, Rows int }

type GridClear struct{ Grid int }

type GridDestroy struct{ Grid int }

// GridLine holds an already expanded run of cells.
type GridLine struct {
	Grid     int
	Row      int
	ColStart int
	Cells    []state.Cell
	Wrap     bool
}

type GridScroll struct {
	Grid                  int
	Top, Bot, Left, Right int
	Rows, Cols            int
}

type GridCursorGoto struct{ Grid, Row, Col int }

type HlAttrDefine struct {
	ID   int
	Attr state.Attr
}

type HlGroupSet struct {
	Group string
	ID    int
}

type DefaultColorsSet struct{ Colors state.DefaultColors }

type ModeInfoSet struct {
	CursorStyleEnabled bool
	Infos              []state.ModeInfo
}

type ModeChange struct {
	Mode  string
	Index int
}

type OptionSet struct {
	Option string
	Value  rpc.Value
}

type SetTitle struct{ Title string }

type SetIcon struct{ Icon string }

type BusyStart struct{}

type BusyStop struct{}

type MouseOn struct{}

type MouseOff struct{}

type WinPos struct {
	Grid                 int
	Window               rpc.Value
	Row, Col, Cols, Rows int
}

type WinFloatPos struct {
	Grid       int
	Window     rpc.Value
	Anchor     string
	AnchorGrid int
	Row, Col   float64
}

type WinHide struct{ Grid int }

type WinClose struct{ Grid int }

type TablineUpdate struct{ Tabline state.Tabline }

// Flush terminates a batch.
type Flush struct{}

func (GridResize) Name() string       { return "grid_resize" }
func (GridClear) Name() string        { return "grid_clear" }
func (GridDestroy) Name() string      { return "grid_destroy" }
func (GridLine) Name() string         { return "grid_line" }
func (GridScroll) Name() string       { return "grid_scroll" }
func (GridCursorGoto) Name() string   { return "grid_cursor_goto" }
func (HlAttrDefine) Name() string     { return "hl_attr_define" }
func (HlGroupSet) Name() string       { return "hl_group_set" }
func (DefaultColorsSet) Name() string { return "default_colors_set" }
func (ModeInfoSet) Name() string      { return "mode_info_set" }
func (ModeChange) Name() string       { return "mode_change" }
func (OptionSet) Name() string        { return "option_set" }
func (SetTitle) Name() string         { return "set_title" }
func (SetIcon) Name() string          { return "set_icon" }
func (BusyStart) Name() string        { return "busy_start" }
func (BusyStop) Name() string         { return "busy_stop" }
func (MouseOn) Name() string          { return "mouse_on" }
func (MouseOff) Name() string         { return "mouse_off" }
func (WinPos) Name() string           { return "win_pos" }
func (WinFloatPos) Name() string      { return "win_float_pos" }
func (WinHide) Name() string          { return "win_hide" }
func (WinClose) Name() string         { return "win_close" }
func (TablineUpdate) Name() string    { return "tabline_update" }
func (Flush) Name() string            { return "flush" }

// parser decodes the argument tuple of one call of a sub-event. Extra
// trailing arguments are ignored so newer Neovim versions stay readable.
type parser struct {
	arity int
	parse func(args []rpc.Value) (Event, error)
}

var parsers = map[string]parser{
	"grid_resize": {3, func(a []rpc.Value) (Event, error) {
		v, err := ints(a, 3)
		if err != nil {
			return nil, err
		}
		cols, rows := v[1], v[2]
		if cols < 0 || rows < 0 {
			return nil, fmt.Errorf("negative size %dx%d", cols, rows)
		}
		if cols > state.MaxGridCols || (cols > 0 && rows > state.MaxGridCells/cols) {
			return nil, fmt.Errorf("size %dx%d exceeds %d cells", cols, rows, state.MaxGridCells)
		}
		return GridResize{Grid: v[0], Cols: cols, Rows: rows}, nil
	}},
	"grid_clear": {1, func(a []rpc.Value) (Event, error) {
		v, err := ints(a, 1)
		if err != nil {
			return nil, err
		}
		return GridClear{Grid: v[0]}, nil
	}},
	"grid_destroy": {1, func(a []rpc.Value) (Event, error) {
		v, err := ints(a, 1)
		if err != nil {
			return nil, err
		}
		return GridDestroy{Grid: v[0]}, nil
	}},
	"grid_line":        {4, parseGridLine},
	"grid_scroll":      {6, parseGridScroll},
	"grid_cursor_goto": {3, func(a []rpc.Value) (Event, error) {
		v, err := ints(a, 3)
		if err != nil {
			return nil, err
		}
		return GridCursorGoto{Grid: v[0], Row: v[1], Col: v[2]}, nil
	}},
	"hl_attr_define": {2, parseHlAttrDefine},
	"hl_group_set": {2, func(a []rpc.Value) (Event, error) {
		name, err := a[0].AsString()
		if err != nil {
			return nil, err
		}
		id, err := asInt(a[1])
		if err != nil {
			return nil, err
		}
		return HlGroupSet{Group: name, ID: id}, nil
	}},
	"default_colors_set": {3, parseDefaultColors},
	"mode_info_set":      {2, parseModeInfoSet},
	"mode_change": {2, func(a []rpc.Value) (Event, error) {
		name, err := a[0].AsString()
		if err != nil {
			return nil, err
		}
		idx, err := asInt(a[1])
		if err != nil {
			return nil, err
		}
		return ModeChange{Mode: name, Index: idx}, nil
	}},
	"option_set": {2, func(a []rpc.Value) (Event, error) {
		name, err := a[0].AsString()
		if err != nil {
			return nil, err
		}
		return OptionSet{Option: name, Value: a[1]}, nil
	}},
	"set_title": {1, func(a []rpc.Value) (Event, error) {
		s, err := a[0].AsString()
		return SetTitle{Title: s}, err
	}},
	"set_icon": {1, func(a []rpc.Value) (Event, error) {
		s, err := a[0].AsString()
		return SetIcon{Icon: s}, err
	}},
	"busy_start":     {0, func([]rpc.Value) (Event, error) { return BusyStart{}, nil }},
	"busy_stop":      {0, func([]rpc.Value) (Event, error) { return BusyStop{}, nil }},
	"mouse_on":       {0, func([]rpc.Value) (Event, error) { return MouseOn{}, nil }},
	"mouse_off":      {0, func([]rpc.Value) (Event, error) { return MouseOff{}, nil }},
	"win_pos":        {6, parseWinPos},
	"win_float_pos":  {6, parseWinFloatPos},
	"win_hide": {1, func(a []rpc.Value) (Event, error) {
		v, err := ints(a, 1)
		if err != nil {
			return nil, err
		}
		return WinHide{Grid: v[0]}, nil
	}},
	"win_close": {1, func(a []rpc.Value) (Event, error) {
		v, err := ints(a, 1)
		if err != nil {
			return nil, err
		}
		return WinClose{Grid: v[0]}, nil
	}},
	"tabline_update": {2, parseTablineUpdate},
	"flush":          {0, func([]rpc.Value) (Event, error) { return Flush{}, nil }},
}

// Known reports whether name is a sub-event this package decodes.
func Known(name string) bool {
	_, ok := parsers[name]
	return ok
}

// MalformedError describes a sub-event whose arguments have the wrong
// shape.
type MalformedError struct {
	Event string
	Err   error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Event, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// UnknownEventError names a sub-event no parser exists for.
type UnknownEventError struct{ Event string }

func (e *UnknownEventError) Error() string {
	return "unknown redraw event " + e.Event
}

// Decode flattens the params of a redraw notification. Each entry is
// [name, args...] where every args is one call's argument tuple. Entries
// that cannot be decoded are reported through skip and left out.
func Decode(params []rpc.Value, skip func(error)) []Event {
	var out []Event
	for _, entry := range params {
		items, err := entry.AsArray()
		if err != nil || len(items) == 0 {
			skip(&MalformedError{Event: "redraw", Err: fmt.Errorf("entry is not [name, args...]: %s", entry)})
			continue
		}
		name, err := items[0].AsString()
		if err != nil {
			skip(&MalformedError{Event: "redraw", Err: err})
			continue
		}
		p, ok := parsers[name]
		if !ok {
			skip(&UnknownEventError{Event: name})
			continue
		}
		calls := items[1:]
		if len(calls) == 0 && p.arity == 0 {
			calls = []rpc.Value{rpc.Array()}
		}
		for _, call := range calls {
			args, err := call.AsArray()
			if err == nil && len(args) < p.arity {
				err = fmt.Errorf("want %d arguments, got %d", p.arity, len(args))
			}
			var evt Event
			if err == nil {
				evt, err = p.parse(args)
			}
			if err != nil {
				skip(&MalformedError{Event: name, Err: err})
				continue
			}
			out = append(out, evt)
		}
	}
	return out
}

func asInt(v rpc.Value) (int, error) {
	n, err := v.AsInt()
	return int(n), err
}

func ints(args []rpc.Value, n int) ([]int, error) {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := asInt(args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// asNumber accepts either an integer or a float.
func asNumber(v rpc.Value) (float64, error) {
	if v.Kind() == rpc.KindFloat {
		return v.AsFloat()
	}
	n, err := v.AsInt()
	return float64(n), err
}

func parseGridLine(a []rpc.Value) (Event, error) {
	pos, err := ints(a, 3)
	if err != nil {
		return nil, err
	}
	raw, err := a[3].AsArray()
	if err != nil {
		return nil, fmt.Errorf("cells: %w", err)
	}
	cells, err := expandCells(raw)
	if err != nil {
		return nil, err
	}
	line := GridLine{Grid: pos[0], Row: pos[1], ColStart: pos[2], Cells: cells}
	if len(a) > 4 {
		if line.Wrap, err = a[4].AsBool(); err != nil {
			return nil, fmt.Errorf("wrap: %w", err)
		}
	}
	return line, nil
}

// expandCells turns [text, hl?, repeat?] tuples into plain cells. A missing
// hl id reuses the previous cell's; repeat is the total number of copies.
// No row is wider than MaxGridCols, so expansion stops there.
func expandCells(raw []rpc.Value) ([]state.Cell, error) {
	cells := make([]state.Cell, 0, len(raw))
	hl := state.DefaultHighlight
	for i, item := range raw {
		parts, err := item.AsArray()
		if err != nil || len(parts) == 0 {
			return nil, fmt.Errorf("cell %d: expected [text, hl?, repeat?]", i)
		}
		text, err := parts[0].AsString()
		if err != nil {
			return nil, fmt.Errorf("cell %d text: %w", i, err)
		}
		if len(parts) > 1 {
			if hl, err = asInt(parts[1]); err != nil {
				return nil, fmt.Errorf("cell %d hl: %w", i, err)
			}
		}
		repeat := 1
		if len(parts) > 2 {
			if repeat, err = asInt(parts[2]); err != nil {
				return nil, fmt.Errorf("cell %d repeat: %w", i, err)
			}
			if repeat < 1 {
				repeat = 1
			}
		}
		repeat = min(repeat, state.MaxGridCols-len(cells))
		for ; repeat > 0; repeat-- {
			cells = append(cells, state.Cell{Text: text, HL: hl})
		}
	}
	return cells, nil
}

func parseGridScroll(a []rpc.Value) (Event, error) {
	v, err := ints(a, 6)
	if err != nil {
		return nil, err
	}
	s := GridScroll{Grid: v[0], Top: v[1], Bot: v[2], Left: v[3], Right: v[4], Rows: v[5]}
	if len(a) > 6 {
		if s.Cols, err = asInt(a[6]); err != nil {
			return nil, fmt.Errorf("cols: %w", err)
		}
	}
	return s, nil
}

// optional fields of the dictionaries nvim sends. An absent key yields the
// zero value; a value of the wrong kind is an error naming the key.

func optBool(m rpc.Value, key string) (bool, error) {
	v, ok := m.Lookup(key)
	if !ok {
		return false, nil
	}
	b, err := v.AsBool()
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func optInt(m rpc.Value, key string) (int, error) {
	v, ok := m.Lookup(key)
	if !ok {
		return 0, nil
	}
	n, err := asInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func optString(m rpc.Value, key string) (string, error) {
	v, ok := m.Lookup(key)
	if !ok {
		return "", nil
	}
	s, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

func optColor(m rpc.Value, key string) (state.Color, error) {
	v, ok := m.Lookup(key)
	if !ok {
		return state.Color{}, nil
	}
	if _, err := v.AsInt(); err != nil {
		return state.Color{}, fmt.Errorf("%s: %w", key, err)
	}
	return color(v), nil
}

func color(v rpc.Value) state.Color {
	n, err := v.AsInt()
	if err != nil || n < 0 {
		return state.Color{}
	}
	return state.RGB(uint32(n))
}

func parseHlAttrDefine(a []rpc.Value) (Event, error) {
	id, err := asInt(a[0])
	if err != nil {
		return nil, err
	}
	if _, err := a[1].AsMap(); err != nil {
		return nil, fmt.Errorf("rgb_attrs: %w", err)
	}
	attrs := a[1]
	var attr state.Attr
	for key, dst := range map[string]*state.Color{
		"foreground": &attr.Foreground,
		"background": &attr.Background,
		"special":    &attr.Special,
	} {
		if *dst, err = optColor(attrs, key); err != nil {
			return nil, err
		}
	}
	for key, dst := range map[string]*bool{
		"reverse":       &attr.Reverse,
		"bold":          &attr.Bold,
		"italic":        &attr.Italic,
		"underline":     &attr.Underline,
		"undercurl":     &attr.Undercurl,
		"strikethrough": &attr.Strikethrough,
	} {
		if *dst, err = optBool(attrs, key); err != nil {
			return nil, err
		}
	}
	if attr.Blend, err = optInt(attrs, "blend"); err != nil {
		return nil, err
	}
	return HlAttrDefine{ID: id, Attr: attr}, nil
}

func parseDefaultColors(a []rpc.Value) (Event, error) {
	for i := 0; i < 3; i++ {
		if _, err := a[i].AsInt(); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return DefaultColorsSet{Colors: state.DefaultColors{
		Foreground: color(a[0]),
		Background: color(a[1]),
		Special:    color(a[2]),
	}}, nil
}

func parseModeInfoSet(a []rpc.Value) (Event, error) {
	enabled, err := a[0].AsBool()
	if err != nil {
		return nil, err
	}
	items, err := a[1].AsArray()
	if err != nil {
		return nil, err
	}
	infos := make([]state.ModeInfo, 0, len(items))
	for _, item := range items {
		if _, err := item.AsMap(); err != nil {
			return nil, fmt.Errorf("mode info: %w", err)
		}
		var info state.ModeInfo
		var shape string
		for key, dst := range map[string]*string{
			"name":         &info.Name,
			"short_name":   &info.ShortName,
			"cursor_shape": &shape,
		} {
			if *dst, err = optString(item, key); err != nil {
				return nil, fmt.Errorf("mode info: %w", err)
			}
		}
		for key, dst := range map[string]*int{
			"cell_percentage": &info.CellPercentage,
			"blinkwait":       &info.BlinkWait,
			"blinkon":         &info.BlinkOn,
			"blinkoff":        &info.BlinkOff,
			"attr_id":         &info.AttrID,
		} {
			if *dst, err = optInt(item, key); err != nil {
				return nil, fmt.Errorf("mode info: %w", err)
			}
		}
		info.CursorShape = state.ParseCursorShape(shape)
		infos = append(infos, info)
	}
	return ModeInfoSet{CursorStyleEnabled: enabled, Infos: infos}, nil
}

func parseWinPos(a []rpc.Value) (Event, error) {
	grid, err := asInt(a[0])
	if err != nil {
		return nil, err
	}
	v, err := ints(a[2:], 4)
	if err != nil {
		return nil, err
	}
	return WinPos{Grid: grid, Window: a[1], Row: v[0], Col: v[1], Cols: v[2], Rows: v[3]}, nil
}

func parseWinFloatPos(a []rpc.Value) (Event, error) {
	grid, err := asInt(a[0])
	if err != nil {
		return nil, err
	}
	anchor, err := a[2].AsString()
	if err != nil {
		return nil, err
	}
	anchorGrid, err := asInt(a[3])
	if err != nil {
		return nil, err
	}
	row, err := asNumber(a[4])
	if err != nil {
		return nil, err
	}
	col, err := asNumber(a[5])
	if err != nil {
		return nil, err
	}
	return WinFloatPos{Grid: grid, Window: a[1], Anchor: anchor, AnchorGrid: anchorGrid, Row: row, Col: col}, nil
}

func parseTablineUpdate(a []rpc.Value) (Event, error) {
	items, err := a[1].AsArray()
	if err != nil {
		return nil, err
	}
	tl := state.Tabline{Current: a[0], Tabs: make([]state.Tab, 0, len(items))}
	for i, item := range items {
		if _, err := item.AsMap(); err != nil {
			return nil, fmt.Errorf("tab %d: %w", i, err)
		}
		handle, _ := item.Lookup("tab")
		name, err := optString(item, "name")
		if err != nil {
			return nil, fmt.Errorf("tab %d: %w", i, err)
		}
		tl.Tabs = append(tl.Tabs, state.Tab{Handle: handle, Name: name})
	}
	return TablineUpdate{Tabline: tl}, nil
}
