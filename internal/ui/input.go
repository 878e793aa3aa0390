package ui

import (
	"context"
	"fmt"

	"github.com/atomicstack/nvim-bridge/internal/input"
	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// namedKeys maps Bubble Tea key types to Neovim keys. Tab and Enter share
// their values with ctrl+i and ctrl+m, so they are matched here before the
// control range is considered.
var namedKeys = map[tea.KeyType]input.KeyEvent{
	tea.KeyTab:       {Code: input.KeyTab},
	tea.KeyEnter:     {Code: input.KeyEnter},
	tea.KeyEsc:       {Code: input.KeyEsc},
	tea.KeyBackspace: {Code: input.KeyBackspace},
	tea.KeyDelete:    {Code: input.KeyDelete},
	tea.KeySpace:     {Code: input.KeySpace},
	tea.KeyUp:        {Code: input.KeyUp},
	tea.KeyDown:      {Code: input.KeyDown},
	tea.KeyLeft:      {Code: input.KeyLeft},
	tea.KeyRight:     {Code: input.KeyRight},
	tea.KeyHome:      {Code: input.KeyHome},
	tea.KeyEnd:       {Code: input.KeyEnd},
	tea.KeyPgUp:      {Code: input.KeyPageUp},
	tea.KeyPgDown:    {Code: input.KeyPageDown},
	tea.KeyInsert:    {Code: input.KeyInsert},
	tea.KeyShiftTab:  {Code: input.KeyTab, Mods: input.ModShift},

	tea.KeyShiftUp:    {Code: input.KeyUp, Mods: input.ModShift},
	tea.KeyShiftDown:  {Code: input.KeyDown, Mods: input.ModShift},
	tea.KeyShiftLeft:  {Code: input.KeyLeft, Mods: input.ModShift},
	tea.KeyShiftRight: {Code: input.KeyRight, Mods: input.ModShift},
	tea.KeyShiftHome:  {Code: input.KeyHome, Mods: input.ModShift},
	tea.KeyShiftEnd:   {Code: input.KeyEnd, Mods: input.ModShift},

	tea.KeyCtrlUp:     {Code: input.KeyUp, Mods: input.ModCtrl},
	tea.KeyCtrlDown:   {Code: input.KeyDown, Mods: input.ModCtrl},
	tea.KeyCtrlLeft:   {Code: input.KeyLeft, Mods: input.ModCtrl},
	tea.KeyCtrlRight:  {Code: input.KeyRight, Mods: input.ModCtrl},
	tea.KeyCtrlHome:   {Code: input.KeyHome, Mods: input.ModCtrl},
	tea.KeyCtrlEnd:    {Code: input.KeyEnd, Mods: input.ModCtrl},
	tea.KeyCtrlPgUp:   {Code: input.KeyPageUp, Mods: input.ModCtrl},
	tea.KeyCtrlPgDown: {Code: input.KeyPageDown, Mods: input.ModCtrl},

	tea.KeyCtrlShiftUp:    {Code: input.KeyUp, Mods: input.ModCtrl | input.ModShift},
	tea.KeyCtrlShiftDown:  {Code: input.KeyDown, Mods: input.ModCtrl | input.ModShift},
	tea.KeyCtrlShiftLeft:  {Code: input.KeyLeft, Mods: input.ModCtrl | input.ModShift},
	tea.KeyCtrlShiftRight: {Code: input.KeyRight, Mods: input.ModCtrl | input.ModShift},
	tea.KeyCtrlShiftHome:  {Code: input.KeyHome, Mods: input.ModCtrl | input.ModShift},
	tea.KeyCtrlShiftEnd:   {Code: input.KeyEnd, Mods: input.ModCtrl | input.ModShift},

	tea.KeyF1:  {Code: input.KeyF1},
	tea.KeyF2:  {Code: input.KeyF2},
	tea.KeyF3:  {Code: input.KeyF3},
	tea.KeyF4:  {Code: input.KeyF4},
	tea.KeyF5:  {Code: input.KeyF5},
	tea.KeyF6:  {Code: input.KeyF6},
	tea.KeyF7:  {Code: input.KeyF7},
	tea.KeyF8:  {Code: input.KeyF8},
	tea.KeyF9:  {Code: input.KeyF9},
	tea.KeyF10: {Code: input.KeyF10},
	tea.KeyF11: {Code: input.KeyF11},
	tea.KeyF12: {Code: input.KeyF12},
}

// ctrlRunes covers the control keys that are not letters.
var ctrlRunes = map[tea.KeyType]rune{
	tea.KeyCtrlAt:           '@',
	tea.KeyCtrlBackslash:    '\\',
	tea.KeyCtrlCloseBracket: ']',
	tea.KeyCtrlCaret:        '^',
	tea.KeyCtrlUnderscore:   '_',
}

// keyEvent translates a Bubble Tea key into a Neovim key event.
func keyEvent(msg tea.KeyMsg) (input.KeyEvent, bool) {
	var mods input.Modifier
	if msg.Alt {
		mods |= input.ModAlt
	}
	if k, ok := namedKeys[msg.Type]; ok {
		k.Mods |= mods
		return k, true
	}
	switch {
	case msg.Type == tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return input.KeyEvent{}, false
		}
		return input.KeyEvent{Code: input.KeyRune, Rune: msg.Runes[0], Mods: mods}, true
	case msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ:
		r := rune('a' + int(msg.Type-tea.KeyCtrlA))
		return input.KeyEvent{Code: input.KeyRune, Rune: r, Mods: mods | input.ModCtrl}, true
	}
	if r, ok := ctrlRunes[msg.Type]; ok {
		return input.KeyEvent{Code: input.KeyRune, Rune: r, Mods: mods | input.ModCtrl}, true
	}
	return input.KeyEvent{}, false
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if m.quitEnabled && key.Matches(keyMsg, m.quit) {
		return m.quitCmd()
	}
	if m.editor == nil || m.ended {
		return nil
	}
	if keyMsg.Paste && keyMsg.Type == tea.KeyRunes {
		text := string(keyMsg.Runes)
		return m.bus.Go("paste", func(ctx context.Context) error {
			return m.editor.Paste(ctx, text)
		})
	}
	if keyMsg.Type == tea.KeyRunes && len(keyMsg.Runes) > 1 && !keyMsg.Alt {
		// several runes in one message are typed text, e.g. from an IME
		text := string(keyMsg.Runes)
		return m.bus.Go("text", func(ctx context.Context) error {
			return m.editor.Text(ctx, text)
		})
	}
	k, ok := keyEvent(keyMsg)
	if !ok {
		events.Input.Dropped(keyMsg.String())
		return nil
	}
	return m.bus.Go("key", func(ctx context.Context) error {
		_, err := m.editor.Key(ctx, k)
		return err
	})
}

var wheelActions = map[tea.MouseButton]input.MouseAction{
	tea.MouseButtonWheelUp:    input.WheelUp,
	tea.MouseButtonWheelDown:  input.WheelDown,
	tea.MouseButtonWheelLeft:  input.WheelLeft,
	tea.MouseButtonWheelRight: input.WheelRight,
}

var mouseButtons = map[tea.MouseButton]input.MouseButton{
	tea.MouseButtonLeft:   input.MouseLeft,
	tea.MouseButtonMiddle: input.MouseMiddle,
	tea.MouseButtonRight:  input.MouseRight,
}

// mouseEvent translates a Bubble Tea mouse message. pressed is the button
// held since the last press, used when a terminal reports releases and
// drags without a button.
func mouseEvent(msg tea.MouseMsg, pressed input.MouseButton) (input.MouseEvent, bool) {
	e := input.MouseEvent{Row: msg.Y, Col: msg.X}
	if msg.Shift {
		e.Mods |= input.ModShift
	}
	if msg.Ctrl {
		e.Mods |= input.ModCtrl
	}
	if msg.Alt {
		e.Mods |= input.ModAlt
	}
	if action, ok := wheelActions[msg.Button]; ok {
		e.Button, e.Action = input.MouseWheel, action
		return e, true
	}
	button, ok := mouseButtons[msg.Button]
	if !ok {
		button = pressed
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if !ok {
			return e, false
		}
		e.Button, e.Action = button, input.MousePress
	case tea.MouseActionRelease:
		if button == input.MouseNone {
			return e, false
		}
		e.Button, e.Action = button, input.MouseRelease
	case tea.MouseActionMotion:
		if button == input.MouseNone {
			e.Button, e.Action = input.MouseMove, input.MouseMotion
		} else {
			e.Button, e.Action = button, input.MouseDrag
		}
	default:
		return e, false
	}
	return e, true
}

func (m *Model) handleMouseMsg(msg tea.Msg) tea.Cmd {
	mouseMsg, ok := msg.(tea.MouseMsg)
	if !ok || m.editor == nil || m.ended {
		return nil
	}
	if !m.state.MouseEnabled {
		return nil
	}
	e, ok := mouseEvent(mouseMsg, m.mouseButton)
	if !ok {
		events.Input.Dropped(fmt.Sprintf("mouse %s", mouseMsg.String()))
		return nil
	}
	switch e.Action {
	case input.MousePress:
		m.mouseButton = e.Button
	case input.MouseRelease:
		m.mouseButton = input.MouseNone
	}
	m.locate(&e)
	return m.bus.Go("mouse", func(ctx context.Context) error {
		_, err := m.editor.Mouse(ctx, e)
		return err
	})
}

// locate turns screen coordinates into grid coordinates.
func (m *Model) locate(e *input.MouseEvent) {
	if !m.opts.Multigrid {
		e.Grid = 0
		return
	}
	e.Grid, e.Row, e.Col = m.state.GridAt(e.Row, e.Col)
}
