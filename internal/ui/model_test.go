package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/atomicstack/nvim-bridge/internal/backend"
	"github.com/atomicstack/nvim-bridge/internal/input"
	"github.com/atomicstack/nvim-bridge/internal/redraw"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
	"github.com/atomicstack/nvim-bridge/internal/session"
	"github.com/atomicstack/nvim-bridge/internal/ui/command"
	tea "github.com/charmbracelet/bubbletea"
)

func TestHandlerForRegisteredTypes(t *testing.T) {
	m := NewModel(Options{}, nil, nil)
	defer m.Close()
	for _, msg := range []tea.Msg{
		tea.KeyMsg{},
		tea.MouseMsg{},
		tea.WindowSizeMsg{},
		command.ActionResult{},
		backendEventMsg{},
		backendDoneMsg{},
	} {
		if m.handlerFor(msg) == nil {
			t.Fatalf("no handler for %T", msg)
		}
	}
	if m.handlerFor(struct{}{}) != nil {
		t.Fatalf("unexpected handler for an unknown message")
	}
}

func TestNewModelReservesStatusRow(t *testing.T) {
	m := NewModel(Options{Width: 40, Height: 10}, nil, nil)
	defer m.Close()
	g, _ := m.State().Grid(1)
	if g.Cols() != 40 || g.Rows() != 9 {
		t.Fatalf("expected 40x9 grid, got %dx%d", g.Cols(), g.Rows())
	}

	bare := NewModel(Options{Width: 40, Height: 10, HideStatus: true}, nil, nil)
	defer bare.Close()
	g, _ = bare.State().Grid(1)
	if g.Rows() != 10 {
		t.Fatalf("expected all rows for the grid, got %d", g.Rows())
	}
}

func TestKeysReachEditorInOrder(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 20, Height: 5})
	for _, r := range "ihi" {
		h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	h.Send(tea.KeyMsg{Type: tea.KeyEsc})

	var got []string
	for _, k := range editor.keys {
		n, _ := input.Notation(k)
		got = append(got, n)
	}
	if strings.Join(got, "") != "ihi<Esc>" {
		t.Fatalf("unexpected key order %q", got)
	}
}

func TestTextAndPasteAreForwarded(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 20, Height: 5})
	h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("日本")})
	h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("line one\nline two"), Paste: true})

	if len(editor.texts) != 1 || editor.texts[0] != "日本" {
		t.Fatalf("unexpected text %q", editor.texts)
	}
	if len(editor.pastes) != 1 || editor.pastes[0] != "line one\nline two" {
		t.Fatalf("unexpected paste %q", editor.pastes)
	}
	if len(editor.keys) != 0 {
		t.Fatalf("text should not be sent as keys: %v", editor.keys)
	}
	if info := h.Model().currentInfo(); info != "pasted" {
		t.Fatalf("expected paste info, got %q", info)
	}
}

func TestQuitKeyBypassesEditor(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 20, Height: 5, QuitKey: "ctrl+q"})
	h.Send(tea.KeyMsg{Type: tea.KeyCtrlQ})
	if !h.Quit() {
		t.Fatalf("expected quit")
	}
	if len(editor.keys) != 0 {
		t.Fatalf("quit key must not reach the editor")
	}
}

func TestCtrlQWithoutQuitKeyIsForwarded(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 20, Height: 5})
	h.Send(tea.KeyMsg{Type: tea.KeyCtrlQ})
	if h.Quit() {
		t.Fatalf("unexpected quit")
	}
	if len(editor.keys) != 1 {
		t.Fatalf("expected ctrl+q to be forwarded")
	}
}

func TestMouseNeedsMouseOn(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 20, Height: 5})
	press := tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	h.Send(press)
	if len(editor.mice) != 0 {
		t.Fatalf("mouse forwarded while disabled")
	}

	h.Send(batch(redraw.MouseOn{}))
	h.Send(press)
	h.Send(tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	h.Send(tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionRelease})
	if len(editor.mice) != 3 {
		t.Fatalf("expected three mouse events, got %d", len(editor.mice))
	}
	want := []input.MouseEvent{
		{Button: input.MouseLeft, Action: input.MousePress, Row: 1, Col: 2},
		{Button: input.MouseLeft, Action: input.MouseDrag, Row: 1, Col: 3},
		{Button: input.MouseLeft, Action: input.MouseRelease, Row: 1, Col: 3},
	}
	for i, e := range editor.mice {
		if e != want[i] {
			t.Fatalf("event %d: got %+v, want %+v", i, e, want[i])
		}
	}
}

func TestMultigridMouseUsesGridAt(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 20, Height: 6, Multigrid: true})
	h.Send(batch(
		redraw.MouseOn{},
		redraw.GridResize{Grid: 2, Cols: 10, Rows: 3},
		redraw.WinPos{Grid: 2, Row: 1, Col: 4, Cols: 10, Rows: 3},
	))
	h.Send(tea.MouseMsg{X: 6, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(editor.mice) != 1 {
		t.Fatalf("expected one mouse event")
	}
	e := editor.mice[0]
	if e.Grid != 2 || e.Row != 1 || e.Col != 2 {
		t.Fatalf("expected grid 2 at 1,2, got %+v", e)
	}
}

func TestWindowSizeResizesEditor(t *testing.T) {
	h, editor := newTestModel(t, Options{})
	h.Send(tea.WindowSizeMsg{Width: 100, Height: 30})
	if len(editor.resizes) != 1 || editor.resizes[0] != [2]int{100, 29} {
		t.Fatalf("unexpected resizes %v", editor.resizes)
	}
}

func TestPinnedSizeIgnoresTerminal(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 50, Height: 20})
	h.Send(tea.WindowSizeMsg{Width: 100, Height: 30})
	if len(editor.resizes) != 1 || editor.resizes[0] != [2]int{50, 19} {
		t.Fatalf("unexpected resizes %v", editor.resizes)
	}
}

func TestEditorErrorShowsInStatus(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 60, Height: 5})
	editor.err = &rpc.RemoteError{
		Method:  "nvim_input",
		Payload: rpc.Array(rpc.Int(0), rpc.String("E492: Not an editor command")),
	}
	h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if !strings.Contains(h.View(), "E492: Not an editor command") {
		t.Fatalf("expected error in status line:\n%s", h.View())
	}
}

func TestCancelledRequestsAreQuiet(t *testing.T) {
	h, _ := newTestModel(t, Options{Width: 20, Height: 5})
	h.Send(command.ActionResult{Label: "key", Err: rpc.ErrCancelled})
	if h.Model().errMsg != "" {
		t.Fatalf("unexpected error message %q", h.Model().errMsg)
	}
}

func TestEndedEventQuits(t *testing.T) {
	h, editor := newTestModel(t, Options{Width: 20, Height: 5})
	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindEnded, Data: session.Ended{Code: 3}}})
	if !h.Quit() {
		t.Fatalf("expected quit after the session ended")
	}
	ended, code, err := h.Model().Ended()
	if !ended || code != 3 || err != nil {
		t.Fatalf("unexpected end state %v %d %v", ended, code, err)
	}
	h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if len(editor.keys) != 0 {
		t.Fatalf("keys forwarded after the session ended")
	}
}

func TestEndedWithErrorKeepsMessage(t *testing.T) {
	h, _ := newTestModel(t, Options{Width: 20, Height: 5})
	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindEnded, Data: session.Ended{}, Err: errors.New("connection lost")}})
	_, _, err := h.Model().Ended()
	if err == nil || h.Model().errMsg != "connection lost" {
		t.Fatalf("expected connection error, got %v / %q", err, h.Model().errMsg)
	}
}
