package ui

import (
	"strings"
	"testing"

	"github.com/atomicstack/nvim-bridge/internal/redraw"
	"github.com/atomicstack/nvim-bridge/internal/state"
	"github.com/atomicstack/nvim-bridge/internal/testutil"
	"github.com/charmbracelet/x/ansi"
)

func helloBatch() backendEventMsg {
	evts := []redraw.Event{
		redraw.GridResize{Grid: 1, Cols: 30, Rows: 4},
		redraw.GridLine{Grid: 1, Row: 0, ColStart: 0, Cells: textCells("Hello, world")},
	}
	for row := 1; row < 4; row++ {
		evts = append(evts, redraw.GridLine{Grid: 1, Row: row, ColStart: 0, Cells: textCells("~")})
	}
	evts = append(evts,
		redraw.ModeChange{Mode: "normal"},
		redraw.GridCursorGoto{Grid: 1, Row: 0, Col: 5},
	)
	return batch(evts...)
}

func TestViewRendersGridAndStatus(t *testing.T) {
	h, _ := newTestModel(t, Options{Width: 30, Height: 5})
	h.Send(helloBatch())
	testutil.AssertGolden(t, "view/hello.txt", ansi.Strip(h.View()))
}

func TestStatusLineFillsSurfaceWidth(t *testing.T) {
	for _, width := range []int{12, 30, 80} {
		h, _ := newTestModel(t, Options{Width: width, Height: 5})
		h.Send(helloBatch())
		lines := strings.Split(h.View(), "\n")
		status := lines[len(lines)-1]
		if got := ansi.StringWidth(status); got != width {
			t.Fatalf("width %d: status line is %d cells wide: %q", width, got, ansi.Strip(status))
		}
	}
}

func TestViewShowsSubscriptionStatus(t *testing.T) {
	h, _ := newTestModel(t, Options{Width: 60, Height: 5})
	h.Send(helloBatch())
	st := &h.Model().State().Status
	st.Buffer = "/tmp/project/main.go"
	st.Line, st.Col = 12, 4
	view := ansi.Strip(h.View())
	if !strings.Contains(view, "main.go") || !strings.Contains(view, "12:4") {
		t.Fatalf("expected buffer and position in status:\n%s", view)
	}
	if strings.Contains(view, "/tmp/project") {
		t.Fatalf("expected only the base name:\n%s", view)
	}
}

func TestHideStatusRendersOnlyGrid(t *testing.T) {
	h, _ := newTestModel(t, Options{Width: 30, Height: 4, HideStatus: true})
	h.Send(helloBatch())
	lines := strings.Split(ansi.Strip(h.View()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 grid rows, got %d", len(lines))
	}
}

func TestRenderRowKeepsWideCharacters(t *testing.T) {
	m := NewModel(Options{Width: 6, Height: 2}, nil, nil)
	defer m.Close()
	cells := []state.Cell{{Text: "a"}, {Text: "日"}, {Text: ""}, {Text: "b"}, {Text: "é"}, {Text: "c"}}
	got := ansi.Strip(m.renderRow(cells, -1))
	if got != "a日béc" {
		t.Fatalf("unexpected row %q", got)
	}
	if w := ansi.StringWidth(got); w != 6 {
		t.Fatalf("expected 6 cells, got %d", w)
	}
}

func TestCellTextReplacesMismatchedWidths(t *testing.T) {
	cells := []state.Cell{{Text: "日"}, {Text: "x"}}
	if got := cellText(cells, 0); got != " " {
		t.Fatalf("wide text without a continuation cell should be blank, got %q", got)
	}
	if got := cellText([]state.Cell{{Text: "\u200b"}}, 0); got != " " {
		t.Fatalf("zero-width text should be blank, got %q", got)
	}
}

func TestFrameIsCachedUntilFlush(t *testing.T) {
	h, _ := newTestModel(t, Options{Width: 30, Height: 5})
	h.Send(helloBatch())
	_ = h.View()
	g, _ := h.Model().State().Grid(1)
	g.Put(0, 0, []state.Cell{{Text: "J"}})
	if strings.HasPrefix(ansi.Strip(h.View()), "J") {
		t.Fatalf("frame rebuilt without a flush")
	}
	h.Send(batch(redraw.GridCursorGoto{Grid: 1, Row: 0, Col: 5}))
	if !strings.HasPrefix(ansi.Strip(h.View()), "Jello") {
		t.Fatalf("frame not rebuilt after a flush")
	}
}
