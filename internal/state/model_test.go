package state

import (
	"errors"
	"testing"
)

func TestNewModelHasOuterGrid(t *testing.T) {
	m := NewModel(80, 24)
	g, ok := m.Grid(DefaultGrid)
	if !ok {
		t.Fatalf("expected grid %d", DefaultGrid)
	}
	if g.Cols() != 80 || g.Rows() != 24 {
		t.Fatalf("unexpected size %dx%d", g.Cols(), g.Rows())
	}
	if !m.Highlights.Has(DefaultHighlight) {
		t.Fatalf("default highlight must always exist")
	}
}

func TestDestroyGridMovesCursorHome(t *testing.T) {
	m := NewModel(10, 5)
	m.ResizeGrid(4, 3, 3)
	if err := m.MoveCursor(4, 2, 2); err != nil {
		t.Fatalf("move cursor: %v", err)
	}
	if err := m.DestroyGrid(4); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if m.Cursor.Grid != DefaultGrid || m.Cursor.Row != 0 || m.Cursor.Col != 0 {
		t.Fatalf("cursor not reset: %+v", m.Cursor)
	}
	if err := m.DestroyGrid(4); !errors.Is(err, ErrUnknownGrid) {
		t.Fatalf("expected ErrUnknownGrid, got %v", err)
	}
	if err := m.DestroyGrid(DefaultGrid); err != nil {
		t.Fatalf("outer grid destroy should be ignored: %v", err)
	}
	if _, ok := m.Grid(DefaultGrid); !ok {
		t.Fatalf("outer grid removed")
	}
}

func TestMoveCursorClampsAndRejectsUnknownGrid(t *testing.T) {
	m := NewModel(10, 5)
	if err := m.MoveCursor(1, 40, 99); err != nil {
		t.Fatalf("move cursor: %v", err)
	}
	if m.Cursor.Row != 4 || m.Cursor.Col != 9 {
		t.Fatalf("cursor not clamped: %+v", m.Cursor)
	}
	if err := m.MoveCursor(7, 0, 0); !errors.Is(err, ErrUnknownGrid) {
		t.Fatalf("expected ErrUnknownGrid, got %v", err)
	}
	if m.Cursor.Grid != 1 {
		t.Fatalf("cursor moved to unknown grid")
	}
}

func TestSetModeAppliesCursorShape(t *testing.T) {
	m := NewModel(10, 5)
	m.Mode.Infos = []ModeInfo{
		{Name: "normal", CursorShape: CursorBlock},
		{Name: "insert", CursorShape: CursorVertical, BlinkWait: 700, BlinkOn: 400, BlinkOff: 250},
	}
	m.SetMode("insert", 1)
	if m.Cursor.Shape != CursorVertical || !m.Cursor.Blink {
		t.Fatalf("unexpected cursor %+v", m.Cursor)
	}
	m.SetMode("normal", 0)
	if m.Cursor.Shape != CursorBlock || m.Cursor.Blink {
		t.Fatalf("unexpected cursor %+v", m.Cursor)
	}
}

func TestResolveFillsDefaultsAndReverses(t *testing.T) {
	m := NewModel(1, 1)
	m.Defaults = DefaultColors{Foreground: RGB(0xffffff), Background: RGB(0x000000)}
	m.Highlights.Define(3, Attr{Foreground: RGB(0xff0000), Reverse: true})
	attr := m.Resolve(3)
	if attr.Foreground != RGB(0x000000) || attr.Background != RGB(0xff0000) {
		t.Fatalf("unexpected colors %+v", attr)
	}
	plain := m.Resolve(42)
	if plain.Foreground != RGB(0xffffff) {
		t.Fatalf("unknown id should resolve to defaults, got %+v", plain)
	}
}
