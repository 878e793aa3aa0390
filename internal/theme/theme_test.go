package theme

import (
	"testing"

	"github.com/atomicstack/nvim-bridge/internal/state"
)

func TestHexFormatsColor(t *testing.T) {
	if got := Hex(state.RGB(0xff8000)); got != "#ff8000" {
		t.Fatalf("unexpected color %q", got)
	}
	if got := Hex(state.RGB(0x1)); got != "#000001" {
		t.Fatalf("unexpected color %q", got)
	}
}

func TestForAttrMapsAttributes(t *testing.T) {
	style := ForAttr(state.Attr{
		Foreground: state.RGB(0x112233),
		Bold:       true,
		Undercurl:  true,
	})
	if !style.GetBold() || !style.GetUnderline() || style.GetItalic() {
		t.Fatalf("unexpected flags on %v", style)
	}
	if got := style.GetForeground(); got != Hex(state.RGB(0x112233)) {
		t.Fatalf("unexpected foreground %v", got)
	}
}

func TestCacheResolvesOncePerReset(t *testing.T) {
	m := state.NewModel(1, 1)
	m.Highlights.Define(2, state.Attr{Italic: true})
	c := NewCache()
	if !c.Style(m, 2).GetItalic() {
		t.Fatalf("expected italic style")
	}
	m.Highlights.Define(2, state.Attr{Bold: true})
	if !c.Style(m, 2).GetItalic() {
		t.Fatalf("expected cached style before reset")
	}
	c.Reset()
	if !c.Style(m, 2).GetBold() || c.Len() != 1 {
		t.Fatalf("expected fresh style after reset")
	}
}
