package input

import (
	"strings"
	"unicode"
)

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// modifierOrder is the order prefixes appear in key notation.
var modifierOrder = []struct {
	mod    Modifier
	prefix string
}{
	{ModShift, "S-"},
	{ModCtrl, "C-"},
	{ModAlt, "M-"},
	{ModSuper, "D-"},
}

func (m Modifier) prefix() string {
	var b strings.Builder
	for _, o := range modifierOrder {
		if m&o.mod != 0 {
			b.WriteString(o.prefix)
		}
	}
	return b.String()
}

// KeyCode identifies a non-printable key. KeyRune means the key is a
// printable character carried in KeyEvent.Rune.
type KeyCode int

const (
	KeyRune KeyCode = iota
	KeyEsc
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var specialNames = map[KeyCode]string{
	KeyEsc:       "Esc",
	KeyEnter:     "CR",
	KeyTab:       "Tab",
	KeyBackspace: "BS",
	KeyDelete:    "Del",
	KeySpace:     "Space",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyInsert:    "Insert",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
}

// runeNames are printable characters that need a name inside <>.
var runeNames = map[rune]string{
	'<':  "lt",
	'\\': "Bslash",
	'|':  "Bar",
	' ':  "Space",
}

// KeyEvent is one local key press.
type KeyEvent struct {
	Code KeyCode
	Rune rune
	Mods Modifier
}

func (k KeyEvent) String() string {
	if k.Code == KeyRune {
		return k.Mods.prefix() + string(k.Rune)
	}
	if name, ok := specialNames[k.Code]; ok {
		return k.Mods.prefix() + name
	}
	return k.Mods.prefix() + "?"
}

// Notation renders k in Neovim key notation. Shift is already reflected in
// a printable rune and is not repeated as a prefix. It reports false for
// keys that have no notation.
func Notation(k KeyEvent) (string, bool) {
	if k.Code != KeyRune {
		name, ok := specialNames[k.Code]
		if !ok {
			return "", false
		}
		return "<" + k.Mods.prefix() + name + ">", true
	}

	r := k.Rune
	if r == 0 || r == unicode.ReplacementChar || unicode.IsControl(r) || !unicode.IsPrint(r) {
		return "", false
	}
	mods := k.Mods &^ ModShift
	if mods == 0 {
		if r == '<' {
			return "<lt>", true
		}
		return string(r), true
	}
	name, ok := runeNames[r]
	if !ok {
		name = string(r)
	}
	return "<" + mods.prefix() + name + ">", true
}

// EscapeText makes literal text safe for nvim_input.
func EscapeText(s string) string {
	return strings.ReplaceAll(s, "<", "<lt>")
}
