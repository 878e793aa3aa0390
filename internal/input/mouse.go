package input

type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseRight
	MouseMiddle
	MouseWheel
	MouseMove
)

type MouseAction int

const (
	MousePress MouseAction = iota
	MouseDrag
	MouseRelease
	WheelUp
	WheelDown
	WheelLeft
	WheelRight
	MouseMotion
)

// MouseEvent is a mouse input in grid-relative cell coordinates.
type MouseEvent struct {
	Button MouseButton
	Action MouseAction
	Mods   Modifier
	Grid   int
	Row    int
	Col    int
}

var buttonNames = map[MouseButton]string{
	MouseLeft:   "left",
	MouseRight:  "right",
	MouseMiddle: "middle",
	MouseWheel:  "wheel",
	MouseMove:   "move",
}

// mouseArgs returns the button and action strings nvim_input_mouse takes.
// Combinations Neovim does not accept report false.
func mouseArgs(e MouseEvent) (string, string, bool) {
	button, ok := buttonNames[e.Button]
	if !ok {
		return "", "", false
	}
	switch e.Button {
	case MouseWheel:
		switch e.Action {
		case WheelUp:
			return button, "up", true
		case WheelDown:
			return button, "down", true
		case WheelLeft:
			return button, "left", true
		case WheelRight:
			return button, "right", true
		}
	case MouseMove:
		if e.Action == MouseMotion {
			return button, "", true
		}
	default:
		switch e.Action {
		case MousePress:
			return button, "press", true
		case MouseDrag:
			return button, "drag", true
		case MouseRelease:
			return button, "release", true
		}
	}
	return "", "", false
}
