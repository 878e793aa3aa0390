package state

// CursorShape is the cursor form requested by the current mode.
type CursorShape int

const (
	CursorBlock CursorShape = iota
	CursorHorizontal
	CursorVertical
)

func ParseCursorShape(s string) CursorShape {
	switch s {
	case "horizontal":
		return CursorHorizontal
	case "vertical":
		return CursorVertical
	default:
		return CursorBlock
	}
}

func (s CursorShape) String() string {
	switch s {
	case CursorHorizontal:
		return "horizontal"
	case CursorVertical:
		return "vertical"
	default:
		return "block"
	}
}

type Cursor struct {
	Grid  int
	Row   int
	Col   int
	Shape CursorShape
	Blink bool
}

// ModeInfo is one entry of mode_info_set.
type ModeInfo struct {
	Name           string
	ShortName      string
	CursorShape    CursorShape
	CellPercentage int
	BlinkWait      int
	BlinkOn        int
	BlinkOff       int
	AttrID         int
}

func (m ModeInfo) Blinks() bool {
	return m.BlinkOn > 0 && m.BlinkOff > 0 && m.BlinkWait > 0
}

// ModeState tracks the current editing mode.
type ModeState struct {
	Name               string
	Index              int
	Infos              []ModeInfo
	CursorStyleEnabled bool
}

// Info returns the mode info for the current mode index, if known.
func (m ModeState) Info() (ModeInfo, bool) {
	if m.Index < 0 || m.Index >= len(m.Infos) {
		return ModeInfo{}, false
	}
	return m.Infos[m.Index], true
}
