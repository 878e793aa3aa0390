package state

import "github.com/atomicstack/nvim-bridge/internal/rpc"

// WindowPlacement describes where a window grid is drawn on the outer grid.
type WindowPlacement struct {
	Grid     int
	Window   rpc.Value
	Row      int
	Col      int
	Cols     int
	Rows     int
	Floating bool
	Anchor   string
	// AnchorGrid is the grid a floating window is positioned against.
	AnchorGrid int
	Hidden     bool
}

type Tab struct {
	Handle rpc.Value
	Name   string
}

type Tabline struct {
	Current rpc.Value
	Tabs    []Tab
}

// CurrentName returns the name of the current tab, if any.
func (t Tabline) CurrentName() string {
	for _, tab := range t.Tabs {
		if tab.Handle.Equal(t.Current) {
			return tab.Name
		}
	}
	return ""
}
