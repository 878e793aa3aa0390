package theme

import (
	"fmt"

	"github.com/atomicstack/nvim-bridge/internal/state"
	"github.com/charmbracelet/lipgloss"
)

// Styles describes the Lip Gloss styles used for the chrome around the grid.
type Styles struct {
	StatusLine *lipgloss.Style
	StatusMode *lipgloss.Style
	StatusBusy *lipgloss.Style
	Error      *lipgloss.Style
	Info       *lipgloss.Style
	Cursor     *lipgloss.Style
}

var defaultStyles = Styles{
	StatusLine: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")).Background(lipgloss.Color("236")),
	),
	StatusMode: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("33")).Bold(true),
	),
	StatusBusy: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236")).Italic(true),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Background(lipgloss.Color("236")).Bold(true),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")).Background(lipgloss.Color("236")),
	),
	Cursor: ptr(
		lipgloss.NewStyle().Reverse(true),
	),
}

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}

// Hex formats a color the way lipgloss expects true colors.
func Hex(c state.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%06x", c.RGB&0xffffff))
}

// ForAttr builds the style for resolved highlight attributes. Colors left
// unset after resolving use the terminal's own defaults. Reverse is
// expected to be applied already.
func ForAttr(attr state.Attr) lipgloss.Style {
	style := lipgloss.NewStyle()
	if attr.Foreground.Valid {
		style = style.Foreground(Hex(attr.Foreground))
	}
	if attr.Background.Valid {
		style = style.Background(Hex(attr.Background))
	}
	if attr.Bold {
		style = style.Bold(true)
	}
	if attr.Italic {
		style = style.Italic(true)
	}
	// terminals without curly underline get a plain one
	if attr.Underline || attr.Undercurl {
		style = style.Underline(true)
	}
	if attr.Strikethrough {
		style = style.Strikethrough(true)
	}
	return style
}

// Cache memoises ForAttr per highlight id for one highlight table
// generation.
type Cache struct {
	styles map[int]lipgloss.Style
}

func NewCache() *Cache {
	return &Cache{styles: map[int]lipgloss.Style{}}
}

// Style returns the style for hl, resolving it through m on a miss.
func (c *Cache) Style(m *state.Model, hl int) lipgloss.Style {
	if s, ok := c.styles[hl]; ok {
		return s
	}
	s := ForAttr(m.Resolve(hl))
	c.styles[hl] = s
	return s
}

// Reset drops every cached style. Call it when highlights or default
// colors change.
func (c *Cache) Reset() {
	clear(c.styles)
}

func (c *Cache) Len() int { return len(c.styles) }
