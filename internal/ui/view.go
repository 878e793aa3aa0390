package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atomicstack/nvim-bridge/internal/state"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

var modeLabelCleaner = strings.NewReplacer("_", " ", "-", " ")

// View implements tea.Model. The grid part is only rebuilt after a flush
// or a size change.
func (m *Model) View() string {
	if m.frameDirty {
		m.frame = m.renderFrame()
		m.frameDirty = false
	}
	if m.opts.HideStatus {
		return m.frame
	}
	return m.frame + "\n" + m.statusLine()
}

func (m *Model) renderFrame() string {
	g := m.state.Compose()
	crow, ccol, cursorVisible := m.state.CursorPosition()
	if m.state.Busy {
		cursorVisible = false
	}
	lines := make([]string, g.Rows())
	for r := range lines {
		cursorCol := -1
		if cursorVisible && r == crow {
			cursorCol = ccol
		}
		lines[r] = m.renderRow(g.Row(r), cursorCol)
	}
	return strings.Join(lines, "\n")
}

// renderRow styles one row, merging neighbouring cells that share a
// highlight id into a single styled run.
func (m *Model) renderRow(cells []state.Cell, cursorCol int) string {
	var (
		out strings.Builder
		run strings.Builder
		hl  = -1
	)
	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(m.styleCache.Style(m.state, hl).Render(run.String()))
		run.Reset()
	}
	for c, cell := range cells {
		if cell.Text == "" {
			// right half of a wide character
			continue
		}
		text := cellText(cells, c)
		if c == cursorCol {
			flush()
			out.WriteString(m.cursorStyle(cell.HL).Render(text))
			hl = -1
			continue
		}
		if cell.HL != hl {
			flush()
			hl = cell.HL
		}
		run.WriteString(text)
	}
	flush()
	return out.String()
}

// cellText returns what the terminal should draw for cells[c]. Text the
// terminal would draw at a different width than Neovim assumed becomes a
// space so the columns after it stay aligned.
func cellText(cells []state.Cell, c int) string {
	text := cells[c].Text
	switch runewidth.StringWidth(text) {
	case 1:
		return text
	case 2:
		if c+1 < len(cells) && cells[c+1].Text == "" {
			return text
		}
	}
	return " "
}

func (m *Model) cursorStyle(hl int) lipgloss.Style {
	style := m.styleCache.Style(m.state, hl)
	if m.state.Cursor.Shape == state.CursorHorizontal {
		return style.Underline(true)
	}
	return style.Inherit(*styles.Cursor)
}

func (m *Model) surfaceWidth() int {
	if m.width > 0 {
		return m.width
	}
	if g, ok := m.state.Grid(state.DefaultGrid); ok {
		return g.Cols()
	}
	return 0
}

func (m *Model) modeLabel() string {
	mode := m.state.Mode.Name
	if mode == "" {
		mode = m.state.Status.Mode
	}
	if mode == "" {
		mode = "normal"
	}
	return strings.ToUpper(modeLabelCleaner.Replace(mode))
}

func (m *Model) bufferLabel() string {
	name := m.state.Status.Buffer
	if name != "" {
		name = filepath.Base(name)
	} else if m.state.Title != "" {
		name = m.state.Title
	} else {
		name = "[No Name]"
	}
	if tabs := m.state.Tabline.Tabs; len(tabs) > 1 {
		for i, tab := range tabs {
			if tab.Handle.Equal(m.state.Tabline.Current) {
				name = fmt.Sprintf("[%d/%d] %s", i+1, len(tabs), name)
				break
			}
		}
	}
	return name
}

func (m *Model) positionLabel() string {
	if line, col, ok := m.state.Status.Position(); ok {
		return fmt.Sprintf("%d:%d", line, col)
	}
	return fmt.Sprintf("%d:%d", m.state.Cursor.Row+1, m.state.Cursor.Col+1)
}

// statusLine renders mode, buffer, messages and position into exactly the
// surface width.
func (m *Model) statusLine() string {
	width := m.surfaceWidth()
	if width <= 0 {
		return ""
	}
	left := styles.StatusMode.Render(" " + m.modeLabel() + " ")
	right := styles.StatusLine.Render(" " + m.positionLabel() + " ")

	middle := styles.StatusLine.Render(" " + m.bufferLabel())
	if m.state.Busy {
		middle += styles.StatusBusy.Render(" busy")
	}
	if m.errMsg != "" {
		middle += styles.StatusLine.Render(" ") + styles.Error.Render(m.errMsg)
	} else if info := m.currentInfo(); info != "" {
		middle += styles.StatusLine.Render(" ") + styles.Info.Render(info)
	}

	room := width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if room <= 0 {
		return truncate.String(left+right, uint(width))
	}
	if ansi.StringWidth(middle) > room {
		middle = truncate.StringWithTail(middle, uint(room), "…")
	}
	if gap := room - ansi.StringWidth(middle); gap > 0 {
		middle += styles.StatusLine.Render(strings.Repeat(" ", gap))
	}
	return left + middle + right
}
