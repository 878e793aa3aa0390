package state

import "strings"

// DefaultHighlight is the highlight id every blank cell carries.
const DefaultHighlight = 0

// Cell is one grid position. Text is empty for the right half of a wide
// character.
type Cell struct {
	Text string
	HL   int
}

// Limits on grid dimensions. Anything larger is refused by the decoder and
// clamped by Resize.
const (
	MaxGridCols  = 1 << 14
	MaxGridCells = 1 << 22
)

// Blank is the cell grids are filled with on resize, clear and scroll.
var Blank = Cell{Text: " ", HL: DefaultHighlight}

// Grid is a rows × cols array of cells addressed by row then column.
type Grid struct {
	ID    int
	rows  int
	cols  int
	cells []Cell
}

// NewGrid returns a blank grid. Negative dimensions are treated as zero.
func NewGrid(id, cols, rows int) *Grid {
	g := &Grid{ID: id}
	g.Resize(cols, rows)
	return g
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Resize reallocates the grid with fresh blank cells. Dimensions are
// clamped to MaxGridCols and MaxGridCells.
func (g *Grid) Resize(cols, rows int) {
	cols = min(max(cols, 0), MaxGridCols)
	rows = max(rows, 0)
	if cols > 0 && rows > MaxGridCells/cols {
		rows = MaxGridCells / cols
	}
	g.cols, g.rows = cols, rows
	g.cells = make([]Cell, cols*rows)
	g.Clear()
}

// Clear resets every cell to Blank.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Blank
	}
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Cell returns the cell at row, col.
func (g *Grid) Cell(row, col int) (Cell, bool) {
	if !g.inBounds(row, col) {
		return Cell{}, false
	}
	return g.cells[row*g.cols+col], true
}

// Row returns a copy of one row.
func (g *Grid) Row(row int) []Cell {
	if row < 0 || row >= g.rows {
		return nil
	}
	out := make([]Cell, g.cols)
	copy(out, g.cells[row*g.cols:(row+1)*g.cols])
	return out
}

// Put overwrites cells on row starting at col. Cells past the right edge
// are dropped; the number written is returned. It reports false when the
// row or start column lies outside the grid.
func (g *Grid) Put(row, col int, cells []Cell) (int, bool) {
	if !g.inBounds(row, col) {
		return 0, false
	}
	n := len(cells)
	if col+n > g.cols {
		n = g.cols - col
	}
	copy(g.cells[row*g.cols+col:], cells[:n])
	return n, n == len(cells)
}

// Scroll shifts the region [top,bot) × [left,right) by rows. Positive rows
// move content up. Vacated rows are blanked. The region is clamped to the
// grid; nothing outside it is read or written.
func (g *Grid) Scroll(top, bot, left, right, rows int) {
	top, bot = clamp(top, 0, g.rows), clamp(bot, 0, g.rows)
	left, right = clamp(left, 0, g.cols), clamp(right, 0, g.cols)
	if rows == 0 || top >= bot || left >= right {
		return
	}
	height := bot - top
	if rows >= height || -rows >= height {
		for r := top; r < bot; r++ {
			g.blankSpan(r, left, right)
		}
		return
	}
	if rows > 0 {
		for r := top; r < bot-rows; r++ {
			g.copySpan(r+rows, r, left, right)
		}
		for r := bot - rows; r < bot; r++ {
			g.blankSpan(r, left, right)
		}
		return
	}
	shift := -rows
	for r := bot - 1; r >= top+shift; r-- {
		g.copySpan(r-shift, r, left, right)
	}
	for r := top; r < top+shift; r++ {
		g.blankSpan(r, left, right)
	}
}

func (g *Grid) copySpan(src, dst, left, right int) {
	copy(g.cells[dst*g.cols+left:dst*g.cols+right], g.cells[src*g.cols+left:src*g.cols+right])
}

func (g *Grid) blankSpan(row, left, right int) {
	for c := left; c < right; c++ {
		g.cells[row*g.cols+c] = Blank
	}
}

// Text renders one row as plain text, skipping wide-character tails.
func (g *Grid) Text(row int) string {
	var b strings.Builder
	for _, cell := range g.Row(row) {
		b.WriteString(cell.Text)
	}
	return b.String()
}

// Dump renders the whole grid as plain text, one line per row.
func (g *Grid) Dump() string {
	lines := make([]string, g.rows)
	for r := range lines {
		lines[r] = g.Text(r)
	}
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
