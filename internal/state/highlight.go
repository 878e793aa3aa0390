package state

// Color is a 24-bit RGB value. Unset colors fall back to the defaults.
type Color struct {
	RGB   uint32
	Valid bool
}

func RGB(v uint32) Color { return Color{RGB: v & 0xffffff, Valid: true} }

// Or returns c, or fallback when c is unset.
func (c Color) Or(fallback Color) Color {
	if c.Valid {
		return c
	}
	return fallback
}

// Attr is the style record behind a highlight id.
type Attr struct {
	Foreground    Color
	Background    Color
	Special       Color
	Reverse       bool
	Bold          bool
	Italic        bool
	Underline     bool
	Undercurl     bool
	Strikethrough bool
	Blend         int
}

// DefaultColors are the colors of highlight id 0.
type DefaultColors struct {
	Foreground Color
	Background Color
	Special    Color
}

// HighlightTable maps highlight ids to attributes. Entries are only added
// or overwritten during a session.
type HighlightTable struct {
	attrs  map[int]Attr
	groups map[string]int
}

func NewHighlightTable() *HighlightTable {
	return &HighlightTable{
		attrs:  map[int]Attr{DefaultHighlight: {}},
		groups: map[string]int{},
	}
}

func (t *HighlightTable) Define(id int, attr Attr) {
	t.attrs[id] = attr
}

func (t *HighlightTable) Lookup(id int) (Attr, bool) {
	attr, ok := t.attrs[id]
	return attr, ok
}

func (t *HighlightTable) Has(id int) bool {
	_, ok := t.attrs[id]
	return ok
}

func (t *HighlightTable) Len() int {
	return len(t.attrs)
}

// SetGroup records which highlight id a named UI group currently uses.
func (t *HighlightTable) SetGroup(name string, id int) {
	t.groups[name] = id
}

func (t *HighlightTable) Group(name string) (int, bool) {
	id, ok := t.groups[name]
	return id, ok
}
