package headlessconsole

// CellFlags is a bitmask of cell rendering attributes.
type CellFlags uint16

const (
	CellFlagBold CellFlags = 1 << iota
	CellFlagDim
	CellFlagItalic
	CellFlagUnderline
	CellFlagBlink
	CellFlagReverse
	CellFlagHidden
	CellFlagStrike
	CellFlagWideChar
	CellFlagWideCharSpacer
	CellFlagDirty
)

// attrFlags are the flags copied from the SGR template into printed cells.
const attrFlags = CellFlagBold | CellFlagDim | CellFlagItalic | CellFlagUnderline |
	CellFlagBlink | CellFlagReverse | CellFlagHidden | CellFlagStrike

// Cell stores the character and formatting attributes for one grid position.
// A cell that was never written holds Char 0 and counts as blank; a printed
// space is content. Wide characters (2 columns) use a spacer cell in the
// second position.
type Cell struct {
	Char      rune
	Flags     CellFlags
	Hyperlink *Hyperlink
}

// Hyperlink associates a cell with a clickable link (OSC 8).
type Hyperlink struct {
	ID  string
	URI string
}

// NewCell creates a blank cell.
func NewCell() Cell {
	return Cell{}
}

// Reset clears the character and all attributes.
func (c *Cell) Reset() {
	c.Char = 0
	c.Flags = 0
	c.Hyperlink = nil
}

// IsBlank returns true if nothing was ever printed into the cell.
func (c *Cell) IsBlank() bool {
	return c.Char == 0 && !c.IsWideSpacer()
}

// HasFlag returns true if the specified flag is set.
func (c *Cell) HasFlag(flag CellFlags) bool {
	return c.Flags&flag != 0
}

// SetFlag enables the specified flag without affecting others.
func (c *Cell) SetFlag(flag CellFlags) {
	c.Flags |= flag
}

// ClearFlag disables the specified flag without affecting others.
func (c *Cell) ClearFlag(flag CellFlags) {
	c.Flags &^= flag
}

// IsDirty returns true if the cell was modified since the last ClearDirty call.
func (c *Cell) IsDirty() bool {
	return c.HasFlag(CellFlagDirty)
}

// MarkDirty marks the cell as modified for dirty tracking.
func (c *Cell) MarkDirty() {
	c.SetFlag(CellFlagDirty)
}

// ClearDirty resets the dirty tracking flag.
func (c *Cell) ClearDirty() {
	c.ClearFlag(CellFlagDirty)
}

// IsWide returns true if this cell contains a character that occupies 2 columns.
func (c *Cell) IsWide() bool {
	return c.HasFlag(CellFlagWideChar)
}

// IsWideSpacer returns true if this is the second cell of a wide character.
func (c *Cell) IsWideSpacer() bool {
	return c.HasFlag(CellFlagWideCharSpacer)
}

// displayRune returns the rune a renderer shows for the cell.
func (c *Cell) displayRune() rune {
	if c.Char == 0 {
		return ' '
	}
	return c.Char
}
