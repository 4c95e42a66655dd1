package headlessconsole

// CursorStyle determines how the cursor is rendered (DECSCUSR).
type CursorStyle int

const (
	CursorStyleBlinkingBlock CursorStyle = iota
	CursorStyleSteadyBlock
	CursorStyleBlinkingUnderline
	CursorStyleSteadyUnderline
	CursorStyleBlinkingBar
	CursorStyleSteadyBar
)

// Cursor tracks the current position and rendering style (0-based coordinates).
// Col may equal the column count right after the last column of a row was
// written; the next printed character then wraps onto a continuation row.
type Cursor struct {
	Row     int
	Col     int
	Style   CursorStyle
	Visible bool
}

// NewCursor creates a cursor at (0, 0) with blinking block style, visible.
func NewCursor() *Cursor {
	return &Cursor{
		Style:   CursorStyleBlinkingBlock,
		Visible: true,
	}
}

// SavedCursor stores cursor position and attributes for DECSC/DECRC.
type SavedCursor struct {
	Row        int
	Col        int
	Attrs      CellTemplate
	OriginMode bool
}

// CellTemplate defines the attributes applied to newly written characters.
// Modified by SGR (Select Graphic Rendition) escape sequences.
type CellTemplate struct {
	Flags CellFlags
}

// NewCellTemplate creates a template with no attributes.
func NewCellTemplate() CellTemplate {
	return CellTemplate{}
}

// SetFlag enables a formatting flag on the template.
func (t *CellTemplate) SetFlag(flag CellFlags) {
	t.Flags |= flag
}

// ClearFlag disables a formatting flag on the template.
func (t *CellTemplate) ClearFlag(flag CellFlags) {
	t.Flags &^= flag
}
