package headlessconsole

// Buffer stores the grid of rows and the tab stops of the screen.
// Rows scrolled off the top are counted but not kept.
type Buffer struct {
	rows     int
	cols     int
	lines    []*Row
	tabStop  []bool
	scrolled int64
	hasDirty bool
}

// NewBuffer creates a blank buffer with tab stops every 8 columns.
func NewBuffer(rows, cols int) *Buffer {
	b := &Buffer{
		rows:    rows,
		cols:    cols,
		lines:   make([]*Row, rows),
		tabStop: make([]bool, cols),
	}
	for i := range b.lines {
		b.lines[i] = NewRow(cols)
	}
	for i := 0; i < cols; i += 8 {
		b.tabStop[i] = true
	}
	return b
}

// Rows returns the buffer height in character rows.
func (b *Buffer) Rows() int {
	return b.rows
}

// Cols returns the buffer width in character columns.
func (b *Buffer) Cols() int {
	return b.cols
}

// Row returns the physical row at index, or nil if out of bounds.
func (b *Buffer) Row(index int) *Row {
	if index < 0 || index >= b.rows {
		return nil
	}
	return b.lines[index]
}

// Cell returns a pointer to the cell at (row, col), or nil if out of bounds.
func (b *Buffer) Cell(row, col int) *Cell {
	r := b.Row(row)
	if r == nil {
		return nil
	}
	return r.Cell(col)
}

// SetCell replaces the cell at (row, col) and marks it dirty.
func (b *Buffer) SetCell(row, col int, cell Cell) {
	r := b.Row(row)
	if r == nil {
		return
	}
	r.SetCell(col, cell)
	b.hasDirty = true
}

// MarkDirty marks the cell at (row, col) as modified.
func (b *Buffer) MarkDirty(row, col int) {
	if c := b.Cell(row, col); c != nil {
		c.MarkDirty()
		b.hasDirty = true
	}
}

// MarkRowDirty marks every cell of a row as modified.
func (b *Buffer) MarkRowDirty(row int) {
	if r := b.Row(row); r != nil {
		r.MarkDirty()
		b.hasDirty = true
	}
}

// HasDirty returns true if any cell has been modified since the last ClearAllDirty call.
func (b *Buffer) HasDirty() bool {
	return b.hasDirty
}

// DirtyRows returns the indexes of rows holding at least one dirty cell.
func (b *Buffer) DirtyRows() []int {
	var rows []int
	for i, r := range b.lines {
		if r.IsDirty() {
			rows = append(rows, i)
		}
	}
	return rows
}

// DirtyCells returns positions of all modified cells.
func (b *Buffer) DirtyCells() []Position {
	var positions []Position
	for row, r := range b.lines {
		for col := range r.cells {
			if r.cells[col].IsDirty() {
				positions = append(positions, Position{Row: row, Col: col})
			}
		}
	}
	return positions
}

// ClearAllDirty resets the dirty state of all cells.
func (b *Buffer) ClearAllDirty() {
	for _, r := range b.lines {
		for col := range r.cells {
			r.cells[col].ClearDirty()
		}
	}
	b.hasDirty = false
}

// ClearRow blanks a row and drops its continuation flag.
func (b *Buffer) ClearRow(row int) {
	r := b.Row(row)
	if r == nil {
		return
	}
	r.Clear()
	r.continuation = false
	b.hasDirty = true
}

// ClearRowRange blanks cells of a row from startCol (inclusive) to endCol (exclusive).
func (b *Buffer) ClearRowRange(row, startCol, endCol int) {
	r := b.Row(row)
	if r == nil {
		return
	}
	r.ClearRange(startCol, endCol)
	b.hasDirty = true
}

// ClearAll blanks every row.
func (b *Buffer) ClearAll() {
	for row := range b.lines {
		b.ClearRow(row)
	}
}

// Scrolled returns the number of rows scrolled off the top of the screen so far.
// row + Scrolled() addresses a row independently of later scrolling.
func (b *Buffer) Scrolled() int64 {
	return b.scrolled
}

// ScrollUp shifts rows up by n positions within [top, bottom).
// The rows entering at the bottom are blank and start a new logical line.
func (b *Buffer) ScrollUp(top, bottom, n int) {
	if n <= 0 || top >= bottom {
		return
	}
	if top < 0 {
		top = 0
	}
	if bottom > b.rows {
		bottom = b.rows
	}
	if n > bottom-top {
		n = bottom - top
	}
	if top == 0 {
		b.scrolled += int64(n)
	}

	for row := top; row < bottom-n; row++ {
		b.lines[row] = b.lines[row+n]
		b.lines[row].MarkDirty()
	}
	for row := bottom - n; row < bottom; row++ {
		b.lines[row] = NewRow(b.cols)
		b.lines[row].MarkDirty()
	}
	// Inside a region the row now at the top lost the head of its logical line.
	if top > 0 {
		b.lines[top].continuation = false
	}
	b.hasDirty = true
}

// ScrollDown shifts rows down by n positions within [top, bottom).
// Blank rows are inserted at the top.
func (b *Buffer) ScrollDown(top, bottom, n int) {
	if n <= 0 || top >= bottom {
		return
	}
	if top < 0 {
		top = 0
	}
	if bottom > b.rows {
		bottom = b.rows
	}
	if n > bottom-top {
		n = bottom - top
	}

	for row := bottom - 1; row >= top+n; row-- {
		b.lines[row] = b.lines[row-n]
		b.lines[row].MarkDirty()
	}
	for row := top; row < top+n; row++ {
		b.lines[row] = NewRow(b.cols)
		b.lines[row].MarkDirty()
	}
	if top+n < bottom {
		b.lines[top+n].continuation = false
	}
	b.hasDirty = true
}

// InsertLines inserts n blank lines at row, shifting existing lines down.
func (b *Buffer) InsertLines(row, n, bottom int) {
	if row < 0 || row >= bottom || n <= 0 {
		return
	}
	b.ScrollDown(row, bottom, n)
}

// DeleteLines removes n lines at row, shifting remaining lines up.
func (b *Buffer) DeleteLines(row, n, bottom int) {
	if row < 0 || row >= bottom || n <= 0 {
		return
	}
	b.ScrollUp(row, bottom, n)
}

// InsertBlanks inserts n blank cells at (row, col), shifting existing characters right.
func (b *Buffer) InsertBlanks(row, col, n int) {
	r := b.Row(row)
	if r == nil {
		return
	}
	r.InsertCells(col, n, NewCell())
	b.hasDirty = true
}

// DeleteChars removes n characters at (row, col), shifting remaining characters left.
func (b *Buffer) DeleteChars(row, col, n int) {
	r := b.Row(row)
	if r == nil {
		return
	}
	r.DeleteCells(col, n)
	b.hasDirty = true
}

// Resize changes buffer dimensions, keeping content at the top-left corner.
// Rows are truncated or padded; logical lines are not re-wrapped.
func (b *Buffer) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}

	lines := make([]*Row, rows)
	for i := range lines {
		if i < b.rows {
			lines[i] = b.lines[i].resize(cols)
		} else {
			lines[i] = NewRow(cols)
			lines[i].MarkDirty()
		}
	}
	b.lines = lines
	b.rows = rows
	b.cols = cols
	b.hasDirty = true

	tabStop := make([]bool, cols)
	copy(tabStop, b.tabStop)
	for i := len(b.tabStop); i < cols; i++ {
		tabStop[i] = i%8 == 0
	}
	b.tabStop = tabStop
}

// SetTabStop enables a tab stop at the specified column.
func (b *Buffer) SetTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = true
	}
}

// ClearTabStop disables the tab stop at the specified column.
func (b *Buffer) ClearTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = false
	}
}

// ClearAllTabStops disables all tab stops.
func (b *Buffer) ClearAllTabStops() {
	for i := range b.tabStop {
		b.tabStop[i] = false
	}
}

// NextTabStop returns the column of the next enabled tab stop after col,
// or the last column if there is none.
func (b *Buffer) NextTabStop(col int) int {
	for c := col + 1; c < b.cols; c++ {
		if b.tabStop[c] {
			return c
		}
	}
	return b.cols - 1
}

// PrevTabStop returns the column of the previous enabled tab stop before col, or 0.
func (b *Buffer) PrevTabStop(col int) int {
	for c := col - 1; c >= 0; c-- {
		if b.tabStop[c] {
			return c
		}
	}
	return 0
}

// LineContent returns the text of a physical row.
func (b *Buffer) LineContent(row int) string {
	r := b.Row(row)
	if r == nil {
		return ""
	}
	return r.Text()
}

// Position identifies a cell location in the grid (0-based).
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Before returns true if this position comes before other in reading order.
func (p Position) Before(other Position) bool {
	if p.Row < other.Row {
		return true
	}
	return p.Row == other.Row && p.Col < other.Col
}

// Equal returns true if both row and column match.
func (p Position) Equal(other Position) bool {
	return p.Row == other.Row && p.Col == other.Col
}
