package headlessconsole

// Row is one physical line of the grid.
// A continuation row holds the tail of the logical line started by the row above it.
type Row struct {
	cells        []Cell
	continuation bool
}

// NewRow creates a blank row of the given width.
func NewRow(cols int) *Row {
	return &Row{cells: make([]Cell, cols)}
}

// Len returns the number of cells in the row.
func (r *Row) Len() int {
	return len(r.cells)
}

// Cell returns a pointer to the cell at col, or nil if out of range.
func (r *Row) Cell(col int) *Cell {
	if col < 0 || col >= len(r.cells) {
		return nil
	}
	return &r.cells[col]
}

// SetCell replaces the cell at col and marks it dirty.
func (r *Row) SetCell(col int, cell Cell) {
	if col < 0 || col >= len(r.cells) {
		return
	}
	cell.MarkDirty()
	r.cells[col] = cell
}

// IsContinuation reports whether the row continues the logical line above it.
func (r *Row) IsContinuation() bool {
	return r.continuation
}

// SetContinuation sets the continuation flag.
func (r *Row) SetContinuation(continuation bool) {
	r.continuation = continuation
}

// TrimmedLength returns the index past the last non-blank cell.
func (r *Row) TrimmedLength() int {
	for col := len(r.cells) - 1; col >= 0; col-- {
		if !r.cells[col].IsBlank() {
			return col + 1
		}
	}
	return 0
}

// InsertCells inserts n copies of fill at col, shifting cells right.
// Cells pushed past the end of the row are dropped.
func (r *Row) InsertCells(col, n int, fill Cell) {
	if col < 0 || col >= len(r.cells) || n <= 0 {
		return
	}
	for c := len(r.cells) - 1; c >= col+n; c-- {
		r.cells[c] = r.cells[c-n]
		r.cells[c].MarkDirty()
	}
	fill.MarkDirty()
	for c := col; c < col+n && c < len(r.cells); c++ {
		r.cells[c] = fill
	}
}

// DeleteCells removes n cells at col, shifting the rest left and blanking the end.
func (r *Row) DeleteCells(col, n int) {
	if col < 0 || col >= len(r.cells) || n <= 0 {
		return
	}
	if n > len(r.cells)-col {
		n = len(r.cells) - col
	}
	for c := col; c < len(r.cells)-n; c++ {
		r.cells[c] = r.cells[c+n]
		r.cells[c].MarkDirty()
	}
	for c := len(r.cells) - n; c < len(r.cells); c++ {
		r.cells[c].Reset()
		r.cells[c].MarkDirty()
	}
}

// CopyCellsFrom copies n cells of src starting at srcCol into this row at dstCol.
func (r *Row) CopyCellsFrom(src *Row, srcCol, dstCol, n int) {
	for i := 0; i < n; i++ {
		s, d := srcCol+i, dstCol+i
		if s < 0 || s >= len(src.cells) || d < 0 || d >= len(r.cells) {
			continue
		}
		r.cells[d] = src.cells[s]
		r.cells[d].MarkDirty()
	}
}

// ClearRange blanks cells in [start, end).
func (r *Row) ClearRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(r.cells) {
		end = len(r.cells)
	}
	for c := start; c < end; c++ {
		r.cells[c].Reset()
		r.cells[c].MarkDirty()
	}
}

// Clear blanks every cell. The continuation flag is left alone.
func (r *Row) Clear() {
	r.ClearRange(0, len(r.cells))
}

// MarkDirty marks every cell of the row as modified.
func (r *Row) MarkDirty() {
	for c := range r.cells {
		r.cells[c].MarkDirty()
	}
}

// IsDirty returns true if any cell of the row is dirty.
func (r *Row) IsDirty() bool {
	for c := range r.cells {
		if r.cells[c].IsDirty() {
			return true
		}
	}
	return false
}

// Text returns the row content up to its trimmed length.
// Blank cells inside the content become spaces and wide-character spacers are skipped.
func (r *Row) Text() string {
	return r.textRange(0, r.TrimmedLength())
}

func (r *Row) textRange(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(r.cells) {
		end = len(r.cells)
	}
	if start >= end {
		return ""
	}
	runes := make([]rune, 0, end-start)
	for c := start; c < end; c++ {
		cell := &r.cells[c]
		if cell.IsWideSpacer() {
			continue
		}
		runes = append(runes, cell.displayRune())
	}
	return string(runes)
}

// resize returns a copy of the row truncated or padded to cols.
func (r *Row) resize(cols int) *Row {
	nr := &Row{cells: make([]Cell, cols), continuation: r.continuation}
	copy(nr.cells, r.cells)
	nr.MarkDirty()
	return nr
}
