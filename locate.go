package headlessconsole

// LineRange is the inclusive span of physical rows forming one logical line.
type LineRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Contains reports whether row lies inside the range.
func (r LineRange) Contains(row int) bool {
	return row >= r.First && row <= r.Last
}

// Len returns the number of physical rows in the range.
func (r LineRange) Len() int {
	return r.Last - r.First + 1
}

// LogicalLine returns the rows of the logical line containing row.
// It walks up while rows are continuations, then down while the next row is one.
// row must be inside the buffer.
func (b *Buffer) LogicalLine(row int) LineRange {
	first := row
	for first > 0 && b.lines[first].continuation {
		first--
	}
	last := row
	for last+1 < b.rows && b.lines[last+1].continuation {
		last++
	}
	return LineRange{First: first, Last: last}
}

// LogicalLine returns the rows of the logical line containing row in the active buffer.
func (t *Terminal) LogicalLine(row int) LineRange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row = clamp(row, 0, t.rows-1)
	return t.buffer.LogicalLine(row)
}
