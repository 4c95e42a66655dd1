package headlessconsole

// Cursor motion over logical lines. A logical line spans a head row and the
// continuation rows below it; motions here cross those row boundaries and
// stop at the trimmed end of content.

// Forward moves the cursor n cells to the right, crossing into continuation rows.
// If any step cannot be taken the cursor is left where it was and false is returned.
func (t *Terminal) Forward(n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.forwardLocked(n)
}

func (t *Terminal) forwardLocked(n int) bool {
	saved := *t.cursor
	for i := 0; i < max(n, 1); i++ {
		if !t.forwardOne() {
			*t.cursor = saved
			return false
		}
	}
	return true
}

func (t *Terminal) forwardOne() bool {
	y, x := t.cursor.Row, t.cursor.Col
	if x >= t.cols-1 {
		if next := t.buffer.Row(y + 1); next != nil && next.continuation {
			t.cursor.Row, t.cursor.Col = y+1, 0
			return true
		}
		return false
	}
	if x < t.buffer.Row(y).TrimmedLength() {
		t.cursor.Col++
		return true
	}
	return false
}

// Backward moves the cursor n cells to the left, crossing back over wrap boundaries.
// It never moves into the margin of a head row. If any step cannot be taken the
// cursor is left where it was and false is returned.
func (t *Terminal) Backward(n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backwardLocked(n)
}

func (t *Terminal) backwardLocked(n int) bool {
	saved := *t.cursor
	for i := 0; i < max(n, 1); i++ {
		if !t.backwardOne() {
			*t.cursor = saved
			return false
		}
	}
	return true
}

func (t *Terminal) backwardOne() bool {
	y, x := t.cursor.Row, t.cursor.Col
	row := t.buffer.Row(y)
	switch {
	case !row.continuation && x < 1+t.margin:
		return false
	case x > 0:
		t.cursor.Col = min(x, t.cols) - 1
		return true
	case y == 0:
		return false
	default:
		t.cursor.Row = y - 1
		t.scanEOLLocked()
		return true
	}
}

// ScanEOL moves the cursor to the trimmed end of the current row.
func (t *Terminal) ScanEOL() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanEOLLocked()
}

func (t *Terminal) scanEOLLocked() {
	t.cursor.Col = min(t.buffer.Row(t.cursor.Row).TrimmedLength(), t.cols-1)
}

// Home moves the cursor past the margin on the first row of the current logical line.
func (t *Terminal) Home() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.homeLocked()
}

func (t *Terminal) homeLocked() {
	rng := t.buffer.LogicalLine(t.cursor.Row)
	t.cursor.Row, t.cursor.Col = rng.First, 0
	if t.margin > 0 {
		t.advanceLocked(t.margin)
	}
}

// End moves the cursor to the trimmed end of the last row of the current logical line.
func (t *Terminal) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endLocked()
}

func (t *Terminal) endLocked() {
	rng := t.buffer.LogicalLine(t.cursor.Row)
	t.cursor.Row = rng.Last
	t.scanEOLLocked()
}

// Advance moves the cursor n columns right, following continuation rows and
// stopping at the trimmed end of the row it lands on. Unlike Forward it never fails.
func (t *Terminal) Advance(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advanceLocked(n)
}

func (t *Terminal) advanceLocked(n int) {
	y := t.cursor.Row
	x := min(t.cursor.Col, t.cols) + n
	for x >= t.cols {
		next := t.buffer.Row(y + 1)
		if next == nil || !next.continuation {
			break
		}
		x -= t.cols
		y++
	}
	x = min(x, t.buffer.Row(y).TrimmedLength(), t.cols-1)
	t.cursor.Row, t.cursor.Col = y, max(x, 0)
}
