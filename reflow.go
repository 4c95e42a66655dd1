package headlessconsole

import (
	"github.com/danielgatis/go-ansicode"
)

// ReflowMiddleware returns middleware that makes room for printed characters
// in insert mode by pushing the tail of the logical line into its continuation
// rows, opening a new continuation row when the last one overflows.
// enabled is consulted on every character; nil means always on.
func (t *Terminal) ReflowMiddleware(enabled func() bool) *Middleware {
	return &Middleware{
		Input: func(r rune, next func(rune)) {
			if enabled == nil || enabled() {
				t.mu.Lock()
				if t.modes&ModeInsert != 0 && t.modes&ModeLineWrap != 0 {
					if w := runeWidth(r); w > 0 {
						t.reflowForInsertLocked(w)
					}
				}
				t.mu.Unlock()
			}
			next(r)
		},
	}
}

// reflowForInsertLocked shifts the overflow of each row of the logical line
// into the row below, starting from the last row. The print that follows
// inserts w blanks at the cursor, which drops the cells already copied down.
// A wide character is never split from its spacer: when the spacer would
// overflow alone the character moves with it and the row is padded with a blank.
func (t *Terminal) reflowForInsertLocked(w int) {
	y, x := t.cursor.Row, t.cursor.Col
	if x+w > t.cols {
		// The character wraps first; reflow from the start of the continuation row.
		next := t.buffer.Row(y + 1)
		if next == nil || !next.continuation {
			return
		}
		y, x = y+1, 0
	}

	trimmed := t.buffer.Row(y).TrimmedLength()
	if x >= trimmed || trimmed+w <= t.cols {
		return
	}

	first, last := y, t.buffer.LogicalLine(y).Last

	// out[i] is the number of cells leaving row first+i.
	out := make([]int, last-first+1)
	in := w
	for i := range out {
		out[i] = t.overflowLocked(first+i, in)
		in = out[i]
	}
	// Cells arriving at the last row.
	in = w
	if last > first {
		in = out[len(out)-2]
	}

	if t.buffer.Row(last).TrimmedLength()+in > t.cols {
		if t.openRowBelowLocked(first, last) {
			if last == t.scrollBottom-1 {
				first--
				last--
			}
			n := out[len(out)-1]
			dst := t.buffer.Row(last + 1)
			dst.continuation = true
			dst.CopyCellsFrom(t.buffer.Row(last), t.cols-n, 0, n)
			t.buffer.MarkRowDirty(last + 1)
		}
	}

	for r := last; r > first; r-- {
		i := r - first
		dst := t.buffer.Row(r)
		dst.InsertCells(0, out[i-1], NewCell())
		dst.CopyCellsFrom(t.buffer.Row(r-1), t.cols-out[i-1], 0, out[i-1])
		if pad := out[i] - out[i-1]; pad > 0 {
			dst.ClearRange(t.cols-pad, t.cols)
		}
		t.buffer.MarkRowDirty(r)
	}

	if out[0] > w {
		// The cells moved along with a wide character become padding once
		// the print shifts them towards the end of the row.
		t.buffer.Row(first).ClearRange(t.cols-out[0], t.cols)
		t.buffer.MarkRowDirty(first)
	}
}

// overflowLocked returns how many trailing cells of row r leave it when in
// cells are inserted in front of them, widened to keep a wide character whole.
func (t *Terminal) overflowLocked(r, in int) int {
	if in >= t.cols {
		return in
	}
	if c := t.buffer.Row(r).Cell(t.cols - in); c != nil && c.IsWideSpacer() {
		return in + 1
	}
	return in
}

// openRowBelowLocked makes the row after last available for a new continuation row.
// At the bottom of the scroll region the region scrolls up one row and the
// cursor moves with its content. It returns false when the logical line already
// fills the whole region.
func (t *Terminal) openRowBelowLocked(first, last int) bool {
	if last == t.scrollBottom-1 {
		if first <= t.scrollTop {
			return false
		}
		t.scrollUpLocked(1)
		t.cursor.Row--
		return true
	}
	if t.buffer.Row(last+1).TrimmedLength() > 0 {
		t.buffer.InsertLines(last+1, 1, t.scrollBottom)
	}
	return true
}

// Delete removes n characters at the cursor and compacts the logical line:
// each row pulls content up from its continuation row to fill the freed space.
// Continuation rows left empty at the end of the line are released, and a
// cursor standing on one moves to the end of the row above.
func (t *Terminal) Delete(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleteLocked(n)
}

func (t *Terminal) deleteLocked(n int) {
	for i := 0; i < max(n, 1); i++ {
		y, x := t.cursor.Row, t.cursor.Col
		if x >= t.cols {
			next := t.buffer.Row(y + 1)
			if next == nil || !next.continuation {
				return
			}
			y, x = y+1, 0
		}

		t.buffer.DeleteChars(y, x, 1)
		rng := t.buffer.LogicalLine(y)
		for r := y; r < rng.Last; r++ {
			t.pullUpLocked(r)
		}
		t.releaseEmptyTailLocked(rng)
	}
}

// pullUpLocked moves as many leading cells of row r+1 as fit into the free tail of row r.
// A wide character is never split from its spacer.
func (t *Terminal) pullUpLocked(r int) {
	cur, next := t.buffer.Row(r), t.buffer.Row(r+1)
	trimmed := cur.TrimmedLength()
	k := min(t.cols-trimmed, next.TrimmedLength())
	if k > 0 && next.Cell(k-1).IsWide() {
		k--
	}
	if k <= 0 {
		return
	}
	cur.CopyCellsFrom(next, 0, trimmed, k)
	next.DeleteCells(0, k)
	t.buffer.MarkRowDirty(r)
	t.buffer.MarkRowDirty(r + 1)
}

// releaseEmptyTailLocked clears the continuation flag of empty rows at the end of rng.
// A cursor on a released row moves to the row above, just past its content:
// on a full row that is the pending-wrap column cols, so the next backspace
// removes the last character rather than the one before it.
func (t *Terminal) releaseEmptyTailLocked(rng LineRange) {
	for last := rng.Last; last > rng.First; last-- {
		tail := t.buffer.Row(last)
		if !tail.continuation || tail.TrimmedLength() > 0 {
			return
		}
		tail.continuation = false
		t.buffer.MarkRowDirty(last)
		if t.cursor.Row == last {
			t.cursor.Row = last - 1
			t.cursor.Col = min(t.buffer.Row(last-1).TrimmedLength(), t.cols)
		}
	}
}

// DeleteBackward moves back one cell and deletes it, merging wrap boundaries.
// It returns false when the cursor is already at the start of the editable line.
func (t *Terminal) DeleteBackward() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	orig := t.buffer.Row(t.cursor.Row)
	ok := t.backwardLocked(1)
	if ok {
		t.deleteLocked(1)
	}
	if orig.continuation && orig.TrimmedLength() == 0 && t.buffer.Row(t.cursor.Row) != orig {
		orig.continuation = false
	}
	return ok
}

// EraseInLine erases part of the logical line around the cursor.
// Right erases from the cursor through the last row and releases the rows
// after the cursor row. Left erases from the first row through the cursor.
// All blanks every row, releases all continuation rows and moves the cursor
// up to the first row, keeping its column.
func (t *Terminal) EraseInLine(mode ansicode.LineClearMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	y := t.cursor.Row
	rng := t.buffer.LogicalLine(y)

	switch mode {
	case ansicode.LineClearModeRight:
		t.clearLineLocked(y, mode)
		for r := y + 1; r <= rng.Last; r++ {
			t.buffer.ClearRow(r)
		}
	case ansicode.LineClearModeLeft:
		t.clearLineLocked(y, mode)
		for r := rng.First; r < y; r++ {
			t.buffer.ClearRowRange(r, 0, t.cols)
		}
	case ansicode.LineClearModeAll:
		t.buffer.ClearRowRange(rng.First, 0, t.cols)
		for r := rng.First + 1; r <= rng.Last; r++ {
			t.buffer.ClearRow(r)
		}
		t.cursor.Row = rng.First
	}
}
