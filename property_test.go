package headlessconsole

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func letters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a' + byte(i%26)
	}
	return string(b)
}

// lineText joins the rows of the logical line holding row.
func lineText(term *Terminal, row int) string {
	rng := term.LogicalLine(row)
	var b strings.Builder
	for r := rng.First; r <= rng.Last; r++ {
		b.WriteString(term.LineContent(r))
	}
	return b.String()
}

func gotoAddress(term *Terminal, addr int) {
	term.Goto(addr/term.Cols(), addr%term.Cols())
}

func TestPropertyLogicalLineRanges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(1, 6).Draw(rt, "rows")
		cols := rapid.IntRange(2, 10).Draw(rt, "cols")
		text := rapid.StringMatching(`[ab\n]{0,80}`).Draw(rt, "text")

		term := New(WithSize(rows, cols))
		term.WriteString(strings.ReplaceAll(text, "\n", "\r\n"))

		for r := 0; r < rows; r++ {
			rng := term.LogicalLine(r)
			if !rng.Contains(r) {
				rt.Fatalf("row %d: range %+v does not contain it", r, rng)
			}
			if rng.First > 0 && term.IsContinuation(rng.First) {
				rt.Fatalf("row %d: range %+v starts on a continuation row", r, rng)
			}
			if rng.Last+1 < rows && term.IsContinuation(rng.Last+1) {
				rt.Fatalf("row %d: range %+v stops before a continuation row", r, rng)
			}
			for k := rng.First + 1; k <= rng.Last; k++ {
				if !term.IsContinuation(k) {
					rt.Fatalf("row %d: range %+v holds head row %d", r, rng, k)
				}
				if got := term.LogicalLine(k); got != rng {
					rt.Fatalf("row %d: expected range %+v, got %+v", k, rng, got)
				}
			}
		}
	})
}

func TestPropertyForwardBackwardInverse(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cols := rapid.IntRange(2, 10).Draw(rt, "cols")
		length := rapid.IntRange(2, 3*cols-1).Draw(rt, "length")
		from := rapid.IntRange(0, length-2).Draw(rt, "from")
		to := rapid.IntRange(from+1, length-1).Draw(rt, "to")

		term := New(WithSize(4, cols))
		term.WriteString(letters(length))
		gotoAddress(term, from)

		if !term.Forward(to - from) {
			rt.Fatalf("forward %d from %d failed", to-from, from)
		}
		if row, col := term.CursorPos(); row*cols+col != to {
			rt.Fatalf("expected address %d after forward, got (%d, %d)", to, row, col)
		}
		if !term.Backward(to - from) {
			rt.Fatalf("backward %d from %d failed", to-from, to)
		}
		if row, col := term.CursorPos(); row*cols+col != from {
			rt.Fatalf("expected address %d after backward, got (%d, %d)", from, row, col)
		}
	})
}

func TestPropertyInsertThenDeleteRestoresLine(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cols := rapid.IntRange(2, 10).Draw(rt, "cols")
		length := rapid.IntRange(1, 3*cols-1).Draw(rt, "length")
		pos := rapid.IntRange(0, length-1).Draw(rt, "pos")

		term := reflowTerminal(6, cols, letters(length))
		before := term.String()
		var cont []bool
		for r := 0; r < 6; r++ {
			cont = append(cont, term.IsContinuation(r))
		}

		term.WriteString("\x1b[4h")
		gotoAddress(term, pos)
		term.WriteString("Z")
		if got, want := lineText(term, 0), letters(length)[:pos]+"Z"+letters(length)[pos:]; got != want {
			rt.Fatalf("after insert expected %q, got %q", want, got)
		}

		if !term.Backward(1) {
			rt.Fatal("backward over the inserted character failed")
		}
		term.Delete(1)

		if got := term.String(); got != before {
			rt.Fatalf("expected screen %q, got %q", before, got)
		}
		for r := 0; r < 6; r++ {
			if term.IsContinuation(r) != cont[r] {
				rt.Fatalf("row %d: expected continuation %v", r, cont[r])
			}
		}
	})
}

func TestPropertyDeleteLeavesNoEmptyContinuation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cols := rapid.IntRange(2, 10).Draw(rt, "cols")
		length := rapid.IntRange(1, 4*cols).Draw(rt, "length")
		steps := rapid.IntRange(1, 10).Draw(rt, "steps")

		term := New(WithSize(6, cols))
		model := letters(length)
		term.WriteString(model)

		for i := 0; i < steps && model != ""; i++ {
			at := rapid.IntRange(0, len(model)-1).Draw(rt, "at")
			n := rapid.IntRange(1, 3).Draw(rt, "n")

			gotoAddress(term, at)
			term.Delete(n)
			model = model[:at] + model[min(at+n, len(model)):]

			if got := lineText(term, 0); got != model {
				rt.Fatalf("expected line %q, got %q", model, got)
			}
			rng := term.LogicalLine(0)
			if rng.Last > rng.First && term.TrimmedLength(rng.Last) == 0 {
				rt.Fatalf("empty continuation row %d left in %+v", rng.Last, rng)
			}
			for r := rng.First; r < rng.Last; r++ {
				if term.TrimmedLength(r) != cols {
					rt.Fatalf("row %d inside the line is not full", r)
				}
			}
			if row, _ := term.CursorPos(); !rng.Contains(row) && model != "" {
				rt.Fatalf("cursor row %d left the line %+v", row, rng)
			}
		}
	})
}

func TestPropertySelectionStaysOnScreen(t *testing.T) {
	keys := []Key{KeyLeft, KeyRight, KeyUp, KeyDown, KeyHome, KeyEnd}

	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(1, 4).Draw(rt, "rows")
		cols := rapid.IntRange(2, 8).Draw(rt, "cols")
		text := rapid.StringMatching(`[a-z]{0,20}`).Draw(rt, "text")
		moves := rapid.SliceOfN(rapid.IntRange(0, len(keys)-1), 1, 20).Draw(rt, "moves")

		c := newTestConsole(rows, cols)
		c.WriteString(text)

		for _, m := range moves {
			c.Key(shift(keys[m]))

			anchor, length, right := c.selection.State()
			if length < 0 {
				rt.Fatalf("negative selection length %d", length)
			}
			if anchor < 0 {
				continue
			}
			start := anchor
			if !right {
				start -= length
			}
			if start < 0 || start+length > rows*cols {
				rt.Fatalf("selection [%d, %d) outside a %dx%d screen", start, start+length, rows, cols)
			}
		}
	})
}
