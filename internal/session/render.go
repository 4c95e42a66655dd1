package session

import (
	"fmt"
	"strings"

	console "github.com/danielgatis/go-headless-console"
)

// Renderer repaints a remote terminal from a console screen. Each frame
// rewrites only the rows whose content changed since the previous one.
type Renderer struct {
	prev   []string
	cols   int
	cursor [2]int
	shown  bool
}

// Invalidate forces the next frame to repaint every row.
func (r *Renderer) Invalidate() {
	r.prev = nil
}

// Frame returns the bytes that bring the client screen up to date with t.
// It returns nil when nothing changed.
func (r *Renderer) Frame(t *console.Terminal) []byte {
	rows, cols := t.Rows(), t.Cols()

	var b strings.Builder
	if len(r.prev) != rows || r.cols != cols {
		r.prev = make([]string, rows)
		for i := range r.prev {
			r.prev[i] = "\x00" // never matches a rendered row
		}
		r.cols = cols
		b.WriteString("\x1b[0m\x1b[2J")
	}

	changed := false
	for row := 0; row < rows; row++ {
		line := renderRow(t, row, cols)
		if line == r.prev[row] {
			continue
		}
		if !changed {
			b.WriteString("\x1b[?25l")
			changed = true
		}
		r.prev[row] = line
		fmt.Fprintf(&b, "\x1b[%d;1H%s\x1b[0m\x1b[K", row+1, line)
	}

	crow, ccol := t.CursorPos()
	visible := t.CursorVisible()
	if !changed && r.cursor == [2]int{crow, ccol} && r.shown == visible {
		return nil
	}
	r.cursor, r.shown = [2]int{crow, ccol}, visible

	fmt.Fprintf(&b, "\x1b[%d;%dH", crow+1, ccol+1)
	if visible {
		b.WriteString("\x1b[?25h")
	} else {
		b.WriteString("\x1b[?25l")
	}
	return []byte(b.String())
}

// renderRow encodes one row with the SGR attributes the client needs.
// Selected cells are drawn in reverse video.
func renderRow(t *console.Terminal, row, cols int) string {
	var b strings.Builder
	var cur console.CellFlags
	end := cols
	for end > 0 {
		cell := t.Cell(row, end-1)
		if cell == nil || !cell.IsBlank() || t.IsSelected(row, end-1) || cell.Flags&styleFlags != 0 {
			break
		}
		end--
	}

	for col := 0; col < end; col++ {
		cell := t.Cell(row, col)
		if cell == nil || cell.IsWideSpacer() {
			continue
		}
		flags := cell.Flags & styleFlags
		if t.IsSelected(row, col) {
			flags ^= console.CellFlagReverse
		}
		if flags != cur {
			b.WriteString(sgr(flags))
			cur = flags
		}
		ch := cell.Char
		if ch == 0 || cell.HasFlag(console.CellFlagHidden) {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return b.String()
}

const styleFlags = console.CellFlagBold | console.CellFlagDim | console.CellFlagItalic |
	console.CellFlagUnderline | console.CellFlagBlink | console.CellFlagReverse | console.CellFlagStrike

func sgr(flags console.CellFlags) string {
	params := []string{"0"}
	if flags&console.CellFlagBold != 0 {
		params = append(params, "1")
	}
	if flags&console.CellFlagDim != 0 {
		params = append(params, "2")
	}
	if flags&console.CellFlagItalic != 0 {
		params = append(params, "3")
	}
	if flags&console.CellFlagUnderline != 0 {
		params = append(params, "4")
	}
	if flags&console.CellFlagBlink != 0 {
		params = append(params, "5")
	}
	if flags&console.CellFlagReverse != 0 {
		params = append(params, "7")
	}
	if flags&console.CellFlagStrike != 0 {
		params = append(params, "9")
	}
	return "\x1b[" + strings.Join(params, ";") + "m"
}
