package headlessconsole

import (
	"fmt"
	"image/color"

	"github.com/danielgatis/go-ansicode"
)

// Default cell size reported for pixel queries.
const (
	cellWidthPixels  = 10
	cellHeightPixels = 20
)

// Decaln fills the screen with 'E' (DEC screen alignment test).
func (t *Terminal) Decaln() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for row := 0; row < t.rows; row++ {
		r := t.buffer.Row(row)
		r.continuation = false
		for col := 0; col < t.cols; col++ {
			r.SetCell(col, Cell{Char: 'E'})
		}
	}
	t.buffer.hasDirty = true
}

// TextAreaSizePixels sends the terminal dimensions in pixels via DSR response (assumes 10x20 pixel cells).
func (t *Terminal) TextAreaSizePixels() {
	t.mu.RLock()
	rows := t.rows
	cols := t.cols
	t.mu.RUnlock()

	// CSI 4 ; height ; width t
	t.writeResponseString(fmt.Sprintf("\x1b[4;%d;%dt", rows*cellHeightPixels, cols*cellWidthPixels))
}

// CellSizePixels sends the cell size in pixels via DSR response.
func (t *Terminal) CellSizePixels() {
	// CSI 6 ; height ; width t
	t.writeResponseString(fmt.Sprintf("\x1b[6;%d;%dt", cellHeightPixels, cellWidthPixels))
}

// The console keeps one uncolored buffer without charsets or graphics.
// The handlers below are accepted from the decoder and ignored.

func (t *Terminal) ApplicationCommandReceived(data []byte) {}

func (t *Terminal) PrivacyMessageReceived(data []byte) {}

func (t *Terminal) StartOfStringReceived(data []byte) {}

func (t *Terminal) ConfigureCharset(index ansicode.CharsetIndex, charset ansicode.Charset) {}

func (t *Terminal) SetActiveCharset(n int) {}

func (t *Terminal) SetColor(index int, c color.Color) {}

func (t *Terminal) ResetColor(i int) {}

func (t *Terminal) SetDynamicColor(prefix string, index int, terminator string) {}

func (t *Terminal) SixelReceived(params [][]uint16, data []byte) {}

func (t *Terminal) ShellIntegrationMark(mark ansicode.ShellIntegrationMark, exitCode int) {}

func (t *Terminal) DesktopNotification(payload *ansicode.NotificationPayload) {}
