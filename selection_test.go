package headlessconsole

import (
	"reflect"
	"testing"
)

func shift(k Key) KeyEvent {
	return KeyEvent{Key: k, Mod: ModShift}
}

func expectSelection(t *testing.T, c *Console, anchor, length int, right bool) {
	t.Helper()
	a, l, r := c.selection.State()
	if a != anchor || l != length || r != right {
		t.Errorf("expected selection (%d, %d, %v), got (%d, %d, %v)", anchor, length, right, a, l, r)
	}
}

func TestSelectionGrowsLeft(t *testing.T) {
	c := editing(t, "hello")

	c.Key(shift(KeyLeft))
	c.Key(shift(KeyLeft))

	expectSelection(t, c, 7, 2, false)
	if got := c.SelectedText(); got != "lo" {
		t.Errorf("expected %q, got %q", "lo", got)
	}
	expectConsoleCursor(t, c, 0, 7)
}

func TestSelectionGrowsRight(t *testing.T) {
	c := editing(t, "hello")
	c.Key(KeyEvent{Key: KeyHome})

	for i := 0; i < 3; i++ {
		c.Key(shift(KeyRight))
	}

	expectSelection(t, c, 2, 3, true)
	if got := c.SelectedText(); got != "hel" {
		t.Errorf("expected %q, got %q", "hel", got)
	}
}

func TestSelectionFlipsAcrossAnchor(t *testing.T) {
	c := editing(t, "hello")
	c.Key(KeyEvent{Key: KeyHome})
	c.Key(KeyEvent{Key: KeyRight})

	c.Key(shift(KeyRight))
	c.Key(shift(KeyLeft))
	if c.Terminal().HasSelection() {
		t.Error("expected an empty selection at the anchor")
	}
	expectSelection(t, c, 3, 0, true)

	c.Key(shift(KeyLeft))
	expectSelection(t, c, 3, 1, false)
	if got := c.SelectedText(); got != "h" {
		t.Errorf("expected %q, got %q", "h", got)
	}
}

func TestSelectionRejectsMoveOffScreen(t *testing.T) {
	c := newTestConsole(2, 5)

	c.Key(shift(KeyLeft))
	if c.selection.Active() {
		t.Error("expected no selection before the first cell")
	}

	c.WriteString("\x1b[2;5H")
	c.Key(shift(KeyRight))
	c.Key(shift(KeyRight))

	expectSelection(t, c, 9, 1, true)
}

func TestSelectionVertical(t *testing.T) {
	c := editing(t, "")

	c.Key(shift(KeyDown))

	expectSelection(t, c, 2, 10, true)
	sel := c.Terminal().GetSelection()
	if sel.Start != (Position{Row: 0, Col: 2}) || sel.End != (Position{Row: 1, Col: 1}) {
		t.Errorf("expected selection (0,2)-(1,1), got %v-%v", sel.Start, sel.End)
	}

	c.Key(shift(KeyUp))
	expectSelection(t, c, 2, 0, true)
}

func TestSelectionHomeEnd(t *testing.T) {
	c := editing(t, "hello")

	c.Key(shift(KeyHome))
	expectSelection(t, c, 7, 5, false)
	if got := c.SelectedText(); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}

	c.Key(KeyEvent{Key: KeyHome})
	c.Key(shift(KeyEnd))
	expectSelection(t, c, 2, 5, true)
	if got := c.SelectedText(); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestSelectionClearedByMovement(t *testing.T) {
	c := editing(t, "hello")
	c.Key(shift(KeyLeft))

	c.Key(KeyEvent{Key: KeyLeft})

	if c.selection.Active() || c.Terminal().HasSelection() {
		t.Error("expected selection cleared")
	}
	expectConsoleCursor(t, c, 0, 6)
}

func TestSelectionClearedByTyping(t *testing.T) {
	c := editing(t, "hello")
	c.Key(shift(KeyLeft))

	c.Key(RuneKey('!'))

	if c.selection.Active() {
		t.Error("expected selection cleared")
	}
}

func TestSelectionClearedByResize(t *testing.T) {
	c := editing(t, "hello")
	c.Key(shift(KeyLeft))

	c.Resize(4, 12)

	if c.selection.Active() {
		t.Error("expected selection cleared")
	}
}

func TestSelectionDeleteRight(t *testing.T) {
	c := editing(t, "hello")
	c.Key(KeyEvent{Key: KeyHome})
	c.Key(shift(KeyRight))
	c.Key(shift(KeyRight))

	c.Key(KeyEvent{Key: KeyDelete})

	if got := c.CurrentLine(); got != "llo" {
		t.Errorf("expected %q, got %q", "llo", got)
	}
	expectConsoleCursor(t, c, 0, 2)
	if c.selection.Active() {
		t.Error("expected selection cleared")
	}
}

func TestSelectionDeleteLeft(t *testing.T) {
	c := editing(t, "hello")
	c.Key(shift(KeyLeft))
	c.Key(shift(KeyLeft))

	c.Key(KeyEvent{Key: KeyBackspace})

	if got := c.CurrentLine(); got != "hel" {
		t.Errorf("expected %q, got %q", "hel", got)
	}
	expectConsoleCursor(t, c, 0, 5)
}

func TestSelectionDeleteStopsAtPrompt(t *testing.T) {
	c := editing(t, "hello")
	c.Key(KeyEvent{Key: KeyHome})
	c.Key(KeyEvent{Key: KeyRight})
	for i := 0; i < 3; i++ {
		c.Key(shift(KeyLeft))
	}

	c.Key(KeyEvent{Key: KeyBackspace})

	if got := c.Terminal().LineContent(0); got != "> ello" {
		t.Errorf("expected %q, got %q", "> ello", got)
	}
}

func TestSelectionEmptyDeleteFallsThrough(t *testing.T) {
	c := editing(t, "hello")
	c.Key(shift(KeyLeft))
	c.Key(shift(KeyRight))

	c.Key(KeyEvent{Key: KeyBackspace})

	if got := c.CurrentLine(); got != "hell" {
		t.Errorf("expected %q, got %q", "hell", got)
	}
	if c.selection.Active() {
		t.Error("expected selection cleared")
	}
}

func TestSelectionOutsideLineIsNotDeleted(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))
	c.WriteString("out\n")
	c.WritePrompt()
	typeString(c, "ab")
	c.Key(shift(KeyUp))

	c.Key(KeyEvent{Key: KeyBackspace})

	expectLines(t, c.Terminal(), "out", "> a")
	if c.selection.Active() {
		t.Error("expected selection cleared")
	}
}

func TestSelectionChangeListener(t *testing.T) {
	c := editing(t, "hello")
	var changes []string
	c.OnSelectionChange(func(text string) { changes = append(changes, text) })

	c.Key(shift(KeyLeft))
	c.Key(shift(KeyLeft))
	c.Key(KeyEvent{Key: KeyRight})

	if want := []string{"o", "lo", ""}; !reflect.DeepEqual(changes, want) {
		t.Errorf("expected %q, got %q", want, changes)
	}
}

func TestSelectionDisabled(t *testing.T) {
	c := editing(t, "hello", WithKeyboardSelection(false))

	if c.Key(shift(KeyLeft)) {
		t.Error("expected shift+left to be ignored")
	}
	if c.Terminal().HasSelection() {
		t.Error("expected no selection")
	}

	c.Key(KeyEvent{Key: KeyBackspace})
	if got := c.CurrentLine(); got != "hell" {
		t.Errorf("expected %q, got %q", "hell", got)
	}
}

// blockQueue keeps another goroutine draining the console until the returned
// release function is called.
func blockQueue(c *Console) (release func()) {
	started, done := make(chan struct{}), make(chan struct{})
	go c.Do(func() {
		close(started)
		<-done
	})
	<-started
	return func() { close(done) }
}

func TestSelectionFollowsQueuedInput(t *testing.T) {
	c := newTestConsole(3, 10)
	release := blockQueue(c)

	typeString(c, "abc")
	c.Key(shift(KeyLeft))
	release()
	c.Sync()

	expectSelection(t, c, 3, 1, false)
	if got := c.SelectedText(); got != "c" {
		t.Errorf("expected %q, got %q", "c", got)
	}
}

func TestSelectionDeleteFollowsQueuedInput(t *testing.T) {
	c := editing(t, "hello")
	release := blockQueue(c)

	c.Key(shift(KeyLeft))
	c.Key(shift(KeyLeft))
	c.Key(KeyEvent{Key: KeyBackspace})
	typeString(c, "p")
	release()
	c.Sync()

	if got := c.CurrentLine(); got != "help" {
		t.Errorf("expected %q, got %q", "help", got)
	}
	if c.selection.Active() {
		t.Error("expected the selection to be cleared")
	}
}

func TestSelectionDeactivate(t *testing.T) {
	c := editing(t, "hello")

	c.selection.Deactivate()
	c.selection.Deactivate()

	c.Key(shift(KeyLeft))
	if c.selection.Active() || c.Terminal().HasSelection() {
		t.Error("expected shift+left to do nothing once deactivated")
	}

	c.Key(KeyEvent{Key: KeyBackspace})
	if got := c.CurrentLine(); got != "hell" {
		t.Errorf("expected %q, got %q", "hell", got)
	}
}
