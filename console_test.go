package headlessconsole

import (
	"reflect"
	"strings"
	"sync"
	"testing"
)

func newTestConsole(rows, cols int, opts ...ConsoleOption) *Console {
	return NewConsole(append([]ConsoleOption{WithTerminal(WithSize(rows, cols))}, opts...)...)
}

func typeString(c *Console, s string) {
	for _, r := range s {
		c.Key(RuneKey(r))
	}
}

func expectConsoleCursor(t *testing.T, c *Console, row, col int) {
	t.Helper()
	expectCursor(t, c.Terminal(), row, col)
}

func TestNewConsoleDefaults(t *testing.T) {
	c := NewConsole()

	if c.Terminal().Rows() != 24 || c.Terminal().Cols() != 80 {
		t.Errorf("expected 24x80, got %dx%d", c.Terminal().Rows(), c.Terminal().Cols())
	}
	if c.InsertMode() {
		t.Error("expected overwrite mode by default")
	}
	if !c.KeyboardSelection() {
		t.Error("expected keyboard selection enabled by default")
	}
	if c.EscapeEnabled() {
		t.Error("expected escape disabled by default")
	}
	if !c.Terminal().HasMode(ModeLineFeedNewLine) {
		t.Error("expected line feed to start a new line")
	}
	if c.PromptRendered() {
		t.Error("expected no prompt drawn")
	}
}

func TestNewConsoleOptions(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "), WithInsertMode(true), WithEscapeEnabled(true), WithKeyboardSelection(false))

	if c.Prompt() != "> " {
		t.Errorf("expected prompt %q, got %q", "> ", c.Prompt())
	}
	if c.Terminal().Margin() != 2 {
		t.Errorf("expected margin 2, got %d", c.Terminal().Margin())
	}
	if !c.InsertMode() {
		t.Error("expected insert mode")
	}
	if c.Terminal().CursorStyle() != CursorStyleBlinkingUnderline {
		t.Errorf("expected underline cursor in insert mode, got %v", c.Terminal().CursorStyle())
	}
	if !c.EscapeEnabled() || c.KeyboardSelection() {
		t.Error("expected escape enabled and keyboard selection disabled")
	}
}

func TestConsoleWrite(t *testing.T) {
	c := newTestConsole(3, 10)

	n, err := c.WriteString("hi\nthere")

	if err != nil || n != 8 {
		t.Fatalf("expected 8 bytes written, got %d (%v)", n, err)
	}
	if got := c.Terminal().LineContent(1); got != "there" {
		t.Errorf("expected %q, got %q", "there", got)
	}
	expectConsoleCursor(t, c, 1, 5)
}

func TestConsoleWriteEmpty(t *testing.T) {
	c := newTestConsole(3, 10)
	idle := 0
	c.OnIdle(func() { idle++ })

	n, err := c.Write(nil)

	if n != 0 || err != nil {
		t.Errorf("expected no-op write, got %d (%v)", n, err)
	}
	if idle != 0 {
		t.Errorf("expected no idle notification, got %d", idle)
	}
}

func TestConsoleEmbeddedCommands(t *testing.T) {
	c := newTestConsole(3, 10)

	c.WriteString("abc\x1b[<2Lx")

	if got := c.Terminal().LineContent(0); got != "axc" {
		t.Errorf("expected %q, got %q", "axc", got)
	}
}

func TestConsoleCommandSplitAcrossWrites(t *testing.T) {
	c := newTestConsole(3, 10)

	c.WriteString("ab\x1b[<")
	c.WriteString("Hz")

	if got := c.Terminal().LineContent(0); got != "zb" {
		t.Errorf("expected %q, got %q", "zb", got)
	}
}

func TestConsoleQueueOrder(t *testing.T) {
	c := newTestConsole(3, 10)
	var order []string

	c.Do(func() {
		order = append(order, "outer start")
		c.Do(func() { order = append(order, "inner") })
		c.WriteString("x")
		c.Do(func() { order = append(order, "after write "+c.Terminal().LineContent(0)) })
		order = append(order, "outer end "+c.Terminal().LineContent(0))
	})

	want := []string{"outer start", "outer end ", "inner", "after write x"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %q, got %q", want, order)
	}
}

func TestConsoleExecRunsInOrder(t *testing.T) {
	c := newTestConsole(3, 10)
	c.WriteString("abcd")

	c.Exec(Cmd(OpHome), Cmd(OpRight, 2), Cmd(OpDelete))

	if got := c.Terminal().LineContent(0); got != "abd" {
		t.Errorf("expected %q, got %q", "abd", got)
	}
	expectConsoleCursor(t, c, 0, 2)
}

func TestConsoleSync(t *testing.T) {
	c := newTestConsole(3, 10)
	c.WriteString("a")

	c.Sync()

	if got := c.Terminal().LineContent(0); got != "a" {
		t.Errorf("expected %q, got %q", "a", got)
	}
}

func TestConsoleConcurrentWrites(t *testing.T) {
	c := newTestConsole(3, 80)
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.WriteString("x")
			}
		}()
	}
	wg.Wait()
	c.Sync()

	if got := c.Terminal().LineContent(0); got != strings.Repeat("x", 80) {
		t.Errorf("expected 80 x, got %q", got)
	}
}

func TestConsolePanicInQueueItem(t *testing.T) {
	c := newTestConsole(3, 10)

	c.Do(func() { panic("boom") })
	c.WriteString("ok")

	if got := c.Terminal().LineContent(0); got != "ok" {
		t.Errorf("expected queue to keep draining, got %q", got)
	}
}

func TestConsoleCommandHandlersNewestFirst(t *testing.T) {
	c := newTestConsole(3, 10)
	c.WriteString("abc")
	var calls []string

	c.HandleCommand(OpHome, func(Command) bool {
		calls = append(calls, "first")
		return true
	})
	c.HandleCommand(OpHome, func(Command) bool {
		calls = append(calls, "second")
		return false
	})
	c.Exec(Cmd(OpHome))

	if want := []string{"second", "first"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("expected %q, got %q", want, calls)
	}
	expectConsoleCursor(t, c, 0, 3)
}

func TestConsoleRegistrationRemove(t *testing.T) {
	c := newTestConsole(3, 10)
	c.WriteString("abc")

	reg := c.HandleCommand(OpHome, func(Command) bool { return true })
	reg.Remove()
	reg.Remove()
	c.Exec(Cmd(OpHome))

	expectConsoleCursor(t, c, 0, 0)
}

func TestConsoleUnknownCommandPassesThrough(t *testing.T) {
	c := newTestConsole(3, 10)

	c.WriteString("a\x1b[<5zb")

	if got := c.Terminal().LineContent(0); !strings.HasPrefix(got, "a") {
		t.Errorf("expected output to keep flowing, got %q", got)
	}
	if got := c.Terminal().LineContent(0); !strings.HasSuffix(got, "b") {
		t.Errorf("expected output to keep flowing, got %q", got)
	}
}

func TestConsoleKeyHandlersNewestFirst(t *testing.T) {
	c := newTestConsole(3, 10)
	var calls []string

	c.HandleKey(MatchKey(KeyF5, ModNone), func(KeyEvent) bool {
		calls = append(calls, "first")
		return true
	})
	c.HandleKey(MatchKey(KeyF5, ModNone), func(KeyEvent) bool {
		calls = append(calls, "second")
		return false
	})

	if !c.Key(KeyEvent{Key: KeyF5}) {
		t.Error("expected key to be consumed")
	}
	if want := []string{"second", "first"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("expected %q, got %q", want, calls)
	}
}

func TestConsoleUnhandledKey(t *testing.T) {
	c := newTestConsole(3, 10)
	var got []KeyEvent
	c.OnUnhandledKey(func(ev KeyEvent) { got = append(got, ev) })

	if c.Key(KeyEvent{Key: KeyF5}) {
		t.Error("expected F5 to be left to the host")
	}
	if !c.Key(KeyEvent{Key: KeyF1}) {
		t.Error("expected F1 to be swallowed")
	}
	if !c.Key(KeyEvent{Key: KeyUp}) {
		t.Error("expected Up to be swallowed")
	}
	if c.Key(KeyEvent{Key: KeyRune, Rune: 'a', Mod: ModCtrl}) {
		t.Error("expected Ctrl+A to be left to the host")
	}

	want := []KeyEvent{{Key: KeyF5}, {Key: KeyRune, Rune: 'a', Mod: ModCtrl}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if line := c.Terminal().LineContent(0); line != "" {
		t.Errorf("expected nothing typed, got %q", line)
	}
}

func TestConsoleEscape(t *testing.T) {
	c := newTestConsole(3, 10)
	unhandled := 0
	c.OnUnhandledKey(func(KeyEvent) { unhandled++ })

	if !c.Key(KeyEvent{Key: KeyEscape}) {
		t.Error("expected escape to be swallowed")
	}
	if unhandled != 0 {
		t.Errorf("expected no unhandled key, got %d", unhandled)
	}

	c.SetEscapeEnabled(true)
	if c.Key(KeyEvent{Key: KeyEscape}) {
		t.Error("expected escape to be passed on")
	}
	if unhandled != 1 {
		t.Errorf("expected 1 unhandled key, got %d", unhandled)
	}
}

func TestConsoleOnInput(t *testing.T) {
	c := newTestConsole(3, 10)
	var typed []rune
	c.OnInput(func(ev KeyEvent) { typed = append(typed, ev.Rune) })

	typeString(c, "hi")

	if string(typed) != "hi" {
		t.Errorf("expected %q, got %q", "hi", string(typed))
	}
	if got := c.Terminal().LineContent(0); got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}
}

func TestConsoleOnLine(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))
	var lines []string
	c.OnLine(func(line string) { lines = append(lines, line) })

	c.WritePrompt()
	typeString(c, "hi")
	c.Key(KeyEvent{Key: KeyHome})
	c.Key(KeyEvent{Key: KeyEnter})

	if want := []string{"hi"}; !reflect.DeepEqual(lines, want) {
		t.Errorf("expected %q, got %q", want, lines)
	}
	expectConsoleCursor(t, c, 1, 0)
	if c.PromptRendered() {
		t.Error("expected the new line to have no prompt")
	}
	if got := c.CurrentLine(); got != "" {
		t.Errorf("expected empty current line, got %q", got)
	}
}

func TestConsoleOnLineWrapped(t *testing.T) {
	c := newTestConsole(3, 5, WithPrompt("> "))
	var lines []string
	c.OnLine(func(line string) { lines = append(lines, line) })

	c.WritePrompt()
	typeString(c, "abcdef")
	c.Key(KeyEvent{Key: KeyEnter})

	if want := []string{"abcdef"}; !reflect.DeepEqual(lines, want) {
		t.Errorf("expected %q, got %q", want, lines)
	}
	expectConsoleCursor(t, c, 2, 0)
}

func TestConsoleOnIdle(t *testing.T) {
	c := newTestConsole(3, 10)
	idle := 0
	c.OnIdle(func() { idle++ })

	c.WriteString("a")
	c.Do(func() {
		c.Do(func() {})
		c.WriteString("b")
	})

	if idle != 2 {
		t.Errorf("expected 2 idle notifications, got %d", idle)
	}
}

func TestConsoleResize(t *testing.T) {
	c := newTestConsole(3, 10)
	var sizes [][2]int
	c.OnResize(func(rows, cols int) { sizes = append(sizes, [2]int{rows, cols}) })

	c.Resize(5, 20)
	c.Resize(0, 20)
	c.Resize(5, -1)

	if c.Terminal().Rows() != 5 || c.Terminal().Cols() != 20 {
		t.Errorf("expected 5x20, got %dx%d", c.Terminal().Rows(), c.Terminal().Cols())
	}
	if want := [][2]int{{5, 20}}; !reflect.DeepEqual(sizes, want) {
		t.Errorf("expected %v, got %v", want, sizes)
	}

	c.WriteString("ok")
	if got := c.Terminal().LineContent(0); got != "ok" {
		t.Errorf("expected console to keep working, got %q", got)
	}
}

func TestConsoleSetPrompt(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))

	c.SetPrompt("$$$ ")

	if c.Prompt() != "$$$ " {
		t.Errorf("expected prompt %q, got %q", "$$$ ", c.Prompt())
	}
	if c.Terminal().Margin() != 4 {
		t.Errorf("expected margin 4, got %d", c.Terminal().Margin())
	}
}

func TestConsoleSetInsertMode(t *testing.T) {
	c := newTestConsole(3, 10)

	c.SetInsertMode(true)
	if !c.InsertMode() {
		t.Error("expected insert mode")
	}
	if got := cursorStyleToString(c.Terminal().CursorStyle()); got != "underline" {
		t.Errorf("expected underline cursor, got %q", got)
	}

	c.Key(KeyEvent{Key: KeyInsert})
	if c.InsertMode() {
		t.Error("expected Insert to toggle back to overwrite mode")
	}
	if got := cursorStyleToString(c.Terminal().CursorStyle()); got != "block" {
		t.Errorf("expected block cursor, got %q", got)
	}
}

func TestConsoleSetKeyboardSelectionClears(t *testing.T) {
	c := newTestConsole(3, 10)
	typeString(c, "abc")
	c.Key(KeyEvent{Key: KeyLeft, Mod: ModShift})
	if !c.Terminal().HasSelection() {
		t.Fatal("expected a selection")
	}

	c.SetKeyboardSelection(false)

	if c.Terminal().HasSelection() {
		t.Error("expected selection cleared")
	}
	if c.Key(KeyEvent{Key: KeyLeft, Mod: ModShift}) {
		t.Error("expected shift+left to be ignored")
	}
}

func TestConsoleRecording(t *testing.T) {
	rec := NewMemoryRecording()
	c := newTestConsole(3, 10, WithRecording(rec))

	c.WriteString("ab")
	c.Exec(Cmd(OpLeft, 1))
	c.Do(func() {})

	if got := string(rec.Data()); got != "ab\x1b[<1L" {
		t.Errorf("expected %q, got %q", "ab\x1b[<1L", got)
	}
}

func TestConsoleFeatures(t *testing.T) {
	activated := false
	c := newTestConsole(3, 10, WithFeatures(FeatureFunc(func(c *Console) {
		activated = true
		c.HandleKey(MatchKey(KeyF5, ModNone), func(KeyEvent) bool {
			c.WriteString("five")
			return true
		})
	})))

	c.Key(KeyEvent{Key: KeyF5})

	if !activated {
		t.Error("expected feature to be activated")
	}
	if got := c.Terminal().LineContent(0); got != "five" {
		t.Errorf("expected %q, got %q", "five", got)
	}
}

func TestConsoleCurrentLine(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))

	c.WritePrompt()
	typeString(c, "ab  ")

	if got := c.CurrentLine(); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
}

func TestConsoleCurrentLineWithoutPrompt(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))

	c.WriteString("> xyz")

	if got := c.CurrentLine(); got != "> xyz" {
		t.Errorf("expected %q, got %q", "> xyz", got)
	}
}

func TestListenerDoRunsAfterCurrentItem(t *testing.T) {
	c := newTestConsole(3, 10)
	row := -1
	c.OnLine(func(string) {
		c.Do(func() { row, _ = c.Terminal().CursorPos() })
	})

	typeString(c, "ab")
	c.Key(KeyEvent{Key: KeyEnter})
	c.Sync()

	if row != 1 {
		t.Errorf("expected the deferred listener work to see row 1, got %d", row)
	}
}

func TestFeedRunsBeforeQueuedInput(t *testing.T) {
	c := newTestConsole(3, 10)
	started, done := make(chan struct{}), make(chan struct{})
	go c.Do(func() {
		close(started)
		<-done
	})
	<-started

	c.Do(func() { c.Feed([]byte("ab\x1b[<L")) })
	c.WriteString("X")
	close(done)
	c.Sync()

	if got := c.CurrentLine(); got != "aX" {
		t.Errorf("expected %q, got %q", "aX", got)
	}
}
