package headlessconsole

import "testing"

func TestWritePromptOnEmptyLine(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))

	c.WritePrompt()

	if got := c.Terminal().LineContent(0); got != "> " {
		t.Errorf("expected %q, got %q", "> ", got)
	}
	expectConsoleCursor(t, c, 0, 2)
	if !c.PromptRendered() {
		t.Error("expected prompt rendered")
	}
}

func TestWritePromptEmptyPrompt(t *testing.T) {
	c := newTestConsole(3, 10)

	c.WritePrompt()

	if got := c.Terminal().LineContent(0); got != "" {
		t.Errorf("expected nothing drawn, got %q", got)
	}
	if c.PromptRendered() {
		t.Error("expected no prompt rendered")
	}
}

func TestWritePromptIsIdempotent(t *testing.T) {
	for _, insert := range []bool{false, true} {
		c := newTestConsole(3, 10, WithPrompt("> "), WithInsertMode(insert))

		c.WritePrompt()
		c.WritePrompt()

		if got := c.Terminal().LineContent(0); got != "> " {
			t.Errorf("insert=%v: expected %q, got %q", insert, "> ", got)
		}
		expectConsoleCursor(t, c, 0, 2)
		if c.InsertMode() != insert {
			t.Errorf("insert=%v: expected insert mode unchanged", insert)
		}
	}
}

func TestWritePromptInFrontOfContent(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))
	c.WriteString("abc")

	c.WritePrompt()

	if got := c.Terminal().LineContent(0); got != "> abc" {
		t.Errorf("expected %q, got %q", "> abc", got)
	}
	expectConsoleCursor(t, c, 0, 5)
	if c.InsertMode() {
		t.Error("expected overwrite mode restored")
	}
	if got := c.CurrentLine(); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}

func TestWritePromptRedrawKeepsContent(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "), WithInsertMode(true))
	c.WritePrompt()
	typeString(c, "abc")
	c.Key(KeyEvent{Key: KeyLeft})

	c.WritePrompt()

	if got := c.Terminal().LineContent(0); got != "> abc" {
		t.Errorf("expected %q, got %q", "> abc", got)
	}
	expectConsoleCursor(t, c, 0, 4)
}

func TestWritePromptRedrawAfterSetPrompt(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))
	c.WritePrompt()
	typeString(c, "abc")

	c.SetPrompt("$ ")
	c.WritePrompt()

	if got := c.Terminal().LineContent(0); got != "$ abc" {
		t.Errorf("expected %q, got %q", "$ abc", got)
	}
}

func TestWritePromptWrapsContent(t *testing.T) {
	c := newTestConsole(2, 5, WithPrompt("> "))
	c.WriteString("abcd")

	c.WritePrompt()

	expectLines(t, c.Terminal(), "> abc", "d")
	expectContinuation(t, c.Terminal(), false, true)
	expectConsoleCursor(t, c, 1, 1)
	if got := c.CurrentLine(); got != "abcd" {
		t.Errorf("expected %q, got %q", "abcd", got)
	}
}

func TestWritePromptAfterOutput(t *testing.T) {
	c := newTestConsole(3, 10, WithPrompt("> "))
	c.WriteString("out\n")

	c.WritePrompt()

	expectLines(t, c.Terminal(), "out", "> ")
	expectConsoleCursor(t, c, 1, 2)
}
