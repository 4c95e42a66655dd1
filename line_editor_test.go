package headlessconsole

import "testing"

func editing(t *testing.T, text string, opts ...ConsoleOption) *Console {
	t.Helper()
	c := newTestConsole(3, 10, append([]ConsoleOption{WithPrompt("> ")}, opts...)...)
	c.WritePrompt()
	typeString(c, text)
	return c
}

func TestLineEditorHomeEnd(t *testing.T) {
	c := editing(t, "hello")

	c.Key(KeyEvent{Key: KeyHome})
	expectConsoleCursor(t, c, 0, 2)

	c.Key(KeyEvent{Key: KeyEnd})
	expectConsoleCursor(t, c, 0, 7)
}

func TestLineEditorArrows(t *testing.T) {
	c := editing(t, "hello")

	c.Key(KeyEvent{Key: KeyLeft})
	c.Key(KeyEvent{Key: KeyLeft})
	expectConsoleCursor(t, c, 0, 5)

	c.Key(KeyEvent{Key: KeyRight})
	expectConsoleCursor(t, c, 0, 6)
}

func TestLineEditorLeftStopsAtPrompt(t *testing.T) {
	c := editing(t, "a")

	c.Key(KeyEvent{Key: KeyLeft})
	c.Key(KeyEvent{Key: KeyLeft})

	expectConsoleCursor(t, c, 0, 2)
}

func TestLineEditorBackspace(t *testing.T) {
	c := editing(t, "hello")

	c.Key(KeyEvent{Key: KeyBackspace})

	if got := c.CurrentLine(); got != "hell" {
		t.Errorf("expected %q, got %q", "hell", got)
	}
}

func TestLineEditorBackspaceKeepsPrompt(t *testing.T) {
	c := editing(t, "a")

	for i := 0; i < 3; i++ {
		c.Key(KeyEvent{Key: KeyBackspace})
	}

	if got := c.Terminal().LineContent(0); got != "> " {
		t.Errorf("expected %q, got %q", "> ", got)
	}
}

func TestLineEditorDelete(t *testing.T) {
	c := editing(t, "hello")

	c.Key(KeyEvent{Key: KeyHome})
	c.Key(KeyEvent{Key: KeyDelete})

	if got := c.CurrentLine(); got != "ello" {
		t.Errorf("expected %q, got %q", "ello", got)
	}
}

func TestLineEditorInsertMode(t *testing.T) {
	c := editing(t, "helo", WithInsertMode(true))

	c.Key(KeyEvent{Key: KeyLeft})
	c.Key(RuneKey('l'))

	if got := c.CurrentLine(); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestLineEditorOverwriteMode(t *testing.T) {
	c := editing(t, "helo")

	c.Key(KeyEvent{Key: KeyLeft})
	c.Key(RuneKey('p'))

	if got := c.CurrentLine(); got != "help" {
		t.Errorf("expected %q, got %q", "help", got)
	}
}

func TestLineEditorEraseCommands(t *testing.T) {
	tests := []struct {
		name   string
		param  int
		want   string
		cursor int
	}{
		{"right", 0, "> ab", 4},
		{"left", 1, "     def", 4},
		{"all", 2, "", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := editing(t, "abcdef")
			c.Exec(Cmd(OpLeft, 4))

			c.Exec(Cmd(OpEraseInLine, tt.param))

			if got := c.Terminal().LineContent(0); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			expectConsoleCursor(t, c, 0, tt.cursor)
		})
	}
}

func TestLineEditorDeactivate(t *testing.T) {
	c := newTestConsole(3, 10)
	e := &LineEditor{}
	c.Load(e)
	c.WriteString("abc")

	e.Deactivate()
	c.Key(KeyEvent{Key: KeyHome})

	// the built-in editor still handles Home
	expectConsoleCursor(t, c, 0, 0)
}

func TestLineClearMode(t *testing.T) {
	if lineClearMode(0) != lineClearMode(7) {
		t.Error("expected unknown params to erase right")
	}
	if lineClearMode(1) == lineClearMode(2) {
		t.Error("expected distinct left and all modes")
	}
}
