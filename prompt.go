package headlessconsole

import "github.com/danielgatis/go-ansicode"

// WritePrompt queues drawing the prompt at the start of the cursor's logical line.
// The first time on a line the prompt is inserted in front of the content and
// the cursor keeps its place in the text; later calls redraw it in overwrite
// mode and leave the cursor where it was.
func (c *Console) WritePrompt() {
	c.Exec(Cmd(OpPrompt))
}

// writePrompt runs on the draining goroutine.
func (c *Console) writePrompt() {
	prompt := c.Prompt()
	if prompt == "" {
		return
	}

	t := c.term
	start := c.lineStart()
	wasInsert := t.HasMode(ModeInsert)

	t.SaveCursorPosition()
	if c.promptRow.Load() == start {
		t.UnsetMode(ansicode.TerminalModeInsert)
		c.drawPrompt(prompt)
		if wasInsert {
			t.SetMode(ansicode.TerminalModeInsert)
		}
		t.RestoreCursorPosition()
		return
	}

	c.promptRow.Store(start)
	t.SetMode(ansicode.TerminalModeInsert)
	c.drawPrompt(prompt)
	if !wasInsert {
		t.UnsetMode(ansicode.TerminalModeInsert)
	}
	t.RestoreCursorPosition()
	t.Advance(StringWidth(prompt))
}

// drawPrompt prints prompt from column 0 of the first row of the cursor's logical line.
func (c *Console) drawPrompt(prompt string) {
	t := c.term
	row, _ := t.CursorPos()
	rng := t.LogicalLine(row)

	t.mu.Lock()
	t.cursor.Row, t.cursor.Col = rng.First, 0
	t.mu.Unlock()

	for _, r := range prompt {
		t.Input(r)
	}
}
