package headlessconsole

import "github.com/danielgatis/go-ansicode"

// LineEditor turns editing keys into private commands and runs those commands
// against the terminal. It is loaded by NewConsole.
type LineEditor struct {
	regs []Registration
}

// Activate registers the editor's key and command handlers.
func (e *LineEditor) Activate(c *Console) {
	send := func(op Op) func(KeyEvent) bool {
		return func(KeyEvent) bool {
			c.Exec(Cmd(op))
			return true
		}
	}
	swallow := func(KeyEvent) bool { return true }

	e.regs = append(e.regs,
		c.HandleCommand(OpHome, func(Command) bool { c.term.Home(); return true }),
		c.HandleKey(MatchKey(KeyHome, ModNone), send(OpHome)),

		c.HandleCommand(OpEnd, func(Command) bool { c.term.End(); return true }),
		c.HandleKey(MatchKey(KeyEnd, ModNone), send(OpEnd)),

		c.HandleCommand(OpLeft, func(cmd Command) bool { c.term.Backward(cmd.Param(0, 1)); return true }),
		c.HandleKey(MatchKey(KeyLeft, ModNone), send(OpLeft)),

		c.HandleCommand(OpRight, func(cmd Command) bool { c.term.Forward(cmd.Param(0, 1)); return true }),
		c.HandleKey(MatchKey(KeyRight, ModNone), send(OpRight)),

		c.HandleCommand(OpBackspace, func(Command) bool { c.term.DeleteBackward(); return true }),
		c.HandleKey(MatchKey(KeyBackspace, ModNone), send(OpBackspace)),

		c.HandleCommand(OpDelete, func(cmd Command) bool { c.term.Delete(cmd.Param(0, 1)); return true }),
		c.HandleKey(MatchKey(KeyDelete, ModNone), send(OpDelete)),

		c.HandleCommand(OpEraseInLine, func(cmd Command) bool {
			c.term.EraseInLine(lineClearMode(cmd.Param(0, 0)))
			return true
		}),

		c.HandleCommand(OpSubmit, func(Command) bool { c.emitLine(c.CurrentLine()); return true }),
		c.HandleKey(MatchKey(KeyEnter, ModNone), func(KeyEvent) bool {
			c.WriteString(Cmd(OpSubmit).String() + Cmd(OpEnd).String() + "\n")
			return true
		}),

		c.HandleCommand(OpPrompt, func(Command) bool { c.writePrompt(); return true }),

		c.HandleKey(MatchKey(KeyInsert, ModNone), func(KeyEvent) bool {
			c.SetInsertMode(!c.InsertMode())
			return true
		}),

		// Keys with no meaning inside a single line. F5, F6 and F12 are left to the host.
		c.HandleKey(MatchAny(
			MatchKeyAnyMod(KeyUp), MatchKeyAnyMod(KeyDown),
			MatchKeyAnyMod(KeyF1), MatchKeyAnyMod(KeyF2), MatchKeyAnyMod(KeyF3), MatchKeyAnyMod(KeyF4),
			MatchKeyAnyMod(KeyF7), MatchKeyAnyMod(KeyF8), MatchKeyAnyMod(KeyF9), MatchKeyAnyMod(KeyF10),
			MatchKeyAnyMod(KeyF11),
		), swallow),

		c.HandleKey(MatchKeyAnyMod(KeyEscape), func(KeyEvent) bool { return !c.EscapeEnabled() }),
	)
}

// Deactivate removes the editor's handlers.
func (e *LineEditor) Deactivate() {
	for _, r := range e.regs {
		r.Remove()
	}
	e.regs = nil
}

func lineClearMode(p int) ansicode.LineClearMode {
	switch p {
	case 1:
		return ansicode.LineClearModeLeft
	case 2:
		return ansicode.LineClearModeAll
	default:
		return ansicode.LineClearModeRight
	}
}
