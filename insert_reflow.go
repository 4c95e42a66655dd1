package headlessconsole

import "sync/atomic"

// InsertReflow keeps wrapped lines intact while typing in insert mode: the
// tail of the logical line is pushed into its continuation rows, and a new
// continuation row is opened when the last one overflows. It is loaded by NewConsole.
type InsertReflow struct {
	disabled atomic.Bool
}

// Activate layers the reflow middleware onto the console's terminal.
func (f *InsertReflow) Activate(c *Console) {
	c.term.Use(c.term.ReflowMiddleware(f.Enabled))
}

// Enabled reports whether reflow is active.
func (f *InsertReflow) Enabled() bool {
	return !f.disabled.Load()
}

// SetEnabled turns reflow on or off.
func (f *InsertReflow) SetEnabled(on bool) {
	f.disabled.Store(!on)
}
