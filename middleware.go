package headlessconsole

import (
	"github.com/danielgatis/go-ansicode"
)

// Middleware intercepts ANSI handler calls, allowing custom behavior before/after execution.
// Each field wraps one handler: receive original parameters and a next function to call the default implementation.
type Middleware struct {
	// Input wraps the Input handler
	Input func(r rune, next func(rune))

	// Backspace wraps the Backspace handler
	Backspace func(next func())

	// CarriageReturn wraps the CarriageReturn handler
	CarriageReturn func(next func())

	// LineFeed wraps the LineFeed handler
	LineFeed func(next func())

	// Tab wraps the Tab handler
	Tab func(n int, next func(int))

	// ClearLine wraps the ClearLine handler
	ClearLine func(mode ansicode.LineClearMode, next func(ansicode.LineClearMode))

	// ClearScreen wraps the ClearScreen handler
	ClearScreen func(mode ansicode.ClearMode, next func(ansicode.ClearMode))

	// InsertBlank wraps the InsertBlank handler
	InsertBlank func(n int, next func(int))

	// DeleteChars wraps the DeleteChars handler
	DeleteChars func(n int, next func(int))

	// EraseChars wraps the EraseChars handler
	EraseChars func(n int, next func(int))

	// SetMode wraps the SetMode handler
	SetMode func(mode ansicode.TerminalMode, next func(ansicode.TerminalMode))

	// UnsetMode wraps the UnsetMode handler
	UnsetMode func(mode ansicode.TerminalMode, next func(ansicode.TerminalMode))

	// ResetState wraps the ResetState handler
	ResetState func(next func())
}

// Merge layers the non-nil hooks of other on top of this middleware.
// When both define a hook, the hook from other runs first and its next
// calls the existing hook, so independently registered features compose.
func (m *Middleware) Merge(other *Middleware) {
	if other == nil {
		return
	}

	m.Input = wrap1(other.Input, m.Input)
	m.Backspace = wrap0(other.Backspace, m.Backspace)
	m.CarriageReturn = wrap0(other.CarriageReturn, m.CarriageReturn)
	m.LineFeed = wrap0(other.LineFeed, m.LineFeed)
	m.Tab = wrap1(other.Tab, m.Tab)
	m.ClearLine = wrap1(other.ClearLine, m.ClearLine)
	m.ClearScreen = wrap1(other.ClearScreen, m.ClearScreen)
	m.InsertBlank = wrap1(other.InsertBlank, m.InsertBlank)
	m.DeleteChars = wrap1(other.DeleteChars, m.DeleteChars)
	m.EraseChars = wrap1(other.EraseChars, m.EraseChars)
	m.SetMode = wrap1(other.SetMode, m.SetMode)
	m.UnsetMode = wrap1(other.UnsetMode, m.UnsetMode)
	m.ResetState = wrap0(other.ResetState, m.ResetState)
}

func wrap0(outer, inner func(next func())) func(next func()) {
	if outer == nil {
		return inner
	}
	if inner == nil {
		return outer
	}
	return func(next func()) {
		outer(func() { inner(next) })
	}
}

func wrap1[T any](outer, inner func(T, func(T))) func(T, func(T)) {
	if outer == nil {
		return inner
	}
	if inner == nil {
		return outer
	}
	return func(v T, next func(T)) {
		outer(v, func(v T) { inner(v, next) })
	}
}
