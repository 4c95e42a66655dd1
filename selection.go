package headlessconsole

import "sync"

// KeyboardSelection selects text with shift+arrow keys.
//
// The selection is an anchor plus a length over linear addresses
// (row*cols + col). It grows in one direction from the anchor and flips
// direction when a move crosses the anchor. It is loaded by NewConsole and
// does nothing while the console's keyboard selection setting is off.
type KeyboardSelection struct {
	mu     sync.Mutex
	anchor int // -1 when no selection is active
	length int
	right  bool

	regs []Registration
}

// Activate registers the selection key handlers.
//
// Handlers decide on the queue, after everything typed before the key has
// been applied, so the cursor they read is the one the user sees.
func (s *KeyboardSelection) Activate(c *Console) {
	s.mu.Lock()
	s.anchor = -1
	s.mu.Unlock()

	selecting := func(fn func()) func(KeyEvent) bool {
		return func(KeyEvent) bool {
			if !c.KeyboardSelection() {
				return false
			}
			c.Do(fn)
			return true
		}
	}
	clearing := func(KeyEvent) bool {
		c.Do(func() { s.clear(c) })
		return false
	}
	deleting := func(ev KeyEvent) bool {
		if !c.KeyboardSelection() {
			return false
		}
		c.Do(func() {
			if !s.deleteSelection(c) {
				c.runNow(fallbackEdit(ev))
			}
		})
		return true
	}

	s.regs = append(s.regs,
		c.HandleKey(MatchKey(KeyLeft, ModShift), selecting(func() { s.move(c, -1) })),
		c.HandleKey(MatchKey(KeyRight, ModShift), selecting(func() { s.move(c, +1) })),
		c.HandleKey(MatchKey(KeyUp, ModShift), selecting(func() { s.move(c, -c.term.Cols()) })),
		c.HandleKey(MatchKey(KeyDown, ModShift), selecting(func() { s.move(c, +c.term.Cols()) })),
		c.HandleKey(MatchKey(KeyHome, ModShift), selecting(func() { s.selectHome(c) })),
		c.HandleKey(MatchKey(KeyEnd, ModShift), selecting(func() { s.selectEnd(c) })),

		c.HandleKey(MatchAny(
			MatchKey(KeyLeft, ModNone), MatchKey(KeyRight, ModNone),
			MatchKey(KeyUp, ModNone), MatchKey(KeyDown, ModNone),
			MatchKey(KeyHome, ModNone), MatchKey(KeyEnd, ModNone),
		), clearing),

		c.HandleKey(MatchAny(MatchKey(KeyDelete, ModNone), MatchKey(KeyBackspace, ModNone)), deleting),

		c.OnInput(func(KeyEvent) { c.Do(func() { s.clear(c) }) }),
		c.OnResize(func(int, int) { s.clear(c) }),
	)
}

// Deactivate removes the selection handlers. An active selection is left as it is.
func (s *KeyboardSelection) Deactivate() {
	s.mu.Lock()
	regs := s.regs
	s.regs = nil
	s.mu.Unlock()

	for _, r := range regs {
		r.Remove()
	}
}

// fallbackEdit is the plain edit for a Delete or Backspace key that did not
// delete a selection.
func fallbackEdit(ev KeyEvent) Command {
	if ev.Key == KeyBackspace {
		return Cmd(OpBackspace)
	}
	return Cmd(OpDelete)
}

// Active reports whether a selection anchor is set.
func (s *KeyboardSelection) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchor >= 0
}

// State returns the anchor address, length and direction.
// anchor is -1 when no selection is active.
func (s *KeyboardSelection) State() (anchor, length int, right bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchor, s.length, s.right
}

func (s *KeyboardSelection) clear(c *Console) {
	s.mu.Lock()
	active := s.anchor >= 0
	s.anchor, s.length, s.right = -1, 0, true
	s.mu.Unlock()

	if active {
		c.term.ClearSelection()
		c.notifySelectionChange("")
	}
}

func cursorAddress(t *Terminal) int {
	row, col := t.CursorPos()
	return row*t.Cols() + col
}

// move extends the selection by delta cells, negative meaning leftward.
// A move that would reach outside the screen is dropped and the previous
// selection is kept.
func (s *KeyboardSelection) move(c *Console, delta int) bool {
	s.mu.Lock()
	anchor, length, right := s.anchor, s.length, s.right
	if anchor < 0 {
		anchor, length, right = cursorAddress(c.term), 0, true
	}
	s.mu.Unlock()

	return s.apply(c, anchor, length, right, delta)
}

func (s *KeyboardSelection) apply(c *Console, anchor, length int, right bool, delta int) bool {
	if right {
		length += delta
	} else {
		length -= delta
	}
	if length < 0 {
		length = -length
		right = !right
	}

	start := anchor
	if !right {
		start -= length
	}
	rows, cols := c.term.Rows(), c.term.Cols()
	if start < 0 || start+length > rows*cols {
		return false
	}

	s.mu.Lock()
	s.anchor, s.length, s.right = anchor, length, right
	s.mu.Unlock()

	if length == 0 {
		c.term.ClearSelection()
		c.notifySelectionChange("")
		return true
	}

	end := start + length - 1
	c.term.SetSelection(
		Position{Row: start / cols, Col: start % cols},
		Position{Row: end / cols, Col: end % cols},
	)
	c.notifySelectionChange(c.term.GetSelectedText())
	return true
}

// selectHome selects from the cursor back to the first editable cell of the line.
func (s *KeyboardSelection) selectHome(c *Console) {
	t := c.term
	row, _ := t.CursorPos()
	rng := t.LogicalLine(row)
	anchor := cursorAddress(t)
	target := rng.First*t.Cols() + t.Margin()
	s.apply(c, anchor, 0, true, target-anchor)
}

// selectEnd selects from the cursor to the end of the line's content.
func (s *KeyboardSelection) selectEnd(c *Console) {
	t := c.term
	row, _ := t.CursorPos()
	rng := t.LogicalLine(row)
	anchor := cursorAddress(t)
	target := rng.Last*t.Cols() + t.TrimmedLength(rng.Last)
	s.apply(c, anchor, 0, true, target-anchor)
}

// deleteSelection deletes the selected text when it lies inside the cursor's
// logical line. It runs on the draining goroutine and reports whether the key
// was used up; false means the plain edit applies.
func (s *KeyboardSelection) deleteSelection(c *Console) bool {
	s.mu.Lock()
	anchor, length, right := s.anchor, s.length, s.right
	s.mu.Unlock()
	if anchor < 0 {
		return false
	}
	defer s.clear(c)
	if length == 0 {
		return false
	}

	t := c.term
	cols := t.Cols()
	row, _ := t.CursorPos()
	rng := t.LogicalLine(row)

	start, end := anchor, anchor+length
	if !right {
		start, end = anchor-length, anchor
	}
	if start/cols < rng.First || (end-1)/cols > rng.Last {
		return false
	}

	if right {
		c.runNow(Cmd(OpDelete, length))
		return true
	}

	n := end - max(start, rng.First*cols+t.Margin())
	if n <= 0 {
		return true
	}
	c.runNow(Cmd(OpLeft, n), Cmd(OpDelete, n))
	return true
}
