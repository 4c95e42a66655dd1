// Package history adds line history to a console: submitted lines are kept,
// optionally persisted, and recalled with the up and down arrow keys.
package history

import (
	"context"
	"strings"
	"sync"

	console "github.com/danielgatis/go-headless-console"
	"github.com/danielgatis/go-headless-console/internal/log"
)

// recallPrefix erases the logical line, moves to its start and to column 0.
const recallPrefix = "\x1b[<2K\x1b[<H\x1b[G"

// History is a console feature that records submitted lines.
type History struct {
	mu      sync.Mutex
	ctx     context.Context
	store   Store
	lines   []string
	maxSize int
	enabled bool

	// Navigation. pos is the position between lines, len(lines) meaning past
	// the newest; initial is the line being edited when navigation started.
	pos        int
	initial    string
	hasInitial bool
	lastRet    string

	console *console.Console
	regs    []console.Registration
}

// Option configures a History.
type Option func(*History)

// WithMaxSize keeps at most n lines. n <= 0 keeps every line.
func WithMaxSize(n int) Option {
	return func(h *History) {
		h.maxSize = n
	}
}

// WithEnabled sets whether the history starts enabled. Defaults to true.
func WithEnabled(on bool) Option {
	return func(h *History) {
		h.enabled = on
	}
}

// WithContext sets the context used for store operations.
func WithContext(ctx context.Context) Option {
	return func(h *History) {
		h.ctx = ctx
	}
}

// New creates a history over store. A nil store keeps lines in memory only.
func New(store Store, opts ...Option) *History {
	h := &History{
		ctx:     context.Background(),
		store:   store,
		enabled: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Activate loads the stored lines and, when enabled, registers the arrow key
// handlers and the line listener.
func (h *History) Activate(c *console.Console) {
	h.mu.Lock()
	h.console = c
	enabled := h.enabled
	h.mu.Unlock()

	if h.store != nil {
		lines, err := h.store.Load(h.ctx, h.maxSize)
		if err != nil {
			log.ErrorErr(log.CatHistory, "failed to load history", err)
		}
		h.mu.Lock()
		h.lines = append(h.lines, lines...)
		h.trimLocked()
		h.resetLocked()
		h.mu.Unlock()
		log.Debug(log.CatHistory, "history loaded", "lines", len(lines))
	}

	if enabled {
		h.mu.Lock()
		h.registerLocked()
		h.mu.Unlock()
	}
}

func (h *History) registerLocked() {
	c := h.console
	if c == nil || h.regs != nil {
		return
	}
	h.regs = []console.Registration{
		c.OnLine(h.onLine),
		c.HandleKey(console.MatchKey(console.KeyUp, console.ModNone), func(console.KeyEvent) bool {
			h.up()
			return true
		}),
		c.HandleKey(console.MatchKey(console.KeyDown, console.ModNone), func(console.KeyEvent) bool {
			h.down()
			return true
		}),
	}
}

// SetEnabled turns the arrow keys and line recording on or off.
func (h *History) SetEnabled(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = on
	if on {
		h.registerLocked()
		return
	}
	for _, r := range h.regs {
		r.Remove()
	}
	h.regs = nil
}

// Enabled reports whether the history is active.
func (h *History) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

// SetMaxSize changes how many lines are kept, dropping the oldest ones.
func (h *History) SetMaxSize(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxSize = n
	h.trimLocked()
	h.resetLocked()
}

// Add records a line. Surrounding whitespace is trimmed and blank lines are ignored.
func (h *History) Add(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return ErrEmptyLine
	}

	h.mu.Lock()
	h.lines = append(h.lines, line)
	h.trimLocked()
	h.resetLocked()
	store, ctx, maxSize := h.store, h.ctx, h.maxSize
	h.mu.Unlock()

	if store == nil {
		return nil
	}
	if err := store.Append(ctx, line); err != nil {
		log.ErrorErr(log.CatHistory, "failed to store line", err)
		return err
	}
	if t, ok := store.(Trimmer); ok && maxSize > 0 {
		if err := t.Trim(ctx, maxSize); err != nil {
			log.ErrorErr(log.CatHistory, "failed to trim history", err)
			return err
		}
	}
	return nil
}

// Lines returns the recorded lines, oldest first.
func (h *History) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

// Clear removes every line, including stored ones.
func (h *History) Clear() error {
	h.mu.Lock()
	h.lines = nil
	h.resetLocked()
	store, ctx := h.store, h.ctx
	h.mu.Unlock()

	if store != nil {
		if err := store.Clear(ctx); err != nil {
			log.ErrorErr(log.CatHistory, "failed to clear history", err)
			return err
		}
	}
	return nil
}

func (h *History) onLine(line string) {
	_ = h.Add(line)

	// An empty submission also ends navigation.
	h.mu.Lock()
	h.resetLocked()
	h.mu.Unlock()
}

func (h *History) trimLocked() {
	if h.maxSize > 0 && len(h.lines) > h.maxSize {
		h.lines = append([]string(nil), h.lines[len(h.lines)-h.maxSize:]...)
	}
}

func (h *History) resetLocked() {
	h.pos = len(h.lines)
	h.initial, h.hasInitial = "", false
	h.lastRet = ""
}

// up and down run on the console queue, so the line they save and replace is
// the one left by everything typed before the key.
func (h *History) up() {
	h.mu.Lock()
	c := h.console
	h.mu.Unlock()
	if c == nil {
		return
	}

	c.Do(func() {
		h.mu.Lock()
		needInitial := !h.hasInitial
		h.mu.Unlock()

		current := ""
		if needInitial {
			current = c.CurrentLine()
		}

		h.mu.Lock()
		if needInitial && !h.hasInitial {
			h.initial, h.hasInitial = current, true
		}
		line, ok := h.previousLocked()
		h.mu.Unlock()

		if ok {
			h.recall(c, line)
		}
	})
}

func (h *History) down() {
	h.mu.Lock()
	c := h.console
	h.mu.Unlock()
	if c == nil {
		return
	}

	c.Do(func() {
		h.mu.Lock()
		line, ok := h.nextLocked()
		h.mu.Unlock()

		if ok {
			h.recall(c, line)
		}
	})
}

// previousLocked walks towards older lines, skipping the line on screen.
func (h *History) previousLocked() (string, bool) {
	for p := h.pos; p > 0; {
		p--
		if line := h.lines[p]; line != h.lastRet {
			h.pos = p
			h.lastRet = line
			return line, true
		}
	}
	return "", false
}

// nextLocked walks towards newer lines and finally back to the line that was
// being edited when navigation started.
func (h *History) nextLocked() (string, bool) {
	for h.pos < len(h.lines) {
		line := h.lines[h.pos]
		h.pos++
		if line != h.lastRet {
			h.lastRet = line
			return line, true
		}
	}
	if !h.hasInitial {
		return "", false
	}
	line := h.initial
	h.initial, h.hasInitial = "", false
	h.lastRet = line
	return line, true
}

// recall replaces the current line with line. It runs on the draining goroutine.
func (h *History) recall(c *console.Console, line string) {
	c.Feed([]byte(recallPrefix + c.Prompt() + line))
}
