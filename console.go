package headlessconsole

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/danielgatis/go-headless-console/internal/log"
)

// Feature attaches behavior to a console by registering handlers and middleware.
type Feature interface {
	Activate(c *Console)
}

// FeatureFunc adapts a function to the Feature interface.
type FeatureFunc func(c *Console)

// Activate calls f(c).
func (f FeatureFunc) Activate(c *Console) { f(c) }

type queueItem struct {
	data []byte
	cmd  *Command
	fn   func()
}

type commandHandler struct {
	op Op
	fn func(Command) bool
}

type keyHandler struct {
	match KeyMatcher
	fn    func(KeyEvent) bool
}

// Console is a line-editing front end over a Terminal.
//
// Output bytes, private commands and callbacks share one ordered queue. The
// queue is drained by one goroutine at a time, so every edit runs to completion
// before the next item is looked at. Keys are dispatched on the caller's
// goroutine: handlers translate them into commands that join the same queue.
//
// All methods are safe for concurrent use.
type Console struct {
	term *Terminal

	mu       sync.Mutex
	queue    []queueItem
	draining bool

	// scanner is only touched by the draining goroutine.
	scanner commandScanner

	keyMu sync.Mutex

	commands         registry[commandHandler]
	keys             registry[keyHandler]
	lineListeners    registry[func(string)]
	inputListeners   registry[func(KeyEvent)]
	unhandled        registry[func(KeyEvent)]
	idleListeners    registry[func()]
	resizeListeners  registry[func(rows, cols int)]
	selectionChanged registry[func(text string)]

	settingsMu        sync.RWMutex
	prompt            string
	keyboardSelection bool
	escapeEnabled     bool

	// promptRow is the absolute row (screen row plus rows scrolled off) where
	// the prompt was last drawn, or -1.
	promptRow atomic.Int64

	recording RecordingProvider

	termOpts   []Option
	insertMode bool
	features   []Feature
	selection  *KeyboardSelection
}

// ConsoleOption configures a Console during construction.
type ConsoleOption func(*Console)

// WithPrompt sets the prompt drawn at the start of each input line.
func WithPrompt(prompt string) ConsoleOption {
	return func(c *Console) {
		c.prompt = prompt
	}
}

// WithInsertMode starts the console in insert mode instead of overwrite mode.
func WithInsertMode(on bool) ConsoleOption {
	return func(c *Console) {
		c.insertMode = on
	}
}

// WithKeyboardSelection enables shift+arrow selection.
func WithKeyboardSelection(on bool) ConsoleOption {
	return func(c *Console) {
		c.keyboardSelection = on
	}
}

// WithEscapeEnabled lets the Escape key reach unhandled-key listeners instead of being swallowed.
func WithEscapeEnabled(on bool) ConsoleOption {
	return func(c *Console) {
		c.escapeEnabled = on
	}
}

// WithTerminal passes options to the underlying Terminal.
func WithTerminal(opts ...Option) ConsoleOption {
	return func(c *Console) {
		c.termOpts = append(c.termOpts, opts...)
	}
}

// WithRecording captures every byte and command the console processes.
// The capture can be written back into a fresh console to reproduce the screen.
func WithRecording(p RecordingProvider) ConsoleOption {
	return func(c *Console) {
		c.recording = p
	}
}

// WithFeatures loads extra features after the built-in ones.
func WithFeatures(features ...Feature) ConsoleOption {
	return func(c *Console) {
		c.features = append(c.features, features...)
	}
}

// NewConsole creates a console with the line editor, insert reflow and
// keyboard selection features loaded.
func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		keyboardSelection: true,
		recording:         NoopRecording{},
	}
	c.promptRow.Store(-1)

	for _, opt := range opts {
		opt(c)
	}

	c.term = New(c.termOpts...)
	c.term.SetMargin(StringWidth(c.prompt))

	// \n acts as CRLF so submitted lines start at column 0.
	c.term.modes |= ModeLineFeedNewLine
	if c.insertMode {
		c.term.modes |= ModeInsert
		c.term.cursor.Style = CursorStyleBlinkingUnderline
	}

	c.selection = &KeyboardSelection{}
	builtin := []Feature{&LineEditor{}, &InsertReflow{}, c.selection}
	c.Load(append(builtin, c.features...)...)
	c.features = nil

	return c
}

// Load activates features in order.
func (c *Console) Load(features ...Feature) {
	for _, f := range features {
		if f != nil {
			f.Activate(c)
		}
	}
}

// Terminal returns the underlying terminal.
func (c *Console) Terminal() *Terminal {
	return c.term
}

// --- Queue ---

// Write queues output bytes. Private commands embedded in p are extracted and
// dispatched; everything else reaches the terminal decoder. Implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	c.enqueue(queueItem{data: append([]byte(nil), p...)})
	return len(p), nil
}

// WriteString queues s as output.
func (c *Console) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// Exec queues commands. They run in order, after everything queued before them.
func (c *Console) Exec(cmds ...Command) {
	items := make([]queueItem, len(cmds))
	for i := range cmds {
		cmd := cmds[i]
		cmd.Params = append([]int(nil), cmd.Params...)
		items[i] = queueItem{cmd: &cmd}
	}
	c.enqueue(items...)
}

// Do queues fn to run on the draining goroutine.
func (c *Console) Do(fn func()) {
	if fn == nil {
		return
	}
	c.enqueue(queueItem{fn: fn})
}

// Sync blocks until everything queued before the call has been processed.
//
// Sync waits for the queue, so it must not be called from the draining
// goroutine: command handlers, Do functions and listeners would wait on
// themselves. Code running there already sees every earlier item applied;
// use Do to run something after the current item.
func (c *Console) Sync() {
	done := make(chan struct{})
	c.Do(func() { close(done) })
	<-done
}

// Feed processes p at once, as if it were the next item in the queue.
// Private commands in p are dispatched and the rest reaches the terminal.
// It must only be called from the draining goroutine, for example from a
// Do function, where a Write would land behind input queued since.
func (c *Console) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	c.process(queueItem{data: p})
}

// runNow dispatches cmds on the draining goroutine without queueing them.
func (c *Console) runNow(cmds ...Command) {
	for _, cmd := range cmds {
		c.process(queueItem{cmd: &cmd})
	}
}

func (c *Console) enqueue(items ...queueItem) {
	if len(items) == 0 {
		return
	}

	c.mu.Lock()
	c.queue = append(c.queue, items...)
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.mu.Unlock()

	c.drain()
}

func (c *Console) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.queue = nil
			c.mu.Unlock()
			break
		}
		it := c.queue[0]
		c.queue[0] = queueItem{}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.process(it)
	}

	for _, fn := range c.idleListeners.inOrder() {
		fn()
	}
}

func (c *Console) process(it queueItem) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatConsole, "queue item failed", "panic", fmt.Sprint(r))
		}
	}()

	switch {
	case it.fn != nil:
		it.fn()
	case it.cmd != nil:
		c.recording.Record([]byte(it.cmd.String()))
		c.dispatchCommand(*it.cmd)
	default:
		c.recording.Record(it.data)
		for _, seg := range c.scanner.scan(it.data) {
			if seg.cmd != nil {
				c.dispatchCommand(*seg.cmd)
				continue
			}
			_, _ = c.term.Write(seg.data)
		}
	}
}

// --- Commands ---

// HandleCommand registers fn for commands with the given op.
// Handlers run most recently registered first until one returns true.
func (c *Console) HandleCommand(op Op, fn func(Command) bool) Registration {
	return c.commands.add(commandHandler{op: op, fn: fn})
}

func (c *Console) dispatchCommand(cmd Command) bool {
	for _, h := range c.commands.newestFirst() {
		if h.op == cmd.Op && h.fn(cmd) {
			return true
		}
	}
	log.Debug(log.CatConsole, "command not handled", "op", string(rune(cmd.Op)))
	return false
}

// --- Keys ---

// HandleKey registers fn for key events accepted by match.
// Handlers run most recently registered first until one returns true.
func (c *Console) HandleKey(match KeyMatcher, fn func(KeyEvent) bool) Registration {
	return c.keys.add(keyHandler{match: match, fn: fn})
}

// Key dispatches a key press. A printable character nobody claims is typed
// into the line; other unclaimed keys go to the OnUnhandledKey listeners.
// It reports whether the console consumed the key.
func (c *Console) Key(ev KeyEvent) bool {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	return c.dispatchKey(ev)
}

// dispatchKey requires keyMu.
func (c *Console) dispatchKey(ev KeyEvent) bool {
	for _, h := range c.keys.newestFirst() {
		if h.match(ev) && h.fn(ev) {
			return true
		}
	}

	if ev.Printable() {
		for _, fn := range c.inputListeners.inOrder() {
			fn(ev)
		}
		c.Write([]byte(string(ev.Rune)))
		return true
	}

	for _, fn := range c.unhandled.inOrder() {
		fn(ev)
	}
	return false
}

// OnInput registers fn to run before an unclaimed printable key is typed.
func (c *Console) OnInput(fn func(KeyEvent)) Registration {
	return c.inputListeners.add(fn)
}

// OnUnhandledKey registers fn for keys no handler consumed and that type nothing.
func (c *Console) OnUnhandledKey(fn func(KeyEvent)) Registration {
	return c.unhandled.add(fn)
}

// --- Listeners ---

// OnLine registers fn to receive each submitted line, prompt stripped.
// Listeners run in registration order on the draining goroutine.
func (c *Console) OnLine(fn func(line string)) Registration {
	return c.lineListeners.add(fn)
}

func (c *Console) emitLine(line string) {
	for _, fn := range c.lineListeners.inOrder() {
		fn(line)
	}
}

// OnIdle registers fn to run each time the queue has been drained.
// Hosts repaint from here.
func (c *Console) OnIdle(fn func()) Registration {
	return c.idleListeners.add(fn)
}

// OnResize registers fn to run after the console has been resized.
func (c *Console) OnResize(fn func(rows, cols int)) Registration {
	return c.resizeListeners.add(fn)
}

// OnSelectionChange registers fn to receive the selected text whenever the
// keyboard selection changes. An empty string means the selection was cleared.
func (c *Console) OnSelectionChange(fn func(text string)) Registration {
	return c.selectionChanged.add(fn)
}

func (c *Console) notifySelectionChange(text string) {
	for _, fn := range c.selectionChanged.inOrder() {
		fn(text)
	}
}

// --- Settings ---

// Prompt returns the prompt text.
func (c *Console) Prompt() string {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.prompt
}

// SetPrompt changes the prompt. Lines whose prompt is already drawn keep it.
func (c *Console) SetPrompt(prompt string) {
	c.Do(func() {
		c.settingsMu.Lock()
		c.prompt = prompt
		c.settingsMu.Unlock()
		c.term.SetMargin(StringWidth(prompt))
	})
}

// promptWidth returns the number of cells the prompt occupies.
func (c *Console) promptWidth() int {
	return StringWidth(c.Prompt())
}

// InsertMode reports whether typed characters are inserted rather than overwriting.
func (c *Console) InsertMode() bool {
	return c.term.HasMode(ModeInsert)
}

// SetInsertMode switches between insert and overwrite mode through the stream,
// using a blinking underline cursor in insert mode and a steady block otherwise.
func (c *Console) SetInsertMode(on bool) {
	if on {
		c.WriteString("\x1b[4h\x1b[3 q")
	} else {
		c.WriteString("\x1b[4l\x1b[2 q")
	}
}

// KeyboardSelection reports whether shift+arrow selection is enabled.
func (c *Console) KeyboardSelection() bool {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.keyboardSelection
}

// SetKeyboardSelection enables or disables shift+arrow selection.
func (c *Console) SetKeyboardSelection(on bool) {
	c.settingsMu.Lock()
	c.keyboardSelection = on
	c.settingsMu.Unlock()
	if !on {
		c.Do(c.ClearSelection)
	}
}

// EscapeEnabled reports whether the Escape key is passed on.
func (c *Console) EscapeEnabled() bool {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.escapeEnabled
}

// SetEscapeEnabled controls whether the Escape key is passed on.
func (c *Console) SetEscapeEnabled(on bool) {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	c.escapeEnabled = on
}

// --- Line access ---

// CurrentLine returns the text of the logical line under the cursor.
// Trailing whitespace is trimmed and the prompt is stripped when it was drawn on this line.
func (c *Console) CurrentLine() string {
	width := c.promptWidth()
	promptRow := c.promptRow.Load()

	t := c.term
	t.mu.RLock()
	defer t.mu.RUnlock()

	rng := t.buffer.LogicalLine(clamp(t.cursor.Row, 0, t.rows-1))
	var b strings.Builder
	for r := rng.First; r <= rng.Last; r++ {
		row := t.buffer.Row(r)
		start := 0
		if r == rng.First && promptRow == int64(rng.First)+t.buffer.Scrolled() {
			start = width
		}
		b.WriteString(row.textRange(start, row.TrimmedLength()))
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// lineStart returns the absolute row of the first row of the cursor's logical line.
func (c *Console) lineStart() int64 {
	t := c.term
	t.mu.RLock()
	defer t.mu.RUnlock()
	rng := t.buffer.LogicalLine(clamp(t.cursor.Row, 0, t.rows-1))
	return int64(rng.First) + t.buffer.Scrolled()
}

// PromptRendered reports whether the prompt is drawn on the cursor's logical line.
func (c *Console) PromptRendered() bool {
	return c.promptRow.Load() == c.lineStart()
}

// --- Selection ---

// SelectedText returns the text under the keyboard selection.
func (c *Console) SelectedText() string {
	return c.term.GetSelectedText()
}

// ClearSelection drops the keyboard selection.
func (c *Console) ClearSelection() {
	if c.selection != nil {
		c.selection.clear(c)
	}
}

// --- Resize ---

// Resize changes the console size. A failure inside the engine is logged and
// leaves the console as it was.
func (c *Console) Resize(rows, cols int) {
	c.Do(func() {
		if err := c.resize(rows, cols); err != nil {
			log.ErrorErr(log.CatConsole, "resize failed", err, "rows", rows, "cols", cols)
			return
		}
		for _, fn := range c.resizeListeners.inOrder() {
			fn(rows, cols)
		}
	})
}

func (c *Console) resize(rows, cols int) (err error) {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("invalid size %dx%d", rows, cols)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("terminal resize: %v", r)
		}
	}()
	c.term.Resize(rows, cols)
	return nil
}
