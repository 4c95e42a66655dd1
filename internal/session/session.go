// Package session ties a console to its history, clipboard and an optional
// child process so that every host (local screen, SSH, websocket) runs the
// same line-editing front end.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"golang.org/x/term"

	console "github.com/danielgatis/go-headless-console"
	"github.com/danielgatis/go-headless-console/history"
	"github.com/danielgatis/go-headless-console/internal/config"
	"github.com/danielgatis/go-headless-console/internal/log"
)

// ErrClosed is returned when a closed session is started.
var ErrClosed = errors.New("session closed")

type options struct {
	rows, cols int
	command    []string
	env        []string
	clipboard  console.ClipboardProvider
	bell       console.BellProvider
	title      console.TitleProvider
	recording  console.RecordingProvider
	store      history.Store
}

// Option configures a Session.
type Option func(*options)

// WithSize overrides the configured terminal size.
func WithSize(rows, cols int) Option {
	return func(o *options) {
		o.rows, o.cols = rows, cols
	}
}

// WithCommand overrides the configured child command. An empty argv runs
// without a child: submitted lines only redraw the prompt.
func WithCommand(argv ...string) Option {
	return func(o *options) {
		o.command = argv
	}
}

// WithEnv adds environment variables for the child process.
func WithEnv(env ...string) Option {
	return func(o *options) {
		o.env = append(o.env, env...)
	}
}

// WithClipboardProvider sets the system clipboard behind the clipboard feature.
func WithClipboardProvider(p console.ClipboardProvider) Option {
	return func(o *options) {
		o.clipboard = p
	}
}

// WithBell sets the bell provider.
func WithBell(p console.BellProvider) Option {
	return func(o *options) {
		o.bell = p
	}
}

// WithTitle sets the title provider.
func WithTitle(p console.TitleProvider) Option {
	return func(o *options) {
		o.title = p
	}
}

// WithRecording captures the console stream.
func WithRecording(p console.RecordingProvider) Option {
	return func(o *options) {
		o.recording = p
	}
}

// WithHistoryStore uses store instead of the one named by the configuration.
// The session does not close a store passed this way.
func WithHistoryStore(store history.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// Session is one console with its features and, optionally, a child process
// whose terminal the console fronts.
type Session struct {
	ID string

	console   *console.Console
	history   *history.History
	clipboard *console.Clipboard

	store     history.Store
	ownsStore bool
	command   []string
	env       []string

	mu      sync.Mutex
	cfg     config.Config
	cmd     *exec.Cmd
	ptmx    *os.File
	started bool
	exitErr error

	done      chan struct{}
	closeOnce sync.Once
	regs      []console.Registration
}

// New builds a session from cfg. The child process, if any, starts with Start.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	o := options{
		rows:    cfg.Terminal.Rows,
		cols:    cfg.Terminal.Cols,
		command: cfg.Exec.Command,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		ID:      uuid.New().String(),
		cfg:     cfg,
		command: o.command,
		env:     o.env,
		done:    make(chan struct{}),
	}

	switch {
	case o.store != nil:
		s.store = o.store
	case cfg.History.Path != "":
		store, err := history.OpenSQLite(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		s.store, s.ownsStore = store, true
	default:
		s.store, s.ownsStore = history.NewMemoryStore(), true
	}

	s.history = history.New(s.store,
		history.WithMaxSize(cfg.History.MaxSize),
		history.WithEnabled(cfg.History.Enabled),
	)
	s.clipboard = console.NewClipboard(
		console.WithClipboardMode(cfg.ClipboardMode()),
		console.WithCopyOnSelect(cfg.Clipboard.CopyOnSelect),
	)

	termOpts := []console.Option{console.WithSize(o.rows, o.cols)}
	if o.clipboard != nil {
		termOpts = append(termOpts, console.WithClipboard(o.clipboard))
	}
	if o.bell != nil {
		termOpts = append(termOpts, console.WithBell(o.bell))
	}
	if o.title != nil {
		termOpts = append(termOpts, console.WithTitle(o.title))
	}

	consoleOpts := []console.ConsoleOption{
		console.WithPrompt(cfg.Console.Prompt),
		console.WithInsertMode(cfg.Console.InsertMode),
		console.WithKeyboardSelection(cfg.Console.KeyboardSelection),
		console.WithEscapeEnabled(cfg.Console.EscapeEnabled),
		console.WithTerminal(termOpts...),
		console.WithFeatures(s.history, s.clipboard),
	}
	if o.recording != nil {
		consoleOpts = append(consoleOpts, console.WithRecording(o.recording))
	}
	s.console = console.NewConsole(consoleOpts...)

	s.regs = []console.Registration{
		s.console.OnLine(s.submit),
		s.console.OnUnhandledKey(s.forward),
	}

	log.Debug(log.CatSession, "session created", "session", s.ID, "rows", o.rows, "cols", o.cols)
	return s, nil
}

// Console returns the session console.
func (s *Session) Console() *console.Console {
	return s.console
}

// History returns the session history.
func (s *Session) History() *history.History {
	return s.history
}

// Clipboard returns the session clipboard feature.
func (s *Session) Clipboard() *console.Clipboard {
	return s.clipboard
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the child's exit error once the session has ended.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Start launches the child process, if one is configured, and draws the first
// prompt. The session ends when ctx is cancelled.
func (s *Session) Start(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	if len(s.command) > 0 {
		if err := s.startChild(ctx); err != nil {
			return err
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	s.console.WritePrompt()
	return nil
}

func (s *Session) startChild(ctx context.Context) error {
	t := s.console.Terminal()

	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.Env = append(os.Environ(), "TERM=dumb")
	cmd.Env = append(cmd.Env, s.env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(t.Rows()),
		Cols: uint16(t.Cols()),
	})
	if err != nil {
		return fmt.Errorf("starting %s: %w", s.command[0], err)
	}

	// The console does the editing and echoing; the child sees whole lines.
	if _, err := term.MakeRaw(int(ptmx.Fd())); err != nil {
		log.Warn(log.CatSession, "failed to make child tty raw", "session", s.ID, "error", err)
	}

	s.mu.Lock()
	s.cmd, s.ptmx = cmd, ptmx
	s.mu.Unlock()

	log.Info(log.CatSession, "child started", "session", s.ID, "command", s.command[0], "pid", cmd.Process.Pid)

	go s.readLoop(ptmx)
	go s.wait(cmd)
	return nil
}

func (s *Session) readLoop(ptmx *os.File) {
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			_, _ = s.console.Write(buf[:n])
			if buf[n-1] == '\n' {
				s.console.WritePrompt()
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	if err != nil {
		log.Info(log.CatSession, "child exited", "session", s.ID, "error", err)
	} else {
		log.Info(log.CatSession, "child exited", "session", s.ID)
	}

	s.mu.Lock()
	s.exitErr = err
	s.mu.Unlock()
	s.Close()
}

// submit receives each line the console submits.
func (s *Session) submit(line string) {
	s.mu.Lock()
	ptmx := s.ptmx
	s.mu.Unlock()

	if ptmx == nil {
		s.console.WritePrompt()
		return
	}
	if _, err := ptmx.Write([]byte(line + "\n")); err != nil {
		log.ErrorErr(log.CatSession, "failed to write line to child", err, "session", s.ID)
	}
}

// forward handles keys the console did not consume.
func (s *Session) forward(ev console.KeyEvent) {
	s.mu.Lock()
	cmd, ptmx := s.cmd, s.ptmx
	s.mu.Unlock()

	switch {
	case ev.Key == console.KeyRune && ev.Mod == console.ModCtrl && (ev.Rune == 'c' || ev.Rune == 'C'):
		if cmd != nil && cmd.Process != nil {
			if err := cmd.Process.Signal(os.Interrupt); err != nil {
				log.ErrorErr(log.CatSession, "failed to interrupt child", err, "session", s.ID)
			}
			return
		}
		// Abandon the line being edited.
		s.console.Exec(console.Cmd(console.OpEnd))
		_, _ = s.console.WriteString("^C\n")
		s.console.WritePrompt()
		return
	case ev.Key == console.KeyRune && ev.Mod == console.ModCtrl && (ev.Rune == 'd' || ev.Rune == 'D'):
		if s.console.CurrentLine() == "" {
			s.Close()
		}
		return
	}

	if ptmx == nil {
		return
	}
	if b := keyBytes(ev); b != nil {
		if _, err := ptmx.Write(b); err != nil {
			log.ErrorErr(log.CatSession, "failed to forward key", err, "session", s.ID, "key", ev.String())
		}
	}
}

// keyBytes encodes a key the console left alone for the child.
func keyBytes(ev console.KeyEvent) []byte {
	switch ev.Key {
	case console.KeyTab:
		return []byte{'\t'}
	case console.KeyEscape:
		return []byte{0x1b}
	case console.KeyPageUp:
		return []byte("\x1b[5~")
	case console.KeyPageDown:
		return []byte("\x1b[6~")
	case console.KeyRune:
		if ev.Mod == console.ModCtrl {
			r := ev.Rune
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			if r >= 'a' && r <= 'z' {
				return []byte{byte(r-'a') + 1}
			}
		}
	}
	return nil
}

// Resize resizes the console and the child's terminal.
func (s *Session) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}
	s.console.Resize(rows, cols)

	s.mu.Lock()
	ptmx := s.ptmx
	s.mu.Unlock()
	if ptmx != nil {
		if err := pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
			log.ErrorErr(log.CatSession, "failed to resize child tty", err, "session", s.ID)
		}
	}
}

// ApplyConfig applies the settings that can change while the session runs.
func (s *Session) ApplyConfig(cfg config.Config) {
	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	c := s.console
	if cfg.Console.Prompt != prev.Console.Prompt {
		c.SetPrompt(cfg.Console.Prompt)
	}
	if cfg.Console.InsertMode != prev.Console.InsertMode {
		c.SetInsertMode(cfg.Console.InsertMode)
	}
	c.SetKeyboardSelection(cfg.Console.KeyboardSelection)
	c.SetEscapeEnabled(cfg.Console.EscapeEnabled)

	s.history.SetEnabled(cfg.History.Enabled)
	s.history.SetMaxSize(cfg.History.MaxSize)
	s.clipboard.SetMode(cfg.ClipboardMode())
	s.clipboard.SetCopyOnSelect(cfg.Clipboard.CopyOnSelect)

	log.Debug(log.CatSession, "config applied", "session", s.ID)
}

// Close ends the session: the child is killed and the history store closed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, r := range s.regs {
			r.Remove()
		}

		s.mu.Lock()
		cmd, ptmx := s.cmd, s.ptmx
		s.ptmx = nil
		s.mu.Unlock()

		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		if ptmx != nil {
			_ = ptmx.Close()
		}
		if s.ownsStore {
			if err := s.store.Close(); err != nil {
				log.ErrorErr(log.CatSession, "failed to close history store", err, "session", s.ID)
			}
		}

		close(s.done)
		log.Debug(log.CatSession, "session closed", "session", s.ID)
	})
}
