package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	console "github.com/danielgatis/go-headless-console"
	"github.com/danielgatis/go-headless-console/internal/log"
	"github.com/danielgatis/go-headless-console/internal/session"
)

var recordPath string

var runCmd = &cobra.Command{
	Use:   "run [-- command [args...]]",
	Short: "Run the console on the local terminal",
	Long: `Run the console full screen on the local terminal. With a command, each
submitted line is sent to it and its output is shown in the console.

Example:
  headless-console run
  headless-console run -- python3 -i -q
  headless-console run --record session.rec -- sh`,
	RunE: runLocal,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&recordPath, "record", "", "save everything the console processed to this file on exit")
}

// tcellBell rings the local terminal bell.
type tcellBell struct {
	screen tcell.Screen
}

func (b tcellBell) Ring() {
	_ = b.screen.Beep()
}

func runLocal(_ *cobra.Command, args []string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	cols, rows := screen.Size()
	opts := []session.Option{
		session.WithSize(rows, cols),
		session.WithBell(tcellBell{screen: screen}),
	}
	if len(args) > 0 {
		opts = append(opts, session.WithCommand(args...))
	}
	var rec *console.MemoryRecording
	if recordPath != "" {
		rec = console.NewMemoryRecording()
		opts = append(opts, session.WithRecording(rec))
	}

	s, err := session.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	watchConfig(s.ApplyConfig)

	redraw := make(chan struct{}, 1)
	s.Console().OnIdle(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	})

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := s.Start(ctx); err != nil {
		return err
	}

	p := &painter{screen: screen}
	p.paint(s.Console().Terminal(), true)

loop:
	for {
		select {
		case <-s.Done():
			break loop
		case <-redraw:
			p.paint(s.Console().Terminal(), false)
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				w, h := ev.Size()
				s.Resize(h, w)
				s.Console().Sync()
				p.paint(s.Console().Terminal(), true)
			case *tcell.EventKey:
				if key, ok := keyFromTcell(ev); ok {
					s.Console().Key(key)
				}
			}
		}
	}

	if rec != nil {
		if err := os.WriteFile(recordPath, rec.Data(), 0o600); err != nil {
			return fmt.Errorf("saving recording: %w", err)
		}
		log.Info(log.CatSession, "recording saved", "path", recordPath)
	}
	return s.Err()
}

// painter copies the console screen onto a tcell screen.
type painter struct {
	screen    tcell.Screen
	selection console.Selection
}

// paint redraws the dirty rows, or every row when full is set or the
// selection moved.
func (p *painter) paint(t *console.Terminal, full bool) {
	if sel := t.GetSelection(); sel != p.selection {
		p.selection = sel
		full = true
	}

	rows, cols := t.Rows(), t.Cols()
	var dirty []int
	if full {
		p.screen.Clear()
		dirty = make([]int, rows)
		for i := range dirty {
			dirty[i] = i
		}
	} else {
		dirty = t.DirtyRows()
	}

	for _, row := range dirty {
		for col := 0; col < cols; col++ {
			cell := t.Cell(row, col)
			if cell == nil || cell.IsWideSpacer() {
				continue
			}
			ch := cell.Char
			if ch == 0 || cell.HasFlag(console.CellFlagHidden) {
				ch = ' '
			}
			p.screen.SetContent(col, row, ch, nil, cellStyle(cell.Flags, t.IsSelected(row, col)))
		}
	}
	t.ClearDirty()

	row, col := t.CursorPos()
	if t.CursorVisible() {
		p.screen.ShowCursor(col, row)
	} else {
		p.screen.HideCursor()
	}
	p.screen.SetCursorStyle(cursorStyle(t.CursorStyle()))
	p.screen.Show()
}

func cellStyle(flags console.CellFlags, selected bool) tcell.Style {
	style := tcell.StyleDefault
	if flags&console.CellFlagBold != 0 {
		style = style.Bold(true)
	}
	if flags&console.CellFlagDim != 0 {
		style = style.Dim(true)
	}
	if flags&console.CellFlagItalic != 0 {
		style = style.Italic(true)
	}
	if flags&console.CellFlagUnderline != 0 {
		style = style.Underline(true)
	}
	if flags&console.CellFlagBlink != 0 {
		style = style.Blink(true)
	}
	if flags&console.CellFlagStrike != 0 {
		style = style.StrikeThrough(true)
	}
	if (flags&console.CellFlagReverse != 0) != selected {
		style = style.Reverse(true)
	}
	return style
}

func cursorStyle(s console.CursorStyle) tcell.CursorStyle {
	switch s {
	case console.CursorStyleSteadyBlock:
		return tcell.CursorStyleSteadyBlock
	case console.CursorStyleBlinkingUnderline:
		return tcell.CursorStyleBlinkingUnderline
	case console.CursorStyleSteadyUnderline:
		return tcell.CursorStyleSteadyUnderline
	case console.CursorStyleBlinkingBar:
		return tcell.CursorStyleBlinkingBar
	case console.CursorStyleSteadyBar:
		return tcell.CursorStyleSteadyBar
	default:
		return tcell.CursorStyleBlinkingBlock
	}
}

// keyFromTcell maps a tcell key event to a console key event.
func keyFromTcell(ev *tcell.EventKey) (console.KeyEvent, bool) {
	var mod console.Mod
	m := ev.Modifiers()
	if m&tcell.ModShift != 0 {
		mod |= console.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= console.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= console.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mod |= console.ModMeta
	}

	key := ev.Key()
	if k, ok := tcellKeys[key]; ok {
		return console.KeyEvent{Key: k, Mod: mod}, true
	}

	switch {
	case key == tcell.KeyRune:
		return console.KeyEvent{Key: console.KeyRune, Rune: ev.Rune(), Mod: mod}, true
	case key == tcell.KeyBacktab:
		return console.KeyEvent{Key: console.KeyTab, Mod: mod | console.ModShift}, true
	case key >= tcell.KeyF1 && key <= tcell.KeyF12:
		return console.KeyEvent{Key: console.KeyF1 + console.Key(key-tcell.KeyF1), Mod: mod}, true
	case key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ:
		return console.KeyEvent{Key: console.KeyRune, Rune: rune('a' + key - tcell.KeyCtrlA), Mod: console.ModCtrl}, true
	}
	return console.KeyEvent{}, false
}

// tcellKeys holds the keys that map one to one. Enter, Tab and Backspace
// share their codes with Ctrl+M, Ctrl+I and Ctrl+H, so they are matched
// before the control letters.
var tcellKeys = map[tcell.Key]console.Key{
	tcell.KeyEnter:      console.KeyEnter,
	tcell.KeyTab:        console.KeyTab,
	tcell.KeyBackspace:  console.KeyBackspace,
	tcell.KeyBackspace2: console.KeyBackspace,
	tcell.KeyDelete:     console.KeyDelete,
	tcell.KeyLeft:       console.KeyLeft,
	tcell.KeyRight:      console.KeyRight,
	tcell.KeyUp:         console.KeyUp,
	tcell.KeyDown:       console.KeyDown,
	tcell.KeyHome:       console.KeyHome,
	tcell.KeyEnd:        console.KeyEnd,
	tcell.KeyInsert:     console.KeyInsert,
	tcell.KeyEscape:     console.KeyEscape,
	tcell.KeyPgUp:       console.KeyPageUp,
	tcell.KeyPgDn:       console.KeyPageDown,
}
