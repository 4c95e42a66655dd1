package headlessconsole

import (
	"fmt"
	"strings"
	"sync"
)

// ClipboardMode controls how the clipboard feature uses the system clipboard.
type ClipboardMode string

const (
	// ClipboardNone keeps copied text in the internal clipboard only.
	ClipboardNone ClipboardMode = "none"
	// ClipboardWrite also copies to the system clipboard but pastes from the internal one.
	ClipboardWrite ClipboardMode = "write"
	// ClipboardReadWrite copies to and pastes from the system clipboard.
	ClipboardReadWrite ClipboardMode = "readwrite"
)

// ParseClipboardMode converts a configuration value into a ClipboardMode.
func ParseClipboardMode(s string) (ClipboardMode, error) {
	switch m := ClipboardMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ClipboardNone, ClipboardWrite, ClipboardReadWrite:
		return m, nil
	case "":
		return ClipboardWrite, nil
	default:
		return "", fmt.Errorf("unknown clipboard mode %q", s)
	}
}

// systemClipboard is the OSC 52 selection used for the system clipboard.
const systemClipboard = 'c'

// Clipboard copies keyboard selections and pastes text as typed input.
// The system clipboard is the terminal's ClipboardProvider.
type Clipboard struct {
	mu           sync.Mutex
	mode         ClipboardMode
	copySelected bool
	internal     string
	hasInternal  bool

	console *Console
}

// ClipboardOption configures a Clipboard.
type ClipboardOption func(*Clipboard)

// WithClipboardMode sets how the system clipboard is used. Defaults to ClipboardWrite.
func WithClipboardMode(mode ClipboardMode) ClipboardOption {
	return func(cb *Clipboard) {
		cb.mode = mode
	}
}

// WithCopyOnSelect copies the selected text whenever the keyboard selection changes.
func WithCopyOnSelect(on bool) ClipboardOption {
	return func(cb *Clipboard) {
		cb.copySelected = on
	}
}

// NewClipboard creates a clipboard feature.
func NewClipboard(opts ...ClipboardOption) *Clipboard {
	cb := &Clipboard{mode: ClipboardWrite}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Activate registers Ctrl+C (copy selection), Ctrl+V (paste) and the copy-on-select listener.
func (cb *Clipboard) Activate(c *Console) {
	cb.mu.Lock()
	cb.console = c
	cb.mu.Unlock()

	c.HandleKey(MatchRune('c', ModCtrl), func(KeyEvent) bool {
		text := c.SelectedText()
		if text == "" {
			return false
		}
		cb.Copy(text)
		return true
	})
	c.HandleKey(MatchRune('v', ModCtrl), func(KeyEvent) bool {
		cb.pasteLocked(c)
		return true
	})
	c.OnSelectionChange(func(text string) {
		cb.mu.Lock()
		on := cb.copySelected
		cb.mu.Unlock()
		if on && text != "" {
			cb.Copy(text)
		}
	})
}

// Mode returns the system clipboard mode.
func (cb *Clipboard) Mode() ClipboardMode {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.mode
}

// SetMode changes the system clipboard mode.
func (cb *Clipboard) SetMode(mode ClipboardMode) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.mode = mode
}

// SetCopyOnSelect turns copy-on-select on or off.
func (cb *Clipboard) SetCopyOnSelect(on bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.copySelected = on
}

// Copy stores text in the internal clipboard and, unless the mode is
// ClipboardNone, in the system clipboard.
func (cb *Clipboard) Copy(text string) {
	cb.mu.Lock()
	cb.internal, cb.hasInternal = text, true
	mode, c := cb.mode, cb.console
	cb.mu.Unlock()

	if c == nil || mode == ClipboardNone {
		return
	}
	if p := c.term.ClipboardProvider(); p != nil {
		p.Write(systemClipboard, []byte(text))
	}
}

// Text returns what a paste would insert.
func (cb *Clipboard) Text() (string, bool) {
	cb.mu.Lock()
	mode, c := cb.mode, cb.console
	internal, ok := cb.internal, cb.hasInternal
	cb.mu.Unlock()

	if mode == ClipboardReadWrite && c != nil {
		if p := c.term.ClipboardProvider(); p != nil {
			if s := p.Read(systemClipboard); s != "" {
				return s, true
			}
		}
	}
	return internal, ok
}

// Paste types the clipboard text into the console as if it were entered key by key.
// Newlines submit lines; carriage returns are dropped.
func (cb *Clipboard) Paste() {
	cb.mu.Lock()
	c := cb.console
	cb.mu.Unlock()
	if c == nil {
		return
	}

	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	cb.pasteLocked(c)
}

// pasteLocked requires c.keyMu.
func (cb *Clipboard) pasteLocked(c *Console) {
	text, ok := cb.Text()
	if !ok {
		return
	}
	for _, r := range text {
		switch r {
		case '\r':
			continue
		case '\n':
			c.dispatchKey(KeyEvent{Key: KeyEnter})
		case '\t':
			c.dispatchKey(KeyEvent{Key: KeyTab})
		default:
			c.dispatchKey(RuneKey(r))
		}
	}
}
