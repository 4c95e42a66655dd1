package headlessconsole

import (
	"io"
	"sync"
)

// ResponseProvider writes terminal responses (e.g., cursor position reports) back to the host.
type ResponseProvider = io.Writer

// NoopResponse discards all response data.
type NoopResponse struct{}

func (NoopResponse) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// --- Bell Provider ---

// BellProvider handles bell/beep events triggered by BEL (0x07) characters.
type BellProvider interface {
	// Ring is called when a bell character is received.
	Ring()
}

// NoopBell ignores all bell events.
type NoopBell struct{}

func (NoopBell) Ring() {}

// --- Title Provider ---

// TitleProvider handles window title changes (OSC 0, 1, 2).
type TitleProvider interface {
	// SetTitle is called when the title changes.
	SetTitle(title string)
	// PushTitle saves the current title to the stack.
	PushTitle()
	// PopTitle restores the title from the stack.
	PopTitle()
}

// NoopTitle ignores all title operations.
type NoopTitle struct{}

func (NoopTitle) SetTitle(title string) {}
func (NoopTitle) PushTitle()            {}
func (NoopTitle) PopTitle()             {}

// --- Clipboard Provider ---

// ClipboardProvider handles clipboard read/write operations (OSC 52 and the clipboard feature).
type ClipboardProvider interface {
	// Read returns content from the specified clipboard ('c' for clipboard, 'p' for primary selection).
	Read(clipboard byte) string
	// Write stores content to the specified clipboard.
	Write(clipboard byte, data []byte)
}

// NoopClipboard ignores all clipboard operations.
type NoopClipboard struct{}

func (NoopClipboard) Read(clipboard byte) string        { return "" }
func (NoopClipboard) Write(clipboard byte, data []byte) {}

// MemoryClipboard keeps clipboard contents in memory, one slot per clipboard name.
type MemoryClipboard struct {
	mu    sync.Mutex
	slots map[byte]string
}

// NewMemoryClipboard creates an empty in-memory clipboard.
func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{slots: make(map[byte]string)}
}

// Read returns the content stored for clipboard.
func (m *MemoryClipboard) Read(clipboard byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[clipboard]
}

// Write stores data for clipboard.
func (m *MemoryClipboard) Write(clipboard byte, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[clipboard] = string(data)
}

// --- Recording Provider ---

// RecordingProvider captures the raw console stream (output and private commands) for replay or debugging.
type RecordingProvider interface {
	// Record appends raw bytes to the recording.
	Record(data []byte)
	// Data returns all captured bytes since the last Clear call.
	Data() []byte
	// Clear discards all recorded data.
	Clear()
}

// NoopRecording discards all recordings.
type NoopRecording struct{}

func (NoopRecording) Record([]byte) {}
func (NoopRecording) Data() []byte  { return nil }
func (NoopRecording) Clear()        {}

// MemoryRecording stores the raw stream in memory.
//
// Example:
//
//	recorder := headlessconsole.NewMemoryRecording()
//	c := headlessconsole.NewConsole(headlessconsole.WithRecording(recorder))
//	// ... type and write ...
//	data := recorder.Data() // feed it to another console to replay the session
type MemoryRecording struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryRecording creates a new in-memory recording buffer.
func NewMemoryRecording() *MemoryRecording {
	return &MemoryRecording{data: make([]byte, 0)}
}

// Record appends raw bytes to the recording.
func (r *MemoryRecording) Record(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, data...)
}

// Data returns all captured bytes since the last Clear call.
func (r *MemoryRecording) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]byte, len(r.data))
	copy(result, r.data)
	return result
}

// Clear discards all recorded data.
func (r *MemoryRecording) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = make([]byte, 0)
}

// Ensure implementations satisfy their interfaces
var _ ResponseProvider = NoopResponse{}
var _ BellProvider = (*NoopBell)(nil)
var _ TitleProvider = (*NoopTitle)(nil)
var _ ClipboardProvider = (*NoopClipboard)(nil)
var _ ClipboardProvider = (*MemoryClipboard)(nil)
var _ RecordingProvider = (*NoopRecording)(nil)
var _ RecordingProvider = (*MemoryRecording)(nil)
