package session

import (
	"encoding/base64"
	"io"
	"sync"

	console "github.com/danielgatis/go-headless-console"
	"github.com/danielgatis/go-headless-console/internal/log"
)

// OSC52Clipboard forwards clipboard writes to a remote terminal as OSC 52
// sequences. Clients are never queried, so reads return the last value written.
type OSC52Clipboard struct {
	mu    sync.Mutex
	w     io.Writer
	slots map[byte]string
}

var _ console.ClipboardProvider = (*OSC52Clipboard)(nil)

// NewOSC52Clipboard creates a clipboard that writes its sequences to w.
func NewOSC52Clipboard(w io.Writer) *OSC52Clipboard {
	return &OSC52Clipboard{w: w, slots: make(map[byte]string)}
}

// Read returns the last content written to clipboard.
func (o *OSC52Clipboard) Read(clipboard byte) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.slots[clipboard]
}

// Write stores data and sends it to the client.
func (o *OSC52Clipboard) Write(clipboard byte, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.slots[clipboard] = string(data)

	seq := "\x1b]52;" + string(clipboard) + ";" + base64.StdEncoding.EncodeToString(data) + "\x07"
	if _, err := io.WriteString(o.w, seq); err != nil {
		log.ErrorErr(log.CatSession, "failed to send clipboard", err)
	}
}
