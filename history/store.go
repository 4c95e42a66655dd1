package history

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrEmptyLine is returned when a blank line is added to a store.
	ErrEmptyLine = errors.New("history: empty line")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("history: store closed")
)

// Store persists history lines, oldest first.
type Store interface {
	// Load returns up to limit of the most recent lines, oldest first.
	// A limit <= 0 returns every line.
	Load(ctx context.Context, limit int) ([]string, error)

	// Append records a line.
	Append(ctx context.Context, line string) error

	// Clear removes every line.
	Clear(ctx context.Context) error

	// Close releases the store.
	Close() error
}

// Trimmer is implemented by stores that can drop old lines themselves.
type Trimmer interface {
	// Trim deletes all but the newest keep lines.
	Trim(ctx context.Context, keep int) error
}

// MemoryStore keeps lines in memory. The zero value is ready to use.
type MemoryStore struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding lines.
func NewMemoryStore(lines ...string) *MemoryStore {
	return &MemoryStore{lines: append([]string(nil), lines...)}
}

func (m *MemoryStore) Load(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	lines := m.lines
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return append([]string(nil), lines...), nil
}

func (m *MemoryStore) Append(_ context.Context, line string) error {
	if line == "" {
		return ErrEmptyLine
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.lines = append(m.lines, line)
	return nil
}

// Trim deletes all but the newest keep lines.
func (m *MemoryStore) Trim(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if keep = max(keep, 0); len(m.lines) > keep {
		m.lines = append([]string(nil), m.lines[len(m.lines)-keep:]...)
	}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.lines = nil
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
