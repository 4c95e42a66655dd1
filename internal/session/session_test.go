package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	console "github.com/danielgatis/go-headless-console"
	"github.com/danielgatis/go-headless-console/history"
	"github.com/danielgatis/go-headless-console/internal/config"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Terminal.Rows = 6
	cfg.Terminal.Cols = 20
	return cfg
}

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := New(testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func typeString(c *console.Console, s string) {
	for _, r := range s {
		c.Key(console.RuneKey(r))
	}
}

func enter(c *console.Console) {
	c.Key(console.KeyEvent{Key: console.KeyEnter})
}

func screen(c *console.Console) []string {
	snap := c.Snapshot(console.SnapshotDetailText)
	lines := make([]string, len(snap.Lines))
	for i, l := range snap.Lines {
		lines[i] = l.Text
	}
	return lines
}

func TestSession_WithoutChildRedrawsPrompt(t *testing.T) {
	s := newSession(t, WithCommand())
	require.NoError(t, s.Start(context.Background()))

	c := s.Console()
	typeString(c, "hello")
	enter(c)

	lines := screen(c)
	assert.Equal(t, "> hello", lines[0])
	assert.Equal(t, "> ", lines[1])
	assert.Equal(t, []string{"hello"}, s.History().Lines())

	row, col := c.Terminal().CursorPos()
	assert.Equal(t, 1, row)
	assert.Equal(t, 2, col)
}

func TestSession_StartTwiceIsNoop(t *testing.T) {
	s := newSession(t, WithCommand())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, "> ", screen(s.Console())[0])
}

func TestSession_CtrlCAbandonsLine(t *testing.T) {
	s := newSession(t, WithCommand())
	require.NoError(t, s.Start(context.Background()))

	c := s.Console()
	typeString(c, "oops")
	c.Key(console.KeyEvent{Key: console.KeyHome})
	c.Key(console.KeyEvent{Key: console.KeyRune, Rune: 'c', Mod: console.ModCtrl})

	lines := screen(c)
	assert.Equal(t, "> oops^C", lines[0])
	assert.Equal(t, "> ", lines[1])
	assert.Empty(t, s.History().Lines())
}

func TestSession_CtrlDOnEmptyLineCloses(t *testing.T) {
	s := newSession(t, WithCommand())
	require.NoError(t, s.Start(context.Background()))

	c := s.Console()
	typeString(c, "x")
	c.Key(console.KeyEvent{Key: console.KeyRune, Rune: 'd', Mod: console.ModCtrl})
	select {
	case <-s.Done():
		t.Fatal("session closed with text on the line")
	default:
	}

	c.Key(console.KeyEvent{Key: console.KeyBackspace})
	c.Key(console.KeyEvent{Key: console.KeyRune, Rune: 'd', Mod: console.ModCtrl})
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not close")
	}

	assert.ErrorIs(t, s.Start(context.Background()), ErrClosed)
}

func TestSession_ContextCancelCloses(t *testing.T) {
	s := newSession(t, WithCommand())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not close")
	}
}

func TestSession_UsesGivenStore(t *testing.T) {
	store := history.NewMemoryStore("earlier")
	s := newSession(t, WithCommand(), WithHistoryStore(store))
	require.NoError(t, s.Start(context.Background()))

	c := s.Console()
	c.Key(console.KeyEvent{Key: console.KeyUp})
	assert.Equal(t, "earlier", c.CurrentLine())

	s.Close()
	lines, err := store.Load(context.Background(), 0)
	require.NoError(t, err, "a store passed in stays open")
	assert.Equal(t, []string{"earlier"}, lines)
}

func TestSession_SQLiteHistoryPersists(t *testing.T) {
	cfg := testConfig()
	cfg.History.Path = t.TempDir() + "/history.db"

	s, err := New(cfg, WithCommand())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	typeString(s.Console(), "persisted")
	enter(s.Console())
	s.Close()

	s2, err := New(cfg, WithCommand())
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, []string{"persisted"}, s2.History().Lines())
}

func TestSession_ApplyConfig(t *testing.T) {
	s := newSession(t, WithCommand())
	require.NoError(t, s.Start(context.Background()))

	cfg := testConfig()
	cfg.Console.Prompt = "$ "
	cfg.Console.InsertMode = false
	cfg.History.Enabled = false
	cfg.Clipboard.Mode = "none"
	s.ApplyConfig(cfg)
	s.Console().Sync()

	assert.Equal(t, "$ ", s.Console().Prompt())
	assert.False(t, s.Console().InsertMode())
	assert.False(t, s.History().Enabled())
	assert.Equal(t, console.ClipboardNone, s.Clipboard().Mode())

	enter(s.Console())
	assert.Equal(t, "$ ", screen(s.Console())[1])
}

func TestSession_ChildReceivesLines(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	s := newSession(t, WithCommand("cat"))
	require.NoError(t, s.Start(context.Background()))

	c := s.Console()
	typeString(c, "ping")
	enter(c)

	require.Eventually(t, func() bool {
		lines := screen(c)
		return lines[1] == "ping" && lines[2] == "> "
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSession_ChildExitEndsSession(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}

	s := newSession(t, WithCommand("true"))
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end with its child")
	}
	assert.NoError(t, s.Err())
}

func TestSession_StartFailure(t *testing.T) {
	s := newSession(t, WithCommand("/nonexistent/headless-console-test"))
	assert.Error(t, s.Start(context.Background()))
}

func TestKeyBytes(t *testing.T) {
	assert.Equal(t, []byte{0x01}, keyBytes(console.KeyEvent{Key: console.KeyRune, Rune: 'a', Mod: console.ModCtrl}))
	assert.Equal(t, []byte{0x1a}, keyBytes(console.KeyEvent{Key: console.KeyRune, Rune: 'Z', Mod: console.ModCtrl}))
	assert.Equal(t, []byte{'\t'}, keyBytes(console.KeyEvent{Key: console.KeyTab}))
	assert.Equal(t, []byte("\x1b[5~"), keyBytes(console.KeyEvent{Key: console.KeyPageUp}))
	assert.Nil(t, keyBytes(console.KeyEvent{Key: console.KeyF5}))
}

func TestOSC52Clipboard(t *testing.T) {
	var out bytes.Buffer
	cb := NewOSC52Clipboard(&out)

	cb.Write('c', []byte("hi"))

	assert.Equal(t, "\x1b]52;c;"+base64.StdEncoding.EncodeToString([]byte("hi"))+"\x07", out.String())
	assert.Equal(t, "hi", cb.Read('c'))
	assert.Empty(t, cb.Read('p'))
}

func TestSession_CopySelectionSendsOSC52(t *testing.T) {
	var out bytes.Buffer
	s := newSession(t, WithCommand(), WithClipboardProvider(NewOSC52Clipboard(&out)))
	require.NoError(t, s.Start(context.Background()))

	c := s.Console()
	typeString(c, "abc")
	c.Key(console.KeyEvent{Key: console.KeyLeft, Mod: console.ModShift})
	c.Key(console.KeyEvent{Key: console.KeyLeft, Mod: console.ModShift})
	c.Key(console.KeyEvent{Key: console.KeyRune, Rune: 'c', Mod: console.ModCtrl})

	assert.True(t, strings.HasPrefix(out.String(), "\x1b]52;c;"))
	assert.Contains(t, out.String(), base64.StdEncoding.EncodeToString([]byte("bc")))
}

func TestRenderer_Frame(t *testing.T) {
	c := console.NewConsole(console.WithTerminal(console.WithSize(3, 10)))
	var r Renderer

	_, _ = c.WriteString("hello")
	first := string(r.Frame(c.Terminal()))
	assert.Contains(t, first, "\x1b[2J")
	assert.Contains(t, first, "\x1b[1;1Hhello")
	assert.Contains(t, first, "\x1b[1;6H")

	assert.Nil(t, r.Frame(c.Terminal()), "unchanged screen yields no frame")

	_, _ = c.WriteString("\nx")
	second := string(r.Frame(c.Terminal()))
	assert.NotContains(t, second, "hello")
	assert.Contains(t, second, "\x1b[2;1Hx")

	r.Invalidate()
	assert.Contains(t, string(r.Frame(c.Terminal())), "hello")
}

func TestRenderer_SelectionIsReversed(t *testing.T) {
	c := console.NewConsole(console.WithTerminal(console.WithSize(3, 10)))
	var r Renderer

	_, _ = c.WriteString("abc")
	c.Key(console.KeyEvent{Key: console.KeyLeft, Mod: console.ModShift})

	frame := string(r.Frame(c.Terminal()))
	assert.Contains(t, frame, "ab\x1b[0;7mc")
}
