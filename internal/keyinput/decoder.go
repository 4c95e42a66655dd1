// Package keyinput decodes the byte stream a terminal sends for key presses
// into console key events.
package keyinput

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	console "github.com/danielgatis/go-headless-console"
	"github.com/danielgatis/go-headless-console/internal/log"
)

const (
	keyEsc = 0x1b
	keyDel = 0x7f
)

// maxSequenceLen bounds the bytes read for one CSI sequence.
const maxSequenceLen = 16

// Decoder reads key events from a raw terminal input stream.
//
// A lone ESC is reported as KeyEscape when nothing else is buffered after it,
// so ESC must arrive in the same read as the rest of a sequence. Terminals
// send sequences in one burst, which makes this reliable over pipes, ptys and
// SSH channels.
type Decoder struct {
	reader *bufio.Reader
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// ReadKey reads the next key event. Unrecognized escape sequences are skipped.
func (d *Decoder) ReadKey() (console.KeyEvent, error) {
	for {
		ev, ok, err := d.readKey()
		if err != nil {
			return console.KeyEvent{}, err
		}
		if ok {
			return ev, nil
		}
	}
}

func (d *Decoder) readKey() (console.KeyEvent, bool, error) {
	b, err := d.reader.ReadByte()
	if err != nil {
		return console.KeyEvent{}, false, err
	}

	if b != keyEsc {
		ev, err := d.plain(b)
		return ev, err == nil, err
	}

	if d.reader.Buffered() == 0 {
		return console.KeyEvent{Key: console.KeyEscape}, true, nil
	}

	next, err := d.reader.ReadByte()
	if err != nil {
		return console.KeyEvent{Key: console.KeyEscape}, true, nil
	}

	switch next {
	case '[':
		return d.parseCSI()
	case 'O':
		return d.parseSS3()
	case keyEsc:
		// ESC ESC: report the first and decode the second on the next read.
		_ = d.reader.UnreadByte()
		return console.KeyEvent{Key: console.KeyEscape}, true, nil
	}

	// ESC followed by a key is that key with Alt held.
	ev, err := d.plain(next)
	if err != nil {
		return console.KeyEvent{}, false, err
	}
	ev.Mod |= console.ModAlt
	return ev, true, nil
}

// plain decodes a key that is not an escape sequence.
func (d *Decoder) plain(b byte) (console.KeyEvent, error) {
	switch {
	case b == '\r':
		// Some terminals send CR LF for Enter.
		if d.reader.Buffered() > 0 {
			if p, err := d.reader.Peek(1); err == nil && p[0] == '\n' {
				_, _ = d.reader.ReadByte()
			}
		}
		return console.KeyEvent{Key: console.KeyEnter}, nil
	case b == '\n':
		return console.KeyEvent{Key: console.KeyEnter}, nil
	case b == '\t':
		return console.KeyEvent{Key: console.KeyTab}, nil
	case b == keyDel || b == 0x08:
		return console.KeyEvent{Key: console.KeyBackspace}, nil
	case b == 0x00:
		return console.KeyEvent{Key: console.KeyRune, Rune: ' ', Mod: console.ModCtrl}, nil
	case b < 0x1b:
		return console.KeyEvent{Key: console.KeyRune, Rune: rune('a' + b - 1), Mod: console.ModCtrl}, nil
	case b < 0x20:
		// FS, GS, RS, US: Ctrl+\ ] ^ _
		return console.KeyEvent{Key: console.KeyRune, Rune: rune('\\' + b - 0x1c), Mod: console.ModCtrl}, nil
	case b < utf8.RuneSelf:
		return console.RuneKey(rune(b)), nil
	}

	if err := d.reader.UnreadByte(); err != nil {
		return console.KeyEvent{}, err
	}
	r, _, err := d.reader.ReadRune()
	if err != nil {
		return console.KeyEvent{}, err
	}
	return console.RuneKey(r), nil
}

// parseCSI parses the rest of an ESC [ sequence.
func (d *Decoder) parseCSI() (console.KeyEvent, bool, error) {
	seq := make([]byte, 0, maxSequenceLen)
	for len(seq) < maxSequenceLen {
		b, err := d.reader.ReadByte()
		if err != nil {
			break
		}
		seq = append(seq, b)
		if b >= 0x40 && b <= 0x7e {
			break
		}
	}
	if len(seq) == 0 {
		return console.KeyEvent{Key: console.KeyEscape}, true, nil
	}

	final := seq[len(seq)-1]
	params := parseParams(string(seq[:len(seq)-1]))
	mod := modifier(params, 1)

	var key console.Key
	switch final {
	case 'A':
		key = console.KeyUp
	case 'B':
		key = console.KeyDown
	case 'C':
		key = console.KeyRight
	case 'D':
		key = console.KeyLeft
	case 'H':
		key = console.KeyHome
	case 'F':
		key = console.KeyEnd
	case 'P', 'Q', 'R', 'S':
		key = console.KeyF1 + console.Key(final-'P')
	case 'Z':
		return console.KeyEvent{Key: console.KeyTab, Mod: console.ModShift}, true, nil
	case '~':
		var ok bool
		if len(params) == 0 {
			break
		}
		if key, ok = tildeKeys[params[0]]; !ok {
			break
		}
		return console.KeyEvent{Key: key, Mod: mod}, true, nil
	default:
		key = -1
	}

	if final == '~' || key < 0 {
		log.Debug(log.CatSession, "skipping unknown key sequence", "seq", strconv.Quote("\x1b["+string(seq)))
		return console.KeyEvent{}, false, nil
	}
	return console.KeyEvent{Key: key, Mod: mod}, true, nil
}

// parseSS3 parses the rest of an ESC O sequence.
func (d *Decoder) parseSS3() (console.KeyEvent, bool, error) {
	b, err := d.reader.ReadByte()
	if err != nil {
		return console.KeyEvent{Key: console.KeyEscape}, true, nil
	}

	switch b {
	case 'A':
		return console.KeyEvent{Key: console.KeyUp}, true, nil
	case 'B':
		return console.KeyEvent{Key: console.KeyDown}, true, nil
	case 'C':
		return console.KeyEvent{Key: console.KeyRight}, true, nil
	case 'D':
		return console.KeyEvent{Key: console.KeyLeft}, true, nil
	case 'H':
		return console.KeyEvent{Key: console.KeyHome}, true, nil
	case 'F':
		return console.KeyEvent{Key: console.KeyEnd}, true, nil
	case 'M':
		return console.KeyEvent{Key: console.KeyEnter}, true, nil
	case 'P', 'Q', 'R', 'S':
		return console.KeyEvent{Key: console.KeyF1 + console.Key(b-'P')}, true, nil
	}

	log.Debug(log.CatSession, "skipping unknown key sequence", "seq", strconv.Quote("\x1bO"+string(rune(b))))
	return console.KeyEvent{}, false, nil
}

// tildeKeys maps the first parameter of ESC [ n ~ to its key.
var tildeKeys = map[int]console.Key{
	1:  console.KeyHome,
	2:  console.KeyInsert,
	3:  console.KeyDelete,
	4:  console.KeyEnd,
	5:  console.KeyPageUp,
	6:  console.KeyPageDown,
	7:  console.KeyHome,
	8:  console.KeyEnd,
	11: console.KeyF1,
	12: console.KeyF2,
	13: console.KeyF3,
	14: console.KeyF4,
	15: console.KeyF5,
	17: console.KeyF6,
	18: console.KeyF7,
	19: console.KeyF8,
	20: console.KeyF9,
	21: console.KeyF10,
	23: console.KeyF11,
	24: console.KeyF12,
}

func parseParams(s string) []int {
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ";")
	params := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			n = 0
		}
		params[i] = n
	}
	return params
}

// modifier decodes the xterm modifier parameter at index i. The value is one
// plus a bitmask of shift (1), alt (2), ctrl (4) and meta (8).
func modifier(params []int, i int) console.Mod {
	if i >= len(params) || params[i] <= 1 {
		return console.ModNone
	}
	bits := params[i] - 1
	var mod console.Mod
	if bits&1 != 0 {
		mod |= console.ModShift
	}
	if bits&2 != 0 {
		mod |= console.ModAlt
	}
	if bits&4 != 0 {
		mod |= console.ModCtrl
	}
	if bits&8 != 0 {
		mod |= console.ModMeta
	}
	return mod
}

// Decode returns every key event in s. It is a convenience for tests and
// scripted input.
func Decode(s string) []console.KeyEvent {
	d := NewDecoder(strings.NewReader(s))
	var events []console.KeyEvent
	for {
		ev, err := d.ReadKey()
		if err != nil {
			return events
		}
		events = append(events, ev)
	}
}
