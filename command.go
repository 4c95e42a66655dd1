package headlessconsole

import (
	"strconv"
	"strings"
)

// Op is the final byte of a private console command.
type Op byte

// Private command vocabulary. Commands travel in the output stream as
// ESC [ < Pn ; ... final, which no standard control sequence uses.
const (
	OpHome        Op = 'H'
	OpEnd         Op = 'E'
	OpLeft        Op = 'L'
	OpRight       Op = 'R'
	OpBackspace   Op = 'B'
	OpDelete      Op = 'D'
	OpEraseInLine Op = 'K'
	OpSubmit      Op = 'N'
	OpPrompt      Op = 'P'
)

// commandPrefix introduces a private command in the stream.
const commandPrefix = "\x1b[<"

// maxCommandLen bounds a held partial command. Longer runs are not commands
// and are released to the decoder.
const maxCommandLen = 32

func (o Op) valid() bool {
	switch o {
	case OpHome, OpEnd, OpLeft, OpRight, OpBackspace, OpDelete, OpEraseInLine, OpSubmit, OpPrompt:
		return true
	}
	return false
}

// Command is one private console command.
type Command struct {
	Op     Op
	Params []int
}

// Cmd builds a command.
func Cmd(op Op, params ...int) Command {
	return Command{Op: op, Params: params}
}

// Param returns parameter i, or def when it is missing or zero.
func (c Command) Param(i, def int) int {
	if i < 0 || i >= len(c.Params) || c.Params[i] == 0 {
		return def
	}
	return c.Params[i]
}

// String encodes the command as it appears in the stream.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(commandPrefix)
	for i, p := range c.Params {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(p))
	}
	b.WriteByte(byte(c.Op))
	return b.String()
}

// segment is a piece of the stream: either plain bytes or a command.
type segment struct {
	data []byte
	cmd  *Command
}

// commandScanner splits a byte stream into plain data and private commands.
// A command split across writes is held until it completes.
type commandScanner struct {
	pending []byte
}

func (s *commandScanner) scan(p []byte) []segment {
	buf := p
	if len(s.pending) > 0 {
		buf = append(s.pending, p...)
		s.pending = nil
	}

	var out []segment
	start := 0
	i := 0
	for i < len(buf) {
		if buf[i] != 0x1b {
			i++
			continue
		}
		cmd, n, partial := parseCommand(buf[i:])
		switch {
		case partial:
			if len(buf)-i < maxCommandLen {
				if i > start {
					out = append(out, segment{data: buf[start:i]})
				}
				s.pending = append([]byte(nil), buf[i:]...)
				return out
			}
			i++
		case cmd != nil:
			if i > start {
				out = append(out, segment{data: buf[start:i]})
			}
			out = append(out, segment{cmd: cmd})
			i += n
			start = i
		default:
			i++
		}
	}
	if start < len(buf) {
		out = append(out, segment{data: buf[start:]})
	}
	return out
}

// flush releases any held bytes as plain data.
func (s *commandScanner) flush() []byte {
	p := s.pending
	s.pending = nil
	return p
}

// parseCommand parses a private command at the start of b, which begins with ESC.
// It returns the command and its length, or partial when b ends inside a
// possible command. A nil command with partial false means b does not start one.
func parseCommand(b []byte) (cmd *Command, n int, partial bool) {
	for i := 1; i < len(commandPrefix); i++ {
		if i >= len(b) {
			return nil, 0, true
		}
		if b[i] != commandPrefix[i] {
			return nil, 0, false
		}
	}

	var params []int
	cur, digits := 0, false
	for i := len(commandPrefix); i < len(b); i++ {
		c := b[i]
		switch {
		case c >= '0' && c <= '9':
			if cur < 1<<20 {
				cur = cur*10 + int(c-'0')
			}
			digits = true
		case c == ';':
			params = append(params, cur)
			cur, digits = 0, false
		case Op(c).valid():
			if digits || len(params) > 0 {
				params = append(params, cur)
			}
			return &Command{Op: Op(c), Params: params}, i + 1, false
		default:
			return nil, 0, false
		}
	}
	return nil, 0, true
}
