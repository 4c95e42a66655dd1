// Package headlessconsole provides a headless line-editing console on top of a
// VT terminal engine.
//
// A plain terminal knows only physical rows. When a typed line is longer than
// the screen is wide it wraps onto the rows below, and cursor keys, insertion
// and deletion stop making sense at the row boundaries. This package tracks
// those soft-wrapped rows and edits the logical line they form:
//   - Locating the rows of a logical line
//   - Moving the cursor across wrap boundaries
//   - Inserting and deleting with reflow of the continuation rows
//   - Drawing a prompt in front of the line
//   - Selecting text with the keyboard
//
// # Quick Start
//
// Create a console, type into it and read back submitted lines:
//
//	c := headlessconsole.NewConsole(
//	    headlessconsole.WithPrompt("> "),
//	    headlessconsole.WithInsertMode(true),
//	)
//	c.OnLine(func(line string) {
//	    fmt.Println("got:", line)
//	})
//	c.WritePrompt()
//	for _, r := range "hello" {
//	    c.Key(headlessconsole.RuneKey(r))
//	}
//	c.Key(headlessconsole.KeyEvent{Key: headlessconsole.KeyEnter}) // got: hello
//
// # Architecture
//
// The package is organized around these core types:
//
//   - [Terminal]: The VT engine that owns the row buffer and implements the editing operations
//   - [Buffer]: Physical rows, each with a continuation flag
//   - [Console]: The ordered queue that drives the terminal from keys, commands and output
//   - [Feature]: Behavior attached to a console ([LineEditor], [InsertReflow], [KeyboardSelection], [Clipboard])
//
// # Logical Lines
//
// A row whose continuation flag is set holds the tail of the line above it.
// Printing past the last column sets the flag on the row it wraps into; a line
// feed clears it on the row it lands on. [Terminal.LogicalLine] returns the
// inclusive row range around any row.
//
// # Commands
//
// Keys are not applied to the buffer directly. A key handler emits a private
// command (ESC [ < Pn final) into the same queue as terminal output, so an edit
// can never overtake output written before it:
//
//	H  Home           E  End
//	L  Left (n)       R  Right (n)
//	B  Backspace      D  Delete (n)
//	K  Erase in line (0 right, 1 left, 2 all)
//	N  Submit line    P  Draw prompt
//
// Commands may also be embedded in written data, which is how recordings replay:
//
//	c.WriteString("abc\x1b[<2L\x1b[<D") // leaves "ac" with the cursor on 'c'
//
// # Handlers
//
// [Console.HandleKey] and [Console.HandleCommand] register handlers. The most
// recently registered handler runs first; a handler returns false to let the
// next matching one run as well, so features can cooperate on one key.
//
// # Providers
//
// Providers connect the terminal to the host:
//
//   - [ResponseProvider]: Receives DSR/DA replies
//   - [BellProvider]: Handles bell events
//   - [TitleProvider]: Receives title changes
//   - [ClipboardProvider]: Reads and writes the system clipboard (OSC 52)
//   - [RecordingProvider]: Captures everything the console processes
//
// # Thread Safety
//
// Terminal and Console methods are safe for concurrent use. The console queue
// is drained by one goroutine at a time, and listeners registered with
// [Console.OnLine] and [Console.OnIdle] run on it.
package headlessconsole
