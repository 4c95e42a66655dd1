package headlessconsole

import (
	"fmt"
	"strings"
	"unicode"
)

// Key identifies a key press. Printable characters use KeyRune.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyInsert
	KeyEscape
	KeyTab
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyRune:      "Rune",
	KeyEnter:     "Enter",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyInsert:    "Insert",
	KeyEscape:    "Escape",
	KeyTab:       "Tab",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
}

func (k Key) String() string {
	if k >= KeyF1 && k <= KeyF12 {
		return fmt.Sprintf("F%d", int(k-KeyF1)+1)
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// IsFunction reports whether k is one of F1 through F12.
func (k Key) IsFunction() bool {
	return k >= KeyF1 && k <= KeyF12
}

// Mod is a bitmask of key modifiers.
type Mod uint8

const (
	ModShift Mod = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// ModNone means no modifier is held.
const ModNone Mod = 0

// KeyEvent is a single key press delivered to the console.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mod  Mod
}

// RuneKey returns the event for typing r.
func RuneKey(r rune) KeyEvent {
	return KeyEvent{Key: KeyRune, Rune: r}
}

// Printable reports whether the event types a character into the line.
func (e KeyEvent) Printable() bool {
	return e.Key == KeyRune && e.Mod&(ModCtrl|ModAlt|ModMeta) == 0 && unicode.IsPrint(e.Rune)
}

func (e KeyEvent) String() string {
	var parts []string
	if e.Mod&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if e.Mod&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if e.Mod&ModMeta != 0 {
		parts = append(parts, "Meta")
	}
	if e.Mod&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if e.Key == KeyRune {
		parts = append(parts, string(e.Rune))
	} else {
		parts = append(parts, e.Key.String())
	}
	return strings.Join(parts, "+")
}

// KeyMatcher decides whether a key handler applies to an event.
type KeyMatcher func(KeyEvent) bool

// MatchKey matches k with exactly the modifiers mods.
func MatchKey(k Key, mods Mod) KeyMatcher {
	return func(e KeyEvent) bool {
		return e.Key == k && e.Mod == mods
	}
}

// MatchKeyAnyMod matches k regardless of modifiers.
func MatchKeyAnyMod(k Key) KeyMatcher {
	return func(e KeyEvent) bool {
		return e.Key == k
	}
}

// MatchRune matches the character r, case-insensitively, with exactly the modifiers mods.
func MatchRune(r rune, mods Mod) KeyMatcher {
	return func(e KeyEvent) bool {
		return e.Key == KeyRune && unicode.ToLower(e.Rune) == unicode.ToLower(r) && e.Mod == mods
	}
}

// MatchAny matches when any of the given matchers does.
func MatchAny(matchers ...KeyMatcher) KeyMatcher {
	return func(e KeyEvent) bool {
		for _, m := range matchers {
			if m(e) {
				return true
			}
		}
		return false
	}
}
