package commands

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModCmd indicates the Command key on macOS, Meta elsewhere.
	ModCmd
)

// Has returns true if m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// modifierNames maps lowercase modifier names to modifiers.
var modifierNames = map[string]Modifier{
	"shift":   ModShift,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"cmd":     ModCmd,
	"command": ModCmd,
	"meta":    ModCmd,
}

// Chord is a key with the modifiers held while pressing it.
type Chord struct {
	Mods Modifier

	// Key is an upper-case letter, a punctuation character, or a named key
	// such as "F9".
	Key string
}

// ParseChord parses a binding such as "Shift-Cmd-I", "Cmd-." or "F9".
// Modifier names are case-insensitive and may appear in any order.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("%w: empty", ErrInvalidChord)
	}

	// A trailing "--" binds the minus key itself.
	var mods []string
	var key string
	switch {
	case s == "-":
		key = "-"
	case strings.HasSuffix(s, "--"):
		key = "-"
		mods = strings.Split(s[:len(s)-2], "-")
	default:
		parts := strings.Split(s, "-")
		key = parts[len(parts)-1]
		mods = parts[:len(parts)-1]
	}

	var c Chord
	for _, name := range mods {
		mod, ok := modifierNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return Chord{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidChord, name, s)
		}
		if c.Mods.Has(mod) {
			return Chord{}, fmt.Errorf("%w: repeated modifier %q in %q", ErrInvalidChord, name, s)
		}
		c.Mods |= mod
	}

	k, ok := normalizeKey(key)
	if !ok {
		return Chord{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidChord, key, s)
	}
	c.Key = k
	return c, nil
}

// MustParseChord is like ParseChord but panics on error.
func MustParseChord(s string) Chord {
	c, err := ParseChord(s)
	if err != nil {
		panic(err)
	}
	return c
}

func normalizeKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if utf8.RuneCountInString(key) == 1 {
		r, _ := utf8.DecodeRuneInString(key)
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", false
		}
		return string(unicode.ToUpper(r)), true
	}
	if n, ok := functionKeyNumber(key); ok {
		return fmt.Sprintf("F%d", n), true
	}
	return "", false
}

func functionKeyNumber(key string) (int, bool) {
	if len(key) < 2 || (key[0] != 'F' && key[0] != 'f') {
		return 0, false
	}
	n := 0
	for _, r := range key[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 || n > 24 {
		return 0, false
	}
	return n, true
}

// String formats the chord canonically: Shift, Ctrl, Alt, Cmd, then the
// key.
func (c Chord) String() string {
	var parts []string
	if c.Mods.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if c.Mods.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if c.Mods.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if c.Mods.Has(ModCmd) {
		parts = append(parts, "Cmd")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "-")
}

// ChordFromEvent converts a terminal key event to a chord. It returns
// false for keys no binding can name.
func ChordFromEvent(ev *tcell.EventKey) (Chord, bool) {
	var c Chord
	mods := ev.Modifiers()
	if mods&tcell.ModShift != 0 {
		c.Mods |= ModShift
	}
	if mods&tcell.ModCtrl != 0 {
		c.Mods |= ModCtrl
	}
	if mods&tcell.ModAlt != 0 {
		c.Mods |= ModAlt
	}
	if mods&tcell.ModMeta != 0 {
		c.Mods |= ModCmd
	}

	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		// Upper-case runes arrive without the Shift bit.
		if unicode.IsUpper(r) {
			c.Mods |= ModShift
		}
		key, ok := normalizeKey(string(r))
		if !ok {
			return Chord{}, false
		}
		c.Key = key
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ && mods&tcell.ModCtrl != 0:
		c.Key = string(rune('A' + int(k-tcell.KeyCtrlA)))
	case k >= tcell.KeyF1 && k <= tcell.KeyF24:
		c.Key = fmt.Sprintf("F%d", int(k-tcell.KeyF1)+1)
	default:
		return Chord{}, false
	}
	return c, true
}
