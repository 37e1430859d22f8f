// Package commands maps named editing actions to keyboard shortcuts and
// toolbar affordances.
//
// Bindings are written with the abstract primary modifier "Cmd". The mac
// variant keeps it; the Windows and Linux variant substitutes "Ctrl". The
// table is immutable once built and may be shared freely.
package commands

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/cases"
)

// PrimaryModifier is the abstract modifier token in binding definitions.
const PrimaryModifier = "Cmd"

// Binding is the pair of platform variants of one action's shortcut.
type Binding struct {
	Action string

	// Primary is the mac variant.
	Primary string

	// Secondary is the Windows and Linux variant.
	Secondary string
}

// For returns the variant that applies on p.
func (b Binding) For(p Platform) string {
	if p.UsesCmd() {
		return b.Primary
	}
	return b.Secondary
}

// NewBinding joins keys with "-" and derives the platform variants.
func NewBinding(action string, keys ...string) Binding {
	chord := strings.Join(keys, "-")
	return Binding{
		Action:    action,
		Primary:   chord,
		Secondary: strings.Replace(chord, PrimaryModifier, "Ctrl", 1),
	}
}

// Action names.
const (
	ToggleBold          = "toggleBold"
	ToggleItalic        = "toggleItalic"
	ToggleHeading       = "toggleHeading"
	ToggleStrikeThrough = "toggleStrikeThrough"
	ToggleMarked        = "toggleMarked"
	ToggleUnderline     = "toggleUnderline"
	InsertImage         = "insertImage"
	InsertLink          = "insertLink"
	InsertTable         = "insertTable"
	InsertCode          = "insertCode"
	ToggleBlockquote    = "toggleBlockquote"
	ToggleUnorderedList = "toggleUnorderedList"
	ToggleOrderedList   = "toggleOrderedList"
	ToggleReadmode      = "toggleReadmode"
	ToggleSideBySide    = "toggleSideBySide"
)

const (
	cmd   = PrimaryModifier
	shift = "Shift"
	alt   = "Alt"
)

// DefaultBindings returns the built-in bindings in table order.
func DefaultBindings() []Binding {
	return []Binding{
		NewBinding(ToggleBold, cmd, "B"),
		NewBinding(ToggleItalic, shift, cmd, "I"),
		NewBinding(ToggleHeading, cmd, "H"),
		NewBinding(ToggleStrikeThrough, shift, cmd, "S"),
		NewBinding(ToggleMarked, shift, cmd, "M"),
		NewBinding(ToggleUnderline, shift, cmd, "U"),
		NewBinding(InsertImage, cmd, "I"),
		NewBinding(InsertLink, cmd, "K"),
		NewBinding(InsertTable, cmd, alt, "T"),
		NewBinding(InsertCode, shift, cmd, "C"),
		NewBinding(ToggleBlockquote, cmd, "."),
		NewBinding(ToggleUnorderedList, cmd, "L"),
		NewBinding(ToggleOrderedList, cmd, alt, "L"),
		NewBinding(ToggleReadmode, cmd, "P"),
		NewBinding(ToggleSideBySide, "F9"),
	}
}

// Table is an immutable set of bindings.
type Table struct {
	bindings []Binding

	// index maps folded action names to positions in bindings.
	index map[string]int

	// chords maps each platform's parsed chords to positions in bindings.
	chords map[Platform]map[Chord]int
}

// NewTable builds a table and validates it.
func NewTable(bindings []Binding) (*Table, error) {
	t := &Table{
		bindings: append([]Binding(nil), bindings...),
		index:    make(map[string]int, len(bindings)),
		chords:   make(map[Platform]map[Chord]int, len(Platforms)),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	for i, b := range t.bindings {
		t.index[fold(b.Action)] = i
	}
	for _, p := range Platforms {
		m := make(map[Chord]int, len(t.bindings))
		for i, b := range t.bindings {
			m[MustParseChord(b.For(p))] = i
		}
		t.chords[p] = m
	}
	return t, nil
}

// DefaultTable returns a table of the built-in bindings.
func DefaultTable() *Table {
	t, err := NewTable(DefaultBindings())
	if err != nil {
		panic(err)
	}
	return t
}

// Validate checks that every binding names an action once and parses, and
// that no chord is bound twice on any platform.
func (t *Table) Validate() error {
	actions := make(map[string]string, len(t.bindings))
	for _, b := range t.bindings {
		if b.Action == "" {
			return fmt.Errorf("%w: binding without action", ErrInvalidChord)
		}
		f := fold(b.Action)
		if prev, ok := actions[f]; ok {
			return fmt.Errorf("%w: action %q bound twice (as %q)", ErrDuplicateChord, b.Action, prev)
		}
		actions[f] = b.Action
	}
	for _, p := range Platforms {
		seen := make(map[Chord]string, len(t.bindings))
		for _, b := range t.bindings {
			c, err := ParseChord(b.For(p))
			if err != nil {
				return fmt.Errorf("%s on %s: %w", b.Action, p, err)
			}
			if other, ok := seen[c]; ok {
				return fmt.Errorf("%w: %s on %s is bound to both %s and %s", ErrDuplicateChord, c, p, other, b.Action)
			}
			seen[c] = b.Action
		}
	}
	return nil
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	return len(t.bindings)
}

// Bindings returns the bindings in table order.
func (t *Table) Bindings() []Binding {
	return append([]Binding(nil), t.bindings...)
}

// Actions returns the action names in table order.
func (t *Table) Actions() []string {
	out := make([]string, len(t.bindings))
	for i, b := range t.bindings {
		out[i] = b.Action
	}
	return out
}

// Lookup returns the binding for action. Action names match without regard
// to case.
func (t *Table) Lookup(action string) (Binding, bool) {
	i, ok := t.index[fold(action)]
	if !ok {
		return Binding{}, false
	}
	return t.bindings[i], true
}

// Resolve returns the shortcut for action on p.
func (t *Table) Resolve(action string, p Platform) (string, error) {
	b, ok := t.Lookup(action)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return b.For(p), nil
}

// Tooltip formats a toolbar tooltip: the title followed by the shortcut
// in parentheses, with the primary modifier written "Ctrl/Cmd". Actions
// without a binding get the bare title.
func (t *Table) Tooltip(title, action string) string {
	b, ok := t.Lookup(action)
	if !ok || action == "" {
		return title
	}
	keys := strings.Replace(b.Primary, PrimaryModifier, "Ctrl/"+PrimaryModifier, 1)
	return title + " (" + keys + ")"
}

// Match returns the action bound to a terminal key event on p.
func (t *Table) Match(ev *tcell.EventKey, p Platform) (string, bool) {
	c, ok := ChordFromEvent(ev)
	if !ok {
		return "", false
	}
	return t.MatchChord(c, p)
}

// MatchChord returns the action bound to c on p.
func (t *Table) MatchChord(c Chord, p Platform) (string, bool) {
	i, ok := t.chords[p][c]
	if !ok {
		return "", false
	}
	return t.bindings[i].Action, true
}

func fold(s string) string {
	return cases.Fold().String(s)
}
