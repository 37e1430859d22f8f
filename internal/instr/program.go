// Package instr defines render-instruction programs: flat, ordered lists of
// primitive operations that describe an output tree declaratively.
//
// A program is produced fresh on every render and is the unit the
// incremental renderer diffs. Text operations carry unescaped text; raw
// operations carry markup that has already been escaped and is spliced
// verbatim. Keeping the two apart means no stage ever has to guess whether a
// payload still needs escaping.
package instr

import (
	"fmt"
	"strings"
)

// OpKind identifies a primitive render operation.
type OpKind uint8

const (
	// OpOpen opens an element. Name holds the tag.
	OpOpen OpKind = iota

	// OpAttr sets an attribute on the element just opened.
	// Name holds the attribute key, Value its value.
	OpAttr

	// OpKey assigns a diffing key to the element just opened.
	OpKey

	// OpSkip marks the children of the current element as externally
	// managed. The patcher leaves existing children alone.
	OpSkip

	// OpText appends a text node. Value is unescaped text.
	OpText

	// OpRaw appends pre-escaped markup. Value is spliced verbatim.
	OpRaw

	// OpClose closes the current element. Name holds the tag.
	OpClose
)

// String returns the string representation of the op kind.
func (k OpKind) String() string {
	switch k {
	case OpOpen:
		return "open"
	case OpAttr:
		return "attr"
	case OpKey:
		return "key"
	case OpSkip:
		return "skip"
	case OpText:
		return "text"
	case OpRaw:
		return "raw"
	case OpClose:
		return "close"
	default:
		return "unknown"
	}
}

// Op is a single render instruction.
type Op struct {
	Kind  OpKind
	Name  string
	Value string
}

// String returns a compact single-line form of the op.
func (op Op) String() string {
	switch op.Kind {
	case OpOpen:
		return "<" + op.Name + ">"
	case OpClose:
		return "</" + op.Name + ">"
	case OpAttr:
		return fmt.Sprintf("@%s=%q", op.Name, op.Value)
	case OpKey:
		return fmt.Sprintf("#key=%q", op.Value)
	case OpSkip:
		return "#skip"
	case OpText:
		return fmt.Sprintf("text %q", op.Value)
	case OpRaw:
		return fmt.Sprintf("raw %q", op.Value)
	default:
		return "?"
	}
}

// Program is an ordered sequence of render instructions.
type Program []Op

// Len returns the number of ops.
func (p Program) Len() int {
	return len(p)
}

// Empty reports whether the program describes no output at all.
func (p Program) Empty() bool {
	return len(p) == 0
}

// Count returns the number of ops of the given kind.
func (p Program) Count(kind OpKind) int {
	n := 0
	for _, op := range p {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// String returns an indented, human readable dump of the program.
func (p Program) String() string {
	var b strings.Builder
	depth := 0
	for _, op := range p {
		if op.Kind == OpClose && depth > 0 {
			depth--
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(op.String())
		b.WriteByte('\n')
		if op.Kind == OpOpen {
			depth++
		}
	}
	return b.String()
}

// Equal reports whether two programs are identical op for op.
func Equal(a, b Program) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
