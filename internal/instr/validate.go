package instr

import (
	"errors"
	"fmt"
)

// ErrMalformed indicates a program that violates the nesting invariants.
// It always signals a bug in the producer, never bad user content.
var ErrMalformed = errors.New("malformed render program")

// InvariantError describes where and how a program is malformed.
type InvariantError struct {
	Index  int    // Op index, or -1 when the error concerns the whole program
	Reason string // What was violated
	Err    error  // Underlying error, ErrMalformed unless wrapped from elsewhere
}

// Error implements error.
func (e *InvariantError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", e.unwrap(), e.Reason)
	}
	return fmt.Sprintf("%v: op %d: %s", e.unwrap(), e.Index, e.Reason)
}

// Unwrap returns the underlying error.
func (e *InvariantError) Unwrap() error {
	return e.unwrap()
}

func (e *InvariantError) unwrap() error {
	if e.Err == nil {
		return ErrMalformed
	}
	return e.Err
}

// Invariant creates an InvariantError at index.
func Invariant(index int, format string, args ...any) *InvariantError {
	return &InvariantError{Index: index, Reason: fmt.Sprintf(format, args...), Err: ErrMalformed}
}

// Validate checks that p is well formed:
//   - every open has a matching close with the same tag;
//   - attr and key ops only follow an open, attr or key op;
//   - skip is the only content of its element;
//   - nothing but complete elements, text and raw ops appear at top level.
func Validate(p Program) error {
	var stack []string
	// header is true while attributes may still be set on the current element.
	header := false
	// skipped is true when the current element has been marked skip.
	skipped := false

	for i, op := range p {
		switch op.Kind {
		case OpOpen:
			if op.Name == "" {
				return Invariant(i, "open without tag")
			}
			if skipped {
				return Invariant(i, "content after skip in <%s>", stack[len(stack)-1])
			}
			stack = append(stack, op.Name)
			header = true

		case OpAttr, OpKey:
			if !header {
				return Invariant(i, "%s outside element header", op.Kind)
			}
			if op.Kind == OpAttr && op.Name == "" {
				return Invariant(i, "attr without key")
			}

		case OpSkip:
			if len(stack) == 0 {
				return Invariant(i, "skip at top level")
			}
			if !header {
				return Invariant(i, "skip after content in <%s>", stack[len(stack)-1])
			}
			header = false
			skipped = true

		case OpText, OpRaw:
			if skipped {
				return Invariant(i, "content after skip in <%s>", stack[len(stack)-1])
			}
			header = false

		case OpClose:
			if len(stack) == 0 {
				return Invariant(i, "close </%s> without open", op.Name)
			}
			top := stack[len(stack)-1]
			if op.Name != top {
				return Invariant(i, "close </%s> does not match <%s>", op.Name, top)
			}
			stack = stack[:len(stack)-1]
			header = false
			skipped = false

		default:
			return Invariant(i, "unknown op kind %d", op.Kind)
		}
	}

	if len(stack) > 0 {
		return Invariant(-1, "%d element(s) left open, innermost <%s>", len(stack), stack[len(stack)-1])
	}
	return nil
}
