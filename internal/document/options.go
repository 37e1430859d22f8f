package document

import (
	"time"

	"github.com/dshills/mdlive/internal/dom"
	"github.com/dshills/mdlive/internal/logging"
)

// DefaultContainerTag is the tag of the element rendered output lives in.
const DefaultContainerTag = "article"

// Cycle describes one completed render cycle.
type Cycle struct {
	// Number is the 1-based sequence number of the cycle.
	Number uint64

	// Source is the Markdown text that was rendered.
	Source string

	// Stats counts the mutations applied to the live tree.
	Stats dom.Stats

	// Full is true when the tree was built from scratch.
	Full bool

	// Recovered is true when the live tree failed to match the previous
	// program and was rebuilt instead of patched.
	Recovered bool

	// Duration is the wall time of the cycle.
	Duration time.Duration
}

// Option configures a Document during creation.
type Option func(*Document)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Document) {
		d.log = logging.OrNull(l).WithComponent("document")
	}
}

// WithStrict makes diff invariant violations panic instead of being
// recovered by a full rebuild. Tests run strict.
func WithStrict(strict bool) Option {
	return func(d *Document) {
		d.strict = strict
	}
}

// WithRenderHook registers a function called after every cycle, on the
// goroutine that ran it.
func WithRenderHook(hook func(Cycle)) Option {
	return func(d *Document) {
		d.hooks = append(d.hooks, hook)
	}
}

// WithContainerClass sets the class attribute of the container element.
func WithContainerClass(class string) Option {
	return func(d *Document) {
		d.class = class
	}
}
