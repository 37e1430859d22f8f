// Package markdown renders Markdown source into render-instruction
// programs.
//
// Parsing is done by goldmark with the grammar of a frozen extension
// registry. The resulting AST is walked once and emitted as instructions;
// nothing in this package produces HTML strings except the pre-escaped
// payloads of highlighted code.
package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/mdlive/internal/extension"
	"github.com/dshills/mdlive/internal/highlight"
	"github.com/dshills/mdlive/internal/instr"
	"github.com/dshills/mdlive/internal/logging"
)

// ErrRegistryNotFrozen indicates a renderer built from a registry that
// could still change.
var ErrRegistryNotFrozen = errors.New("extension registry is not frozen")

// Options controls rendering.
type Options struct {
	// HTML passes raw HTML through verbatim. When false raw HTML is
	// rendered as literal text.
	HTML bool

	// Breaks renders soft line breaks as <br>.
	Breaks bool

	// LangPrefix is prepended to the language class of code blocks that
	// could not be highlighted.
	LangPrefix string
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{
		HTML:       true,
		Breaks:     true,
		LangPrefix: "language-",
	}
}

// Renderer converts Markdown to render-instruction programs. It holds no
// per-render state and is safe for concurrent use.
type Renderer struct {
	opts      Options
	registry  *extension.Registry
	highlight highlight.Source
	md        goldmark.Markdown
	log       *logging.Logger
}

// New creates a renderer. registry must be frozen. A nil highlighter uses
// a default highlight.Highlighter; a nil logger discards output.
func New(opts Options, registry *extension.Registry, hl highlight.Source, log *logging.Logger) (*Renderer, error) {
	if registry == nil {
		return nil, fmt.Errorf("markdown: nil extension registry")
	}
	if !registry.Frozen() {
		return nil, ErrRegistryNotFrozen
	}
	log = logging.OrNull(log).WithComponent("markdown")
	if hl == nil {
		hl = highlight.New(nil, highlight.Options{Logger: log})
	}

	md := goldmark.New()
	registry.Extend(md)

	return &Renderer{
		opts:      opts,
		registry:  registry,
		highlight: hl,
		md:        md,
		log:       log,
	}, nil
}

// Options returns the rendering options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Registry returns the extension registry the renderer was built from.
func (r *Renderer) Registry() *extension.Registry {
	return r.registry
}

// normalizer maps every line ending to "\n" and NUL to U+FFFD before
// parsing.
var normalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "\uFFFD")

// Render converts source into a program. Render never fails: malformed
// constructs degrade to literal text. An empty source yields an empty
// program. Lines may end in "\n", "\r\n" or "\r".
func (r *Renderer) Render(source string) instr.Program {
	if source == "" {
		return instr.Program{}
	}
	src := []byte(normalizer.Replace(source))
	doc := r.md.Parser().Parse(text.NewReader(src))

	e := &emitter{
		r:      r,
		w:      instr.NewBuilder(),
		source: src,
	}
	e.walk(doc)
	return e.w.Program()
}
