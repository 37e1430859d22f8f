// Package highlight provides syntax highlighting for fenced code blocks.
//
// Highlighting is a pure function of (code, language tag): the only shared
// state is the immutable grammar registry. Any failure inside a grammar
// degrades to escaped plain text; highlighting never aborts the render of
// the surrounding document.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"golang.org/x/net/html"

	"github.com/dshills/mdlive/internal/logging"
)

// DefaultClassPrefix is prepended to every token class.
const DefaultClassPrefix = "hljs-"

// ErrTokenizer indicates a grammar failed while tokenizing.
var ErrTokenizer = errors.New("tokenizer failed")

// Result is the outcome of highlighting one code block.
//
// LineMarkers and Body are pre-escaped markup, safe to splice verbatim.
// Results may be shared by a Memo and must be treated as read-only.
type Result struct {
	// Tag is the language tag as requested.
	Tag string

	// Language is the canonical grammar name, empty on fallback.
	Language string

	// LineMarkers holds one marker per source line.
	LineMarkers []string

	// Body is the highlighted markup, or the escaped source on fallback.
	Body string

	// UsedFallback is true when Body is escaped plain text.
	UsedFallback bool
}

// Lines returns the number of source lines.
func (r Result) Lines() int {
	return len(r.LineMarkers)
}

// Source produces highlight results. Both Highlighter and Memo implement it.
type Source interface {
	Highlight(code, tag string) Result
}

// Options configures a Highlighter.
type Options struct {
	// ClassPrefix is prepended to token classes. Defaults to DefaultClassPrefix.
	ClassPrefix string

	// Logger receives tokenizer failures. Defaults to a discarding logger.
	Logger *logging.Logger
}

// Highlighter turns code into highlighted markup using a grammar registry.
type Highlighter struct {
	registry *Registry
	prefix   string
	log      *logging.Logger
}

// New creates a highlighter over registry. A nil registry uses
// DefaultRegistry.
func New(registry *Registry, opts Options) *Highlighter {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if opts.ClassPrefix == "" {
		opts.ClassPrefix = DefaultClassPrefix
	}
	return &Highlighter{
		registry: registry,
		prefix:   opts.ClassPrefix,
		log:      logging.OrNull(opts.Logger).WithComponent("highlight"),
	}
}

// Registry returns the grammar registry.
func (h *Highlighter) Registry() *Registry {
	return h.registry
}

// Fingerprint identifies the highlighter configuration for cache keys.
func (h *Highlighter) Fingerprint() string {
	return h.prefix + "|" + h.registry.Fingerprint()
}

// Highlight highlights code written in the language named by tag. An empty
// tag means no language.
func (h *Highlighter) Highlight(code, tag string) Result {
	res := Result{
		Tag:         tag,
		LineMarkers: LineMarkers(CountLines(code)),
	}

	lang, ok := h.registry.Lookup(tag)
	if !ok {
		return fallback(res, code)
	}

	body, err := h.tokenize(lang, code)
	if err != nil {
		h.log.WithField("lang", lang.Name).Warn("falling back to plain text: %v", err)
		return fallback(res, code)
	}

	res.Language = lang.Name
	res.Body = body
	return res
}

func fallback(res Result, code string) Result {
	res.Body = html.EscapeString(code)
	res.UsedFallback = true
	return res
}

// tokenize renders the token stream as class-annotated spans. Line breaks
// become <br /> so the body lines up with the line-number column.
func (h *Highlighter) tokenize(lang Language, code string) (body string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTokenizer, lang.Name, r)
		}
	}()

	src := normalizeNewlines(code)
	it, err := lang.tok.Tokenise(&chroma.TokeniseOptions{State: "root", EnsureLF: true}, src)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTokenizer, lang.Name, err)
	}
	tokens := it.Tokens()

	// Some grammars append a newline the source did not have.
	if n := len(tokens); n > 0 && !strings.HasSuffix(src, "\n") {
		tokens[n-1].Value = strings.TrimSuffix(tokens[n-1].Value, "\n")
	}

	var b strings.Builder
	b.Grow(len(code) * 2)
	for _, tok := range tokens {
		if tok.Value == "" {
			continue
		}
		text := strings.ReplaceAll(html.EscapeString(tok.Value), "\n", "<br />")
		class := ClassFor(tok.Type)
		if class == "" {
			b.WriteString(text)
			continue
		}
		b.WriteString(`<span class="`)
		b.WriteString(h.prefix)
		b.WriteString(class)
		b.WriteString(`">`)
		b.WriteString(text)
		b.WriteString("</span>")
	}
	return b.String(), nil
}
