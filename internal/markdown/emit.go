package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/dshills/mdlive/internal/highlight"
	"github.com/dshills/mdlive/internal/instr"
)

// emitter holds the state of one render.
type emitter struct {
	r      *Renderer
	w      *instr.Builder
	source []byte
}

func (e *emitter) walk(doc ast.Node) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fn, ok := e.r.registry.Emitter(n.Kind()); ok {
			return fn(e.w, e.source, n, entering), nil
		}
		return e.emit(n, entering), nil
	})
}

// emit handles the CommonMark node kinds.
func (e *emitter) emit(n ast.Node, entering bool) ast.WalkStatus {
	switch node := n.(type) {
	case *ast.Document:
		return ast.WalkContinue

	case *ast.Heading:
		return e.element(n, entering, "h"+strconv.Itoa(node.Level))

	case *ast.Paragraph:
		return e.element(n, entering, "p")

	case *ast.TextBlock:
		// Paragraphs of tight list items render without <p>.
		if !entering && n.NextSibling() != nil && n.FirstChild() != nil {
			e.w.Text("\n")
		}
		return ast.WalkContinue

	case *ast.Blockquote:
		return e.element(n, entering, "blockquote")

	case *ast.ThematicBreak:
		if entering {
			e.open(n, "hr")
			e.w.Close()
		}
		return ast.WalkContinue

	case *ast.List:
		return e.list(node, entering)

	case *ast.ListItem:
		return e.element(n, entering, "li")

	case *ast.CodeBlock:
		if entering {
			e.w.Open("pre").Open("code").Text(string(e.lines(n))).Close().Close()
		}
		return ast.WalkSkipChildren

	case *ast.FencedCodeBlock:
		if entering {
			e.fencedCode(node)
		}
		return ast.WalkSkipChildren

	case *ast.HTMLBlock:
		if !entering {
			return ast.WalkSkipChildren
		}
		if e.r.opts.HTML {
			e.w.Raw(e.htmlBlock(node))
		} else {
			e.w.Open("p").Text(strings.TrimRight(e.htmlBlock(node), "\n")).Close()
		}
		return ast.WalkSkipChildren

	case *ast.Text:
		if entering {
			e.text(node)
		}
		return ast.WalkContinue

	case *ast.String:
		if entering {
			e.str(node)
		}
		return ast.WalkContinue

	case *ast.CodeSpan:
		if entering {
			e.w.Open("code").Text(e.codeSpan(node)).Close()
		}
		return ast.WalkSkipChildren

	case *ast.Emphasis:
		tag := "em"
		if node.Level == 2 {
			tag = "strong"
		}
		return e.element(n, entering, tag)

	case *ast.Link:
		if gmhtml.IsDangerousURL(node.Destination) {
			e.literalLink(node, entering)
			return ast.WalkContinue
		}
		if entering {
			e.w.Open("a", "href", e.url(node.Destination))
			if node.Title != nil {
				e.w.Attr("title", decodeText(node.Title))
			}
		} else {
			e.w.Close()
		}
		return ast.WalkContinue

	case *ast.Image:
		if entering && gmhtml.IsDangerousURL(node.Destination) {
			e.w.Text("![" + plainText(n, e.source) + linkTail(node.Destination, node.Title))
			return ast.WalkSkipChildren
		}
		if entering {
			e.w.Open("img", "src", e.url(node.Destination), "alt", plainText(n, e.source))
			if node.Title != nil {
				e.w.Attr("title", decodeText(node.Title))
			}
			e.w.Close()
		}
		return ast.WalkSkipChildren

	case *ast.AutoLink:
		if entering {
			url := node.URL(e.source)
			href := string(util.URLEscape(url, false))
			if node.AutoLinkType == ast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(url), []byte("mailto:")) {
				href = "mailto:" + href
			}
			e.w.Open("a", "href", href).Text(string(node.Label(e.source))).Close()
		}
		return ast.WalkSkipChildren

	case *ast.RawHTML:
		if entering {
			var b bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				b.Write(seg.Value(e.source))
			}
			e.html(b.String())
		}
		return ast.WalkSkipChildren
	}

	// Unknown kinds contribute their children only.
	if entering {
		e.r.log.Debug("no emitter for node kind %s", n.Kind())
	}
	return ast.WalkContinue
}

// element opens or closes tag for n, carrying the node's attributes.
func (e *emitter) element(n ast.Node, entering bool, tag string) ast.WalkStatus {
	if entering {
		e.open(n, tag)
	} else {
		e.w.Close()
	}
	return ast.WalkContinue
}

func (e *emitter) open(n ast.Node, tag string, attrs ...string) {
	e.w.Open(tag, attrs...)
	for _, a := range n.Attributes() {
		e.w.Attr(string(a.Name), attributeValue(a.Value))
	}
}

func (e *emitter) list(n *ast.List, entering bool) ast.WalkStatus {
	if !entering {
		e.w.Close()
		return ast.WalkContinue
	}
	if !n.IsOrdered() {
		e.open(n, "ul")
		return ast.WalkContinue
	}
	if n.Start != 1 {
		e.open(n, "ol", "start", strconv.Itoa(n.Start))
	} else {
		e.open(n, "ol")
	}
	return ast.WalkContinue
}

func (e *emitter) text(n *ast.Text) {
	value := n.Segment.Value(e.source)
	if n.IsRaw() {
		e.w.Text(string(value))
	} else {
		e.w.Text(decodeText(value))
	}
	switch {
	case n.HardLineBreak() || (n.SoftLineBreak() && e.r.opts.Breaks):
		e.w.Void("br").Text("\n")
	case n.SoftLineBreak():
		e.w.Text("\n")
	}
}

// str handles synthesized strings. Other than raw strings they may hold
// entity references, as typographer substitutions do.
func (e *emitter) str(n *ast.String) {
	if n.IsRaw() {
		e.w.Text(string(n.Value))
		return
	}
	e.w.Text(decodeText(n.Value))
}

func (e *emitter) codeSpan(n *ast.CodeSpan) string {
	var b bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		value := t.Segment.Value(e.source)
		if bytes.HasSuffix(value, []byte("\n")) {
			b.Write(value[:len(value)-1])
			b.WriteByte(' ')
		} else {
			b.Write(value)
		}
	}
	return b.String()
}

// html writes raw HTML verbatim, or as literal text when raw HTML is off.
func (e *emitter) html(s string) {
	if e.r.opts.HTML {
		e.w.Raw(s)
	} else {
		e.w.Text(s)
	}
}

func (e *emitter) htmlBlock(n *ast.HTMLBlock) string {
	var b bytes.Buffer
	b.Write(e.lines(n))
	if n.HasClosure() {
		b.Write(n.ClosureLine.Value(e.source))
	}
	return b.String()
}

func (e *emitter) lines(n ast.Node) []byte {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(e.source))
	}
	return b.Bytes()
}

func (e *emitter) url(dest []byte) string {
	return string(util.URLEscape(dest, true))
}

// literalLink writes a link with a rejected destination as its source
// text, keeping the label's inline markup.
func (e *emitter) literalLink(n *ast.Link, entering bool) {
	if entering {
		e.w.Text("[")
		return
	}
	e.w.Text(linkTail(n.Destination, n.Title))
}

func linkTail(dest, title []byte) string {
	tail := "](" + string(dest)
	if title != nil {
		tail += ` "` + string(title) + `"`
	}
	return tail + ")"
}

// fencedCode emits a highlighted code block: a line-number column and the
// body column, side by side in one container. Both payloads are
// pre-escaped.
func (e *emitter) fencedCode(n *ast.FencedCodeBlock) {
	var tag string
	if n.Info != nil {
		tag = string(n.Language(e.source))
	}
	res := e.r.highlight.Highlight(string(e.lines(n)), tag)

	e.w.Open("pre", "class", "code-block")
	if res.UsedFallback {
		class := "hljs"
		if tag != "" && e.r.opts.LangPrefix != "" {
			class += " " + e.r.opts.LangPrefix + tag
		}
		e.w.Open("code", "class", class).Raw(res.Body).Close()
		e.w.Close()
		return
	}
	e.w.Open("code", "class", "hljs hljs-line-numbers").
		Raw(highlight.JoinMarkers(res.LineMarkers)).
		Close()
	e.w.Open("code", "class", "code hljs "+tag).
		Raw(res.Body).
		Close()
	e.w.Close()
}

// decodeText resolves backslash escapes and entity references in one
// pass, so an escaped "&" never starts an entity.
func decodeText(b []byte) string {
	if bytes.IndexByte(b, '\\') < 0 && bytes.IndexByte(b, '&') < 0 {
		return string(b)
	}
	out := make([]byte, 0, len(b))
	start := 0
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) && util.IsPunct(b[i+1]) {
			out = append(out, resolveEntities(b[start:i])...)
			out = append(out, b[i+1])
			i++
			start = i + 1
		}
	}
	out = append(out, resolveEntities(b[start:])...)
	return string(out)
}

func resolveEntities(b []byte) []byte {
	if bytes.IndexByte(b, '&') < 0 {
		return b
	}
	return util.ResolveEntityNames(util.ResolveNumericReferences(b))
}

// plainText flattens the text content below n, as used for image alt text.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.WriteString(decodeText(v.Segment.Value(source)))
		case *ast.String:
			b.WriteString(decodeText(v.Value))
		default:
			b.WriteString(plainText(c, source))
		}
	}
	return b.String()
}

func attributeValue(v any) string {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
