// Package extension defines Markdown syntax extensions and the ordered
// registry the renderer is built from.
//
// An extension contributes grammar (goldmark inline parsers, AST
// transformers or a whole goldmark.Extender) and emitters that turn the
// nodes it introduces into render instructions. Registries are assembled
// once at startup, frozen, and then shared read-only.
package extension

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"

	"github.com/dshills/mdlive/internal/instr"
)

// EmitFunc writes the render instructions for one AST node. It is called
// once when entering the node and once when leaving it, like a goldmark
// renderer func. Returning ast.WalkSkipChildren suppresses the children.
type EmitFunc func(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus

// Descriptor describes one extension.
type Descriptor struct {
	// Name uniquely identifies the extension.
	Name string

	// Tokens lists the grammar tokens the extension claims, e.g. "==".
	// Two extensions whose tokens overlap must declare each other in
	// Shares; otherwise registration fails.
	Tokens []string

	// Shares names extensions allowed to claim overlapping tokens. The
	// one registered first is tried first.
	Shares []string

	// Priority is the base goldmark priority of the inline parsers. Lower
	// values are tried first.
	Priority int

	// InlineParsers are added to the goldmark parser.
	InlineParsers []parser.InlineParser

	// Transformers run over the parsed document.
	Transformers []parser.ASTTransformer

	// Extender installs grammar that goldmark ships as a unit. Renderers
	// it installs are never used.
	Extender goldmark.Extender

	// Emitters render the node kinds the extension introduces.
	Emitters map[ast.NodeKind]EmitFunc

	// Options records the settings the extension was built with.
	Options map[string]any
}

// contributes reports whether the descriptor adds anything at all.
func (d *Descriptor) contributes() bool {
	return len(d.InlineParsers) > 0 || len(d.Transformers) > 0 ||
		d.Extender != nil || len(d.Emitters) > 0
}

// sharesWith reports whether d declared that it shares tokens with name.
func (d *Descriptor) sharesWith(name string) bool {
	for _, s := range d.Shares {
		if s == name {
			return true
		}
	}
	return false
}
