package extension

import (
	"fmt"
	"strconv"

	emoji "github.com/yuin/goldmark-emoji"
	emojiast "github.com/yuin/goldmark-emoji/ast"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/mdlive/internal/instr"
)

// Built-in extension names.
const (
	Table         = "table"
	Strikethrough = "strikethrough"
	Linkify       = "linkify"
	Typographer   = "typographer"
	Emoji         = "emoji"
	Ins           = "ins"
	MarkName      = "mark"
	Footnote      = "footnote"
	Sup           = "sup"
	Sub           = "sub"
	TaskList      = "tasklist"
)

// DefaultOrder is the default extension set in registration order.
var DefaultOrder = []string{
	Table, Strikethrough, Linkify, Typographer,
	Emoji, Ins, MarkName, Footnote, Sup, Sub, TaskList,
}

// inlinePriority is the base priority of the built-in inline parsers. It
// sits after goldmark's code span, link and raw HTML parsers.
const inlinePriority = 500

var builtins = map[string]func(opts map[string]any) (Descriptor, error){
	Table:         newTable,
	Strikethrough: newStrikethrough,
	Linkify:       newLinkify,
	Typographer:   newTypographer,
	Emoji:         newEmoji,
	Ins:           newIns,
	MarkName:      newMark,
	Footnote:      newFootnote,
	Sup:           newSup,
	Sub:           newSub,
	TaskList:      newTaskList,
}

// BuiltinNames returns the names of all built-in extensions in default
// order.
func BuiltinNames() []string {
	out := make([]string, len(DefaultOrder))
	copy(out, DefaultOrder)
	return out
}

// Builtin returns the descriptor for a built-in extension.
func Builtin(name string, opts map[string]any) (Descriptor, error) {
	ctor, ok := builtins[name]
	if !ok {
		return Descriptor{}, configError(name, ErrUnknown, "no built-in extension with this name")
	}
	return ctor(opts)
}

// Load builds a frozen registry from built-in names in order. options maps
// extension name to its options.
func Load(names []string, options map[string]map[string]any) (*Registry, error) {
	r := NewRegistry()
	for _, name := range names {
		d, err := Builtin(name, options[name])
		if err != nil {
			return nil, err
		}
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r.Freeze(), nil
}

// Default returns a frozen registry holding every built-in extension in
// DefaultOrder.
func Default() *Registry {
	r, err := Load(DefaultOrder, nil)
	if err != nil {
		panic(fmt.Sprintf("extension: default set is invalid: %v", err))
	}
	return r
}

func boolOption(name string, opts map[string]any, key string) (bool, error) {
	v, ok := opts[key]
	if !ok {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err == nil {
			return parsed, nil
		}
	}
	return false, configError(name, ErrInvalid, "option %q must be a boolean, got %v", key, v)
}

func checkOptions(name string, opts map[string]any, known ...string) error {
	for key := range opts {
		found := false
		for _, k := range known {
			if key == k {
				found = true
				break
			}
		}
		if !found {
			return configError(name, ErrInvalid, "unknown option %q", key)
		}
	}
	return nil
}

func wrap(tag string) EmitFunc {
	return func(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
		if entering {
			w.Open(tag)
		} else {
			w.Close()
		}
		return ast.WalkContinue
	}
}

func newMark(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(MarkName, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:          MarkName,
		Tokens:        []string{"=="},
		Priority:      inlinePriority,
		InlineParsers: []parser.InlineParser{NewMarkParser()},
		Emitters:      map[ast.NodeKind]EmitFunc{KindMark: wrap("mark")},
	}, nil
}

func newIns(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Ins, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:          Ins,
		Tokens:        []string{"++"},
		Priority:      inlinePriority,
		InlineParsers: []parser.InlineParser{NewInsertedParser()},
		Emitters:      map[ast.NodeKind]EmitFunc{KindInserted: wrap("ins")},
	}, nil
}

func newSup(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Sup, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:          Sup,
		Tokens:        []string{"^"},
		Priority:      inlinePriority,
		InlineParsers: []parser.InlineParser{NewSuperscriptParser()},
		Emitters:      map[ast.NodeKind]EmitFunc{KindSuperscript: wrap("sup")},
	}, nil
}

func newSub(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Sub, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:          Sub,
		Tokens:        []string{"~"},
		Shares:        []string{Strikethrough},
		Priority:      inlinePriority,
		InlineParsers: []parser.InlineParser{NewSubscriptParser()},
		Emitters:      map[ast.NodeKind]EmitFunc{KindSubscript: wrap("sub")},
	}, nil
}

func newStrikethrough(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Strikethrough, opts, "single_tilde"); err != nil {
		return Descriptor{}, err
	}
	single, err := boolOption(Strikethrough, opts, "single_tilde")
	if err != nil {
		return Descriptor{}, err
	}
	tokens := []string{"~~"}
	if single {
		tokens = append(tokens, "~")
	}
	return Descriptor{
		Name:     Strikethrough,
		Tokens:   tokens,
		Shares:   []string{Sub},
		Priority: inlinePriority,
		InlineParsers: []parser.InlineParser{
			&strikethroughParser{inner: extension.NewStrikethroughParser(), singleTilde: single},
		},
		Emitters: map[ast.NodeKind]EmitFunc{extast.KindStrikethrough: wrap("del")},
		Options:  map[string]any{"single_tilde": single},
	}, nil
}

func newLinkify(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Linkify, opts); err != nil {
		return Descriptor{}, err
	}
	// Linkify produces ordinary autolink nodes.
	return Descriptor{
		Name:     Linkify,
		Tokens:   []string{"http://", "https://", "www."},
		Extender: extension.Linkify,
	}, nil
}

func newTypographer(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Typographer, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:     Typographer,
		Tokens:   []string{"--", "...", "<<", ">>"},
		Extender: extension.Typographer,
	}, nil
}

func newEmoji(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Emoji, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:          Emoji,
		Tokens:        []string{":"},
		Priority:      999,
		InlineParsers: []parser.InlineParser{emoji.NewParser()},
		Emitters:      map[ast.NodeKind]EmitFunc{emojiast.KindEmoji: emitEmoji},
	}, nil
}

// emitEmoji writes the emoji as its Unicode characters. Shortcodes without
// a Unicode form stay literal.
func emitEmoji(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if !entering {
		return ast.WalkContinue
	}
	node := n.(*emojiast.Emoji)
	if node.Value == nil || !node.Value.IsUnicode() {
		w.Text(":" + string(node.ShortName) + ":")
		return ast.WalkSkipChildren
	}
	w.Text(string(node.Value.Unicode))
	return ast.WalkSkipChildren
}

func newTable(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Table, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:     Table,
		Extender: extension.Table,
		Emitters: map[ast.NodeKind]EmitFunc{
			extast.KindTable:       wrap("table"),
			extast.KindTableHeader: emitTableHeader,
			extast.KindTableRow:    emitTableRow,
			extast.KindTableCell:   emitTableCell,
		},
	}, nil
}

func emitTableHeader(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if entering {
		w.Open("thead").Open("tr")
	} else {
		w.Close().Close()
	}
	return ast.WalkContinue
}

// emitTableRow opens tbody before the first body row and closes it after
// the last.
func emitTableRow(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if entering {
		if prev := n.PreviousSibling(); prev == nil || prev.Kind() != extast.KindTableRow {
			w.Open("tbody")
		}
		w.Open("tr")
		return ast.WalkContinue
	}
	w.Close()
	if n.NextSibling() == nil {
		w.Close()
	}
	return ast.WalkContinue
}

func emitTableCell(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if !entering {
		w.Close()
		return ast.WalkContinue
	}
	tag := "td"
	if n.Parent() != nil && n.Parent().Kind() == extast.KindTableHeader {
		tag = "th"
	}
	w.Open(tag)
	if cell, ok := n.(*extast.TableCell); ok {
		switch cell.Alignment {
		case extast.AlignLeft, extast.AlignRight, extast.AlignCenter:
			w.Attr("style", "text-align:"+cell.Alignment.String())
		}
	}
	return ast.WalkContinue
}

func newFootnote(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(Footnote, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:     Footnote,
		Tokens:   []string{"[^"},
		Extender: extension.Footnote,
		Emitters: map[ast.NodeKind]EmitFunc{
			extast.KindFootnoteLink:     emitFootnoteLink,
			extast.KindFootnoteBacklink: emitFootnoteBacklink,
			extast.KindFootnote:         emitFootnote,
			extast.KindFootnoteList:     emitFootnoteList,
		},
	}, nil
}

func footnoteRefID(index, refIndex int) string {
	id := "fnref" + strconv.Itoa(index)
	if refIndex > 0 {
		id += ":" + strconv.Itoa(refIndex)
	}
	return id
}

func emitFootnoteLink(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if !entering {
		return ast.WalkContinue
	}
	link := n.(*extast.FootnoteLink)
	label := strconv.Itoa(link.Index)
	refID := footnoteRefID(link.Index, link.RefIndex)
	if link.RefIndex > 0 {
		label += ":" + strconv.Itoa(link.RefIndex)
	}
	w.Open("sup", "class", "footnote-ref").
		Open("a", "href", "#fn"+strconv.Itoa(link.Index), "id", refID).
		Text("[" + label + "]").
		Close().
		Close()
	return ast.WalkSkipChildren
}

func emitFootnoteBacklink(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if !entering {
		return ast.WalkContinue
	}
	back := n.(*extast.FootnoteBacklink)
	w.Text(" ")
	w.Open("a", "href", "#"+footnoteRefID(back.Index, back.RefIndex), "class", "footnote-backref").
		Text("↩︎").
		Close()
	return ast.WalkSkipChildren
}

func emitFootnote(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if !entering {
		w.Close()
		return ast.WalkContinue
	}
	id := "fn" + strconv.Itoa(n.(*extast.Footnote).Index)
	w.Open("li", "id", id, "class", "footnote-item").Key(id)
	return ast.WalkContinue
}

func emitFootnoteList(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if entering {
		w.Void("hr", "class", "footnotes-sep")
		w.Open("section", "class", "footnotes").Key("footnotes")
		w.Open("ol", "class", "footnotes-list")
		return ast.WalkContinue
	}
	w.Close().Close()
	return ast.WalkContinue
}

func newTaskList(opts map[string]any) (Descriptor, error) {
	if err := checkOptions(TaskList, opts); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:         TaskList,
		Tokens:       []string{"[ ]", "[x]", "[X]"},
		Extender:     extension.TaskList,
		Transformers: []parser.ASTTransformer{taskListClasses{}},
		Emitters:     map[ast.NodeKind]EmitFunc{extast.KindTaskCheckBox: emitTaskCheckBox},
	}, nil
}

// taskListClasses marks list items holding a checkbox, and their lists,
// with the task list classes.
type taskListClasses struct{}

func (taskListClasses) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != extast.KindTaskCheckBox {
			return ast.WalkContinue, nil
		}
		item := n.Parent()
		if item != nil {
			item = item.Parent()
		}
		if item == nil || item.Kind() != ast.KindListItem {
			return ast.WalkContinue, nil
		}
		item.SetAttributeString("class", []byte("task-list-item"))
		if list := item.Parent(); list != nil {
			list.SetAttributeString("class", []byte("contains-task-list"))
		}
		return ast.WalkContinue, nil
	})
}

func emitTaskCheckBox(w *instr.Builder, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	if !entering {
		return ast.WalkContinue
	}
	w.Open("input", "class", "task-list-item-checkbox")
	if n.(*extast.TaskCheckBox).IsChecked {
		w.Attr("checked", "")
	}
	w.Attr("disabled", "").Attr("type", "checkbox").Close()
	w.Text(" ")
	return ast.WalkSkipChildren
}
