// Package dom applies render-instruction programs to a live
// golang.org/x/net/html tree.
//
// A program is first decoded into a virtual tree. Build constructs live
// nodes for every virtual node; Patch binds the previous program to the
// live nodes it produced, plans a minimal set of mutations against the
// next program and applies them in place. Nodes outside the changed region
// keep their identity, so callers may hold on to live nodes across
// updates.
package dom

import (
	"encoding/binary"
	"hash/fnv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/mdlive/internal/instr"
)

type nodeKind uint8

const (
	kindElement nodeKind = iota
	kindText
	kindRaw
)

// vnode is one node of a decoded program.
type vnode struct {
	kind     nodeKind
	tag      string
	attrs    []html.Attribute
	key      string
	skip     bool
	data     string
	children []*vnode

	// live is the node this vnode is bound to, set by bind, adopt or create.
	live *html.Node

	// size is the number of nodes in the subtree, including this one.
	size int
	hash uint64
}

// identity is what two nodes must share to be updated in place.
type identity struct {
	kind nodeKind
	tag  string
	key  string
}

func (n *vnode) identity() identity {
	return identity{kind: n.kind, tag: n.tag, key: n.key}
}

// decode validates p and returns its top-level nodes.
func decode(p instr.Program) ([]*vnode, error) {
	if err := instr.Validate(p); err != nil {
		return nil, err
	}

	root := &vnode{kind: kindElement}
	stack := []*vnode{root}
	for _, op := range p {
		top := stack[len(stack)-1]
		switch op.Kind {
		case instr.OpOpen:
			n := &vnode{kind: kindElement, tag: op.Name}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case instr.OpAttr:
			top.setAttr(op.Name, op.Value)
		case instr.OpKey:
			top.key = op.Value
		case instr.OpSkip:
			top.skip = true
		case instr.OpText, instr.OpRaw:
			kind := kindText
			if op.Kind == instr.OpRaw {
				kind = kindRaw
			}
			n := &vnode{kind: kind, data: op.Value}
			n.finish()
			top.children = append(top.children, n)
		case instr.OpClose:
			top.finish()
			stack = stack[:len(stack)-1]
		}
	}
	return root.children, nil
}

// setAttr sets an attribute. A repeated key replaces the earlier value.
func (n *vnode) setAttr(key, val string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs[i].Val = val
			return
		}
	}
	n.attrs = append(n.attrs, html.Attribute{Key: key, Val: val})
}

// finish computes size and hash once all children are known.
func (n *vnode) finish() {
	h := fnv.New64a()
	var buf [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}

	h.Write([]byte{byte(n.kind)})
	write(n.tag)
	write(n.key)
	write(n.data)
	if n.skip {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	for _, a := range n.attrs {
		write(a.Key)
		write(a.Val)
	}

	n.size = 1
	for _, c := range n.children {
		n.size += c.size
		binary.LittleEndian.PutUint64(buf[:], c.hash)
		h.Write(buf[:])
	}
	n.hash = h.Sum64()
}

// equal reports whether two subtrees describe the same output.
func equal(a, b *vnode) bool {
	if a == b {
		return true
	}
	if a.hash != b.hash || a.size != b.size || len(a.children) != len(b.children) {
		return false
	}
	if a.identity() != b.identity() || a.skip != b.skip || a.data != b.data || !attrsEqual(a.attrs, b.attrs) {
		return false
	}
	for i := range a.children {
		if !equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

func attrsEqual(a, b []html.Attribute) bool {
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

func cloneAttrs(attrs []html.Attribute) []html.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]html.Attribute, len(attrs))
	copy(out, attrs)
	return out
}

// create builds live nodes for the subtree and binds them.
func (n *vnode) create() *html.Node {
	switch n.kind {
	case kindText:
		n.live = &html.Node{Type: html.TextNode, Data: n.data}
	case kindRaw:
		n.live = &html.Node{Type: html.RawNode, Data: n.data}
	default:
		n.live = &html.Node{
			Type:     html.ElementNode,
			Data:     n.tag,
			DataAtom: atom.Lookup([]byte(n.tag)),
			Attr:     cloneAttrs(n.attrs),
		}
		for _, c := range n.children {
			n.live.AppendChild(c.create())
		}
	}
	return n.live
}

// adopt binds an equal subtree to the live nodes of old.
func adopt(old, n *vnode) {
	n.live = old.live
	if n.skip {
		return
	}
	for i, c := range n.children {
		adopt(old.children[i], c)
	}
}
