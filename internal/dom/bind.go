package dom

import (
	"golang.org/x/net/html"

	"github.com/dshills/mdlive/internal/instr"
)

// bind attaches the live children of parent to nodes. The live tree must
// have exactly the shape the nodes describe; children of skip elements are
// not inspected.
func bind(parent *html.Node, nodes []*vnode) error {
	c := parent.FirstChild
	for i, n := range nodes {
		if c == nil {
			return instr.Invariant(-1, "live tree does not match previous program: <%s> has %d children, want %d",
				nodeName(parent), i, len(nodes))
		}
		if err := bindNode(c, n); err != nil {
			return err
		}
		c = c.NextSibling
	}
	if c != nil {
		return instr.Invariant(-1, "live tree does not match previous program: <%s> has extra %s",
			nodeName(parent), nodeName(c))
	}
	return nil
}

func bindNode(live *html.Node, n *vnode) error {
	want := html.ElementNode
	switch n.kind {
	case kindText:
		want = html.TextNode
	case kindRaw:
		want = html.RawNode
	}
	if live.Type != want || (n.kind == kindElement && live.Data != n.tag) {
		return instr.Invariant(-1, "live tree does not match previous program: found %s, want %s",
			nodeName(live), n.describe())
	}
	n.live = live
	if n.kind != kindElement || n.skip {
		return nil
	}
	return bind(live, n.children)
}

func nodeName(n *html.Node) string {
	switch n.Type {
	case html.ElementNode:
		return n.Data
	case html.TextNode:
		return "text"
	case html.RawNode:
		return "raw"
	case html.DocumentNode:
		return "document"
	case html.CommentNode:
		return "comment"
	default:
		return "node"
	}
}

func (n *vnode) describe() string {
	switch n.kind {
	case kindText:
		return "text"
	case kindRaw:
		return "raw"
	default:
		return n.tag
	}
}
