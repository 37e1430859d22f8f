package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Serialize renders the children of container as HTML. Text is escaped;
// raw nodes are written verbatim.
func Serialize(container *html.Node) (string, error) {
	var b strings.Builder
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// NewContainer returns a detached element to build programs into.
func NewContainer(tag string, attrs ...html.Attribute) *html.Node {
	n := &vnode{kind: kindElement, tag: tag, attrs: attrs}
	return n.create()
}
