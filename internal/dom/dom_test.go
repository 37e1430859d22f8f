package dom

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dshills/mdlive/internal/instr"
)

func paragraphs(texts ...string) instr.Program {
	b := instr.NewBuilder()
	for _, t := range texts {
		b.Open("p").Text(t).Close()
	}
	return b.Program()
}

func list(keys ...string) instr.Program {
	b := instr.NewBuilder()
	b.Open("ul")
	for _, k := range keys {
		b.Open("li").Key(k).Text("item " + k).Close()
	}
	b.Close()
	return b.Program()
}

func built(t *testing.T, p instr.Program) *html.Node {
	t.Helper()
	c := NewContainer("div")
	_, err := Build(c, p)
	require.NoError(t, err)
	return c
}

func serialize(t *testing.T, c *html.Node) string {
	t.Helper()
	s, err := Serialize(c)
	require.NoError(t, err)
	return s
}

func childNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func TestBuild_Serialize(t *testing.T) {
	p := instr.NewBuilder().
		Open("h1", "id", "t").Text("a < b").Close().
		Open("pre", "class", "code-block").
		Open("code").Raw(`<span class="hljs-keyword">const</span>`).Close().
		Close().
		Void("hr").
		Program()

	c := NewContainer("div")
	stats, err := Build(c, p)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Created)
	assert.Equal(t,
		`<h1 id="t">a &lt; b</h1><pre class="code-block"><code><span class="hljs-keyword">const</span></code></pre><hr/>`,
		serialize(t, c))
}

func TestBuild_ClearsContainer(t *testing.T) {
	c := built(t, paragraphs("a", "b"))
	stats, err := Build(c, paragraphs("c"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Removed)
	assert.Equal(t, "<p>c</p>", serialize(t, c))
}

func TestBuild_InvalidProgram(t *testing.T) {
	c := built(t, paragraphs("keep"))
	_, err := Build(c, instr.Program{{Kind: instr.OpOpen, Name: "p"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, instr.ErrMalformed))
	assert.Equal(t, "<p>keep</p>", serialize(t, c))
}

func TestPatch_IdenticalIsNoop(t *testing.T) {
	p := paragraphs("a", "b", "c")
	c := built(t, p)
	before := childNodes(c)

	stats, err := Patch(c, p, paragraphs("a", "b", "c"))
	require.NoError(t, err)
	assert.Zero(t, stats.Mutations())
	assert.Equal(t, before, childNodes(c))
}

func TestPatch_TextEdit(t *testing.T) {
	prev := paragraphs("a", "b", "c")
	c := built(t, prev)
	before := childNodes(c)
	text := before[1].FirstChild

	stats, err := Patch(c, prev, paragraphs("a", "B", "c"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)

	after := childNodes(c)
	assert.Same(t, before[0], after[0])
	assert.Same(t, before[1], after[1])
	assert.Same(t, before[2], after[2])
	assert.Same(t, text, after[1].FirstChild)
	assert.Equal(t, "<p>a</p><p>B</p><p>c</p>", serialize(t, c))
}

func TestPatch_Insert(t *testing.T) {
	prev := paragraphs("a", "c")
	c := built(t, prev)
	before := childNodes(c)

	stats, err := Patch(c, prev, paragraphs("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 2}, stats)

	after := childNodes(c)
	require.Len(t, after, 3)
	assert.Same(t, before[0], after[0])
	assert.Same(t, before[1], after[2])
	assert.Equal(t, "<p>a</p><p>b</p><p>c</p>", serialize(t, c))
}

func TestPatch_Remove(t *testing.T) {
	prev := paragraphs("a", "b", "c")
	c := built(t, prev)
	before := childNodes(c)

	stats, err := Patch(c, prev, paragraphs("a", "c"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Removed: 1}, stats)
	assert.Equal(t, []*html.Node{before[0], before[2]}, childNodes(c))
}

func TestPatch_KeyedMove(t *testing.T) {
	prev := list("a", "b", "c")
	c := built(t, prev)
	items := childNodes(c.FirstChild)

	stats, err := Patch(c, prev, list("c", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Moved: 1}, stats)
	assert.Equal(t, []*html.Node{items[2], items[0], items[1]}, childNodes(c.FirstChild))
}

func TestPatch_KeyedUpdateFollowsKey(t *testing.T) {
	prev := list("a", "b")
	c := built(t, prev)
	items := childNodes(c.FirstChild)

	next := instr.NewBuilder().
		Open("ul").
		Open("li").Key("b").Text("item b!").Close().
		Open("li").Key("a").Text("item a").Close().
		Close().
		Program()
	stats, err := Patch(c, prev, next)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, []*html.Node{items[1], items[0]}, childNodes(c.FirstChild))
	assert.Equal(t, "<ul><li>item b!</li><li>item a</li></ul>", serialize(t, c))
}

func TestPatch_AttributeUpdate(t *testing.T) {
	prev := instr.NewBuilder().Open("p", "class", "a").Text("x").Close().Program()
	c := built(t, prev)
	p := c.FirstChild

	next := instr.NewBuilder().Open("p", "class", "b").Text("x").Close().Program()
	stats, err := Patch(c, prev, next)
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)
	assert.Same(t, p, c.FirstChild)
	assert.Equal(t, `<p class="b">x</p>`, serialize(t, c))
}

func TestPatch_ReplacesWhenCheaper(t *testing.T) {
	prev := instr.NewBuilder().
		Open("div", "class", "a").
		Open("p").Text("1").Close().
		Open("p").Text("2").Close().
		Open("p").Text("3").Close().
		Close().
		Program()
	c := built(t, prev)
	div := c.FirstChild

	next := instr.NewBuilder().
		Open("div", "class", "b").
		Open("span").Text("x").Close().
		Close().
		Program()
	stats, err := Patch(c, prev, next)
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 3, Removed: 1}, stats)
	assert.NotSame(t, div, c.FirstChild)
	assert.Equal(t, `<div class="b"><span>x</span></div>`, serialize(t, c))
}

func TestPatch_TagChangeReplaces(t *testing.T) {
	prev := paragraphs("a")
	c := built(t, prev)

	next := instr.NewBuilder().Open("h2").Text("a").Close().Program()
	stats, err := Patch(c, prev, next)
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 2, Removed: 1}, stats)
	assert.Equal(t, "<h2>a</h2>", serialize(t, c))
}

func TestPatch_SkipKeepsLiveChildren(t *testing.T) {
	prev := instr.NewBuilder().Open("div", "id", "widget").Skip().Close().Program()
	c := built(t, prev)
	widget := c.FirstChild
	widget.AppendChild(&html.Node{Type: html.TextNode, Data: "mounted"})

	next := instr.NewBuilder().Open("div", "id", "widget", "class", "on").Skip().Close().Program()
	stats, err := Patch(c, prev, next)
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)
	assert.Same(t, widget, c.FirstChild)
	assert.Equal(t, `<div id="widget" class="on">mounted</div>`, serialize(t, c))
}

func TestPatch_SkipReleased(t *testing.T) {
	prev := instr.NewBuilder().Open("div").Skip().Close().Program()
	c := built(t, prev)
	c.FirstChild.AppendChild(&html.Node{Type: html.TextNode, Data: "external"})

	next := instr.NewBuilder().Open("div").Text("owned").Close().Program()
	stats, err := Patch(c, prev, next)
	require.NoError(t, err)
	assert.Equal(t, Stats{Removed: 1, Created: 1}, stats)
	assert.Equal(t, "<div>owned</div>", serialize(t, c))
}

func TestPatch_NilPreviousBuilds(t *testing.T) {
	c := NewContainer("div")
	c.AppendChild(&html.Node{Type: html.TextNode, Data: "stale"})

	stats, err := Patch(c, nil, paragraphs("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 2, Removed: 1}, stats)
	assert.Equal(t, "<p>a</p>", serialize(t, c))
}

func TestPatch_EmptyPrevious(t *testing.T) {
	c := NewContainer("div")
	stats, err := Patch(c, instr.Program{}, paragraphs("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 2}, stats)

	stats, err = Patch(c, paragraphs("a"), instr.Program{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Removed: 1}, stats)
	assert.Empty(t, serialize(t, c))
}

func TestPatch_LiveTreeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *html.Node)
	}{
		{"missing child", func(c *html.Node) { c.RemoveChild(c.LastChild) }},
		{"extra child", func(c *html.Node) { c.AppendChild(&html.Node{Type: html.TextNode, Data: "x"}) }},
		{"wrong tag", func(c *html.Node) { c.FirstChild.Data = "div" }},
		{"wrong type", func(c *html.Node) { c.FirstChild.FirstChild.Type = html.RawNode }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := paragraphs("a", "b")
			c := built(t, prev)
			tt.mutate(c)
			before := serialize(t, c)

			_, err := Patch(c, prev, paragraphs("c"))
			require.Error(t, err)
			var inv *instr.InvariantError
			require.True(t, errors.As(err, &inv))
			assert.True(t, errors.Is(err, instr.ErrMalformed))
			assert.Contains(t, err.Error(), "live tree does not match")
			assert.Equal(t, before, serialize(t, c))
		})
	}
}

func TestPatch_MalformedNext(t *testing.T) {
	prev := paragraphs("a")
	c := built(t, prev)
	_, err := Patch(c, prev, instr.Program{{Kind: instr.OpClose, Name: "p"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, instr.ErrMalformed))
	assert.Equal(t, "<p>a</p>", serialize(t, c))
}

func TestPatch_RawAndTextAreDistinct(t *testing.T) {
	prev := instr.NewBuilder().Open("p").Text("<b>").Close().Program()
	c := built(t, prev)
	assert.Equal(t, "<p>&lt;b&gt;</p>", serialize(t, c))

	next := instr.NewBuilder().Open("p").Raw("<b>").Close().Program()
	stats, err := Patch(c, prev, next)
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 1, Removed: 1}, stats)
	assert.Equal(t, "<p><b></p>", serialize(t, c))
}

// sequence is a series of documents with edits of every kind between them.
var sequence = []instr.Program{
	paragraphs("a", "b", "c"),
	paragraphs("a", "x", "b", "c"),
	list("1", "2", "3", "4"),
	list("4", "3", "2", "1"),
	list("2", "5", "1"),
	instr.NewBuilder().
		Open("h1").Text("Title").Close().
		Open("blockquote").Open("p").Text("quote").Close().Close().
		Open("ul").Open("li").Text("x").Close().Open("li").Text("y").Close().Close().
		Program(),
	instr.NewBuilder().
		Open("h1").Text("Title!").Close().
		Open("ul").Open("li").Text("y").Close().Open("li").Text("x").Close().Open("li").Text("z").Close().Close().
		Open("blockquote").Open("p").Text("quote").Close().Close().
		Program(),
	instr.NewBuilder().
		Open("table").
		Open("thead").Open("tr").Open("th").Text("A").Close().Close().Close().
		Open("tbody").Open("tr").Open("td", "style", "text-align:left").Text("1").Close().Close().Close().
		Close().
		Program(),
	instr.NewBuilder().
		Open("table").
		Open("thead").Open("tr").Open("th").Text("A").Close().Open("th").Text("B").Close().Close().Close().
		Close().
		Open("p").Raw("<em>raw</em>").Text(" tail").Close().
		Program(),
	paragraphs(),
	paragraphs("z"),
}

func TestPatch_EquivalentToBuild(t *testing.T) {
	c := NewContainer("div")
	var prev instr.Program
	for i, next := range sequence {
		_, err := Patch(c, prev, next)
		require.NoError(t, err, "step %d", i)

		want := serialize(t, built(t, next))
		assert.Equal(t, want, serialize(t, c), "step %d", i)

		// Idempotence.
		stats, err := Patch(c, next, next)
		require.NoError(t, err)
		assert.Zero(t, stats.Mutations(), "step %d", i)
		prev = next
	}
}

func TestPatch_NeverRebuildsUnchangedPrefixAndSuffix(t *testing.T) {
	var texts []string
	for i := 0; i < 50; i++ {
		texts = append(texts, fmt.Sprintf("paragraph %d", i))
	}
	prev := paragraphs(texts...)
	c := built(t, prev)
	before := childNodes(c)

	edited := append([]string(nil), texts...)
	edited[25] = "edited"
	stats, err := Patch(c, prev, paragraphs(edited...))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Mutations())

	after := childNodes(c)
	for i := range before {
		assert.Same(t, before[i], after[i])
	}
}

func TestStableSources(t *testing.T) {
	tests := []struct {
		sources []int
		want    []bool
	}{
		{nil, []bool{}},
		{[]int{0, 1, 2}, []bool{true, true, true}},
		{[]int{2, 0, 1}, []bool{false, true, true}},
		{[]int{-1, 0, -1, 1}, []bool{false, true, false, true}},
		{[]int{3, 2, 1, 0}, []bool{false, false, false, true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stableSources(tt.sources), "%v", tt.sources)
	}
}

func TestStats(t *testing.T) {
	s := Stats{Created: 1, Updated: 2, Removed: 3, Moved: 4}
	assert.Equal(t, 10, s.Mutations())
	assert.Equal(t, Stats{Created: 2, Updated: 4, Removed: 6, Moved: 8}, s.Add(s))
	assert.True(t, strings.HasPrefix(s.String(), "created=1"))
}
