package dom

import (
	"fmt"
	"sort"

	"golang.org/x/net/html"

	"github.com/dshills/mdlive/internal/instr"
)

// Stats counts the mutations applied to the live tree.
type Stats struct {
	Created int // Nodes created, counting every node of a new subtree
	Updated int // Attribute sets or text data replaced in place
	Removed int // Subtrees detached
	Moved   int // Surviving nodes reordered among their siblings
}

// Mutations returns the total number of mutations.
func (s Stats) Mutations() int {
	return s.Created + s.Updated + s.Removed + s.Moved
}

// Add returns the sum of two stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Created: s.Created + o.Created,
		Updated: s.Updated + o.Updated,
		Removed: s.Removed + o.Removed,
		Moved:   s.Moved + o.Moved,
	}
}

// String returns a compact summary.
func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d removed=%d moved=%d", s.Created, s.Updated, s.Removed, s.Moved)
}

// Build replaces the children of container with the output of p.
func Build(container *html.Node, p instr.Program) (Stats, error) {
	nodes, err := decode(p)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		container.RemoveChild(c)
		stats.Removed++
		c = next
	}
	for _, n := range nodes {
		container.AppendChild(n.create())
		stats.Created += n.size
	}
	return stats, nil
}

// Patch transforms the children of container, previously built from prev,
// into the output of next. The resulting tree is equivalent to
// Build(container, next); nodes outside the changed region are left
// untouched.
//
// A nil prev means there is no previous program and the tree is built from
// scratch. If the live tree does not have the shape prev describes, Patch
// returns an *instr.InvariantError and leaves the tree as it was.
func Patch(container *html.Node, prev, next instr.Program) (Stats, error) {
	if prev == nil {
		return Build(container, next)
	}
	olds, err := decode(prev)
	if err != nil {
		return Stats{}, err
	}
	news, err := decode(next)
	if err != nil {
		return Stats{}, err
	}
	if err := bind(container, olds); err != nil {
		return Stats{}, err
	}

	p := newPatcher()
	p.children(container, olds, news, p.match(olds, news))
	return p.stats, nil
}

// plan pairs the children of an old and a new node.
type plan struct {
	// prefix and suffix count the equal subtrees at either end.
	prefix, suffix int

	// sources maps each middle new child to the middle old child it
	// reuses, or -1 when it is created.
	sources []int

	// stable marks reused middle children that keep their relative order.
	stable []bool

	// cost is the number of mutations applying the plan takes.
	cost int
}

type patcher struct {
	stats Stats
	plans map[[2]*vnode]*plan
	costs map[[2]*vnode]int
}

func newPatcher() *patcher {
	return &patcher{
		plans: make(map[[2]*vnode]*plan),
		costs: make(map[[2]*vnode]int),
	}
}

// cost returns the number of mutations needed to turn o into n in place.
// o and n share an identity.
func (p *patcher) cost(o, n *vnode) int {
	if equal(o, n) {
		return 0
	}
	k := [2]*vnode{o, n}
	if c, ok := p.costs[k]; ok {
		return c
	}

	c := 0
	switch {
	case n.kind != kindElement:
		if o.data != n.data {
			c = 1
		}
	default:
		if !attrsEqual(o.attrs, n.attrs) {
			c++
		}
		switch {
		case n.skip:
		case o.skip:
			// Externally managed children are cleared in one go.
			c++
			for _, ch := range n.children {
				c += ch.size
			}
		default:
			c += p.planFor(o, n).cost
		}
	}
	p.costs[k] = c
	return c
}

// planFor returns the memoized plan for the children of o and n.
func (p *patcher) planFor(o, n *vnode) *plan {
	k := [2]*vnode{o, n}
	if pl, ok := p.plans[k]; ok {
		return pl
	}
	pl := p.match(o.children, n.children)
	p.plans[k] = pl
	return pl
}

// match pairs olds with news. Equal subtrees at either end are kept as
// they are. In between, exact matches are paired first, then remaining
// nodes of the same identity in order. A pair whose in-place update costs
// more than replacing the node is split.
func (p *patcher) match(olds, news []*vnode) *plan {
	pl := &plan{}
	lo, ln := len(olds), len(news)
	limit := min(lo, ln)
	for pl.prefix < limit && equal(olds[pl.prefix], news[pl.prefix]) {
		pl.prefix++
	}
	for pl.suffix < limit-pl.prefix && equal(olds[lo-1-pl.suffix], news[ln-1-pl.suffix]) {
		pl.suffix++
	}

	oldMid := olds[pl.prefix : lo-pl.suffix]
	newMid := news[pl.prefix : ln-pl.suffix]
	pl.sources = make([]int, len(newMid))
	used := make([]bool, len(oldMid))

	byHash := make(map[uint64][]int)
	for i, o := range oldMid {
		byHash[o.hash] = append(byHash[o.hash], i)
	}
	for j, n := range newMid {
		pl.sources[j] = -1
		queue := byHash[n.hash]
		for qi, i := range queue {
			if !used[i] && equal(oldMid[i], n) {
				pl.sources[j] = i
				used[i] = true
				byHash[n.hash] = append(queue[:qi:qi], queue[qi+1:]...)
				break
			}
		}
	}

	byIdentity := make(map[identity][]int)
	for i, o := range oldMid {
		if !used[i] {
			byIdentity[o.identity()] = append(byIdentity[o.identity()], i)
		}
	}
	for j, n := range newMid {
		if pl.sources[j] >= 0 {
			continue
		}
		id := n.identity()
		queue := byIdentity[id]
		if len(queue) == 0 {
			continue
		}
		i := queue[0]
		byIdentity[id] = queue[1:]
		if c := p.cost(oldMid[i], n); c > 1+n.size {
			// Replacing is cheaper; the old node is removed.
			continue
		}
		pl.sources[j] = i
		used[i] = true
	}

	pl.stable = stableSources(pl.sources)
	for j, n := range newMid {
		switch i := pl.sources[j]; {
		case i < 0:
			pl.cost += n.size
		default:
			pl.cost += p.cost(oldMid[i], n)
			if !pl.stable[j] {
				pl.cost++
			}
		}
	}
	for i := range oldMid {
		if !used[i] {
			pl.cost++
		}
	}
	return pl
}

// stableSources marks a longest increasing subsequence of sources. Those
// nodes stay put; every other reused node is moved.
func stableSources(sources []int) []bool {
	stable := make([]bool, len(sources))
	prev := make([]int, len(sources))
	var tails []int
	for j, s := range sources {
		if s < 0 {
			continue
		}
		k := sort.Search(len(tails), func(k int) bool { return sources[tails[k]] >= s })
		prev[j] = -1
		if k > 0 {
			prev[j] = tails[k-1]
		}
		if k == len(tails) {
			tails = append(tails, j)
		} else {
			tails[k] = j
		}
	}
	if len(tails) == 0 {
		return stable
	}
	for j := tails[len(tails)-1]; j >= 0; j = prev[j] {
		stable[j] = true
	}
	return stable
}

// children applies pl to the live children of parent.
func (p *patcher) children(parent *html.Node, olds, news []*vnode, pl *plan) {
	lo, ln := len(olds), len(news)
	for i := 0; i < pl.prefix; i++ {
		adopt(olds[i], news[i])
	}
	for i := 0; i < pl.suffix; i++ {
		adopt(olds[lo-1-i], news[ln-1-i])
	}

	oldMid := olds[pl.prefix : lo-pl.suffix]
	newMid := news[pl.prefix : ln-pl.suffix]

	used := make([]bool, len(oldMid))
	for _, i := range pl.sources {
		if i >= 0 {
			used[i] = true
		}
	}
	for i, o := range oldMid {
		if !used[i] {
			parent.RemoveChild(o.live)
			p.stats.Removed++
		}
	}
	for j, n := range newMid {
		if i := pl.sources[j]; i >= 0 {
			p.update(oldMid[i], n)
		}
	}

	// Place middle nodes back to front, each before its successor.
	var ref *html.Node
	if pl.suffix > 0 {
		ref = news[ln-pl.suffix].live
	}
	for j := len(newMid) - 1; j >= 0; j-- {
		n := newMid[j]
		switch {
		case pl.sources[j] < 0:
			parent.InsertBefore(n.create(), ref)
			p.stats.Created += n.size
		case !pl.stable[j]:
			parent.RemoveChild(n.live)
			parent.InsertBefore(n.live, ref)
			p.stats.Moved++
		}
		ref = n.live
	}
}

// update turns the live node bound to o into n in place.
func (p *patcher) update(o, n *vnode) {
	if equal(o, n) {
		adopt(o, n)
		return
	}
	n.live = o.live
	live := n.live

	if n.kind != kindElement {
		if o.data != n.data {
			live.Data = n.data
			p.stats.Updated++
		}
		return
	}

	if !attrsEqual(o.attrs, n.attrs) {
		live.Attr = cloneAttrs(n.attrs)
		p.stats.Updated++
	}
	switch {
	case n.skip:
		// Whatever lives below stays.
	case o.skip:
		for c := live.FirstChild; c != nil; {
			next := c.NextSibling
			live.RemoveChild(c)
			p.stats.Removed++
			c = next
		}
		for _, c := range n.children {
			live.AppendChild(c.create())
			p.stats.Created += c.size
		}
	default:
		p.children(live, o.children, n.children, p.planFor(o, n))
	}
}
