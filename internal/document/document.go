// Package document is the entry point for live Markdown rendering.
//
// A Document owns one live output tree. Render builds it from scratch;
// Update re-renders and patches it in place. Only one cycle runs at a time.
// Text submitted while a cycle runs is queued, and a newer submission
// replaces an older queued one, so the tree never goes back in time and
// intermediate texts may be skipped.
package document

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dshills/mdlive/internal/dom"
	"github.com/dshills/mdlive/internal/instr"
	"github.com/dshills/mdlive/internal/logging"
	"github.com/dshills/mdlive/internal/markdown"
)

// Document is a live rendered Markdown document.
type Document struct {
	id       uuid.UUID
	renderer *markdown.Renderer
	log      *logging.Logger
	strict   bool
	hooks    []func(Cycle)
	class    string

	// mu guards the queue.
	mu      sync.Mutex
	running bool
	pending *request

	// treeMu guards the live tree and what it was built from.
	treeMu  sync.RWMutex
	root    *html.Node
	source  string
	program instr.Program
	last    Cycle

	cycles atomic.Uint64
}

type request struct {
	text string
	full bool
}

// New creates a document rendering through r. Nothing is rendered until
// Render or Update is called.
func New(r *markdown.Renderer, opts ...Option) (*Document, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}
	d := &Document{
		id:       uuid.New(),
		renderer: r,
		log:      logging.Null(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithField("document", d.id.String())

	var attrs []html.Attribute
	if d.class != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: d.class})
	}
	d.root = dom.NewContainer(DefaultContainerTag, attrs...)
	return d, nil
}

// ID returns the document's unique identifier.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Render renders text, building the output tree from scratch.
func (d *Document) Render(text string) error {
	return d.submit(request{text: text, full: true})
}

// Update re-renders text and patches the output tree incrementally. If a
// cycle is already running, text is queued and Update returns at once; the
// running caller renders the latest queued text before returning.
func (d *Document) Update(text string) error {
	return d.submit(request{text: text})
}

func (d *Document) submit(req request) error {
	d.mu.Lock()
	if d.running {
		if d.pending != nil {
			d.log.Debug("dropping superseded update")
			req.full = req.full || d.pending.full
		}
		d.pending = &req
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.mu.Lock()
			d.running = false
			d.pending = nil
			d.mu.Unlock()
			panic(r)
		}
	}()

	var errs []error
	for {
		if err := d.cycle(req); err != nil {
			errs = append(errs, err)
		}

		d.mu.Lock()
		if d.pending == nil {
			d.running = false
			d.mu.Unlock()
			return errors.Join(errs...)
		}
		req = *d.pending
		d.pending = nil
		d.mu.Unlock()
	}
}

// cycle renders one text and applies it to the tree.
func (d *Document) cycle(req request) error {
	start := time.Now()
	next := d.renderer.Render(req.text)

	d.treeMu.Lock()
	prev := d.program
	if req.full {
		prev = nil
	}
	c := Cycle{
		Source: req.text,
		Full:   prev == nil,
	}

	stats, err := dom.Patch(d.root, prev, next)
	if err != nil {
		var inv *instr.InvariantError
		if !errors.As(err, &inv) || prev == nil {
			d.treeMu.Unlock()
			return fmt.Errorf("render cycle: %w", err)
		}
		if d.strict {
			d.treeMu.Unlock()
			panic(err)
		}
		d.log.Error("patch failed, rebuilding: %v", err)
		stats, err = dom.Build(d.root, next)
		if err != nil {
			d.treeMu.Unlock()
			return fmt.Errorf("render cycle: %w", err)
		}
		c.Full = true
		c.Recovered = true
	}

	d.source = req.text
	d.program = next
	c.Number = d.cycles.Add(1)
	c.Stats = stats
	c.Duration = time.Since(start)
	d.last = c
	d.treeMu.Unlock()

	d.log.Debug("cycle %d: %s in %s", c.Number, stats, c.Duration)
	for _, hook := range d.hooks {
		hook(c)
	}
	return nil
}

// Root returns the container element holding the output. Callers must not
// modify it while a cycle may be running.
func (d *Document) Root() *html.Node {
	return d.root
}

// Source returns the text of the last completed cycle.
func (d *Document) Source() string {
	d.treeMu.RLock()
	defer d.treeMu.RUnlock()
	return d.source
}

// Program returns the program of the last completed cycle.
func (d *Document) Program() instr.Program {
	d.treeMu.RLock()
	defer d.treeMu.RUnlock()
	return d.program
}

// HTML serializes the current output.
func (d *Document) HTML() (string, error) {
	d.treeMu.RLock()
	defer d.treeMu.RUnlock()
	return dom.Serialize(d.root)
}

// LastPatch returns the last completed cycle.
func (d *Document) LastPatch() Cycle {
	d.treeMu.RLock()
	defer d.treeMu.RUnlock()
	return d.last
}

// Cycles returns the number of completed cycles.
func (d *Document) Cycles() uint64 {
	return d.cycles.Load()
}

// Pending reports whether text is queued behind a running cycle.
func (d *Document) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Query returns the first output node matching the CSS selector, or nil.
// Pre-escaped markup such as highlighted code is opaque to queries.
func (d *Document) Query(selector string) (*html.Node, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	d.treeMu.RLock()
	defer d.treeMu.RUnlock()
	return cascadia.Query(d.root, sel), nil
}

// QueryAll returns every output node matching the CSS selector, in
// document order.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	d.treeMu.RLock()
	defer d.treeMu.RUnlock()
	return cascadia.QueryAll(d.root, sel), nil
}

func compile(selector string) (cascadia.SelectorGroup, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	return sel, nil
}
