package extension

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

// Registry is the ordered set of active extensions.
//
// Registration happens during initialization from a single goroutine. Once
// Freeze is called the registry never changes and is safe to share between
// documents without locking.
type Registry struct {
	descriptors []Descriptor
	names       map[string]int
	emitters    map[ast.NodeKind]EmitFunc
	owners      map[ast.NodeKind]string
	frozen      bool
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		names:    make(map[string]int),
		emitters: make(map[ast.NodeKind]EmitFunc),
		owners:   make(map[ast.NodeKind]string),
	}
}

// Register appends an extension. The registration order is the order in
// which overlapping grammar is tried.
func (r *Registry) Register(d Descriptor) error {
	if r.frozen {
		return configError(d.Name, ErrFrozen, "register after initialization")
	}
	if strings.TrimSpace(d.Name) == "" {
		return configError(d.Name, ErrInvalid, "empty name")
	}
	if !d.contributes() {
		return configError(d.Name, ErrInvalid, "contributes no grammar or emitters")
	}
	if _, ok := r.names[d.Name]; ok {
		return configError(d.Name, ErrDuplicate, "already registered")
	}

	for _, prev := range r.descriptors {
		if tok, ok := overlapping(prev.Tokens, d.Tokens); ok {
			if !prev.sharesWith(d.Name) && !d.sharesWith(prev.Name) {
				return &ConfigError{
					Extension: d.Name,
					Other:     prev.Name,
					Detail:    fmt.Sprintf("both claim token %q", tok),
					Err:       ErrConflict,
				}
			}
		}
	}
	for kind := range d.Emitters {
		if owner, ok := r.owners[kind]; ok {
			return &ConfigError{
				Extension: d.Name,
				Other:     owner,
				Detail:    fmt.Sprintf("both emit %s", kind),
				Err:       ErrConflict,
			}
		}
	}

	r.names[d.Name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, d)
	for kind, fn := range d.Emitters {
		r.emitters[kind] = fn
		r.owners[kind] = d.Name
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d Descriptor) *Registry {
	if err := r.Register(d); err != nil {
		panic(err)
	}
	return r
}

// Freeze ends registration and returns r.
func (r *Registry) Freeze() *Registry {
	r.frozen = true
	return r
}

// Frozen reports whether registration has ended.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

// Active returns the registered extensions in registration order. The
// returned slice is a copy.
func (r *Registry) Active() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Names returns the extension names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = d.Name
	}
	return out
}

// Has reports whether an extension with name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Emitter returns the emitter registered for kind.
func (r *Registry) Emitter(kind ast.NodeKind) (EmitFunc, bool) {
	fn, ok := r.emitters[kind]
	return fn, ok
}

// Extend installs the grammar of every extension into m.
//
// Inline parsers get priority Priority+index so that, between parsers
// sharing a trigger byte, the extension registered first is tried first.
func (r *Registry) Extend(m goldmark.Markdown) {
	for i, d := range r.descriptors {
		if d.Extender != nil {
			d.Extender.Extend(m)
		}
		var opts []parser.Option
		if len(d.InlineParsers) > 0 {
			values := make([]util.PrioritizedValue, len(d.InlineParsers))
			for j, p := range d.InlineParsers {
				values[j] = util.Prioritized(p, d.Priority+i)
			}
			opts = append(opts, parser.WithInlineParsers(values...))
		}
		if len(d.Transformers) > 0 {
			values := make([]util.PrioritizedValue, len(d.Transformers))
			for j, t := range d.Transformers {
				values[j] = util.Prioritized(t, d.Priority+i)
			}
			opts = append(opts, parser.WithASTTransformers(values...))
		}
		if len(opts) > 0 {
			m.Parser().AddOptions(opts...)
		}
	}
}

// Fingerprint summarizes the configuration: names, order and options.
func (r *Registry) Fingerprint() string {
	parts := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		keys := make([]string, 0, len(d.Options))
		for k := range d.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(d.Name)
		for _, k := range keys {
			fmt.Fprintf(&b, ",%s=%v", k, d.Options[k])
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, ";")
}

// overlapping returns the first token of a that is a prefix of a token in
// b, or the other way round.
func overlapping(a, b []string) (string, bool) {
	for _, x := range a {
		for _, y := range b {
			if x == "" || y == "" {
				continue
			}
			if strings.HasPrefix(x, y) {
				return y, true
			}
			if strings.HasPrefix(y, x) {
				return x, true
			}
		}
	}
	return "", false
}
