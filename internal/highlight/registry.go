package highlight

import (
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/text/cases"
)

// tokenizer is the part of a chroma lexer the highlighter needs.
type tokenizer interface {
	Tokenise(options *chroma.TokeniseOptions, text string) (chroma.Iterator, error)
}

// Language is a resolved grammar.
type Language struct {
	// Name is the canonical grammar name, e.g. "JavaScript".
	Name string

	tok tokenizer
}

// Registry resolves fence language tags to grammars.
//
// A Registry is immutable once built and safe for concurrent use. Tags are
// matched case-insensitively; aliases are consulted before the grammar
// registry and disabled tags never resolve.
type Registry struct {
	aliases  map[string]string
	disabled map[string]bool
	custom   map[string]Language
}

// NewRegistry creates a registry with the given alias table (tag -> grammar
// name) and disabled tags.
func NewRegistry(aliases map[string]string, disabled []string) *Registry {
	r := &Registry{
		aliases:  make(map[string]string, len(aliases)),
		disabled: make(map[string]bool, len(disabled)),
		custom:   make(map[string]Language),
	}
	for tag, name := range aliases {
		r.aliases[foldTag(tag)] = name
	}
	for _, tag := range disabled {
		r.disabled[foldTag(tag)] = true
	}
	return r
}

// DefaultRegistry returns a registry with no aliases or disabled tags.
func DefaultRegistry() *Registry {
	return NewRegistry(nil, nil)
}

// Lookup resolves a language tag. The empty tag never resolves.
func (r *Registry) Lookup(tag string) (Language, bool) {
	key := foldTag(tag)
	if key == "" || r.disabled[key] {
		return Language{}, false
	}
	if lang, ok := r.custom[key]; ok {
		return lang, true
	}
	name := key
	if alias, ok := r.aliases[key]; ok {
		name = alias
	}
	lexer := lexers.Get(name)
	if lexer == nil {
		return Language{}, false
	}
	return Language{Name: lexer.Config().Name, tok: chroma.Coalesce(lexer)}, true
}

// Has reports whether tag resolves to a grammar.
func (r *Registry) Has(tag string) bool {
	_, ok := r.Lookup(tag)
	return ok
}

// Fingerprint summarizes the registry configuration. Two registries with
// the same fingerprint resolve every tag identically.
func (r *Registry) Fingerprint() string {
	var parts []string
	for tag, name := range r.aliases {
		parts = append(parts, "a:"+tag+"="+name)
	}
	for tag := range r.disabled {
		parts = append(parts, "d:"+tag)
	}
	for tag, lang := range r.custom {
		parts = append(parts, "c:"+tag+"="+lang.Name)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// register installs a grammar under tag. Only used while building a
// registry; registries are never mutated once shared.
func (r *Registry) register(tag, name string, tok tokenizer) {
	r.custom[foldTag(tag)] = Language{Name: name, tok: tok}
}

// foldTag normalizes a fence tag for lookup. Fence info strings may carry
// attributes after the language name; only the first word counts.
func foldTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, " \t{"); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return ""
	}
	// A Caser is stateful, so one is made per call.
	return cases.Fold().String(tag)
}
