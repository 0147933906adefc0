package deps

import (
	"fmt"
	"slices"
	"strings"
)

// Registry maps language names to their extraction strategies. It is built
// once by NewRegistry and has no mutating methods, so it is safe to share.
type Registry struct {
	languages  map[string]*Language
	strategies map[string]*Strategy
	names      []string
}

// NewRegistry builds a registry from langs. Language and strategy names must
// be unique and every strategy needs a Parse function; violations are
// programming errors and panic.
func NewRegistry(langs ...*Language) *Registry {
	r := &Registry{
		languages:  make(map[string]*Language, len(langs)),
		strategies: make(map[string]*Strategy),
	}
	for _, lang := range langs {
		if _, dup := r.languages[lang.Name]; dup {
			panic(fmt.Sprintf("deps: duplicate language %q", lang.Name))
		}
		r.languages[lang.Name] = lang
		r.names = append(r.names, lang.Name)
		for _, s := range lang.Strategies {
			if _, dup := r.strategies[s.Name]; dup {
				panic(fmt.Sprintf("deps: duplicate strategy %q", s.Name))
			}
			if s.Parse == nil {
				panic(fmt.Sprintf("deps: strategy %q has no parser", s.Name))
			}
			if s.Language == "" {
				s.Language = lang.Name
			}
			r.strategies[s.Name] = s
		}
	}
	slices.Sort(r.names)
	return r
}

// Lookup returns the language registered under name. Matching is exact.
func (r *Registry) Lookup(name string) (*Language, bool) {
	l, ok := r.languages[name]
	return l, ok
}

// Strategy returns the strategy registered under name.
func (r *Registry) Strategy(name string) (*Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns the registered language names in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Languages returns the registered languages sorted by name.
func (r *Registry) Languages() []*Language {
	out := make([]*Language, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.languages[n])
	}
	return out
}

// Supported returns a comma-separated list of language names for messages.
func (r *Registry) Supported() string {
	return strings.Join(r.names, ", ")
}
