// Package research looks up licensing evidence for a dependency.
//
// A [Backend] answers one [Query] with [Findings]: free text mentioning the
// license, the URLs the text came from, and the declared license when the
// source states one outright. Backends do not classify; deciding whether a
// license is open source belongs to the license resolver.
//
// Transient failures (network errors, 5xx, 429) are returned wrapped in
// [httputil.RetryableError] so callers can retry them. Every other error is
// permanent for the query.
//
// [httputil.RetryableError]: github.com/matzehuels/shed/pkg/httputil.RetryableError
package research

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

// ErrNoSource is returned when a backend has nothing to ask for the query's
// ecosystem.
var ErrNoSource = errors.New("no research source for ecosystem")

// Query identifies the dependency to research.
type Query struct {
	Name      string
	Ecosystem deps.Ecosystem
	Version   string // optional; backends may ignore it
}

// String returns "ecosystem/name".
func (q Query) String() string {
	return string(q.Ecosystem) + "/" + q.Name
}

// Findings is the evidence a backend gathered.
type Findings struct {
	Text    string   // prose or metadata mentioning the license
	URLs    []string // evidence sources, most authoritative first
	License string   // declared license, empty when the source has none
	Source  string   // backend name
}

// Backend researches licenses.
type Backend interface {
	Research(ctx context.Context, q Query) (*Findings, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, q Query) (*Findings, error)

// Research calls f.
func (f BackendFunc) Research(ctx context.Context, q Query) (*Findings, error) {
	return f(ctx, q)
}

// merge combines b into a; a's license wins when both have one.
func merge(a, b *Findings) *Findings {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := *a
	out.URLs = append([]string(nil), a.URLs...)
	for _, u := range b.URLs {
		if !slices.Contains(out.URLs, u) {
			out.URLs = append(out.URLs, u)
		}
	}
	if out.License == "" {
		out.License = b.License
	}
	out.Text = strings.TrimSpace(strings.Join([]string{a.Text, b.Text}, "\n"))
	if a.Source != b.Source && b.Source != "" {
		out.Source = a.Source + "+" + b.Source
	}
	return &out
}
