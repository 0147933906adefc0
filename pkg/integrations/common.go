package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// PackageLicense is the license metadata a registry publishes for one
// package version.
type PackageLicense struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	License string   `json:"license,omitempty"` // as declared; may be empty or an expression
	URLs    []string `json:"urls,omitempty"`    // registry page first, then repository and homepage
}

// AddURL appends u when it is non-empty and not yet present.
func (p *PackageLicense) AddURL(u string) {
	u = strings.TrimSpace(u)
	if u == "" {
		return
	}
	for _, existing := range p.URLs {
		if existing == u {
			return
		}
	}
	p.URLs = append(p.URLs, u)
}

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI and other registries.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, and git+ prefixes, and removes .git suffixes.
// Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	return strings.TrimSuffix(s, ".git")
}

// ExactVersion reports whether v names a single release rather than a
// range, a tag or the unknown placeholder.
func ExactVersion(v string) bool {
	if v == "" || v == "unknown" || v == "latest" {
		return false
	}
	if strings.ContainsAny(v, "^~<>=*|, []()") {
		return false
	}
	for _, part := range strings.Split(v, ".") {
		if part == "x" || part == "X" {
			return false
		}
	}
	return true
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }

// PathEscape percent-encodes a path segment.
func PathEscape(s string) string { return url.PathEscape(s) }
