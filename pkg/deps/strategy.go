package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds a single extractor invocation when the strategy
// does not set its own.
const DefaultTimeout = 10 * time.Minute

// ParseFunc turns an extractor's stdout into records. Implementations must
// not fail as a whole: malformed entries are skipped and counted.
type ParseFunc func(out []byte) ParseResult

// ParseResult is the outcome of parsing one extraction result.
type ParseResult struct {
	Records  []Record
	Skipped  int      // entries that could not be parsed
	Problems []string // one message per skipped entry
}

// Add appends a record built with NewRecord.
func (p *ParseResult) Add(name, version string, eco Ecosystem, transitive bool, strategy string) {
	p.Records = append(p.Records, NewRecord(name, version, eco, transitive, strategy))
}

// Skip counts one unparseable entry.
func (p *ParseResult) Skip(format string, args ...any) {
	p.Skipped++
	p.Problems = append(p.Problems, fmt.Sprintf(format, args...))
}

// Strategy describes one way of listing a language's dependencies.
type Strategy struct {
	Name      string        // unique across the registry, e.g. "pipdeptree"
	Language  string        // owning language
	Ecosystem Ecosystem     // ecosystem of every record it produces
	Command   string        // shell script run in the repository copy
	Manifests []string      // root-level globs; at least one must match
	Unless    []string      // root-level globs that make the strategy redundant
	Image     string        // container image override; empty uses the runner default
	Timeout   time.Duration // zero means DefaultTimeout
	Parse     ParseFunc
}

// Applies reports whether the strategy should run for the repository at
// root: one of its manifests exists and none of its Unless files do.
func (s *Strategy) Applies(root string) bool {
	if !anyMatch(root, s.Manifests) {
		return false
	}
	return !anyMatch(root, s.Unless)
}

// EffectiveTimeout returns the configured timeout or DefaultTimeout.
func (s *Strategy) EffectiveTimeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}

func anyMatch(root string, patterns []string) bool {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				return true
			}
		}
	}
	return false
}

// Language groups the strategies available for one implementation language.
type Language struct {
	Name       string
	Ecosystem  Ecosystem
	Strategies []*Strategy
}

// Applicable returns the strategies that apply to the repository at root,
// in registration order.
func (l *Language) Applicable(root string) []*Strategy {
	var out []*Strategy
	for _, s := range l.Strategies {
		if s.Applies(root) {
			out = append(out, s)
		}
	}
	return out
}
