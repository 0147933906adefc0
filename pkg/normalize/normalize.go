// Package normalize turns raw extractor output into a merged record list.
package normalize

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/sandbox"
)

// StrategyLookup resolves a strategy by name. *deps.Registry implements it.
type StrategyLookup interface {
	Strategy(name string) (*deps.Strategy, bool)
}

// StrategyStats reports what one strategy contributed.
type StrategyStats struct {
	Records int `json:"records"`
	Skipped int `json:"skipped"`
}

// Output is the normalized view of a set of extraction results.
type Output struct {
	Records     []deps.Record            `json:"records"`
	Skipped     int                      `json:"skipped"`
	PerStrategy map[string]StrategyStats `json:"per_strategy"`
}

// Normalizer parses and merges extraction results.
type Normalizer struct {
	Logger *log.Logger
}

// New returns a Normalizer logging to logger; nil discards.
func New(logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Normalizer{Logger: logger}
}

// Normalize parses every result with its strategy's parser and merges the
// records. Timed-out results and results for unknown strategies contribute
// nothing; non-zero exits are still parsed. Malformed entries are counted
// and logged, never fatal. The output does not depend on result order.
func (n *Normalizer) Normalize(results []*sandbox.Result, lookup StrategyLookup) Output {
	out := Output{PerStrategy: make(map[string]StrategyStats)}
	groups := make([][]deps.Record, 0, len(results))

	for _, res := range results {
		if res == nil || res.TimedOut {
			continue
		}
		s, ok := lookup.Strategy(res.Strategy)
		if !ok {
			n.logger().Warn("result for unknown strategy", "strategy", res.Strategy)
			continue
		}

		parsed := s.Parse(res.Stdout)
		for _, p := range parsed.Problems {
			n.logger().Debug("parse skip", "strategy", s.Name, "problem", p)
		}
		if parsed.Skipped > 0 {
			n.logger().Warn("skipped malformed entries", "strategy", s.Name, "count", parsed.Skipped)
		}
		if res.ExitCode != 0 {
			n.logger().Warn("extractor exited non-zero", "strategy", s.Name, "exit", res.ExitCode, "records", len(parsed.Records))
		}

		stats := out.PerStrategy[s.Name]
		stats.Records += len(parsed.Records)
		stats.Skipped += parsed.Skipped
		out.PerStrategy[s.Name] = stats
		out.Skipped += parsed.Skipped
		groups = append(groups, parsed.Records)
	}

	out.Records = deps.Merge(groups...)
	return out
}

func (n *Normalizer) logger() *log.Logger {
	if n.Logger == nil {
		return log.New(io.Discard)
	}
	return n.Logger
}
