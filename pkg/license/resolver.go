// Package license resolves and classifies the licenses of dependency
// records.
//
// The [Resolver] asks a [research.Backend] about every record without a
// license, caches every completed lookup per (ecosystem, name) and
// classifies the evidence with [Classify]. Transient backend failures are
// retried with exponential backoff; a record whose lookups keep failing
// keeps a nil license, gets status unknown and carries the failure reason.
// Failed lookups are not cached. Failures never abort resolution of other
// records.
package license

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/httputil"
	"github.com/matzehuels/shed/pkg/observability"
	"github.com/matzehuels/shed/pkg/research"
)

// Defaults applied by New.
const (
	DefaultConcurrency   = 8
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = time.Second
)

// Stats summarizes one Resolve call.
type Stats struct {
	Queried    int `json:"queried"`    // distinct keys sent to the backend
	CacheHits  int `json:"cache_hits"` // distinct keys answered from cache
	Resolved   int `json:"resolved"`   // records with a license
	Unresolved int `json:"unresolved"` // records with status unknown
	Failed     int `json:"failed"`     // records whose research failed
}

// Resolver fills in licenses and open-source status.
type Resolver struct {
	Backend       research.Backend
	Cache         *Cache
	Concurrency   int
	RetryAttempts int
	RetryBackoff  time.Duration
	Logger        *log.Logger

	group singleflight.Group
}

// New returns a Resolver with default limits. A nil cache keeps results in
// memory for the life of the Resolver.
func New(backend research.Backend, c *Cache, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if c == nil {
		c = NewCache(nil, 0, logger)
	}
	return &Resolver{
		Backend:       backend,
		Cache:         c,
		Concurrency:   DefaultConcurrency,
		RetryAttempts: DefaultRetryAttempts,
		RetryBackoff:  DefaultRetryBackoff,
		Logger:        logger,
	}
}

type outcome struct {
	entry Entry
	hit   bool
	err   error
}

// Resolve returns a copy of records with license, status and evidence
// filled in. Records that already carry a license are classified without a
// query. The input slice is not modified and the output keeps its order.
func (r *Resolver) Resolve(ctx context.Context, records []deps.Record) ([]deps.Record, Stats) {
	out := make([]deps.Record, len(records))
	copy(out, records)

	// One query per identity, using the first version seen.
	var (
		keys    []deps.Key
		queries = make(map[deps.Key]research.Query)
	)
	for i := range out {
		rec := &out[i]
		if rec.License != nil {
			name, status := ClassifyDeclared(*rec.License)
			rec.License = &name
			rec.Status = status
			continue
		}
		k := rec.Key()
		if _, ok := queries[k]; ok {
			continue
		}
		keys = append(keys, k)
		q := research.Query{Name: rec.Name, Ecosystem: rec.Ecosystem}
		if rec.HasVersion() {
			q.Version = rec.Version
		}
		queries[k] = q
	}

	results := make([]outcome, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Concurrency, 1))
	for i, k := range keys {
		g.Go(func() error {
			e, hit, err := r.lookup(gctx, k, queries[k])
			results[i] = outcome{entry: e, hit: hit, err: err}
			return nil
		})
	}
	_ = g.Wait()

	byKey := make(map[deps.Key]outcome, len(keys))
	var stats Stats
	for i, k := range keys {
		o := results[i]
		byKey[k] = o
		switch {
		case o.hit:
			stats.CacheHits++
		case o.err == nil || !errors.Is(o.err, errors.ErrCodeAborted):
			stats.Queried++
		}
	}

	for i := range out {
		rec := &out[i]
		if o, ok := byKey[rec.Key()]; ok && rec.License == nil {
			apply(rec, o)
		}
		if rec.License != nil {
			stats.Resolved++
		}
		if rec.Status == deps.StatusUnknown {
			stats.Unresolved++
		}
		if rec.ResearchError != "" {
			stats.Failed++
		}
	}
	return out, stats
}

func apply(rec *deps.Record, o outcome) {
	if o.err != nil {
		rec.License = nil
		rec.Status = deps.StatusUnknown
		rec.ResearchError = o.err.Error()
		return
	}
	if o.entry.License != "" {
		lic := o.entry.License
		rec.License = &lic
	}
	rec.Status = o.entry.Status
	if !rec.Status.Valid() {
		rec.Status = deps.StatusUnknown
	}
	for _, u := range o.entry.EvidenceURLs {
		if !slices.Contains(rec.EvidenceURLs, u) {
			rec.EvidenceURLs = append(rec.EvidenceURLs, u)
		}
	}
}

func (r *Resolver) lookup(ctx context.Context, key deps.Key, q research.Query) (Entry, bool, error) {
	if e, ok := r.Cache.Get(ctx, key); ok {
		return e, true, nil
	}

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		return r.research(ctx, key, q)
	})
	if err != nil {
		return Entry{}, false, err
	}
	return v.(Entry), false, nil
}

func (r *Resolver) research(ctx context.Context, key deps.Key, q research.Query) (Entry, error) {
	var (
		findings *research.Findings
		attempts int
	)
	err := httputil.Retry(ctx, r.RetryAttempts, r.RetryBackoff, func() error {
		attempts++
		f, err := r.Backend.Research(ctx, q)
		if err != nil {
			r.Logger.Debug("license research failed", "package", key, "attempt", attempts, "err", err)
			return err
		}
		findings = f
		return nil
	})
	observability.Pipeline().OnResearch(ctx, string(key.Ecosystem), key.Name, attempts, err)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			return Entry{}, errors.Wrap(errors.ErrCodeAborted, err, "research %s cancelled", key)
		case httputil.IsRetryable(err):
			r.Logger.Warn("license research gave up", "package", key, "attempts", attempts, "err", err)
			return Entry{}, errors.Wrap(errors.ErrCodeResearchTransient, err,
				"research %s failed after %d attempts", key, attempts)
		default:
			r.Logger.Warn("license research failed", "package", key, "err", err)
			return Entry{}, errors.Wrap(errors.ErrCodeResearchFailed, err, "research %s", key)
		}
	}

	return r.Cache.Add(ctx, key, entryFrom(findings)), nil
}

func entryFrom(f *research.Findings) Entry {
	if f == nil {
		return Entry{Status: deps.StatusUnknown}
	}
	e := Entry{
		Status:       deps.StatusUnknown,
		EvidenceURLs: slices.Clone(f.URLs),
		Source:       f.Source,
	}
	if f.License != "" {
		e.License, e.Status = ClassifyDeclared(f.License)
		if e.Status != deps.StatusUnknown {
			return e
		}
	}
	if name, status := Classify(f.Text); name != "" {
		e.Status = status
		if status != deps.StatusUnknown || e.License == "" {
			e.License = name
		}
	}
	return e
}

// String renders stats for logs.
func (s Stats) String() string {
	return fmt.Sprintf("queried=%d cache_hits=%d resolved=%d unresolved=%d failed=%d",
		s.Queried, s.CacheHits, s.Resolved, s.Unresolved, s.Failed)
}
