package license

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/matzehuels/shed/pkg/cache"
	"github.com/matzehuels/shed/pkg/deps"
	shederrors "github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/httputil"
	"github.com/matzehuels/shed/pkg/research"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text   string
		name   string
		status deps.Status
	}{
		{"", "", deps.StatusUnknown},
		{"MIT", "MIT", deps.StatusOpen},
		{"Licensed under the Apache License, Version 2.0", "Apache-2.0", deps.StatusOpen},
		{"MIT OR Apache-2.0", "MIT", deps.StatusOpen},
		{"BSD-3-Clause", "BSD-3-Clause", deps.StatusOpen},
		{"Copyright (c) 2020. All rights reserved. BSD License", "BSD", deps.StatusOpen},
		{"GNU Lesser General Public License v3", "LGPL", deps.StatusOpen},
		{"AGPL-3.0-only", "AGPL-3.0", deps.StatusOpen},
		{"GPL-2.0", "GPL", deps.StatusOpen},
		{"released under the WTFPL", "WTFPL", deps.StatusOpen},
		{"This software is proprietary.", "Proprietary", deps.StatusProprietary},
		{"Server Side Public License", "SSPL-1.0", deps.StatusProprietary},
		{"Business Source License 1.1", "BUSL-1.1", deps.StatusProprietary},
		{"Copyright Acme Inc. All rights reserved.", "Proprietary", deps.StatusProprietary},
		{"dual licensed: GPL-3.0 or a commercial license", "GPL", deps.StatusUnknown},
		{"a small helper library", "", deps.StatusUnknown},
		{"Permission is granted by the mitigation team", "", deps.StatusUnknown},
	}
	for _, tt := range tests {
		name, status := Classify(tt.text)
		if name != tt.name || status != tt.status {
			t.Errorf("Classify(%q) = %q, %s; want %q, %s", tt.text, name, status, tt.name, tt.status)
		}
	}
}

func TestClassifyDeclared(t *testing.T) {
	name, status := ClassifyDeclared(" MIT OR Apache-2.0 ")
	if name != "MIT OR Apache-2.0" || status != deps.StatusOpen {
		t.Errorf("got %q, %s", name, status)
	}
	name, status = ClassifyDeclared("SEE LICENSE IN LICENSE.txt")
	if name != "SEE LICENSE IN LICENSE.txt" || status != deps.StatusUnknown {
		t.Errorf("got %q, %s", name, status)
	}
}

func TestCache_FirstWriterWins(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryCache()
	key := deps.KeyOf("lodash", deps.EcosystemNPM)

	c := NewCache(backend, time.Hour, nil)
	first := c.Add(ctx, key, Entry{License: "MIT", Status: deps.StatusOpen})
	second := c.Add(ctx, key, Entry{License: "GPL", Status: deps.StatusOpen})
	if first.License != "MIT" || second.License != "MIT" {
		t.Fatalf("first=%+v second=%+v, want MIT twice", first, second)
	}

	// A second process sharing the backend sees the first write too.
	other := NewCache(backend, time.Hour, nil)
	if got := other.Add(ctx, key, Entry{License: "ISC", Status: deps.StatusOpen}); got.License != "MIT" {
		t.Errorf("other process stored %q, want MIT", got.License)
	}
	if e, ok := other.Get(ctx, key); !ok || e.License != "MIT" {
		t.Errorf("Get = %+v, %v", e, ok)
	}
}

func TestCache_ConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	c := NewCache(cache.NewMemoryCache(), time.Hour, nil)
	key := deps.KeyOf("requests", deps.EcosystemPip)

	var wg sync.WaitGroup
	got := make([]string, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lic := "MIT"
			if i%2 == 1 {
				lic = "Apache-2.0"
			}
			got[i] = c.Add(ctx, key, Entry{License: lic, Status: deps.StatusOpen}).License
		}()
	}
	wg.Wait()
	for _, g := range got[1:] {
		if g != got[0] {
			t.Fatalf("writers disagree: %v", got)
		}
	}
}

// ttlRecorder records the ttl of every Add.
type ttlRecorder struct {
	*cache.MemoryCache
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func (r *ttlRecorder) Add(ctx context.Context, key string, data []byte, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	r.ttls[key] = ttl
	r.mu.Unlock()
	return r.MemoryCache.Add(ctx, key, data, ttl)
}

func TestCache_UnknownEntriesExpireSooner(t *testing.T) {
	ctx := context.Background()
	rec := &ttlRecorder{MemoryCache: cache.NewMemoryCache(), ttls: make(map[string]time.Duration)}
	c := NewCache(rec, DefaultTTL, nil)

	c.Add(ctx, deps.KeyOf("lodash", deps.EcosystemNPM), Entry{License: "MIT", Status: deps.StatusOpen})
	c.Add(ctx, deps.KeyOf("obscure", deps.EcosystemNPM), Entry{Status: deps.StatusUnknown})

	want := map[string]time.Duration{
		c.backendKey(deps.KeyOf("lodash", deps.EcosystemNPM)):  DefaultTTL,
		c.backendKey(deps.KeyOf("obscure", deps.EcosystemNPM)): DefaultUnknownTTL,
	}
	if diff := cmp.Diff(want, rec.ttls); diff != "" {
		t.Errorf("ttls (-want +got):\n%s", diff)
	}

	short := NewCache(rec, time.Hour, nil)
	short.Add(ctx, deps.KeyOf("tiny", deps.EcosystemNPM), Entry{Status: deps.StatusUnknown})
	if got := rec.ttls[short.backendKey(deps.KeyOf("tiny", deps.EcosystemNPM))]; got != time.Hour {
		t.Errorf("unknown ttl = %v, want capped at the cache ttl", got)
	}
}

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(q research.Query, call int) (*research.Findings, error)
}

func (b *fakeBackend) Research(_ context.Context, q research.Query) (*research.Findings, error) {
	b.mu.Lock()
	if b.calls == nil {
		b.calls = make(map[string]int)
	}
	b.calls[q.Name]++
	n := b.calls[q.Name]
	b.mu.Unlock()
	return b.fn(q, n)
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func newTestResolver(b research.Backend) *Resolver {
	r := New(b, nil, nil)
	r.RetryBackoff = time.Millisecond
	return r
}

func TestResolve_LeftpadRetriesExhausted(t *testing.T) {
	b := &fakeBackend{fn: func(q research.Query, _ int) (*research.Findings, error) {
		if q.Name == "leftpad" {
			return nil, httputil.Retryable(errors.New("503 service unavailable"))
		}
		return &research.Findings{License: "MIT", URLs: []string{"https://npmjs.com/package/" + q.Name}}, nil
	}}
	r := newTestResolver(b)

	in := []deps.Record{
		deps.NewRecord("leftpad", "1.3.0", deps.EcosystemNPM, false, "npm-list"),
		deps.NewRecord("lodash", "4.17.21", deps.EcosystemNPM, false, "npm-list"),
	}
	out, stats := r.Resolve(context.Background(), in)

	if got := b.count("leftpad"); got != 3 {
		t.Errorf("leftpad queried %d times, want 3", got)
	}
	left := out[0]
	if left.License != nil || left.Status != deps.StatusUnknown {
		t.Errorf("leftpad = license %v status %s", left.License, left.Status)
	}
	if !strings.Contains(left.ResearchError, "after 3 attempts") || !strings.Contains(left.ResearchError, "503") {
		t.Errorf("ResearchError = %q", left.ResearchError)
	}
	if out[1].LicenseName() != "MIT" || out[1].Status != deps.StatusOpen {
		t.Errorf("lodash = %+v", out[1])
	}
	want := Stats{Queried: 2, Resolved: 1, Unresolved: 1, Failed: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if in[0].ResearchError != "" || in[1].License != nil {
		t.Error("input records were modified")
	}
}

func TestResolve_PermanentFailureNotRetried(t *testing.T) {
	b := &fakeBackend{fn: func(research.Query, int) (*research.Findings, error) {
		return nil, research.ErrNoSource
	}}
	r := newTestResolver(b)
	out, _ := r.Resolve(context.Background(), []deps.Record{deps.NewRecord("x", "", deps.EcosystemOther, false, "s")})
	if b.count("x") != 1 {
		t.Errorf("calls = %d, want 1", b.count("x"))
	}
	if out[0].Status != deps.StatusUnknown || out[0].ResearchError == "" {
		t.Errorf("record = %+v", out[0])
	}
}

func TestResolve_TransientThenSuccess(t *testing.T) {
	b := &fakeBackend{fn: func(_ research.Query, call int) (*research.Findings, error) {
		if call < 3 {
			return nil, httputil.Retryable(errors.New("429"))
		}
		return &research.Findings{Text: "Licensed under the ISC license"}, nil
	}}
	out, stats := newTestResolver(b).Resolve(context.Background(), []deps.Record{
		deps.NewRecord("inherits", "2.0.4", deps.EcosystemNPM, true, "npm-list"),
	})
	if out[0].LicenseName() != "ISC" || out[0].Status != deps.StatusOpen || out[0].ResearchError != "" {
		t.Errorf("record = %+v", out[0])
	}
	if stats.Failed != 0 || stats.Resolved != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestResolve_StatusCompleteness(t *testing.T) {
	b := &fakeBackend{fn: func(q research.Query, _ int) (*research.Findings, error) {
		switch q.Name {
		case "open":
			return &research.Findings{License: "BSD-2-Clause"}, nil
		case "closed":
			return &research.Findings{Text: "Commercial license required. All rights reserved."}, nil
		case "silent":
			return &research.Findings{Text: "nothing to see"}, nil
		}
		return nil, errors.New("boom")
	}}
	declared := "Apache-2.0"
	pre := deps.NewRecord("pre", "1", deps.EcosystemMaven, false, "s")
	pre.License = &declared

	in := []deps.Record{
		deps.NewRecord("open", "1", deps.EcosystemGem, false, "s"),
		deps.NewRecord("closed", "1", deps.EcosystemGem, false, "s"),
		deps.NewRecord("silent", "1", deps.EcosystemGem, false, "s"),
		deps.NewRecord("broken", "1", deps.EcosystemGem, false, "s"),
		pre,
	}
	out, _ := newTestResolver(b).Resolve(context.Background(), in)

	want := map[string]deps.Status{
		"open":   deps.StatusOpen,
		"closed": deps.StatusProprietary,
		"silent": deps.StatusUnknown,
		"broken": deps.StatusUnknown,
		"pre":    deps.StatusOpen,
	}
	for _, rec := range out {
		if !rec.Status.Valid() {
			t.Errorf("%s has invalid status %q", rec.Name, rec.Status)
		}
		if rec.Status != want[rec.Name] {
			t.Errorf("%s status = %s, want %s", rec.Name, rec.Status, want[rec.Name])
		}
	}
	if b.count("pre") != 0 {
		t.Error("record with a declared license was queried")
	}
}

func TestResolve_OneQueryPerIdentity(t *testing.T) {
	var calls atomic.Int32
	b := research.BackendFunc(func(context.Context, research.Query) (*research.Findings, error) {
		calls.Add(1)
		return &research.Findings{License: "Apache-2.0"}, nil
	})
	r := newTestResolver(b)
	r.Concurrency = 4

	in := []deps.Record{
		deps.NewRecord("Requests", "2.28.1", deps.EcosystemPip, false, "a"),
		deps.NewRecord("requests", "2.31.0", deps.EcosystemPip, true, "b"),
		deps.NewRecord("python_requests", "1", deps.EcosystemPip, false, "c"),
	}
	out, stats := r.Resolve(context.Background(), in)
	if got := calls.Load(); got != 2 {
		t.Errorf("backend calls = %d, want 2", got)
	}
	for _, rec := range out {
		if rec.LicenseName() != "Apache-2.0" {
			t.Errorf("%s license = %q", rec.Name, rec.LicenseName())
		}
	}

	// Warm cache: nothing is queried again.
	_, stats = r.Resolve(context.Background(), in)
	if calls.Load() != 2 || stats.CacheHits != 2 || stats.Queried != 0 {
		t.Errorf("second run calls=%d stats=%+v", calls.Load(), stats)
	}
}

func TestResolve_UnlicensedResultIsCached(t *testing.T) {
	b := &fakeBackend{fn: func(q research.Query, _ int) (*research.Findings, error) {
		if q.Name == "flaky" {
			return nil, errors.New("boom")
		}
		return &research.Findings{
			Text: "an obscure helper with no license text",
			URLs: []string{"https://example.test/" + q.Name},
		}, nil
	}}
	c := NewCache(cache.NewMemoryCache(), time.Hour, nil)
	r := New(b, c, nil)
	r.RetryBackoff = time.Millisecond

	in := []deps.Record{
		deps.NewRecord("obscure", "0.1.0", deps.EcosystemNPM, false, "npm-list"),
		deps.NewRecord("flaky", "1.0.0", deps.EcosystemNPM, false, "npm-list"),
	}
	first, _ := r.Resolve(context.Background(), in)
	second, stats := r.Resolve(context.Background(), in)

	if got := b.count("obscure"); got != 1 {
		t.Errorf("obscure queried %d times, want 1", got)
	}
	if got := b.count("flaky"); got != 2 {
		t.Errorf("failed lookup queried %d times, want 2", got)
	}
	if stats.CacheHits != 1 || stats.Queried != 1 {
		t.Errorf("second run stats = %+v", stats)
	}
	if diff := cmp.Diff(first[0], second[0]); diff != "" {
		t.Errorf("cached unknown record differs (-first +second):\n%s", diff)
	}
	if second[0].Status != deps.StatusUnknown || second[0].License != nil {
		t.Errorf("obscure = %+v", second[0])
	}
}

func TestResolve_Cancelled(t *testing.T) {
	release := make(chan struct{})
	b := research.BackendFunc(func(ctx context.Context, _ research.Query) (*research.Findings, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return &research.Findings{License: "MIT"}, nil
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	in := make([]deps.Record, 20)
	for i := range in {
		in[i] = deps.NewRecord(string(rune('a'+i)), "1", deps.EcosystemNPM, false, "s")
	}
	out, _ := newTestResolver(b).Resolve(ctx, in)
	for _, rec := range out {
		if rec.License != nil || rec.Status != deps.StatusUnknown {
			t.Fatalf("%s resolved after cancellation", rec.Name)
		}
		if !strings.Contains(rec.ResearchError, string(shederrors.ErrCodeAborted)) {
			t.Errorf("%s ResearchError = %q", rec.Name, rec.ResearchError)
		}
	}
}
