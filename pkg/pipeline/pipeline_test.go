package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/deps/javascript"
	"github.com/matzehuels/shed/pkg/deps/languages"
	"github.com/matzehuels/shed/pkg/deps/python"
	"github.com/matzehuels/shed/pkg/detect"
	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/httputil"
	"github.com/matzehuels/shed/pkg/license"
	"github.com/matzehuels/shed/pkg/research"
	"github.com/matzehuels/shed/pkg/sandbox"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

type countingBackend struct {
	calls atomic.Int32
	fn    func(q research.Query) (*research.Findings, error)
}

func (b *countingBackend) Research(_ context.Context, q research.Query) (*research.Findings, error) {
	b.calls.Add(1)
	return b.fn(q)
}

func mitBackend() *countingBackend {
	return &countingBackend{fn: func(q research.Query) (*research.Findings, error) {
		return &research.Findings{License: "MIT", URLs: []string{"https://www.npmjs.com/package/" + q.Name}}, nil
	}}
}

func newTestRunner(t *testing.T, reg *deps.Registry, backend research.Backend) *Runner {
	t.Helper()
	resolver := license.New(backend, nil, nil)
	resolver.RetryBackoff = time.Millisecond

	extractor := sandbox.NewRunner(&sandbox.Local{TempDir: t.TempDir()}, nil)
	r := NewRunner(reg, extractor, resolver, nil)
	r.Detector = &detect.Detector{}
	return r
}

const lodashManifest = `{"name": "app", "dependencies": {"lodash": "^4.17.21"}}`

func TestExecute_Lodash(t *testing.T) {
	repo := writeRepo(t, map[string]string{"package.json": lodashManifest})
	r := newTestRunner(t, languages.Default, mitBackend())

	sum, err := r.Execute(context.Background(), repo, "app")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sum.State != StateDone {
		t.Fatalf("state = %s", sum.State)
	}
	if len(sum.Languages) == 0 || sum.Languages[0].Language != "javascript" {
		t.Fatalf("languages = %+v", sum.Languages)
	}

	mit := "MIT"
	want := []deps.Record{{
		Name:           "lodash",
		Version:        "^4.17.21",
		Ecosystem:      deps.EcosystemNPM,
		Transitive:     false,
		SourceStrategy: "package-json",
		License:        &mit,
		Status:         deps.StatusOpen,
		EvidenceURLs:   []string{"https://www.npmjs.com/package/lodash"},
	}}
	if diff := cmp.Diff(want, sum.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	wantStages := []State{StateDetecting, StateExtracting, StateNormalizing, StateResolvingLicenses}
	var gotStages []State
	for _, s := range sum.Stages {
		gotStages = append(gotStages, s.Stage)
	}
	if diff := cmp.Diff(wantStages, gotStages); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"npm-list", "pnpm-lock"}, sum.Diagnostics.SkippedStrategies); diff != "" {
		t.Errorf("skipped strategies (-want +got):\n%s", diff)
	}
	if sum.RunID == "" || sum.AppName != "app" {
		t.Errorf("run id %q app %q", sum.RunID, sum.AppName)
	}
}

func TestExecute_ExtractionTimeout(t *testing.T) {
	slow := &deps.Strategy{
		Name:      "slow-tree",
		Ecosystem: deps.EcosystemNPM,
		Command:   "echo partial; exec sleep 5",
		Manifests: []string{"package.json"},
		Timeout:   200 * time.Millisecond,
		Parse: func(out []byte) deps.ParseResult {
			var res deps.ParseResult
			res.Add("should-not-appear", "1.0.0", deps.EcosystemNPM, false, "slow-tree")
			return res
		},
	}
	reg := deps.NewRegistry(&deps.Language{
		Name:       "javascript",
		Ecosystem:  deps.EcosystemNPM,
		Strategies: []*deps.Strategy{slow, javascript.PackageJSON},
	})
	repo := writeRepo(t, map[string]string{"package.json": lodashManifest})
	r := newTestRunner(t, reg, mitBackend())

	sum, err := r.Execute(context.Background(), repo, "app")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sum.State != StateDone {
		t.Fatalf("state = %s, want done", sum.State)
	}
	if sum.Diagnostics.ExtractionTimeouts != 1 {
		t.Errorf("extraction timeouts = %d, want 1", sum.Diagnostics.ExtractionTimeouts)
	}
	if len(sum.Records) != 1 || sum.Records[0].Name != "lodash" {
		t.Errorf("records = %+v", sum.Records)
	}

	var timedOut *Extraction
	for i := range sum.Extractions {
		if sum.Extractions[i].Strategy == "slow-tree" {
			timedOut = &sum.Extractions[i]
		}
	}
	if timedOut == nil || !timedOut.TimedOut || timedOut.Records != 0 {
		t.Errorf("slow extraction = %+v", timedOut)
	}
	if !hasError(sum, StateExtracting, errors.ErrCodeExtractionTimeout) {
		t.Errorf("errors = %+v", sum.Errors)
	}
}

func TestExecute_LeftpadResearchExhausted(t *testing.T) {
	backend := &countingBackend{fn: func(research.Query) (*research.Findings, error) {
		return nil, httputil.Retryable(errors.New(errors.ErrCodeNetwork, "503 from search backend"))
	}}
	repo := writeRepo(t, map[string]string{"package.json": `{"dependencies": {"leftpad": "0.0.1"}}`})
	r := newTestRunner(t, languages.Default, backend)

	sum, err := r.Execute(context.Background(), repo, "app")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sum.State != StateDone {
		t.Fatalf("state = %s", sum.State)
	}
	if got := backend.calls.Load(); got != 3 {
		t.Errorf("backend calls = %d, want 3", got)
	}
	rec := sum.Records[0]
	if rec.Name != "leftpad" || rec.License != nil || rec.Status != deps.StatusUnknown || rec.ResearchError == "" {
		t.Errorf("record = %+v", rec)
	}
	if sum.Diagnostics.UnresolvedLicenses != 1 || sum.Diagnostics.FailedLicenseQueries != 1 {
		t.Errorf("diagnostics = %+v", sum.Diagnostics)
	}
	if !hasError(sum, StateResolvingLicenses, errors.ErrCodeResearchFailed) {
		t.Errorf("errors = %+v", sum.Errors)
	}
}

func TestExecute_Idempotent(t *testing.T) {
	repo := writeRepo(t, map[string]string{
		"package.json":     `{"dependencies": {"lodash": "^4.17.21", "express": "4.18.2"}, "devDependencies": {"jest": "29"}}`,
		"requirements.txt": "requests==2.28.1\nflask>=2\n",
		"app.py":           "import requests\n",
	})
	// Only strategies that read files, so the host needs no package managers.
	reg := deps.NewRegistry(
		&deps.Language{Name: "javascript", Ecosystem: deps.EcosystemNPM, Strategies: []*deps.Strategy{javascript.PackageJSON}},
		&deps.Language{Name: "python", Ecosystem: deps.EcosystemPip, Strategies: []*deps.Strategy{python.Requirements}},
	)
	backend := mitBackend()
	r := newTestRunner(t, reg, backend)
	r.Options.MinConfidence = 0.01

	first, err := r.Execute(context.Background(), repo, "app")
	if err != nil {
		t.Fatal(err)
	}
	calls := backend.calls.Load()
	second, err := r.Execute(context.Background(), repo, "app")
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.MarshalIndent(first.Records, "", "  ")
	b, _ := json.MarshalIndent(second.Records, "", "  ")
	if !bytes.Equal(a, b) {
		t.Errorf("runs differ:\n%s\n---\n%s", a, b)
	}
	if len(first.Records) != 5 {
		t.Errorf("records = %d, want 5", len(first.Records))
	}
	if backend.calls.Load() != calls {
		t.Errorf("warm run queried the backend %d more times", backend.calls.Load()-calls)
	}
	if second.Diagnostics.CacheHits != 5 {
		t.Errorf("cache hits = %d, want 5", second.Diagnostics.CacheHits)
	}
	if first.RunID == second.RunID {
		t.Error("run ids should differ")
	}
}

func TestExecute_UnsupportedLanguage(t *testing.T) {
	repo := writeRepo(t, map[string]string{
		"go.mod":  "module example.com/x\n",
		"main.go": "package main\n\nfunc main() {}\n",
	})
	r := newTestRunner(t, languages.Default, mitBackend())

	sum, err := r.Execute(context.Background(), repo, "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sum.State != StateDone || len(sum.Records) != 0 {
		t.Errorf("state %s records %d", sum.State, len(sum.Records))
	}
	if diff := cmp.Diff([]string{"go"}, sum.Diagnostics.UnsupportedLanguages); diff != "" {
		t.Errorf("unsupported (-want +got):\n%s", diff)
	}
	if !hasError(sum, StateDetecting, errors.ErrCodeUnsupportedLanguage) {
		t.Errorf("errors = %+v", sum.Errors)
	}
	if sum.AppName != filepath.Base(repo) {
		t.Errorf("app name = %q", sum.AppName)
	}
}

func TestExecute_Aborts(t *testing.T) {
	r := newTestRunner(t, languages.Default, mitBackend())

	t.Run("missing repository", func(t *testing.T) {
		sum, err := r.Execute(context.Background(), filepath.Join(t.TempDir(), "nope"), "app")
		if !errors.Is(err, errors.ErrCodeAborted) {
			t.Fatalf("err = %v, want ABORTED", err)
		}
		if sum.State != StateAborted || len(sum.Records) != 0 {
			t.Errorf("summary = %+v", sum)
		}
	})

	t.Run("nothing to classify", func(t *testing.T) {
		repo := writeRepo(t, map[string]string{"notes.bin": "\x00\x01"})
		sum, err := r.Execute(context.Background(), repo, "app")
		if !errors.Is(err, errors.ErrCodeAborted) || !errors.Is(err, errors.ErrCodeDetection) {
			t.Fatalf("err = %v, want ABORTED wrapping DETECTION_FAILED", err)
		}
		if sum.State != StateAborted || !hasError(sum, StateDetecting, errors.ErrCodeDetection) {
			t.Errorf("summary = %+v", sum)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		repo := writeRepo(t, map[string]string{"package.json": lodashManifest})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sum, err := r.Execute(ctx, repo, "app")
		if !errors.Is(err, errors.ErrCodeAborted) || sum.State != StateAborted {
			t.Fatalf("state %s err %v", sum.State, err)
		}
	})
}

type recordingSink struct {
	got *Summary
	err error
}

func (s *recordingSink) Write(_ context.Context, sum *Summary) error {
	s.got = sum
	return s.err
}

func TestExecute_Sinks(t *testing.T) {
	repo := writeRepo(t, map[string]string{"package.json": lodashManifest})
	r := newTestRunner(t, languages.Default, mitBackend())
	ok := &recordingSink{}
	broken := &recordingSink{err: errors.New(errors.ErrCodeInternal, "disk full")}
	r.Sinks = []Sink{ok, broken}

	sum, err := r.Execute(context.Background(), repo, "app")
	if err != nil {
		t.Fatal(err)
	}
	if ok.got == nil || ok.got.RunID != sum.RunID || len(ok.got.Records) != 1 {
		t.Errorf("sink got %+v", ok.got)
	}
	if !strings.Contains(sum.Errors[len(sum.Errors)-1].Message, "disk full") {
		t.Errorf("errors = %+v", sum.Errors)
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateDetecting, StateExtracting, true},
		{StateExtracting, StateNormalizing, true},
		{StateNormalizing, StateResolvingLicenses, true},
		{StateResolvingLicenses, StateDone, true},
		{StateExtracting, StateAborted, true},
		{StateDetecting, StateNormalizing, false},
		{StateNormalizing, StateExtracting, false},
		{StateDone, StateAborted, false},
		{StateAborted, StateDetecting, false},
		{StateDetecting, StateDone, false},
	}
	for _, tt := range tests {
		if got := tt.from.canAdvance(tt.to); got != tt.ok {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func hasError(sum *Summary, stage State, code errors.Code) bool {
	for _, e := range sum.Errors {
		if e.Stage == stage && e.Code == code {
			return true
		}
	}
	return false
}
