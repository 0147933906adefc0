package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/detect"
	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/normalize"
	"github.com/matzehuels/shed/pkg/observability"
	"github.com/matzehuels/shed/pkg/sandbox"
)

// Runner executes pipeline runs. It holds no per-run state, so one Runner
// may execute several runs concurrently.
type Runner struct {
	Detector   Detector
	Registry   *deps.Registry
	Extractor  Extractor
	Normalizer *normalize.Normalizer
	Resolver   Resolver
	Sinks      []Sink
	Options    Options
	Logger     *log.Logger
}

// NewRunner creates a runner with a default detector and normalizer.
func NewRunner(reg *deps.Registry, ex Extractor, res Resolver, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Detector:   detect.New(logger),
		Registry:   reg,
		Extractor:  ex,
		Normalizer: normalize.New(logger),
		Resolver:   res,
		Options:    Options{}.WithDefaults(),
		Logger:     logger,
	}
}

// run is the mutable state of one Execute call.
type run struct {
	*Runner
	opts    Options
	summary Summary
	stageAt time.Time
}

// Execute inventories the repository at repoPath. It always returns a
// summary; the error is non-nil only when the run aborted, in which case
// it carries ErrCodeAborted (and ErrCodeDetection when nothing could be
// classified).
func (r *Runner) Execute(ctx context.Context, repoPath, appName string) (*Summary, error) {
	x := &run{
		Runner: r,
		opts:   r.Options.WithDefaults(),
		summary: Summary{
			RunID:     uuid.NewString(),
			AppName:   appName,
			Repo:      repoPath,
			State:     StateDetecting,
			StartedAt: time.Now().UTC(),
		},
	}
	if abs, err := filepath.Abs(repoPath); err == nil {
		x.summary.Repo = abs
	}
	if x.summary.AppName == "" {
		x.summary.AppName = filepath.Base(x.summary.Repo)
	}

	if err := errors.ValidateRepoPath(repoPath); err != nil {
		return x.abort(errors.Wrap(errors.ErrCodeAborted, err, "repository unreadable"))
	}
	if err := errors.ValidateAppName(x.summary.AppName); err != nil {
		return x.abort(errors.Wrap(errors.ErrCodeAborted, err, "invalid application name"))
	}

	ctx, cancel := context.WithTimeout(ctx, x.opts.RunTimeout)
	defer cancel()

	r.Logger.Info("starting run", "run", x.summary.RunID, "repo", x.summary.Repo, "app", x.summary.AppName)
	x.enter(ctx, StateDetecting)

	langs, err := x.detect(ctx)
	if err != nil {
		return x.abort(err)
	}

	if err := x.advance(ctx, StateExtracting); err != nil {
		return x.abort(err)
	}
	results := x.extract(ctx, langs)

	if err := x.advance(ctx, StateNormalizing); err != nil {
		return x.abort(err)
	}
	records := x.normalize(results)

	if err := x.advance(ctx, StateResolvingLicenses); err != nil {
		return x.abort(err)
	}
	records = x.resolve(ctx, records)
	x.summary.Records = records

	if err := x.advance(ctx, StateDone); err != nil {
		return x.abort(err)
	}
	x.summary.FinishedAt = time.Now().UTC()
	out := x.freeze()

	for _, sink := range r.Sinks {
		if err := sink.Write(ctx, out); err != nil {
			r.Logger.Error("sink failed", "run", out.RunID, "error", err)
			out.Errors = append(out.Errors, StageError{
				Stage:   StateDone,
				Code:    codeOf(err, errors.ErrCodeInternal),
				Subject: "sink",
				Message: errors.Describe(err),
			})
		}
	}

	r.Logger.Info("run complete",
		"run", out.RunID,
		"records", len(out.Records),
		"unresolved", out.Diagnostics.UnresolvedLicenses,
		"duration", out.FinishedAt.Sub(out.StartedAt).Round(time.Millisecond))
	return out, nil
}

// =============================================================================
// Stages
// =============================================================================

func (x *run) detect(ctx context.Context) ([]*deps.Language, error) {
	stageCtx, cancel := context.WithTimeout(ctx, x.opts.StageTimeout)
	defer cancel()

	candidates, err := x.Detector.Detect(stageCtx, x.summary.Repo)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeAborted, ctx.Err(), "run cancelled while detecting")
		}
		return nil, errors.Wrap(errors.ErrCodeAborted, err, "detection failed")
	}
	x.summary.Languages = candidates

	var langs []*deps.Language
	for i, c := range candidates {
		if !x.selected(i, c) {
			continue
		}
		lang, ok := x.Registry.Lookup(c.Language)
		if !ok {
			x.summary.Diagnostics.UnsupportedLanguages = append(x.summary.Diagnostics.UnsupportedLanguages, c.Language)
			x.record(StateDetecting, c.Language, errors.New(errors.ErrCodeUnsupportedLanguage,
				"no extraction strategy for %s (supported: %s)", c.Language, x.Registry.Supported()))
			continue
		}
		langs = append(langs, lang)
	}
	x.Logger.Info("detected languages", "run", x.summary.RunID, "candidates", len(candidates), "selected", len(langs))
	return langs, nil
}

func (x *run) selected(i int, c detect.Candidate) bool {
	if len(x.opts.Languages) > 0 {
		return slices.Contains(x.opts.Languages, c.Language)
	}
	return i == 0 || c.Confidence >= x.opts.MinConfidence
}

type extraction struct {
	lang     string
	strategy *deps.Strategy
	result   *sandbox.Result
	err      error
}

func (x *run) extract(ctx context.Context, langs []*deps.Language) []extraction {
	stageCtx, cancel := context.WithTimeout(ctx, x.opts.StageTimeout)
	defer cancel()

	var jobs []extraction
	for _, lang := range langs {
		applicable := lang.Applicable(x.summary.Repo)
		for _, s := range lang.Strategies {
			if !slices.Contains(applicable, s) {
				x.summary.Diagnostics.SkippedStrategies = append(x.summary.Diagnostics.SkippedStrategies, s.Name)
			}
		}
		if len(applicable) == 0 {
			x.record(StateExtracting, lang.Name, errors.New(errors.ErrCodeExtractionFailed,
				"no manifest for any %s strategy", lang.Name))
			continue
		}
		for _, s := range applicable {
			jobs = append(jobs, extraction{lang: lang.Name, strategy: s})
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(max(x.opts.ExtractParallel, 1))
	for i := range jobs {
		g.Go(func() error {
			j := &jobs[i]
			j.result, j.err = x.Extractor.Run(stageCtx, j.strategy, x.summary.Repo)
			return nil
		})
	}
	_ = g.Wait()

	for _, j := range jobs {
		e := Extraction{Strategy: j.strategy.Name, Language: j.lang, ExitCode: -1}
		if j.result != nil {
			e.ExitCode = j.result.ExitCode
			e.Duration = j.result.Duration
			e.TimedOut = j.result.TimedOut
		}
		switch {
		case errors.Is(j.err, errors.ErrCodeExtractionTimeout):
			x.summary.Diagnostics.ExtractionTimeouts++
			e.TimedOut = true
			e.Error = j.err.Error()
			x.record(StateExtracting, j.strategy.Name, j.err)
		case j.err != nil:
			x.summary.Diagnostics.ExtractionFailures++
			e.Error = j.err.Error()
			x.record(StateExtracting, j.strategy.Name, j.err)
		}
		x.summary.Extractions = append(x.summary.Extractions, e)
	}
	return jobs
}

func (x *run) normalize(jobs []extraction) []deps.Record {
	results := make([]*sandbox.Result, 0, len(jobs))
	for _, j := range jobs {
		if j.err != nil || j.result == nil {
			continue
		}
		results = append(results, j.result)
	}

	out := x.Normalizer.Normalize(results, x.Registry)
	x.summary.Diagnostics.SkippedEntries = out.Skipped
	for i := range x.summary.Extractions {
		e := &x.summary.Extractions[i]
		if st, ok := out.PerStrategy[e.Strategy]; ok {
			e.Records = st.Records
			e.Skipped = st.Skipped
		}
	}
	if out.Skipped > 0 {
		x.record(StateNormalizing, "", errors.New(errors.ErrCodeParseSkip, "skipped %d malformed entries", out.Skipped))
	}
	return out.Records
}

func (x *run) resolve(ctx context.Context, records []deps.Record) []deps.Record {
	if x.Resolver == nil {
		for i := range records {
			records[i].Status = deps.StatusUnknown
		}
		x.summary.Diagnostics.UnresolvedLicenses = len(records)
		return records
	}

	stageCtx, cancel := context.WithTimeout(ctx, x.opts.StageTimeout)
	defer cancel()

	resolved, stats := x.Resolver.Resolve(stageCtx, records)
	d := &x.summary.Diagnostics
	d.UnresolvedLicenses = stats.Unresolved
	d.FailedLicenseQueries = stats.Failed
	d.LicenseQueries = stats.Queried
	d.CacheHits = stats.CacheHits
	for _, rec := range resolved {
		if rec.ResearchError != "" {
			x.summary.Errors = append(x.summary.Errors, StageError{
				Stage:   StateResolvingLicenses,
				Code:    errors.ErrCodeResearchFailed,
				Subject: rec.Key().String(),
				Message: rec.ResearchError,
			})
		}
	}
	return resolved
}

// =============================================================================
// Transitions
// =============================================================================

func (x *run) enter(ctx context.Context, s State) {
	x.summary.State = s
	x.stageAt = time.Now()
	observability.Pipeline().OnStageStart(ctx, x.summary.RunID, string(s))
}

// advance closes the current stage and enters next. A cancelled run
// cannot advance.
func (x *run) advance(ctx context.Context, next State) error {
	cur := x.summary.State
	elapsed := time.Since(x.stageAt)
	x.summary.Stages = append(x.summary.Stages, StageTiming{Stage: cur, Duration: elapsed})

	if err := ctx.Err(); err != nil {
		observability.Pipeline().OnStageComplete(ctx, x.summary.RunID, string(cur), elapsed, err)
		return errors.Wrap(errors.ErrCodeAborted, err, "run cancelled during %s", cur)
	}
	observability.Pipeline().OnStageComplete(ctx, x.summary.RunID, string(cur), elapsed, nil)
	if !cur.canAdvance(next) {
		return errors.New(errors.ErrCodeInternal, "invalid transition %s -> %s", cur, next)
	}
	x.Logger.Debug("stage complete", "run", x.summary.RunID, "stage", cur, "duration", elapsed.Round(time.Millisecond))
	if next.Terminal() {
		x.summary.State = next
		return nil
	}
	x.enter(ctx, next)
	return nil
}

func (x *run) abort(err error) (*Summary, error) {
	stage := x.summary.State
	x.record(stage, "", err)
	x.summary.State = StateAborted
	x.summary.FinishedAt = time.Now().UTC()
	x.Logger.Error("run aborted", "run", x.summary.RunID, "stage", stage, "error", err)
	return x.freeze(), err
}

func (x *run) record(stage State, subject string, err error) {
	x.summary.Errors = append(x.summary.Errors, StageError{
		Stage:   stage,
		Code:    codeOf(err, errors.ErrCodeInternal),
		Subject: subject,
		Message: errors.Describe(err),
	})
}

// freeze returns a copy that shares nothing with the run.
func (x *run) freeze() *Summary {
	s := x.summary
	s.Languages = slices.Clone(s.Languages)
	s.Extractions = slices.Clone(s.Extractions)
	s.Records = slices.Clone(s.Records)
	s.Errors = slices.Clone(s.Errors)
	s.Stages = slices.Clone(s.Stages)
	s.Diagnostics.UnsupportedLanguages = slices.Clone(s.Diagnostics.UnsupportedLanguages)
	s.Diagnostics.SkippedStrategies = slices.Clone(s.Diagnostics.SkippedStrategies)
	if s.Records == nil {
		s.Records = []deps.Record{}
	}
	return &s
}

// codeOf returns the innermost meaningful code: for an abort wrapping a
// detection failure that is ErrCodeDetection.
func codeOf(err error, fallback errors.Code) errors.Code {
	if errors.Is(err, errors.ErrCodeDetection) {
		return errors.ErrCodeDetection
	}
	if c := errors.GetCode(err); c != "" {
		return c
	}
	return fallback
}
