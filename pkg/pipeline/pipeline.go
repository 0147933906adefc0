// Package pipeline runs the dependency inventory of one repository.
//
// A run moves through a fixed sequence of stages and never goes back:
//
//	Detecting → Extracting → Normalizing → ResolvingLicenses → Done
//
// Any stage may instead end the run in Aborted, but only for conditions
// that make the whole run meaningless: an unreadable repository, no
// classifiable source files, or cancellation of the run itself. Failures of
// a single strategy or dependency are recorded as [StageError] values and
// counted in [Diagnostics]; the run still reaches Done.
//
// # Usage
//
//	runner := pipeline.NewRunner(languages.Default, extractor, resolver, logger)
//	runner.Sinks = []pipeline.Sink{report.NewWriter()}
//	summary, err := runner.Execute(ctx, "/src/billing", "billing")
//	if err != nil {
//	    // summary.State == pipeline.StateAborted
//	}
//	for _, rec := range summary.Records {
//	    fmt.Println(rec.Name, rec.Version, rec.Status)
//	}
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/detect"
	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/license"
	"github.com/matzehuels/shed/pkg/sandbox"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultStageTimeout bounds each stage.
	DefaultStageTimeout = 10 * time.Minute

	// DefaultRunTimeout bounds the whole run.
	DefaultRunTimeout = 30 * time.Minute

	// DefaultExtractParallel is the number of extractors run at once.
	DefaultExtractParallel = 4

	// DefaultMinConfidence is the detection share a language needs to be
	// extracted. The most confident language is always extracted.
	DefaultMinConfidence = 0.15
)

// =============================================================================
// States
// =============================================================================

// State is a pipeline stage.
type State string

const (
	StateDetecting         State = "detecting"
	StateExtracting        State = "extracting"
	StateNormalizing       State = "normalizing"
	StateResolvingLicenses State = "resolving_licenses"
	StateDone              State = "done"
	StateAborted           State = "aborted"
)

var stateOrder = map[State]int{
	StateDetecting:         0,
	StateExtracting:        1,
	StateNormalizing:       2,
	StateResolvingLicenses: 3,
	StateDone:              4,
	StateAborted:           4,
}

// Terminal reports whether no stage follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// canAdvance reports whether a run in s may move to next.
func (s State) canAdvance(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateAborted {
		return true
	}
	return stateOrder[next] == stateOrder[s]+1
}

// =============================================================================
// Options
// =============================================================================

// Options bounds a run.
type Options struct {
	StageTimeout    time.Duration
	RunTimeout      time.Duration
	ExtractParallel int
	MinConfidence   float64

	// Languages restricts extraction to these detected languages. Empty
	// selects by MinConfidence.
	Languages []string
}

// WithDefaults fills zero values.
func (o Options) WithDefaults() Options {
	if o.StageTimeout <= 0 {
		o.StageTimeout = DefaultStageTimeout
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = DefaultRunTimeout
	}
	if o.ExtractParallel <= 0 {
		o.ExtractParallel = DefaultExtractParallel
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	return o
}

// =============================================================================
// Collaborators
// =============================================================================

// Detector finds the languages of a repository. *detect.Detector
// implements it.
type Detector interface {
	Detect(ctx context.Context, root string) ([]detect.Candidate, error)
}

// Extractor runs one strategy in isolation. *sandbox.Runner implements it.
type Extractor interface {
	Run(ctx context.Context, s *deps.Strategy, repoPath string) (*sandbox.Result, error)
}

// Resolver fills in licenses. *license.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, records []deps.Record) ([]deps.Record, license.Stats)
}

// Sink receives the summary of every run that reaches Done.
type Sink interface {
	Write(ctx context.Context, s *Summary) error
}

// =============================================================================
// Summary
// =============================================================================

// StageError records one non-fatal failure, or the fatal one of an aborted
// run.
type StageError struct {
	Stage   State       `json:"stage"`
	Code    errors.Code `json:"code"`
	Subject string      `json:"subject,omitempty"` // strategy, language or sink
	Message string      `json:"message"`
}

func (e StageError) String() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Stage, e.Subject, e.Message)
}

// Diagnostics counts what a run could not do.
type Diagnostics struct {
	UnsupportedLanguages []string `json:"unsupported_languages"`
	ExtractionTimeouts   int      `json:"extraction_timeouts"`
	ExtractionFailures   int      `json:"extraction_failures"`
	SkippedStrategies    []string `json:"skipped_strategies"`
	SkippedEntries       int      `json:"skipped_entries"`
	UnresolvedLicenses   int      `json:"unresolved_licenses"`
	FailedLicenseQueries int      `json:"failed_license_queries"`
	LicenseQueries       int      `json:"license_queries"`
	CacheHits            int      `json:"cache_hits"`
}

// Extraction describes one strategy execution.
type Extraction struct {
	Strategy string        `json:"strategy"`
	Language string        `json:"language"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Records  int           `json:"records"`
	Skipped  int           `json:"skipped"`
	Error    string        `json:"error,omitempty"`
}

// StageTiming records when a stage ran.
type StageTiming struct {
	Stage    State         `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Summary is the immutable outcome of a run.
type Summary struct {
	RunID       string             `json:"run_id"`
	AppName     string             `json:"app_name"`
	Repo        string             `json:"repo"`
	State       State              `json:"state"`
	Languages   []detect.Candidate `json:"languages"`
	Extractions []Extraction       `json:"extractions"`
	Records     []deps.Record      `json:"-"`
	Diagnostics Diagnostics        `json:"diagnostics"`
	Errors      []StageError       `json:"errors"`
	Stages      []StageTiming      `json:"stages"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}

// Done reports whether the run completed.
func (s *Summary) Done() bool {
	return s.State == StateDone
}
