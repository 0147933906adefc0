package sandbox

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/observability"
)

// DefaultReleaseTimeout bounds environment cleanup after a run.
const DefaultReleaseTimeout = time.Minute

// Runner executes strategies through a Provider.
type Runner struct {
	Provider       Provider
	Image          string // default image for strategies without one
	MaxOutputBytes int64
	ReleaseTimeout time.Duration
	Logger         *log.Logger

	locks keyedLock
}

// NewRunner returns a Runner with default limits.
func NewRunner(p Provider, logger *log.Logger) *Runner {
	return &Runner{
		Provider:       p,
		MaxOutputBytes: DefaultMaxOutputBytes,
		ReleaseTimeout: DefaultReleaseTimeout,
		Logger:         logger,
	}
}

// Run executes s against the repository at repoPath under the strategy's
// timeout. On timeout it returns the partial result (TimedOut set) and an
// ErrCodeExtractionTimeout error. Acquire and exec failures return
// ErrCodeExtractionFailed. The environment is released on every path.
func (r *Runner) Run(ctx context.Context, s *deps.Strategy, repoPath string) (*Result, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtractionFailed, err, "resolve %s", repoPath)
	}

	unlock, err := r.locks.lock(ctx, abs+"\x00"+s.Name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtractionFailed, err, "wait for %s", s.Name)
	}
	defer unlock()

	image := s.Image
	if image == "" {
		image = r.Image
	}
	spec := Spec{
		Strategy:       s.Name,
		RepoPath:       abs,
		Command:        s.Command,
		Image:          image,
		MaxOutputBytes: r.MaxOutputBytes,
	}

	env, err := r.Provider.Acquire(ctx, spec)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeExtractionFailed, err, "acquire %s environment", r.Provider.Name())
		}
		return nil, err
	}
	defer r.release(ctx, env, s.Name)

	timeout := s.EffectiveTimeout()
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.logger().Debug("extracting", "strategy", s.Name, "provider", r.Provider.Name(), "timeout", timeout)
	res, err := env.Exec(execCtx)
	if res == nil {
		res = &Result{Strategy: s.Name, ExitCode: -1}
	}
	res.Strategy = s.Name

	switch {
	case err != nil && ctx.Err() == nil && execCtx.Err() == context.DeadlineExceeded:
		res.TimedOut = true
		err = errors.New(errors.ErrCodeExtractionTimeout, "%s exceeded %s", s.Name, timeout)
	case err != nil:
		err = errors.Wrap(errors.ErrCodeExtractionFailed, err, "run %s", s.Name)
	}

	observability.Pipeline().OnExtraction(ctx, s.Name, res.ExitCode, res.TimedOut, res.Duration)
	if res.Truncated {
		r.logger().Warn("extractor output truncated", "strategy", s.Name, "limit", r.MaxOutputBytes)
	}
	return res, err
}

func (r *Runner) release(ctx context.Context, env Env, strategy string) {
	timeout := r.ReleaseTimeout
	if timeout <= 0 {
		timeout = DefaultReleaseTimeout
	}
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := env.Release(releaseCtx); err != nil {
		r.logger().Warn("release failed", "strategy", strategy, "error", err)
	}
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}
