package sandbox

import (
	"context"
	"io"
	"time"
)

// DefaultMaxOutputBytes caps each captured stream.
const DefaultMaxOutputBytes = 64 << 20

// Spec describes one extraction to run.
type Spec struct {
	Strategy       string // strategy name, used for labels and results
	RepoPath       string // absolute path of the repository on the host
	Command        string // shell script run from the repository copy
	Image          string // container image; providers without images ignore it
	MaxOutputBytes int64  // per-stream cap; zero means unlimited
}

// Result is the raw outcome of an extraction.
type Result struct {
	Strategy  string        `json:"strategy"`
	Stdout    []byte        `json:"-"`
	Stderr    []byte        `json:"-"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
	TimedOut  bool          `json:"timed_out"`
	Truncated bool          `json:"truncated,omitempty"`
}

// Provider creates isolated environments.
type Provider interface {
	Name() string
	Acquire(ctx context.Context, spec Spec) (Env, error)
}

// Env is an acquired environment. Exec runs the spec's command once and
// returns whatever output was captured; when ctx ends first it returns the
// partial result together with ctx.Err(). Release frees every resource
// and must be called exactly once.
type Env interface {
	Exec(ctx context.Context) (*Result, error)
	Release(ctx context.Context) error
}

// limitedWriter discards writes past max bytes.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.max <= 0 {
		return lw.w.Write(p)
	}
	remaining := lw.max - lw.written
	if remaining <= 0 {
		lw.truncated = true
		return n, nil
	}
	if int64(n) > remaining {
		lw.truncated = true
		p = p[:remaining]
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	if err != nil {
		return written, err
	}
	return n, nil
}
