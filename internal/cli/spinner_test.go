package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/shed/pkg/pipeline"
)

func TestSpinnerBasic(t *testing.T) {
	s := newSpinner("Testing...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	// Spinner should be stopped, not cancelled
	// (Cancelled returns true only if Stop was called due to context cancellation)
	_ = s.Cancelled() // Verify method is callable; value not asserted as Stop() doesn't set cancelled
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.Start()

	// Cancel the context
	cancel()

	// Give goroutine time to notice cancellation
	time.Sleep(100 * time.Millisecond)

	// Spinner should be cancelled
	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Testing with timeout...")
	s.Start()

	// Wait for timeout
	time.Sleep(100 * time.Millisecond)

	// Spinner should be cancelled due to timeout
	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Testing idempotent stop...")
	s.Start()

	// Stop multiple times should not panic
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithSuccess(t *testing.T) {
	s := newSpinner("Testing success...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Done!")
}

func TestSpinnerStopWithError(t *testing.T) {
	s := newSpinner("Testing error...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("Failed!")
}

func TestNewSpinnerWithContextNilParent(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Test")
	s.Start()
	s.Stop()
}

func TestSpinnerSetMessage(t *testing.T) {
	var buf syncBuffer
	s := newSpinnerTo(context.Background(), &buf, "first")
	s.Start()
	s.SetMessage("second")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if got := s.Message(); got != "second" {
		t.Errorf("Message() = %q", got)
	}
	if !strings.Contains(buf.String(), "second") {
		t.Errorf("output %q does not show the new message", buf.String())
	}
}

func TestSpinnerHooks(t *testing.T) {
	s := newSpinnerTo(context.Background(), io.Discard, "Inventorying...")
	h := &spinnerHooks{spinner: s, repo: "billing"}
	ctx := context.Background()

	h.OnStageStart(ctx, "run-1", string(pipeline.StateExtracting))
	h.OnExtraction(ctx, "package-json", 0, false, time.Second)
	h.OnExtraction(ctx, "npm-list", 0, false, time.Second)
	if got, want := s.Message(), "Listing dependencies in billing (2 done)..."; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}

	h.OnStageStart(ctx, "run-1", string(pipeline.StateResolvingLicenses))
	h.OnResearch(ctx, "npm", "lodash", 1, nil)
	if got, want := s.Message(), "Resolving licenses in billing (1 researched)..."; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}

	h.OnStageStart(ctx, "run-1", string(pipeline.StateDone))
	if got, want := s.Message(), "Resolving licenses in billing (1 researched)..."; got != want {
		t.Errorf("terminal stage changed message to %q", got)
	}
}

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
