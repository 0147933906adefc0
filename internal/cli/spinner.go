package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/shed/pkg/observability"
	"github.com/matzehuels/shed/pkg/pipeline"
)

// Spinner provides a progress indicator with context cancellation support.
// Its message can be changed while it runs.
type Spinner struct {
	out     io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string

	mu      sync.Mutex
	message string
	width   int
	once    sync.Once
}

// newSpinner creates a new spinner on stderr.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     w,
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				frame := s.frames[i%len(s.frames)]
				s.mu.Lock()
				s.clear()
				line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
				fmt.Fprintf(s.out, "\r%s", line)
				s.width = len(s.message) + 4
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Message returns the current text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop stops the spinner and clears the line. It must follow Start.
func (s *Spinner) Stop() {
	s.cancel()
	s.once.Do(func() { close(s.done) })
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// clear blanks the last frame. The caller holds mu.
func (s *Spinner) clear() {
	if s.width > 0 {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled returns true if the spinner was stopped due to context cancellation.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Pipeline progress
// =============================================================================

// stageLabels maps pipeline stages to spinner text.
var stageLabels = map[string]string{
	string(pipeline.StateDetecting):         "Detecting languages",
	string(pipeline.StateExtracting):        "Listing dependencies",
	string(pipeline.StateNormalizing):       "Normalizing records",
	string(pipeline.StateResolvingLicenses): "Resolving licenses",
}

// spinnerHooks reports pipeline progress on a spinner.
type spinnerHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner
	repo    string

	mu        sync.Mutex
	stage     string
	extracted int
	resolved  int
}

func (h *spinnerHooks) OnStageStart(_ context.Context, _, stage string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stage = stage
	h.update()
}

func (h *spinnerHooks) OnExtraction(context.Context, string, int, bool, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extracted++
	h.update()
}

func (h *spinnerHooks) OnResearch(context.Context, string, string, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolved++
	h.update()
}

// update refreshes the spinner text. The caller holds mu.
func (h *spinnerHooks) update() {
	label, ok := stageLabels[h.stage]
	if !ok {
		return
	}
	msg := fmt.Sprintf("%s in %s...", label, h.repo)
	switch h.stage {
	case string(pipeline.StateExtracting):
		msg = fmt.Sprintf("%s in %s (%d done)...", label, h.repo, h.extracted)
	case string(pipeline.StateResolvingLicenses):
		msg = fmt.Sprintf("%s in %s (%d researched)...", label, h.repo, h.resolved)
	}
	h.spinner.SetMessage(msg)
}
