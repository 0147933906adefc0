// Package server serves the inventory results of one repository over HTTP
// and lets clients trigger new runs.
//
// Routes:
//
//	GET  /healthz                          liveness
//	GET  /dependencies                     records; ?ecosystem= and ?status= filter
//	GET  /dependencies/{ecosystem}/{name}  every version of one package
//	GET  /diagnostics                      summary of the last completed run
//	POST /runs                             start a run in the background
//	GET  /runs                             current run and archived runs
//	GET  /runs/{id}                        one archived run
//
// Package names may contain slashes (npm scopes), so {name} is the rest
// of the path.
package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/shed/pkg/archive"
	"github.com/matzehuels/shed/pkg/pipeline"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Runner executes pipeline runs. *pipeline.Runner implements it.
type Runner interface {
	Execute(ctx context.Context, repoPath, appName string) (*pipeline.Summary, error)
}

// RunStatus describes the run started through POST /runs.
type RunStatus struct {
	Running    bool       `json:"running"`
	RunID      string     `json:"run_id,omitempty"`
	State      string     `json:"state,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Server serves one repository. At most one triggered run executes at a
// time.
type Server struct {
	Repo    string
	AppName string
	Runner  Runner
	Archive archive.Store
	Logger  *log.Logger

	mu     sync.Mutex
	status RunStatus
	runs   sync.WaitGroup

	// base is the parent of background runs; Shutdown cancels it.
	base   context.Context
	cancel context.CancelFunc
}

// New returns a Server for repo. A nil archive lists no runs.
func New(repo, appName string, runner Runner, store archive.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if store == nil {
		store = archive.Null{}
	}
	base, cancel := context.WithCancel(context.Background())
	return &Server{
		Repo:    repo,
		AppName: appName,
		Runner:  runner,
		Archive: store,
		Logger:  logger,
		base:    base,
		cancel:  cancel,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	r.Route("/dependencies", func(r chi.Router) {
		r.Get("/", s.listDependencies)
		r.Get("/{ecosystem}/*", s.getDependency)
	})
	r.Get("/diagnostics", s.diagnostics)
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.startRun)
		r.Get("/", s.listRuns)
		r.Get("/{id}", s.getRun)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and cancels any triggered run.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("serving", "addr", addr, "repo", s.Repo)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.Shutdown()
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	s.Shutdown()
	return err
}

// Shutdown cancels a triggered run and waits for it to return.
func (s *Server) Shutdown() {
	s.cancel()
	s.runs.Wait()
}

// logRequests logs each request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
