package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/shed/pkg/archive"
	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/report"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"error"`
}

// runsBody is the response of GET /runs.
type runsBody struct {
	Current  RunStatus     `json:"current"`
	Archived []archive.Run `json:"archived"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDependencies(w http.ResponseWriter, r *http.Request) {
	records, err := report.ReadFile(s.Repo)
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	var eco deps.Ecosystem
	if v := q.Get("ecosystem"); v != "" {
		var ok bool
		if eco, ok = deps.ParseEcosystem(v); !ok {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown ecosystem %q", v))
			return
		}
	}
	status := deps.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown status %q", status))
		return
	}

	out := make([]deps.Record, 0, len(records))
	for _, rec := range records {
		if eco != "" && rec.Ecosystem != eco {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDependency(w http.ResponseWriter, r *http.Request) {
	eco, ok := deps.ParseEcosystem(chi.URLParam(r, "ecosystem"))
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown ecosystem %q", chi.URLParam(r, "ecosystem")))
		return
	}
	name := chi.URLParam(r, "*")
	if name == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "package name required"))
		return
	}

	records, err := report.ReadFile(s.Repo)
	if err != nil {
		s.writeError(w, err)
		return
	}
	key := deps.KeyOf(name, eco)
	var out []deps.Record
	for _, rec := range records {
		if rec.Key() == key {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "%s not in the inventory", key))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) diagnostics(w http.ResponseWriter, r *http.Request) {
	summary, err := report.ReadSummary(s.Repo)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// startRun executes a run in the background. Clients poll GET /runs.
func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.status.Running {
		st := s.status
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, st)
		return
	}
	now := time.Now().UTC()
	s.status = RunStatus{Running: true, StartedAt: &now}
	st := s.status
	s.runs.Add(1)
	s.mu.Unlock()

	go s.execute()
	writeJSON(w, http.StatusAccepted, st)
}

func (s *Server) execute() {
	defer s.runs.Done()

	summary, err := s.Runner.Execute(s.base, s.Repo, s.AppName)

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
	s.status.FinishedAt = &now
	if summary != nil {
		s.status.RunID = summary.RunID
		s.status.State = string(summary.State)
	}
	if err != nil {
		s.status.Error = errors.Describe(err)
		s.Logger.Error("triggered run aborted", "repo", s.Repo, "error", err)
		return
	}
	s.Logger.Info("triggered run complete", "run", s.status.RunID, "records", len(summary.Records))
}

// Status returns the state of the triggered run.
func (s *Server) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := archive.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := s.Archive.List(r.Context(), s.AppName, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []archive.Run{}
	}
	writeJSON(w, http.StatusOK, runsBody{Current: s.Status(), Archived: runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// writeError maps error codes to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case "":
		code = errors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.Describe(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
