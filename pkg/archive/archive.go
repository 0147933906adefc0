// Package archive keeps a central history of runs.
//
// Each completed run is stored as one document holding the summary and the
// final records, so compliance results from many repositories can be
// queried in one place. [Mongo] stores runs in MongoDB; [Null] discards
// them when no archive is configured. Both implement pipeline.Sink.
package archive

import (
	"context"
	"time"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/pipeline"
)

// Store archives and retrieves runs.
type Store interface {
	Write(ctx context.Context, s *pipeline.Summary) error
	Get(ctx context.Context, runID string) (*Run, error)
	List(ctx context.Context, appName string, limit int) ([]Run, error)
	Close(ctx context.Context) error
}

// Run is the archived form of a summary.
type Run struct {
	ID          string               `bson:"_id" json:"run_id"`
	AppName     string               `bson:"app_name" json:"app_name"`
	Repo        string               `bson:"repo" json:"repo"`
	State       string               `bson:"state" json:"state"`
	Languages   []string             `bson:"languages" json:"languages"`
	Records     []Record             `bson:"records" json:"records"`
	Diagnostics pipeline.Diagnostics `bson:"diagnostics" json:"diagnostics"`
	Errors      int                  `bson:"errors" json:"errors"`
	StartedAt   time.Time            `bson:"started_at" json:"started_at"`
	FinishedAt  time.Time            `bson:"finished_at" json:"finished_at"`
}

// Record is an archived dependency record.
type Record struct {
	Name           string   `bson:"name" json:"name"`
	Version        string   `bson:"version" json:"version"`
	Ecosystem      string   `bson:"ecosystem" json:"ecosystem"`
	Transitive     bool     `bson:"is_transitive" json:"is_transitive"`
	SourceStrategy string   `bson:"source_strategy" json:"source_strategy"`
	License        *string  `bson:"license" json:"license"`
	Status         string   `bson:"open_source_status" json:"open_source_status"`
	EvidenceURLs   []string `bson:"evidence_urls" json:"evidence_urls"`
	ResearchError  string   `bson:"research_error,omitempty" json:"research_error,omitempty"`
}

// FromSummary converts a summary for storage.
func FromSummary(s *pipeline.Summary) Run {
	r := Run{
		ID:          s.RunID,
		AppName:     s.AppName,
		Repo:        s.Repo,
		State:       string(s.State),
		Languages:   make([]string, 0, len(s.Languages)),
		Records:     make([]Record, 0, len(s.Records)),
		Diagnostics: s.Diagnostics,
		Errors:      len(s.Errors),
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
	}
	for _, c := range s.Languages {
		r.Languages = append(r.Languages, c.Language)
	}
	for _, rec := range s.Records {
		r.Records = append(r.Records, Record{
			Name:           rec.Name,
			Version:        rec.Version,
			Ecosystem:      string(rec.Ecosystem),
			Transitive:     rec.Transitive,
			SourceStrategy: rec.SourceStrategy,
			License:        rec.License,
			Status:         string(rec.Status),
			EvidenceURLs:   rec.EvidenceURLs,
			ResearchError:  rec.ResearchError,
		})
	}
	return r
}

// DepsRecords converts archived records back to the canonical type.
func (r Run) DepsRecords() []deps.Record {
	out := make([]deps.Record, 0, len(r.Records))
	for _, a := range r.Records {
		urls := a.EvidenceURLs
		if urls == nil {
			urls = []string{}
		}
		out = append(out, deps.Record{
			Name:           a.Name,
			Version:        a.Version,
			Ecosystem:      deps.Ecosystem(a.Ecosystem),
			Transitive:     a.Transitive,
			SourceStrategy: a.SourceStrategy,
			License:        a.License,
			Status:         deps.Status(a.Status),
			EvidenceURLs:   urls,
			ResearchError:  a.ResearchError,
		})
	}
	return out
}
