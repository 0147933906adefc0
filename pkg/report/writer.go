package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/pipeline"
)

// Writer stores run results in the repository. It implements
// pipeline.Sink.
type Writer struct {
	CompanyName  string
	CompanyEmail string
	// SkipDeclaration disables open_source_declaration.md.
	SkipDeclaration bool
	Logger          *log.Logger
}

// NewWriter returns a Writer with the given contact details.
func NewWriter(company, email string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Writer{CompanyName: company, CompanyEmail: email, Logger: logger}
}

// Write implements pipeline.Sink.
func (w *Writer) Write(_ context.Context, s *pipeline.Summary) error {
	p := PathsFor(s.Repo)

	data, err := MarshalRecords(s.Records)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode dependencies")
	}
	if err := writeFileAtomic(p.Dependencies, data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", p.Dependencies)
	}

	diag, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode diagnostics")
	}
	if err := writeFileAtomic(p.Diagnostics, append(diag, '\n')); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", p.Diagnostics)
	}

	if !w.SkipDeclaration {
		var buf bytes.Buffer
		d := NewDeclaration(s.AppName, w.CompanyName, w.CompanyEmail, s.Records)
		if err := d.Render(&buf); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render declaration")
		}
		if err := writeFileAtomic(p.Declaration, buf.Bytes()); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", p.Declaration)
		}
	}

	w.logger().Info("wrote results", "dir", p.Dir, "records", len(s.Records))
	return nil
}

// ReadSummary reads diagnostics.json of repo. Records are not included.
func ReadSummary(repo string) (*pipeline.Summary, error) {
	data, err := os.ReadFile(PathsFor(repo).Diagnostics)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no diagnostics for %s", repo)
		}
		return nil, err
	}
	var s pipeline.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode diagnostics")
	}
	return &s, nil
}

func (w *Writer) logger() *log.Logger {
	if w.Logger == nil {
		return log.New(io.Discard)
	}
	return w.Logger
}
