// Package report writes run results under a repository's .shed directory.
//
// Three files are produced for every completed run:
//   - dependencies.json: the canonical record list, sorted and indented,
//     byte-identical across runs with the same result
//   - diagnostics.json: the run summary without records
//   - open_source_declaration.md: the human-readable declaration, rendered
//     from the same records
package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/errors"
)

// File layout under a repository.
const (
	MetaDir          = ".shed"
	DependenciesFile = "dependencies.json"
	DiagnosticsFile  = "diagnostics.json"
	DeclarationFile  = "open_source_declaration.md"
)

// Paths locates the result files of one repository.
type Paths struct {
	Dir          string
	Dependencies string
	Diagnostics  string
	Declaration  string
}

// PathsFor returns the result paths for repo.
func PathsFor(repo string) Paths {
	dir := filepath.Join(repo, MetaDir)
	return Paths{
		Dir:          dir,
		Dependencies: filepath.Join(dir, DependenciesFile),
		Diagnostics:  filepath.Join(dir, DiagnosticsFile),
		Declaration:  filepath.Join(dir, DeclarationFile),
	}
}

// MarshalRecords encodes records in canonical order with two-space
// indentation and a trailing newline. The input is not reordered.
func MarshalRecords(records []deps.Record) ([]byte, error) {
	sorted := slices.Clone(records)
	if sorted == nil {
		sorted = []deps.Record{}
	}
	deps.Sort(sorted)
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteJSON writes records to w in canonical form.
func WriteJSON(w io.Writer, records []deps.Record) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadJSON decodes a dependencies.json document and validates each record.
func ReadJSON(r io.Reader) ([]deps.Record, error) {
	var records []deps.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode dependency list")
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "record %d", i)
		}
		if records[i].EvidenceURLs == nil {
			records[i].EvidenceURLs = []string{}
		}
	}
	return records, nil
}

// ReadFile reads the dependency list of repo.
func ReadFile(repo string) ([]deps.Record, error) {
	f, err := os.Open(PathsFor(repo).Dependencies)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no results for %s", repo)
		}
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
