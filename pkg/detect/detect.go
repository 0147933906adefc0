package detect

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shed/pkg/errors"
)

// Candidate is one detected language.
type Candidate struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"` // share of classified bytes, in (0, 1]
	Bytes      int64   `json:"bytes"`
	Files      int     `json:"files"`
}

// Detector lists and classifies repository files.
type Detector struct {
	// UseGit enables `git ls-files` listing when the root is a work tree.
	UseGit bool
	Logger *log.Logger
}

// New returns a Detector that prefers git listings.
func New(logger *log.Logger) *Detector {
	return &Detector{UseGit: true, Logger: logger}
}

// Detect returns the languages found under root, most confident first.
// It fails with ErrCodeAborted when root cannot be read and with
// ErrCodeDetection when no file could be classified.
func (d *Detector) Detect(ctx context.Context, root string) ([]Candidate, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAborted, err, "read repository %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeAborted, "repository %s is not a directory", root)
	}

	files, err := d.list(ctx, root)
	if err != nil {
		return nil, err
	}

	type tally struct {
		bytes int64
		files int
	}
	tallies := make(map[string]*tally)
	var total int64

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAborted, err, "detection cancelled")
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		fi, err := os.Lstat(full)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}

		lang, manifest := classifyName(rel)
		if lang == "" && path.Ext(rel) == "" && fi.Mode()&0o111 != 0 {
			lang = classifyShebang(firstLine(full))
		}
		if lang == "" {
			continue
		}

		size := fi.Size()
		if manifest && size < ManifestWeight {
			size = ManifestWeight
		}
		t := tallies[lang]
		if t == nil {
			t = &tally{}
			tallies[lang] = t
		}
		t.bytes += size
		t.files++
		total += size
	}

	if total == 0 {
		return nil, errors.New(errors.ErrCodeDetection, "no recognizable source files in %s", root)
	}

	out := make([]Candidate, 0, len(tallies))
	for lang, t := range tallies {
		out = append(out, Candidate{
			Language:   lang,
			Confidence: float64(t.bytes) / float64(total),
			Bytes:      t.bytes,
			Files:      t.files,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Language < out[j].Language
	})
	return out, nil
}

func (d *Detector) list(ctx context.Context, root string) ([]string, error) {
	if d.UseGit {
		files, err := gitFiles(ctx, root)
		if err == nil && len(files) > 0 {
			return files, nil
		}
		if d.Logger != nil && err != nil {
			d.Logger.Debug("git listing unavailable, walking tree", "root", root, "error", err)
		}
	}
	return walkFiles(root)
}

// gitFiles lists tracked and untracked, non-ignored files.
func gitFiles(ctx context.Context, root string) ([]string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, "git", "-C", root, "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "git ls-files: %s", strings.TrimSpace(stderr.String()))
	}

	var files []string
	for _, f := range strings.Split(out.String(), "\x00") {
		if f != "" && !underSkippedDir(f) {
			files = append(files, f)
		}
	}
	return files, nil
}

func underSkippedDir(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if skipDirs[p] {
			return true
		}
	}
	return false
}

func walkFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if p != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAborted, err, "walk repository %s", root)
	}
	return files, nil
}

func firstLine(name string) string {
	f, err := os.Open(name)
	if err != nil {
		return ""
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 256)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
