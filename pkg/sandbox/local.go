package sandbox

import (
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/matzehuels/shed/pkg/errors"
)

// Local runs commands with the host shell inside a temporary copy of the
// repository. It isolates the working tree but not the host toolchain.
type Local struct {
	// TempDir is the parent for working copies; empty uses os.TempDir.
	TempDir string
}

// Name returns "local".
func (l *Local) Name() string { return "local" }

// Acquire copies the repository into a fresh temporary directory.
func (l *Local) Acquire(ctx context.Context, spec Spec) (Env, error) {
	dir, err := os.MkdirTemp(l.TempDir, "shed-"+spec.Strategy+"-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtractionFailed, err, "create working directory")
	}
	work := filepath.Join(dir, "work")
	if err := copyTree(ctx, spec.RepoPath, work); err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(errors.ErrCodeExtractionFailed, err, "copy repository")
	}
	return &localEnv{dir: dir, work: work, spec: spec}, nil
}

type localEnv struct {
	dir  string
	work string
	spec Spec
}

func (e *localEnv) Exec(ctx context.Context) (*Result, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", e.spec.Command)
	cmd.Dir = e.work
	cmd.Env = append(os.Environ(), "SHED_STRATEGY="+e.spec.Strategy)
	return runCommand(ctx, cmd, e.spec.Strategy, e.spec.MaxOutputBytes)
}

func (e *localEnv) Release(context.Context) error {
	return os.RemoveAll(e.dir)
}

// copyTree copies src into dst, skipping .git. Symlinks are recreated, not
// followed.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if d.Name() == ".git" && p != src {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(p, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
