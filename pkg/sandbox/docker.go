package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/shed/pkg/errors"
)

// DefaultImage is the runtime image carrying the supported toolchains.
const DefaultImage = "shed-runtime:latest"

// Docker runs each extraction in its own container. The repository is
// mounted read-only at /src and copied to /work before the command runs.
type Docker struct {
	Binary  string // docker CLI; empty looks up "docker" in PATH
	Image   string // default image when the spec has none
	Network string // container network; empty means "bridge"
}

// Name returns "docker".
func (d *Docker) Name() string { return "docker" }

// Acquire creates, but does not start, a container for spec.
func (d *Docker) Acquire(ctx context.Context, spec Spec) (Env, error) {
	bin := d.Binary
	if bin == "" {
		path, err := exec.LookPath("docker")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeExtractionFailed, err, "docker is not available")
		}
		bin = path
	}

	image := spec.Image
	if image == "" {
		image = d.Image
	}
	if image == "" {
		image = DefaultImage
	}
	network := d.Network
	if network == "" {
		network = "bridge"
	}

	name := "shed-" + uuid.NewString()
	script := "cp -a /src/. /work && cd /work && " + spec.Command
	args := []string{
		"create",
		"--name", name,
		"--label", "shed.strategy=" + spec.Strategy,
		"-v", spec.RepoPath + ":/src:ro",
		"-w", "/work",
		"--network", network,
		image,
		"sh", "-c", script,
	}
	if out, err := docker(ctx, bin, args...); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtractionFailed, err, "create container for %s: %s", spec.Strategy, out)
	}
	return &dockerEnv{bin: bin, name: name, spec: spec}, nil
}

type dockerEnv struct {
	bin  string
	name string
	spec Spec
}

func (e *dockerEnv) Exec(ctx context.Context) (*Result, error) {
	cmd := exec.CommandContext(ctx, e.bin, "start", "-a", e.name)
	res, err := runCommand(ctx, cmd, e.spec.Strategy, e.spec.MaxOutputBytes)
	if ctx.Err() != nil {
		// Killing the CLI leaves the container running.
		killCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		docker(killCtx, e.bin, "kill", e.name)
		cancel()
	}
	return res, err
}

func (e *dockerEnv) Release(ctx context.Context) error {
	if out, err := docker(ctx, e.bin, "rm", "-f", e.name); err != nil {
		return fmt.Errorf("remove container %s: %w: %s", e.name, err, out)
	}
	return nil
}

func docker(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}
