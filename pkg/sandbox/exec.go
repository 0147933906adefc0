package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// waitDelay bounds how long a killed command may keep its output pipes open
// through orphaned children.
const waitDelay = 2 * time.Second

// runCommand runs cmd capturing both streams up to max bytes each. A
// non-zero exit is reported through ExitCode only.
func runCommand(ctx context.Context, cmd *exec.Cmd, strategy string, max int64) (*Result, error) {
	var stdout, stderr bytes.Buffer
	outW := &limitedWriter{w: &stdout, max: max}
	errW := &limitedWriter{w: &stderr, max: max}
	cmd.Stdout = outW
	cmd.Stderr = errW
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Strategy:  strategy,
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		ExitCode:  0,
		Duration:  time.Since(start),
		Truncated: outW.truncated || errW.truncated,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}
