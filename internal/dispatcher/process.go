package dispatcher

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// RunCommand launches an arbitrary command with a deadline, used by
// internal/seed for git invocations so the whole repository has exactly one
// place that launches external processes with a timeout, per SPEC_FULL.md
// §4.5.
func RunCommand(ctx context.Context, workdir string, timeout time.Duration, name string, args ...string) (stdout, stderr string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = workdir
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
