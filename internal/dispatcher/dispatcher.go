// Package dispatcher launches the Codex CLI as a read-only, network-denied
// subprocess, enforces timeouts and retries, and memoizes results in a
// content-addressed cache. Grounded on original_source/codex_dispatch.py's
// CodexClient.exec and daydemir-ralph/internal/llm/claude.go's process-
// launch idiom.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/respcache"
	"github.com/anchorsec/anchor/internal/utils"
)

// PrivilegedFlag is the flag this dispatcher never emits. original_source's
// prototype passed it unconditionally; spec requires it never be passed —
// this is the one REDESIGN FLAG this codebase implements.
const PrivilegedFlag = "--dangerously-bypass-approvals-and-sandbox"

// ExecResult is the structured outcome of one Codex invocation.
type ExecResult struct {
	Stdout     string
	Stderr     string
	ReturnCode int
	Duration   time.Duration
	Cmd        []string
}

// ExecOptions parameterizes a single dispatcher.Exec call.
type ExecOptions struct {
	Prompt       string
	WorkDir      string
	ExtraFlags   []string
	Timeout      time.Duration
	RepoHash     string // fingerprint component: content hash of the audited repo tree
	CodexVersion string // fingerprint component: codex --version output

	// Streams, when non-nil, additionally receive a live copy of the
	// child's stdout/stderr as they are drained, per spec.md §4.2 step 4.
	Stdout io.Writer
	Stderr io.Writer
}

// Config holds dispatcher-wide settings.
type Config struct {
	BinaryPath   string
	Retries      int
	BackoffBase  float64       // backoff = BackoffBase^attempt, per spec.md §4.2 step 5
	MaxInFlight  int64         // simultaneous Codex child processes allowed system-wide
	Cache        *respcache.Cache
	SandboxProbe SandboxProbeFunc // overridable for tests
}

// Dispatcher launches Codex and returns structured, cached, retried results.
type Dispatcher struct {
	cfg       Config
	sem       *semaphore.Weighted
	sandboxMu sync.Once
	sandbox   []string // e.g. []string{"firejail", "--net=none"}; nil if unavailable
}

// New constructs a Dispatcher. If cfg.MaxInFlight is 0, a generous default
// of 8 is used so a semaphore always bounds concurrent children.
func New(cfg Config) *Dispatcher {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 8
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2.0
	}
	if cfg.SandboxProbe == nil {
		cfg.SandboxProbe = probeSandboxLauncher
	}
	return &Dispatcher{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxInFlight),
	}
}

type fingerprint struct {
	Prompt       string `json:"prompt"`
	RepoHash     string `json:"repo_hash"`
	CodexVersion string `json:"codex_version"`
}

// Exec runs the Codex binary per the fixed command surface spec.md §4.2
// mandates, with caching, timeout enforcement, and retry with backoff.
func (d *Dispatcher) Exec(ctx context.Context, opts ExecOptions) (*ExecResult, error) {
	for _, f := range opts.ExtraFlags {
		if f == PrivilegedFlag {
			return nil, &model.DispatcherPrivilegedFlagError{Flag: f}
		}
	}

	key, err := respcache.Key(fingerprint{
		Prompt:       opts.Prompt,
		RepoHash:     opts.RepoHash,
		CodexVersion: opts.CodexVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("computing cache key: %w", err)
	}
	if d.cfg.Cache != nil {
		var cached ExecResult
		hit, err := d.cfg.Cache.Get(key, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	sandbox := d.sandboxLauncher()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		result, err := d.attempt(ctx, opts, sandbox, timeout)
		d.sem.Release(1)

		if err == nil {
			if d.cfg.Cache != nil {
				_ = d.cfg.Cache.Put(key, result)
			}
			return result, nil
		}

		lastErr = err
		if attempt > d.cfg.Retries {
			return nil, lastErr
		}
		backoff := time.Duration(pow(d.cfg.BackoffBase, float64(attempt))) * time.Second
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (d *Dispatcher) attempt(ctx context.Context, opts ExecOptions, sandbox []string, timeout time.Duration) (*ExecResult, error) {
	outFile, err := os.CreateTemp("", "codex_last_*")
	if err != nil {
		return nil, fmt.Errorf("creating last-message temp file: %w", err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	args := []string{
		"exec",
		"--output-last-message", outPath,
		"--skip-git-repo-check",
		"-C", opts.WorkDir,
	}
	args = append(args, opts.ExtraFlags...)

	bin := utils.ResolveBinaryPath(d.cfg.BinaryPath)
	var cmdArgs []string
	var cmdName string
	if len(sandbox) > 0 {
		cmdName = sandbox[0]
		cmdArgs = append(append([]string{}, sandbox[1:]...), bin)
		cmdArgs = append(cmdArgs, args...)
	} else {
		cmdName = bin
		cmdArgs = args
	}
	fullCmd := append([]string{cmdName}, cmdArgs...)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, cmdName, cmdArgs...)
	cmd.SysProcAttr = setpgid()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening codex stdin: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening codex stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening codex stderr: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting codex: %w", err)
	}

	if _, err := io.WriteString(stdin, opts.Prompt); err != nil {
		// Codex may have exited already; surface via Wait() below instead.
		_ = err
	}
	stdin.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, stdoutPipe, &stdoutBuf, opts.Stdout)
	go drain(&wg, stderrPipe, &stderrBuf, opts.Stderr)

	waitErr := cmd.Wait()
	wg.Wait()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		killProcessGroup(cmd)
		return nil, &model.DispatcherTimeoutError{Cmd: fullCmd, Timeout: timeout.String()}
	}

	lastMsg, readErr := os.ReadFile(outPath)
	if readErr != nil {
		lastMsg = []byte{}
	}

	returnCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			returnCode = exitErr.ExitCode()
		} else {
			returnCode = -1
		}
	}

	result := &ExecResult{
		Stdout:     string(lastMsg),
		Stderr:     stderrBuf.String(),
		ReturnCode: returnCode,
		Duration:   duration,
		Cmd:        fullCmd,
	}

	if returnCode != 0 {
		return nil, &model.DispatcherExitError{Cmd: fullCmd, ReturnCode: returnCode, Stderr: result.Stderr}
	}
	return result, nil
}

func drain(wg *sync.WaitGroup, src io.Reader, buf *bytes.Buffer, forward io.Writer) {
	defer wg.Done()
	if forward != nil {
		_, _ = io.Copy(io.MultiWriter(buf, forward), src)
	} else {
		_, _ = io.Copy(buf, src)
	}
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}

// Interrupt forwards SIGINT to cmd's process group, per spec.md §4.2's
// cancellation contract. Callers invoke this from their own SIGINT handler.
func Interrupt(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGINT)
}
