package dispatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/respcache"
)

// writeFakeCodex writes a shell script standing in for the Codex binary.
// body runs after the script locates --output-last-message's path into $OUT.
func writeFakeCodex(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-codex")
	script := "#!/bin/sh\n" +
		"OUT=\"\"\n" +
		"while [ \"$1\" != \"\" ]; do\n" +
		"  if [ \"$1\" = \"--output-last-message\" ]; then shift; OUT=\"$1\"; fi\n" +
		"  shift\n" +
		"done\n" +
		"cat >/dev/null\n" + // drain stdin
		body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func noSandbox() []string { return nil }

func TestExecRejectsPrivilegedFlagWithoutLaunchingAProcess(t *testing.T) {
	d := New(Config{BinaryPath: "/nonexistent-binary", SandboxProbe: noSandbox})
	_, err := d.Exec(context.Background(), ExecOptions{ExtraFlags: []string{PrivilegedFlag}, WorkDir: "."})
	if err == nil {
		t.Fatal("Exec(privileged flag) = nil error")
	}
	if _, ok := err.(*model.DispatcherPrivilegedFlagError); !ok {
		t.Fatalf("err = %T, want *model.DispatcherPrivilegedFlagError", err)
	}
}

func TestExecReturnsLastMessageOnSuccess(t *testing.T) {
	bin := writeFakeCodex(t, `echo -n "hello from codex" > "$OUT"; exit 0`)
	d := New(Config{BinaryPath: bin, SandboxProbe: noSandbox})
	result, err := d.Exec(context.Background(), ExecOptions{Prompt: "do the thing", WorkDir: t.TempDir(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if result.Stdout != "hello from codex" {
		t.Fatalf("Stdout = %q, want %q", result.Stdout, "hello from codex")
	}
	if result.ReturnCode != 0 {
		t.Fatalf("ReturnCode = %d, want 0", result.ReturnCode)
	}
}

func TestExecMapsNonZeroExitToDispatcherExitError(t *testing.T) {
	bin := writeFakeCodex(t, `echo "boom" 1>&2; exit 7`)
	d := New(Config{BinaryPath: bin, Retries: 0, SandboxProbe: noSandbox})
	_, err := d.Exec(context.Background(), ExecOptions{WorkDir: t.TempDir(), Timeout: 5 * time.Second})
	if err == nil {
		t.Fatal("Exec(nonzero exit) = nil error")
	}
	exitErr, ok := err.(*model.DispatcherExitError)
	if !ok {
		t.Fatalf("err = %T, want *model.DispatcherExitError", err)
	}
	if exitErr.ReturnCode != 7 {
		t.Fatalf("ReturnCode = %d, want 7", exitErr.ReturnCode)
	}
}

func TestExecMapsDeadlineToDispatcherTimeoutError(t *testing.T) {
	bin := writeFakeCodex(t, `sleep 5; exit 0`)
	d := New(Config{BinaryPath: bin, Retries: 0, SandboxProbe: noSandbox})
	_, err := d.Exec(context.Background(), ExecOptions{WorkDir: t.TempDir(), Timeout: 50 * time.Millisecond})
	if err == nil {
		t.Fatal("Exec(timeout) = nil error")
	}
	if _, ok := err.(*model.DispatcherTimeoutError); !ok {
		t.Fatalf("err = %T, want *model.DispatcherTimeoutError", err)
	}
}

func TestExecCacheHitNeverLaunchesTheBinary(t *testing.T) {
	cacheDir := t.TempDir()
	cache := respcache.New(cacheDir)

	// A binary that would fail loudly if ever invoked.
	d := New(Config{BinaryPath: "/nonexistent-binary-should-never-run", Cache: cache, SandboxProbe: noSandbox})

	opts := ExecOptions{Prompt: "cached prompt", WorkDir: t.TempDir(), Timeout: 5 * time.Second, RepoHash: "abc", CodexVersion: "1.0"}
	key, err := respcache.Key(fingerprint{Prompt: opts.Prompt, RepoHash: opts.RepoHash, CodexVersion: opts.CodexVersion})
	if err != nil {
		t.Fatal(err)
	}
	seeded := &ExecResult{Stdout: "from cache", ReturnCode: 0}
	if err := cache.Put(key, seeded); err != nil {
		t.Fatal(err)
	}

	result, err := d.Exec(context.Background(), opts)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if result.Stdout != "from cache" {
		t.Fatalf("Stdout = %q, want %q", result.Stdout, "from cache")
	}
}

func TestRunCommandCapturesStdoutAndStderr(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr, err := RunCommand(context.Background(), dir, 5*time.Second, "sh", "-c", "echo out; echo err 1>&2")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if stdout != "out\n" {
		t.Fatalf("stdout = %q, want %q", stdout, "out\n")
	}
	if stderr != "err\n" {
		t.Fatalf("stderr = %q, want %q", stderr, "err\n")
	}
}

func TestRunCommandSurfacesNonZeroExit(t *testing.T) {
	_, _, err := RunCommand(context.Background(), t.TempDir(), 5*time.Second, "sh", "-c", "exit 3")
	if err == nil {
		t.Fatal("RunCommand(nonzero exit) = nil error")
	}
}
