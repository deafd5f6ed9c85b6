package dispatcher

import "os/exec"

// SandboxProbeFunc probes the host for a namespace-capable launcher and
// returns the command prefix to wrap Codex invocations with, or nil if none
// is available. Overridable in tests.
type SandboxProbeFunc func() []string

// probeSandboxLauncher implements spec.md §4.2's network-denial probe:
// prefer firejail --net=none, fall back to unshare -n, otherwise run
// unwrapped (best-effort sandboxing).
func probeSandboxLauncher() []string {
	if path, err := exec.LookPath("firejail"); err == nil {
		_ = path
		return []string{"firejail", "--net=none", "--quiet"}
	}
	if path, err := exec.LookPath("unshare"); err == nil {
		_ = path
		return []string{"unshare", "-n"}
	}
	return nil
}

// sandboxLauncher memoizes the one-shot probe result for the lifetime of the
// Dispatcher.
func (d *Dispatcher) sandboxLauncher() []string {
	d.sandboxMu.Do(func() {
		d.sandbox = d.cfg.SandboxProbe()
	})
	return d.sandbox
}
