package cli

import "testing"

func TestMemoSubdirEmptyDirStaysDisabled(t *testing.T) {
	if got := memoSubdir("", "llm"); got != "" {
		t.Fatalf("memoSubdir(empty) = %q, want empty", got)
	}
}

func TestMemoSubdirJoinsSubdirectory(t *testing.T) {
	got := memoSubdir("/tmp/memo", "codex")
	want := "/tmp/memo/codex"
	if got != want {
		t.Fatalf("memoSubdir = %q, want %q", got, want)
	}
}

func TestNoColorEnvRespectsNOCOLOR(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	if noColorEnv() {
		t.Fatal("noColorEnv() = true with NO_COLOR unset")
	}
	t.Setenv("NO_COLOR", "1")
	if !noColorEnv() {
		t.Fatal("noColorEnv() = false with NO_COLOR=1")
	}
}
