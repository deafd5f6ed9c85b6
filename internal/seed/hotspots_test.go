package seed

import (
	"testing"
)

func TestScanHotspotsFindsSubprocess(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "risky.py", "import subprocess\nsubprocess.run(cmd, shell=True)\n")
	writeFile(t, root, "benign.py", "def add(a, b):\n    return a + b\n")

	got, err := ScanHotspots(root, nil)
	if err != nil {
		t.Fatalf("ScanHotspots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ScanHotspots: got %d hotspots, want 1: %+v", len(got), got)
	}
	if got[0].Path != "risky.py" || got[0].Category != "subprocess" {
		t.Fatalf("ScanHotspots: got %+v", got[0])
	}
}

func TestScanHotspotsCategoryFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "risky.py", "import subprocess\nsubprocess.run(cmd)\n")

	got, err := ScanHotspots(root, []string{"network"})
	if err != nil {
		t.Fatalf("ScanHotspots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ScanHotspots: expected no hits with network filter, got %+v", got)
	}
}

func TestScanHotspotsOrdersByDescendingScore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "low.py", "import subprocess\nsubprocess.run(cmd)\n")
	writeFile(t, root, "high.py", "import subprocess\nsubprocess.run(cmd)\nsubprocess.call(cmd)\nos.system(cmd)\n")

	got, err := ScanHotspots(root, nil)
	if err != nil {
		t.Fatalf("ScanHotspots: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("ScanHotspots: expected at least 2 hotspots, got %+v", got)
	}
	if got[0].Path != "high.py" {
		t.Fatalf("ScanHotspots: expected high.py first, got %+v", got)
	}
}
