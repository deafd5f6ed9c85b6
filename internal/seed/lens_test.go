package seed

import "testing"

func TestModuleLocalLenses(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "app.py", "import subprocess\nimport jinja2\nfrom pickle import loads\n")

	got := ModuleLocalLenses(p)
	if len(got) != 2 {
		t.Fatalf("ModuleLocalLenses = %v, want 2 entries (capped)", got)
	}
	// template (ahead of exec and deser in lensOrder) should win the first slot.
	if got[0] != "template" {
		t.Fatalf("ModuleLocalLenses[0] = %q, want template", got[0])
	}
}

func TestModuleLocalLensesNoMatches(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "app.py", "def add(a, b):\n    return a + b\n")

	got := ModuleLocalLenses(p)
	if len(got) != 0 {
		t.Fatalf("ModuleLocalLenses = %v, want none", got)
	}
}

func TestGlobalLensesFromRequirements(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "requests==2.31.0\nflask>=2.0\n")

	got, err := GlobalLenses(root)
	if err != nil {
		t.Fatalf("GlobalLenses: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("GlobalLenses: expected at least one lens")
	}
	if got[0] != "ssrf" {
		t.Fatalf("GlobalLenses[0] = %q, want ssrf (requests maps to ssrf and precedes authz in lensOrder)", got[0])
	}
}

func TestGlobalLensesFromPyproject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pyproject.toml", "[project]\ndependencies = [\"sqlalchemy>=2.0\", \"boto3\"]\n")

	got, err := GlobalLenses(root)
	if err != nil {
		t.Fatalf("GlobalLenses: %v", err)
	}
	found := map[string]bool{}
	for _, lens := range got {
		found[lens] = true
	}
	if !found["sql"] {
		t.Fatalf("GlobalLenses = %v, want sql present", got)
	}
}
