package seed

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// lensOrder is the fixed priority order spec.md §4.5 step 4 names: earlier
// entries win when a file's modules/dependencies map to more lenses than
// the two-lens cap allows.
var lensOrder = []string{
	"ssrf", "template", "crypto", "xxe", "sql", "cloud-iam", "exec", "path", "deser", "authz", "ssh",
}

// moduleLensMap maps a top-level import name to the lens it implies.
// Grounded on original_source/util/imports.py's MODULE_LENS_MAP, extended to
// cover every lens spec.md §4.5 names (the original only covered
// exec/path/deser/authz).
var moduleLensMap = map[string]string{
	"pickle":     "deser",
	"yaml":       "deser",
	"toml":       "deser",
	"marshal":    "deser",
	"tarfile":    "path",
	"zipfile":    "path",
	"shutil":     "path",
	"subprocess": "exec",
	"os":         "exec",
	"shlex":      "exec",
	"flask":      "authz",
	"fastapi":    "authz",
	"django":     "authz",
	"jinja2":     "template",
	"mako":       "template",
	"requests":   "ssrf",
	"httpx":      "ssrf",
	"urllib":     "ssrf",
	"hashlib":    "crypto",
	"cryptography": "crypto",
	"jwt":        "crypto",
	"lxml":       "xxe",
	"xml":        "xxe",
	"sqlalchemy": "sql",
	"psycopg2":   "sql",
	"pymysql":    "sql",
	"boto3":      "cloud-iam",
	"google":     "cloud-iam",
	"azure":      "cloud-iam",
	"paramiko":   "ssh",
	"fabric":     "ssh",
}

var (
	importRe     = regexp.MustCompile(`^\s*import\s+([A-Za-z0-9_]+)`)
	fromImportRe = regexp.MustCompile(`^\s*from\s+([A-Za-z0-9_]+)`)
	reqNameRe    = regexp.MustCompile(`^[A-Za-z0-9_.\-]+`)
)

// ModuleLocalLenses parses path's import statements (a line-oriented regex
// scan, not a full parser: anchor audits Python sources it never executes,
// so a best-effort import scan is sufficient and avoids embedding a Python
// grammar) and returns the lenses they imply, in lensOrder.
func ModuleLocalLenses(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	modules := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		if m := importRe.FindStringSubmatch(line); m != nil {
			modules[m[1]] = true
		}
		if m := fromImportRe.FindStringSubmatch(line); m != nil {
			modules[m[1]] = true
		}
	}
	return lensesFromModules(modules)
}

// GlobalLenses returns the lenses implied by the repository's declared
// dependencies: requirements*.txt (line-oriented scan) and pyproject.toml's
// [project] dependencies (parsed via github.com/BurntSushi/toml).
func GlobalLenses(repoRoot string) ([]string, error) {
	deps := make(map[string]bool)

	matches, err := filepath.Glob(filepath.Join(repoRoot, "requirements*.txt"))
	if err != nil {
		return nil, err
	}
	for _, reqFile := range matches {
		f, err := os.Open(reqFile)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if name := reqNameRe.FindString(line); name != "" {
				deps[name] = true
			}
		}
		f.Close()
	}

	var proj struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
	}
	pyproject := filepath.Join(repoRoot, "pyproject.toml")
	if _, statErr := os.Stat(pyproject); statErr == nil {
		if _, err := toml.DecodeFile(pyproject, &proj); err == nil {
			for _, dep := range proj.Project.Dependencies {
				if name := reqNameRe.FindString(dep); name != "" {
					deps[name] = true
				}
			}
		}
	}

	return lensesFromModules(deps), nil
}

// lensesFromModules maps a set of module/dependency names to at most two
// lenses, in lensOrder.
func lensesFromModules(modules map[string]bool) []string {
	present := make(map[string]bool)
	for m := range modules {
		if lens, ok := moduleLensMap[m]; ok {
			present[lens] = true
		}
	}
	var ordered []string
	for _, lens := range lensOrder {
		if present[lens] {
			ordered = append(ordered, lens)
		}
		if len(ordered) == 2 {
			break
		}
	}
	return ordered
}
