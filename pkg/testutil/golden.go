package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) == actual {
		return
	}
	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s\n\nFull diff (expected vs actual):\n%s\nvs\n%s",
				i+1, expLine, actLine, string(expected), actual)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}

// WriteForestJSON writes f as a nested JSON node array and returns the
// path.
func WriteForestJSON(t *testing.T, dir, name string, f *model.Forest) string {
	t.Helper()
	data, err := json.MarshalIndent(f.Roots, "", "  ")
	if err != nil {
		t.Fatalf("marshal forest: %v", err)
	}
	return writeFixture(t, dir, name, data)
}

// WriteForestYAML writes f as a YAML document with a roots key and returns
// the path.
func WriteForestYAML(t *testing.T, dir, name string, f *model.Forest) string {
	t.Helper()
	data, err := yaml.Marshal(f)
	if err != nil {
		t.Fatalf("marshal forest: %v", err)
	}
	return writeFixture(t, dir, name, data)
}

// WriteRecordsJSON writes f flattened into parent_id records and returns
// the path.
func WriteRecordsJSON(t *testing.T, dir, name string, f *model.Forest) string {
	t.Helper()
	data, err := json.MarshalIndent(Records(f), "", "  ")
	if err != nil {
		t.Fatalf("marshal records: %v", err)
	}
	return writeFixture(t, dir, name, data)
}

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// IDs returns the forest's node IDs in pre-order.
func IDs(f *model.Forest) []string {
	var ids []string
	f.Walk(func(n *model.TreeNode, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}
