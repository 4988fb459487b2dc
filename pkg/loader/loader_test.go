package loader

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func rootIDs(f *model.Forest) []string {
	ids := make([]string, 0, len(f.Roots))
	for _, r := range f.Roots {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestDecodeJSONShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		roots []string
		nodes int
	}{
		{"empty", "", nil, 0},
		{"null", "null", nil, 0},
		{"empty array", "[]", nil, 0},
		{
			"nested array",
			`[{"id":"a","label":"A","children":[{"id":"a1","label":"A1"}]},{"id":"b","label":"B"}]`,
			[]string{"a", "b"}, 3,
		},
		{
			"roots object",
			`{"roots":[{"id":"a","label":"A","children":[{"id":"a1"}]}]}`,
			[]string{"a"}, 2,
		},
		{
			"envelope with flat records",
			`{"data":[{"id":"c1","parentId":"c0","name":"Shoes"},{"id":"c0","parentId":null,"name":"Apparel"}],"pagination":{"page":1,"totalPages":1}}`,
			[]string{"c0"}, 2,
		},
		{
			"flat snake case",
			`[{"id":"x","label":"X"},{"id":"y","parent_id":"x","label":"Y"}]`,
			[]string{"x"}, 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeJSON([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeJSON error: %v", err)
			}
			if got := rootIDs(f); len(got) != len(tt.roots) {
				t.Fatalf("expected roots %v, got %v", tt.roots, got)
			} else {
				for i := range got {
					if got[i] != tt.roots[i] {
						t.Errorf("root %d: expected %s, got %s", i, tt.roots[i], got[i])
					}
				}
			}
			if f.Len() != tt.nodes {
				t.Errorf("expected %d nodes, got %d", tt.nodes, f.Len())
			}
		})
	}
}

func TestDecodeJSONFlatLabels(t *testing.T) {
	f, err := DecodeJSON([]byte(`{"data":[{"id":"c0","name":"Apparel"},{"id":"c1","parentId":"c0","name":"Shoes"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Roots[0].Label != "Apparel" || f.Roots[0].Children[0].Label != "Shoes" {
		t.Errorf("expected name to fill labels, got %+v", f.Roots[0])
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	for _, input := range []string{`"just a string"`, `{"data": 5}`, `[1, 2]`, `{broken`} {
		if _, err := DecodeJSON([]byte(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestDecodeJSONNestedDuplicates(t *testing.T) {
	f, err := DecodeJSON([]byte(`[{"id":"a","children":[{"id":"b"}]},{"id":"b"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 || len(f.Roots) != 1 {
		t.Errorf("expected the repeated b root dropped, got roots %v", rootIDs(f))
	}
}

func TestDecodeYAML(t *testing.T) {
	input := `
roots:
  - id: perms
    label: Permissions
    children:
      - id: perms.read
        label: Read
        tone: info
      - id: perms.write
        label: Write
        disabled: true
        selectable: false
`
	f, err := DecodeYAML([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", f.Len())
	}
	kids := f.Roots[0].Children
	if kids[0].Tone != model.ToneInfo {
		t.Errorf("expected info tone, got %q", kids[0].Tone)
	}
	if !kids[1].Disabled || kids[1].IsSelectable() {
		t.Errorf("expected write disabled and not selectable, got %+v", kids[1])
	}

	flat := "- {id: r, label: Root}\n- {id: c, parent_id: r, label: Child, position: 1}\n"
	f, err = DecodeYAML([]byte(flat))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Roots) != 1 || len(f.Roots[0].Children) != 1 {
		t.Errorf("expected flat yaml to link, got %v", rootIDs(f))
	}

	empty, err := DecodeYAML(nil)
	if err != nil || empty.Len() != 0 {
		t.Errorf("expected empty forest for empty yaml, got %v %v", empty, err)
	}
}

func TestLoadFile(t *testing.T) {
	jsonPath := writeFile(t, "catalog.json", `[{"id":"a","label":"A"}]`)
	f, err := LoadFile(jsonPath)
	if err != nil || f.Len() != 1 {
		t.Fatalf("LoadFile json: %v %v", f, err)
	}

	yamlPath := writeFile(t, "catalog.yml", "- id: a\n  label: A\n")
	f, err = LoadFile(yamlPath)
	if err != nil || f.Len() != 1 {
		t.Fatalf("LoadFile yaml: %v %v", f, err)
	}

	if _, err := LoadFile(writeFile(t, "notes.txt", "x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile("https://example.com/tree"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected URL to be rejected by LoadFile, got %v", err)
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE categories (id TEXT, parent_id TEXT, label TEXT, position INTEGER,
			disabled INTEGER, selectable INTEGER, icon TEXT, meta TEXT, tone TEXT)`,
		`INSERT INTO categories (id, parent_id, label, position) VALUES
			('root', NULL, 'Catalog', 0),
			('z', 'root', 'Zebra', 2),
			('a', 'root', 'Aardvark', 1),
			('orphan', 'gone', 'Orphan', 0)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	f, err := Load(context.Background(), path+"#categories")
	if err != nil {
		t.Fatal(err)
	}
	if got := rootIDs(f); len(got) != 2 || got[0] != "root" || got[1] != "orphan" {
		t.Fatalf("expected roots [root orphan], got %v", got)
	}
	kids := f.Roots[0].Children
	if kids[0].ID != "a" || kids[1].ID != "z" {
		t.Errorf("expected children ordered by position, got %s %s", kids[0].ID, kids[1].ID)
	}

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestLoadSQLiteLogsDuplicateRows(t *testing.T) {
	var buf bytes.Buffer
	debug.SetEnabled(true)
	debug.SetOutput(&buf)
	t.Cleanup(func() {
		debug.SetEnabled(false)
		debug.SetOutput(os.Stderr)
	})

	path := filepath.Join(t.TempDir(), "dupes.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE nodes (id TEXT, parent_id TEXT, label TEXT)`,
		`INSERT INTO nodes (id, parent_id, label) VALUES
			('a', NULL, 'First'),
			('b', 'a', 'Child'),
			('a', NULL, 'Second')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	f, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 || f.Roots[0].Label != "First" {
		t.Fatalf("expected first duplicate to win, got %d nodes root %q", f.Len(), f.Roots[0].Label)
	}
	out := buf.String()
	if !strings.Contains(out, "dropped 1 duplicate rows of 3") {
		t.Errorf("missing duplicate log line in %q", out)
	}
	if !strings.Contains(out, "loader: dupes.db took") {
		t.Errorf("missing timing log line in %q", out)
	}
}

func TestLoadAll(t *testing.T) {
	a := writeFile(t, "a.json", `[{"id":"cat","children":[{"id":"shoes"}]}]`)
	b := writeFile(t, "b.yaml", "- id: perm\n- id: shoes\n")

	f, err := LoadAll(context.Background(), []string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if got := rootIDs(f); len(got) != 2 || got[0] != "cat" || got[1] != "perm" {
		t.Errorf("expected roots [cat perm] in source order, got %v", got)
	}

	if _, err := LoadAll(context.Background(), nil); !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}

	_, err = LoadAll(context.Background(), []string{a, filepath.Join(t.TempDir(), "nope.json")})
	if err == nil {
		t.Fatal("expected failure when one source fails")
	}
}

func TestLoadAllCanceled(t *testing.T) {
	a := writeFile(t, "a.json", `[{"id":"a"}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadAll(ctx, []string{a}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
