package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/selection"
	"github.com/vanderheijden86/treepick/pkg/version"
)

// SQLite export layout. The nodes table uses the same columns the loader
// reads, so an export can be loaded back as a source.
const (
	createNodesSQL = `
		CREATE TABLE nodes (
			id TEXT PRIMARY KEY,
			parent_id TEXT,
			label TEXT NOT NULL,
			position INTEGER NOT NULL,
			disabled INTEGER NOT NULL DEFAULT 0,
			selectable INTEGER,
			icon TEXT,
			meta TEXT,
			tone TEXT
		)`
	createSelectionSQL = `
		CREATE TABLE selection (
			id TEXT PRIMARY KEY,
			raw INTEGER NOT NULL
		)`
	createMetaSQL = `
		CREATE TABLE export_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`
)

// SaveSQLite writes the forest and the resolved selection to a new SQLite
// database at path, replacing any existing file.
func SaveSQLite(e *selection.Engine, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old export: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{createNodesSQL, createSelectionSQL, createMetaSQL} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if err := insertNodes(tx, model.Flatten(e.Forest())); err != nil {
		return err
	}
	if err := insertSelection(tx, e); err != nil {
		return err
	}

	meta := map[string]string{
		"version":        version.Version,
		"exported_at":    time.Now().UTC().Format(time.RFC3339),
		"cascade":        fmt.Sprint(e.Config().Cascade),
		"selection_mode": e.Config().SelectionMode.String(),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO export_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertNodes(tx *sql.Tx, records []model.Record) error {
	stmt, err := tx.Prepare(`
		INSERT INTO nodes (id, parent_id, label, position, disabled, selectable, icon, meta, tone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare nodes insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var selectable any
		if r.Selectable != nil {
			selectable = boolInt(*r.Selectable)
		}
		if _, err := stmt.Exec(r.ID, nullString(r.ParentID), r.Label, r.Position,
			boolInt(r.Disabled), selectable, nullString(r.Icon), nullString(r.Meta),
			nullString(string(r.Tone))); err != nil {
			return fmt.Errorf("insert node %s: %w", r.ID, err)
		}
	}
	return nil
}

func insertSelection(tx *sql.Tx, e *selection.Engine) error {
	raw := selection.NewIDSet(e.RawSelected()...)
	for _, id := range e.Selected() {
		if _, err := tx.Exec(`INSERT INTO selection (id, raw) VALUES (?, ?)`, id, boolInt(raw.Has(id))); err != nil {
			return fmt.Errorf("insert selection %s: %w", id, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
