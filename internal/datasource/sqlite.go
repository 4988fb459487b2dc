package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/model"
)

// SQLiteReader provides read access to a node table in a SQLite database
type SQLiteReader struct {
	db    *sql.DB
	path  string
	table string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}
	table := source.Table
	if table == "" {
		table = DefaultTable
	}
	if !validTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	// Open in read-only mode
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("datasource: %s failed on %s: %v", pragma, source.Path, err)
		}
	}

	return &SQLiteReader{
		db:    db,
		path:  source.Path,
		table: table,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadRecords reads every row of the node table as a flat record.
// Tables carrying only id, parent_id and label are accepted too.
func (r *SQLiteReader) LoadRecords(ctx context.Context) ([]model.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, label, position, disabled, selectable, icon, meta, tone
		FROM %s
		ORDER BY rowid
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		// Try simpler query if some columns don't exist
		debug.Log("datasource: full query on %s failed, trying minimal columns: %v", r.table, err)
		return r.loadRecordsSimple(ctx)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var parentID, label, icon, meta, tone sql.NullString
		var position, disabled, selectable sql.NullInt64

		if err := rows.Scan(&rec.ID, &parentID, &label, &position, &disabled,
			&selectable, &icon, &meta, &tone); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", r.table, err)
		}

		rec.ParentID = parentID.String
		rec.Label = label.String
		rec.Position = int(position.Int64)
		rec.Disabled = disabled.Valid && disabled.Int64 != 0
		if selectable.Valid {
			rec.Selectable = model.Bool(selectable.Int64 != 0)
		}
		rec.Icon = icon.String
		rec.Meta = meta.String
		rec.Tone = model.Tone(tone.String)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.table, err)
	}
	return records, nil
}

// loadRecordsSimple reads tables that only have id, parent_id and label.
func (r *SQLiteReader) loadRecordsSimple(ctx context.Context) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT id, parent_id, label FROM %s ORDER BY rowid`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", r.table, err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var parentID, label sql.NullString
		if err := rows.Scan(&rec.ID, &parentID, &label); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", r.table, err)
		}
		rec.ParentID = parentID.String
		rec.Label = label.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.table, err)
	}
	return records, nil
}

// CountRecords returns the number of rows in the node table.
func (r *SQLiteReader) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", r.table, err)
	}
	return count, nil
}
