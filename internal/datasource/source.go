// Package datasource classifies forest sources and reads SQLite node tables.
//
// A source string is a file path, a SQLite path with an optional "#table"
// suffix, or an http(s) URL serving the { data, pagination } envelope.
package datasource

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for sources whose kind cannot be told
// from the path.
var ErrUnsupportedFormat = errors.New("unsupported source format")

// SourceType identifies the type of data source
type SourceType string

const (
	SourceTypeJSON   SourceType = "json"
	SourceTypeYAML   SourceType = "yaml"
	SourceTypeSQLite SourceType = "sqlite"
	SourceTypeHTTP   SourceType = "http"
)

// DefaultTable is the node table read from SQLite sources.
const DefaultTable = "nodes"

// DataSource is one place a forest can be read from.
type DataSource struct {
	Type SourceType `json:"type"`
	// Path is the file path, or the URL for SourceTypeHTTP
	Path string `json:"path"`
	// Table is the SQLite table name (SourceTypeSQLite only)
	Table string `json:"table,omitempty"`
}

// String returns the source as it would be written on the command line.
func (s DataSource) String() string {
	if s.Type == SourceTypeSQLite && s.Table != DefaultTable {
		return s.Path + "#" + s.Table
	}
	return s.Path
}

// Name returns a short label for status lines and error messages.
func (s DataSource) Name() string {
	if s.Type == SourceTypeHTTP {
		return s.Path
	}
	name := filepath.Base(s.Path)
	if s.Type == SourceTypeSQLite && s.Table != DefaultTable {
		name += "#" + s.Table
	}
	return name
}

// IsFile reports whether the source lives on the local filesystem.
func (s DataSource) IsFile() bool {
	return s.Type != SourceTypeHTTP
}

// Parse classifies a source string.
func Parse(raw string) (DataSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DataSource{}, fmt.Errorf("empty source: %w", ErrUnsupportedFormat)
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return DataSource{Type: SourceTypeHTTP, Path: raw}, nil
	}

	path, table := raw, ""
	if i := strings.LastIndex(raw, "#"); i > 0 {
		path, table = raw[:i], raw[i+1:]
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if table != "" {
			break
		}
		return DataSource{Type: SourceTypeJSON, Path: path}, nil
	case ".yaml", ".yml":
		if table != "" {
			break
		}
		return DataSource{Type: SourceTypeYAML, Path: path}, nil
	case ".db", ".sqlite", ".sqlite3":
		if table == "" {
			table = DefaultTable
		}
		if !validTableName(table) {
			return DataSource{}, fmt.Errorf("invalid table name %q", table)
		}
		return DataSource{Type: SourceTypeSQLite, Path: path, Table: table}, nil
	}
	return DataSource{}, fmt.Errorf("%s: %w", raw, ErrUnsupportedFormat)
}

// validTableName keeps table names safe to interpolate into a query.
func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
