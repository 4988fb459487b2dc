// Package loader turns catalog data into forests.
//
// Supported sources:
//   - JSON files: a node array, {"roots": [...]}, or the API envelope
//     {"data": [...], "pagination": {...}}
//   - YAML files with the same shapes
//   - SQLite node tables (path.db or path.db#table)
//   - http(s) endpoints serving the envelope, following pagination
//
// Entries are nested nodes (with children) or flat records linked by
// parent_id / parentId; the two are told apart per document.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treepick/internal/datasource"
	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/metrics"
	"github.com/vanderheijden86/treepick/pkg/model"
)

var (
	// ErrUnsupportedFormat is returned for sources of unknown kind.
	ErrUnsupportedFormat = datasource.ErrUnsupportedFormat
	// ErrNoSources is returned by LoadAll when given nothing to load.
	ErrNoSources = errors.New("no sources given")
)

// MaxParallelLoads bounds concurrent source loads in LoadAll.
const MaxParallelLoads = 8

// Pagination is the optional paging block of an API envelope.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// LastPage returns the final page number, derived from Total and PageSize
// when TotalPages is absent.
func (p *Pagination) LastPage() int {
	if p == nil {
		return 0
	}
	if p.TotalPages > 0 {
		return p.TotalPages
	}
	if p.PageSize > 0 && p.Total > 0 {
		return (p.Total + p.PageSize - 1) / p.PageSize
	}
	return p.Page
}

// HasNext reports whether another page follows.
func (p *Pagination) HasNext() bool {
	return p != nil && p.Page > 0 && p.Page < p.LastPage()
}

type document struct {
	Roots      []json.RawMessage `json:"roots"`
	Data       []json.RawMessage `json:"data"`
	Pagination *Pagination       `json:"pagination"`
}

// decodeEntries extracts the entry list and pagination from any supported
// JSON shape. Blank input yields no entries.
func decodeEntries(data []byte) ([]json.RawMessage, *Pagination, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}
	switch trimmed[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, nil, fmt.Errorf("decoding node array: %w", err)
		}
		return entries, nil, nil
	case '{':
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, nil, fmt.Errorf("decoding document: %w", err)
		}
		if doc.Roots != nil {
			return doc.Roots, nil, nil
		}
		return doc.Data, doc.Pagination, nil
	case 'n':
		if string(trimmed) == "null" {
			return nil, nil, nil
		}
	}
	return nil, nil, fmt.Errorf("expected a JSON array or object, got %q", truncate(trimmed, 16))
}

// isFlat reports whether any entry carries a parent reference.
func isFlat(entries []json.RawMessage) bool {
	for _, raw := range entries {
		var probe struct {
			ParentID      json.RawMessage `json:"parent_id"`
			ParentIDCamel json.RawMessage `json:"parentId"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if isSet(probe.ParentID) || isSet(probe.ParentIDCamel) {
			return true
		}
	}
	return false
}

func isSet(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// forestFromEntries builds a forest from nested nodes or flat records.
func forestFromEntries(entries []json.RawMessage) (*model.Forest, error) {
	if isFlat(entries) {
		records := make([]model.Record, 0, len(entries))
		for i, raw := range entries {
			var rec model.Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			records = append(records, rec)
		}
		return model.BuildForest(records), nil
	}

	roots := make([]*model.TreeNode, 0, len(entries))
	for i, raw := range entries {
		var node model.TreeNode
		if err := json.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		roots = append(roots, &node)
	}
	// Merge drops repeated IDs inside nested input
	return model.Merge(model.NewForest(roots...)), nil
}

// DecodeJSON parses any supported JSON shape into a forest.
func DecodeJSON(data []byte) (*model.Forest, error) {
	entries, _, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	return forestFromEntries(entries)
}

// DecodeYAML parses any supported YAML shape into a forest.
func DecodeYAML(data []byte) (*model.Forest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if doc == nil {
		return &model.Forest{}, nil
	}
	// Re-encode so both formats share one decoder
	j, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting yaml: %w", err)
	}
	return DecodeJSON(j)
}

// LoadFile reads a forest from a local file, choosing the decoder by
// extension.
func LoadFile(path string) (*model.Forest, error) {
	src, err := datasource.Parse(path)
	if err != nil {
		return nil, err
	}
	if !src.IsFile() {
		return nil, fmt.Errorf("%s is not a file: %w", path, ErrUnsupportedFormat)
	}
	return loadSource(context.Background(), src)
}

// Load reads a forest from one source string (file, sqlite or URL).
func Load(ctx context.Context, source string) (*model.Forest, error) {
	src, err := datasource.Parse(source)
	if err != nil {
		return nil, err
	}
	return loadSource(ctx, src)
}

func loadSource(ctx context.Context, src datasource.DataSource) (*model.Forest, error) {
	defer metrics.Timer(metrics.ForestLoad)()
	start := time.Now()

	var (
		forest *model.Forest
		err    error
	)
	switch src.Type {
	case datasource.SourceTypeJSON, datasource.SourceTypeYAML:
		var data []byte
		data, err = os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.Path, err)
		}
		if src.Type == datasource.SourceTypeJSON {
			forest, err = DecodeJSON(data)
		} else {
			forest, err = DecodeYAML(data)
		}
	case datasource.SourceTypeSQLite:
		forest, err = loadSQLite(ctx, src)
	case datasource.SourceTypeHTTP:
		forest, err = Fetch(ctx, src.Path)
	default:
		return nil, fmt.Errorf("%s: %w", src, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	debug.Log("loader: %s (%s) nodes=%d roots=%d", src, src.Type, forest.Len(), len(forest.Roots))
	debug.LogTiming("loader: "+src.Name(), time.Since(start))
	return forest, nil
}

func loadSQLite(ctx context.Context, src datasource.DataSource) (*model.Forest, error) {
	if _, err := os.Stat(src.Path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	reader, err := datasource.NewSQLiteReader(src)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	rows, err := reader.CountRecords(ctx)
	if err != nil {
		return nil, err
	}
	records, err := reader.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	forest := model.BuildForest(records)
	debug.LogIf(forest.Len() < rows, "loader: %s dropped %d duplicate rows of %d",
		src.Name(), rows-forest.Len(), rows)
	return forest, nil
}

// LoadAll loads sources concurrently and concatenates their roots in
// source order. Any failure fails the whole load. IDs repeated across
// sources keep their first occurrence.
func LoadAll(ctx context.Context, sources []string) (*model.Forest, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	defer debug.LogEnterExit("loader.LoadAll")()

	forests := make([]*model.Forest, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallelLoads)

	for i, source := range sources {
		i, source := i, source // capture loop variables
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			forest, err := Load(ctx, source)
			if err != nil {
				return fmt.Errorf("loading %s: %w", source, err)
			}
			forests[i] = forest
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(forests) == 1 {
		return forests[0], nil
	}
	return model.Merge(forests...), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
