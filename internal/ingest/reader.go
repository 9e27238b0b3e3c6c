package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "sales-dashboard/internal/errors"
)

const utf8BOM = "\ufeff"

// RawTable is a CSV source held as strings, with its header indexed by name.
type RawTable struct {
	Source Source
	Path   string
	index  map[string]int
	Rows   [][]string

	// Unreadable counts records the CSV reader rejected, such as rows whose
	// field count differs from the header. They are not in Rows.
	Unreadable int
}

// Value returns the trimmed cell for col, or "" when the row is too short.
func (t *RawTable) Value(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// RawSources holds the six tables before normalization.
type RawSources map[Source]*RawTable

// ReadTable reads one source from dir and checks its header against the
// schema. A missing file or column is a configuration error.
func ReadTable(dir string, src Source) (*RawTable, error) {
	schema, ok := schemas[src]
	if !ok {
		return nil, apperrors.Configuration(fmt.Sprintf("unknown source %q", src))
	}

	path := filepath.Join(dir, schema.file)
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.ConfigurationWrap(err, fmt.Sprintf("source %s: cannot open %s", src, path))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.Configuration(fmt.Sprintf("source %s: %s is empty", src, path))
	}
	if err != nil {
		return nil, apperrors.ConfigurationWrap(err, fmt.Sprintf("source %s: read header", src))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		index[strings.TrimSpace(name)] = i
	}

	for _, col := range schema.required {
		if _, ok := index[col]; !ok {
			return nil, apperrors.Configuration(fmt.Sprintf("source %s: missing required column %q in %s", src, col, path))
		}
	}

	table := &RawTable{Source: src, Path: path, index: index}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			table.Unreadable++
			continue
		}
		if err != nil {
			return nil, apperrors.ConfigurationWrap(err, fmt.Sprintf("source %s: read rows", src))
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// ReadSources reads all six sources from dir concurrently. The first error
// cancels the remaining reads.
func ReadSources(ctx context.Context, dir string) (RawSources, error) {
	tables := make([]*RawTable, len(Sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range Sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := ReadTable(dir, src)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := make(RawSources, len(tables))
	for _, table := range tables {
		raw[table.Source] = table
	}
	return raw, nil
}

// SourcesModTime returns the newest modification time across the six source
// files. It fails when any file is missing.
func SourcesModTime(dir string) (time.Time, error) {
	var newest time.Time
	for _, src := range Sources {
		path := filepath.Join(dir, schemas[src].file)
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, apperrors.ConfigurationWrap(err, fmt.Sprintf("source %s: cannot stat %s", src, path))
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest, nil
}
