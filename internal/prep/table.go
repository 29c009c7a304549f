// Package prep loads raw tracking exports, validates their schema, faces
// every play the same direction and converts frames into predictor batches.
package prep

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Table is a CSV file held as strings with a header index.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a table and its header index.
func NewTable(cols []string, rows [][]string) *Table {
	t := &Table{Columns: cols, Rows: rows, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	return t
}

// Has reports whether the column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Get returns the cell of row i in col, or "" when the column is missing.
func (t *Table) Get(i int, col string) string {
	c, ok := t.index[col]
	if !ok || c >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][c]
}

// Missing returns the required columns absent from the table, sorted.
func (t *Table) Missing(required []string) []string {
	var out []string
	for _, c := range required {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// ReadCSV reads a headed CSV stream.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return NewTable(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Excel exports prefix the first header with a byte order mark.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return NewTable(header, rows), nil
}

// ReadCSVFile reads a headed CSV file.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
