// Package results persists annual cost tables: one CSV per county and
// commodity, indexed by scenario row.
package results

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// IndexColumn is the header of the row key column.
const IndexColumn = "scenario"

// Table is a scenario-indexed grid of string cells. Rows and columns keep
// first-seen order.
type Table struct {
	rows    []string
	columns []string
	cells   map[string]map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{cells: make(map[string]map[string]string)}
}

// Set stores value at (row, column), adding the row or column if new.
func (t *Table) Set(row, column, value string) {
	if _, ok := t.cells[row]; !ok {
		t.rows = append(t.rows, row)
		t.cells[row] = make(map[string]string)
	}
	if !t.hasColumn(column) {
		t.columns = append(t.columns, column)
	}
	t.cells[row][column] = value
}

// SetUSD stores a dollar amount rounded to cents.
func (t *Table) SetUSD(row, column string, v decimal.Decimal) {
	t.Set(row, column, FormatUSD(v))
}

// Get returns the cell at (row, column).
func (t *Table) Get(row, column string) (string, bool) {
	v, ok := t.cells[row][column]
	return v, ok
}

// Rows returns the row keys in order.
func (t *Table) Rows() []string { return append([]string(nil), t.rows...) }

// Columns returns the column keys in order, excluding the index column.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

func (t *Table) hasColumn(column string) bool {
	for _, c := range t.columns {
		if c == column {
			return true
		}
	}
	return false
}

// Merge copies every cell of other into t. Cells absent from other are left
// untouched.
func (t *Table) Merge(other *Table) {
	for _, row := range other.rows {
		for _, col := range other.columns {
			if v, ok := other.cells[row][col]; ok {
				t.Set(row, col, v)
			}
		}
	}
}

// FormatUSD renders v with two decimal places.
func FormatUSD(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// ParseTable decodes a CSV whose first column is the row key.
func ParseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "results: read table")
	}

	t := NewTable()
	if len(records) == 0 {
		return t, nil
	}
	header := records[0]
	if len(header) == 0 {
		return nil, eris.New("results: empty header")
	}
	t.columns = append(t.columns, header[1:]...)

	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		row := rec[0]
		if _, ok := t.cells[row]; !ok {
			t.rows = append(t.rows, row)
			t.cells[row] = make(map[string]string)
		}
		for i, col := range header[1:] {
			if i+1 < len(rec) && rec[i+1] != "" {
				t.cells[row][col] = rec[i+1]
			}
		}
	}
	return t, nil
}

// Write encodes t as CSV. Missing cells are written empty.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{IndexColumn}, t.columns...)); err != nil {
		return eris.Wrap(err, "results: write header")
	}
	for _, row := range t.rows {
		rec := make([]string, 0, len(t.columns)+1)
		rec = append(rec, row)
		for _, col := range t.columns {
			rec = append(rec, t.cells[row][col])
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "results: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "results: flush")
}

// ReadFile loads the table at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "results: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ParseTable(f)
}

// WriteFile writes t to path through a temporary file and rename, so readers
// never observe a partial table.
func WriteFile(path string, t *Table) error {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "results: create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".results-*.csv")
	if err != nil {
		return eris.Wrap(err, "results: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "results: write temp file")
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "results: chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "results: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "results: rename to %s", path)
	}
	return nil
}

// MergeInto merges t into the table stored at path, creating the file when
// it does not exist, and returns the merged table. Merging the same table
// twice leaves the file byte-for-byte unchanged.
func MergeInto(path string, t *Table) (*Table, error) {
	merged := NewTable()
	if _, err := os.Stat(path); err == nil {
		if merged, err = ReadFile(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(err, "results: stat %s", path)
	}

	merged.Merge(t)
	if err := WriteFile(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}
