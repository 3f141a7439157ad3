/*
 * table.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

// Package table implements the small CSV tables where results are stored.
// Missing numerical values are written as empty cells, and read back as NaN.
package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Table is a set of rows with named columns. All cells are kept as text.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Col returns the index of the column named name, or -1.
func (t *Table) Col(name string) int {
	for i, v := range t.Columns {
		if v == name {
			return i
		}
	}
	return -1
}

// Format returns the text used to store v. Floats are written with the shortest
// representation that reads back exactly, and NaN as an empty cell.
func Format(v interface{}) string {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return Format(float64(x))
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Append adds a row with the given values, one per column.
func (t *Table) Append(vals ...interface{}) error {
	if len(vals) != len(t.Columns) {
		return fmt.Errorf("table: %d values for %d columns", len(vals), len(t.Columns))
	}
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = Format(v)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Get returns the cell at row i, column name.
func (t *Table) Get(i int, name string) (string, error) {
	c := t.Col(name)
	if c < 0 {
		return "", fmt.Errorf("table: no column %q", name)
	}
	if i < 0 || i >= len(t.Rows) {
		return "", fmt.Errorf("table: row %d out of range", i)
	}
	return t.Rows[i][c], nil
}

// Float returns the cell at row i, column name, as a number. Empty cells give NaN.
func (t *Table) Float(i int, name string) (float64, error) {
	s, err := t.Get(i, name)
	if err != nil {
		return 0, err
	}
	return parseFloat(s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("table: %w", err)
	}
	return f, nil
}

// Floats returns the column name as numbers. Empty cells give NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	c := t.Col(name)
	if c < 0 {
		return nil, fmt.Errorf("table: no column %q", name)
	}
	ret := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		f, err := parseFloat(r[c])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		ret[i] = f
	}
	return ret, nil
}

// Strings returns a copy of the column name.
func (t *Table) Strings(name string) ([]string, error) {
	c := t.Col(name)
	if c < 0 {
		return nil, fmt.Errorf("table: no column %q", name)
	}
	ret := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		ret[i] = r[c]
	}
	return ret, nil
}

// Write writes the table as CSV, with a header line.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Read reads a CSV table with a header line.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("table: no header")
	}
	return &Table{Columns: recs[0], Rows: recs[1:]}, nil
}

// ReadFile reads the table in name. Names ending in .zst are decompressed.
func ReadFile(name string) (*Table, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(name, ".zst") {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("table: %s: %w", name, err)
		}
		defer zr.Close()
		r = zr
	}
	t, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// WriteFile writes the table to name, compressing it if the name ends in .zst.
// The table is first written to a temporary file in the same directory, which is
// then renamed, so name is never left with a partial table.
func (t *Table) WriteFile(name string) (err error) {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	w := bufio.NewWriter(f)
	if strings.HasSuffix(name, ".zst") {
		zw, zerr := zstd.NewWriter(w)
		if zerr != nil {
			return zerr
		}
		if err = t.Write(zw); err != nil {
			zw.Close()
			return err
		}
		if err = zw.Close(); err != nil {
			return err
		}
	} else if err = t.Write(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), name)
}
