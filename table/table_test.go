/*
 * table_test.go, part of mdrms
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

package table

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendFormat(Te *testing.T) {
	t := New("resid", "chain", "rmsf")
	if err := t.Append(12, "A", 0.125); err != nil {
		Te.Fatal(err)
	}
	if err := t.Append(13, "B", math.NaN()); err != nil {
		Te.Fatal(err)
	}
	if err := t.Append(1, 2); err == nil {
		Te.Error("A row with the wrong number of values should fail")
	}
	var b bytes.Buffer
	if err := t.Write(&b); err != nil {
		Te.Fatal(err)
	}
	if b.String() != "resid,chain,rmsf\n12,A,0.125\n13,B,\n" {
		Te.Errorf("Unexpected CSV:\n%s", b.String())
	}
	r, err := Read(&b)
	if err != nil {
		Te.Fatal(err)
	}
	f, err := r.Floats("rmsf")
	if err != nil {
		Te.Fatal(err)
	}
	if f[0] != 0.125 || !math.IsNaN(f[1]) {
		Te.Errorf("Wrong values read: %v", f)
	}
	if v, err := r.Float(0, "resid"); err != nil || v != 12 {
		Te.Errorf("Float gave %f, %v", v, err)
	}
	if s, _ := r.Strings("chain"); strings.Join(s, "") != "AB" {
		Te.Errorf("Wrong chains %v", s)
	}
	if _, err := r.Floats("rmsd"); err == nil {
		Te.Error("Missing columns should fail")
	}
	if _, err := r.Floats("chain"); err == nil {
		Te.Error("Non numeric columns should fail")
	}
}

func TestFiles(Te *testing.T) {
	dir := Te.TempDir()
	t := New("time", "rmsd")
	for i := 0; i < 50; i++ {
		t.Append(float64(i)*0.1, math.Sqrt(float64(i)))
	}
	for _, name := range []string{"a.csv", "a.csv.zst"} {
		name = filepath.Join(dir, name)
		if err := t.WriteFile(name); err != nil {
			Te.Fatal(err)
		}
		r, err := ReadFile(name)
		if err != nil {
			Te.Fatal(err)
		}
		if r.Len() != 50 || r.Rows[49][1] != t.Rows[49][1] {
			Te.Errorf("%s: read %d rows, last %v", name, r.Len(), r.Rows[r.Len()-1])
		}
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		Te.Fatal(err)
	}
	if len(ents) != 2 {
		Te.Errorf("Temporary files left behind: %v", ents)
	}
	if _, err := ReadFile(filepath.Join(dir, "nothere.csv")); err == nil {
		Te.Error("Reading a missing file should fail")
	}
	if err := t.WriteFile(filepath.Join(dir, "nodir", "a.csv")); err == nil {
		Te.Error("Writing in a missing directory should fail")
	}
}
