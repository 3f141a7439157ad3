/*
 * stf_test.go, part of mdrms
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

package stf

import (
	"errors"
	"io/fs"
	"math"
	"path/filepath"
	"testing"

	chem "github.com/rmera/mdrms"
	v3 "github.com/rmera/mdrms/v3"
)

func TestSTFRoundTrip(Te *testing.T) {
	for _, name := range []string{"test.stf", "test.stz", "test.stl", "test.str"} {
		fname := filepath.Join(Te.TempDir(), name)
		w, err := NewWriter(fname, 3, map[string]string{"source": "test"})
		if err != nil {
			Te.Fatal(err)
		}
		c := v3.Zeros(3)
		box := []float64{50, 0, 0, 0, 50, 0, 0, 0, 50}
		for f := 0; f < 5; f++ {
			for i := 0; i < 3; i++ {
				c.Set(i, 0, float64(f)+0.123)
				c.Set(i, 1, -float64(i)*1.5)
				c.Set(i, 2, 2.0)
			}
			if err := w.WNext(c, box); err != nil {
				Te.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			Te.Fatal(err)
		}
		r, header, err := New(fname)
		if err != nil {
			Te.Fatal(err)
		}
		if header["source"] != "test" || header["prec"] != "2" {
			Te.Errorf("%s: wrong header %v", name, header)
		}
		rbox := make([]float64, 9)
		read := 0
		for ; ; read++ {
			err := r.Next(c, rbox)
			if err != nil {
				if _, ok := err.(chem.LastFrameError); ok {
					break
				}
				Te.Fatal(err)
			}
		}
		if read != 5 {
			Te.Errorf("%s: read %d frames, expected 5", name, read)
		}
		if math.Abs(c.At(2, 0)-4.12) > 1e-9 || math.Abs(c.At(2, 1)+3) > 1e-9 {
			Te.Errorf("%s: wrong coordinates read: %v", name, c)
		}
		if rbox[4] != 50 {
			Te.Errorf("%s: wrong box read: %v", name, rbox)
		}
	}
}

func TestSTFPrecision(Te *testing.T) {
	fname := filepath.Join(Te.TempDir(), "prec.stf")
	w, err := NewWriter(fname, 1, map[string]string{"prec": "4"})
	if err != nil {
		Te.Fatal(err)
	}
	c, _ := v3.NewMatrix([]float64{1.23456, 0, 0})
	w.WNext(c)
	w.Close()
	r, _, err := New(fname)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if err := r.Next(c); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(c.At(0, 0)-1.2346) > 1e-9 {
		Te.Errorf("Precision 4 not honored: %f", c.At(0, 0))
	}
}

func TestSTFWrongAtoms(Te *testing.T) {
	fname := filepath.Join(Te.TempDir(), "wrong.stf")
	w, err := NewWriter(fname, 2, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.WNext(v3.Zeros(3)); err == nil {
		Te.Error("Writing a frame with the wrong number of atoms should fail")
	}
	w.Close()
	_, _, err = New(filepath.Join(Te.TempDir(), "missing.stf"))
	if !errors.Is(err, fs.ErrNotExist) {
		Te.Errorf("Opening a missing file should fail with fs.ErrNotExist, got %v", err)
	}
}
