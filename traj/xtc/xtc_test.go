//go:build cgo && xdrfile

/*
 * xtc_test.go, part of mdrms
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

package xtc

import (
	"errors"
	"io"
	"io/fs"
	"math"
	"path/filepath"
	"testing"

	v3 "github.com/rmera/mdrms/v3"
)

func TestXTCRoundTrip(Te *testing.T) {
	fname := filepath.Join(Te.TempDir(), "test.xtc")
	w, err := NewWriter(fname, 4)
	if err != nil {
		Te.Fatal(err)
	}
	c := v3.Zeros(4)
	box := []float64{30, 0, 0, 0, 40, 0, 0, 0, 50}
	for f := 0; f < 3; f++ {
		for i := 0; i < 4; i++ {
			c.Set(i, 0, float64(f)+0.5)
			c.Set(i, 1, float64(i))
			c.Set(i, 2, -1.25*float64(i))
		}
		if err := w.WNext(c, box); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.WNext(v3.Zeros(3)); err == nil {
		Te.Error("A frame with the wrong number of atoms should fail")
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	r, err := New(fname)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if r.Len() != 4 {
		Te.Fatalf("Expected 4 atoms, got %d", r.Len())
	}
	read := v3.Zeros(4)
	rbox := make([]float64, 9)
	for f := 0; f < 3; f++ {
		if err := r.Next(read, rbox); err != nil {
			Te.Fatal(err)
		}
		for i := 0; i < 4; i++ {
			want := []float64{float64(f) + 0.5, float64(i), -1.25 * float64(i)}
			for k, v := range want {
				if math.Abs(read.At(i, k)-v) > 0.02 {
					Te.Errorf("frame %d atom %d: got %v, want %v", f, i, read.At(i, k), v)
				}
			}
		}
		for i, v := range box {
			if math.Abs(rbox[i]-v) > 0.02 {
				Te.Errorf("frame %d: wrong box %v", f, rbox)
				break
			}
		}
	}
	err = r.Next(nil)
	if !errors.Is(err, io.EOF) {
		Te.Errorf("Expected the end of the trajectory, got %v", err)
	}
	if r.Readable() {
		Te.Error("The trajectory should not be readable after the last frame")
	}
}

func TestXTCMissing(Te *testing.T) {
	_, err := New(filepath.Join(Te.TempDir(), "none.xtc"))
	if !errors.Is(err, fs.ErrNotExist) {
		Te.Errorf("Expected a missing file error, got %v", err)
	}
}
