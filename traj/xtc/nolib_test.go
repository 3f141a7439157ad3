//go:build !cgo || !xdrfile

/*
 * nolib_test.go, part of mdrms
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
	"path/filepath"
	"testing"

	chem "github.com/rmera/mdrms"
)

func TestNotBuilt(Te *testing.T) {
	fname := filepath.Join(Te.TempDir(), "output.xtc")
	_, err := New(fname)
	if !errors.Is(err, ErrNotBuilt) {
		Te.Errorf("Expected ErrNotBuilt, got %v", err)
	}
	var terr chem.TrajError
	if !errors.As(err, &terr) || terr.FileName() != fname || terr.Format() != "xtc" {
		Te.Errorf("The error should name the XTC file: %v", err)
	}
	if _, err := NewWriter(fname, 3); !errors.Is(err, ErrNotBuilt) {
		Te.Errorf("Expected ErrNotBuilt writing, got %v", err)
	}
}
