//go:build !cgo || !xdrfile

/*
 * nolib.go, part of mdrms
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
	chem "github.com/rmera/mdrms"
	v3 "github.com/rmera/mdrms/v3"
)

// XTCObj would be a GROMACS XTC file opened for reading. This build can't read them.
type XTCObj struct{}

// New always fails with an error wrapping ErrNotBuilt.
func New(filename string) (*XTCObj, error) {
	return nil, chem.FileError(filename, "cannot read XTC file", ErrNotBuilt, "New")
}

func (X *XTCObj) Readable() bool { return false }

func (X *XTCObj) Len() int { return 0 }

func (X *XTCObj) Next(output *v3.Matrix, box ...[]float64) error {
	return newErr(TrajUnIni, "", "Next")
}

func (X *XTCObj) Close() {}

// XTCWObj would be a GROMACS XTC file opened for writing. This build can't write them.
type XTCWObj struct{}

// NewWriter always fails with an error wrapping ErrNotBuilt.
func NewWriter(filename string, natoms int) (*XTCWObj, error) {
	return nil, chem.FileError(filename, "cannot write XTC file", ErrNotBuilt, "NewWriter")
}

func (X *XTCWObj) Len() int { return 0 }

func (X *XTCWObj) WNext(coords *v3.Matrix, box ...[]float64) error {
	return newErr(TrajUnIni, "", "WNext")
}

func (X *XTCWObj) Close() error { return nil }
