/*
 * errors.go, part of mdrms
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

// Package xtc reads and writes GROMACS XTC trajectories through the xdrfile library.
//
// The library is only used when building with cgo and the xdrfile tag:
//
//	go build -tags xdrfile ./...
//
// (CGO_CFLAGS and CGO_LDFLAGS may be needed if the library is not installed
// in a standard place). Otherwise New and NewWriter fail with ErrNotBuilt, and
// the rest of the module stays pure Go.
package xtc

import (
	"errors"
	"fmt"
	"io"

	chem "github.com/rmera/mdrms"
)

// ErrNotBuilt is returned, wrapped, by New and NewWriter when XTC support was not compiled in.
var ErrNotBuilt = errors.New("XTC support not built; rebuild with cgo enabled and -tags xdrfile")

// Messages for the most common failures.
const (
	TrajUnIni      = "trajectory not initialized for reading or writing"
	ReadError      = "error reading frame"
	WriteError     = "error writing frame"
	UnableToOpen   = "unable to open file"
	NotEnoughSpace = "not enough space in the given matrix"
	NilCoordinates = "nil coordinates given"
	WrongAtoms     = "wrong number of atoms in frame"
)

// Coordinates are stored in nm in XTC files, and used in A everywhere else.
const nm2A = 10

// precision of the written coordinates, in 1/nm.
const precision = 1000

// Error is a failure reading or writing an XTC file. It implements chem.TrajError.
type Error struct {
	msg      string
	filename string
	deco     []string
	critical bool
	wrapped  error
}

func newErr(msg, filename string, deco ...string) *Error {
	return &Error{msg: msg, filename: filename, deco: deco, critical: true}
}

func (E *Error) Error() string {
	if E.wrapped != nil {
		return fmt.Sprintf("xtc: %s: %s: %v", E.filename, E.msg, E.wrapped)
	}
	return fmt.Sprintf("xtc: %s: %s", E.filename, E.msg)
}

func (E *Error) Unwrap() error { return E.wrapped }

// Decorate appends deco, if not empty, to the call trace of the error, and returns the trace.
func (E *Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func (E *Error) FileName() string { return E.filename }

func (E *Error) Format() string { return "xtc" }

func (E *Error) Critical() bool { return E.critical }

// lastFrameError signals the normal end of the trajectory. It matches io.EOF with errors.Is.
type lastFrameError struct {
	deco     []string
	filename string
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{filename: filename, deco: []string{caller}}
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) Error() string { return "xtc: " + E.filename + ": EOF" }

func (E *lastFrameError) Unwrap() error { return io.EOF }

func (E *lastFrameError) FileName() string { return E.filename }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "xtc" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

var (
	_ chem.TrajError      = (*Error)(nil)
	_ chem.LastFrameError = (*lastFrameError)(nil)
)
