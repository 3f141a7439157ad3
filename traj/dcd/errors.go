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

package dcd

import (
	"fmt"
	"io"

	chem "github.com/rmera/mdrms"
)

// Messages for the most common failures.
const (
	TrajUnIni           = "trajectory not initialized for reading or writing"
	ReadError           = "error reading frame"
	UnableToOpen        = "unable to open file"
	SecurityCheckFailed = "inconsistent block markers"
	WrongFormat         = "wrong format in DCD file or frame"
	NotEnoughSpace      = "not enough space in the given blocks"
	NilCoordinates      = "nil coordinates given"
)

// errDecorate adds caller to the call trace of err, if err is a chem.Error.
func errDecorate(err error, caller string) error {
	if e, ok := err.(chem.Error); ok {
		e.Decorate(caller)
		return e
	}
	return err
}

// Error is a failure reading or writing a DCD file. It implements chem.TrajError.
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

// wrapErr returns an Error for the underlying failure err.
func wrapErr(err error, filename string, deco ...string) *Error {
	return &Error{msg: err.Error(), filename: filename, deco: deco, critical: true, wrapped: err}
}

func (E *Error) Error() string {
	return fmt.Sprintf("dcd: %s: %s", E.filename, E.msg)
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

func (E *Error) Format() string { return "dcd" }

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

func (E *lastFrameError) Error() string { return "dcd: " + E.filename + ": EOF" }

func (E *lastFrameError) Unwrap() error { return io.EOF }

func (E *lastFrameError) FileName() string { return E.filename }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "dcd" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}
