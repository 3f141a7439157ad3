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

package chem

import (
	"errors"
	"fmt"
)

// CError is the error type of the chem package. It implements Error and,
// when a file is involved, TrajError.
type CError struct {
	msg      string
	filename string
	deco     []string
	critical bool
	err      error //the wrapped error, if any
}

// Error returns a string with an error message, including the file name when there is one.
func (err CError) Error() string {
	if err.filename != "" {
		return fmt.Sprintf("%s: %s", err.filename, err.msg)
	}
	return err.msg
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// FileName returns the file associated with the error, or an empty string.
func (err CError) FileName() string { return err.filename }

// Format returns the format of the file associated with the error, guessed from its extension.
func (err CError) Format() string { return formatOf(err.filename) }

// Critical returns whether the error is critical or it can be ignored.
func (err CError) Critical() bool { return err.critical }

// Unwrap returns the underlying error, if any.
func (err CError) Unwrap() error { return err.err }

// FileError returns a critical CError about the file filename. If wrapped is not nil,
// its message is appended to msg, and it is returned by Unwrap.
func FileError(filename, msg string, wrapped error, deco ...string) CError {
	return newErr(filename, msg, wrapped, deco...)
}

func newErr(filename, msg string, wrapped error, deco ...string) CError {
	if wrapped != nil {
		msg = msg + ": " + wrapped.Error()
	}
	return CError{msg: msg, filename: filename, deco: deco, critical: true, err: wrapped}
}

// errDecorate adds caller to the decoration of err if err implements Error.
// Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		e.Decorate(caller)
	}
	return err
}

// IsLastFrame returns true if err signals the normal end of a trajectory.
func IsLastFrame(err error) bool {
	var lf LastFrameError
	return errors.As(err, &lf)
}

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use CError.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNilData          = PanicMsg("mdrms: Nil data given")
	ErrInconsistentData = PanicMsg("mdrms: Inconsistent data length")
	ErrNilFrames        = PanicMsg("mdrms: Nil frames in trajectory")
)
